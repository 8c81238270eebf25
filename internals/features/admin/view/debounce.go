package view

import (
	"sync"
	"time"
)

// SearchDelay is how long search input must stay quiet before it is applied.
const SearchDelay = 300 * time.Millisecond

// Debouncer runs fn with the last value once no new value arrived for Delay.
type Debouncer struct {
	Delay time.Duration

	mu    sync.Mutex
	fn    func(string)
	timer *time.Timer
	gen   uint64
	last  string
}

func NewDebouncer(delay time.Duration, fn func(string)) *Debouncer {
	if delay <= 0 {
		delay = SearchDelay
	}
	return &Debouncer{Delay: delay, fn: fn}
}

// Push replaces any pending value and restarts the delay.
func (d *Debouncer) Push(v string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	gen := d.gen
	d.last = v
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.Delay, func() {
		d.mu.Lock()
		stale := gen != d.gen
		d.mu.Unlock()
		if !stale {
			d.fn(v)
		}
	})
}

// Flush runs the pending value now. It reports false when nothing was pending.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.timer == nil || !d.timer.Stop() {
		d.mu.Unlock()
		return false
	}
	d.timer = nil
	d.gen++
	v := d.last
	d.mu.Unlock()
	d.fn(v)
	return true
}

// Stop drops the pending value.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
