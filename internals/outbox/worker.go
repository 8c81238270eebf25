package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"techfest_backend/internals/logging"
)

// Handler replays one entry. Returning nil acknowledges it.
type Handler func(ctx context.Context, e Entry) error

type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Permanent marks an error that retrying cannot fix; the entry is dead-lettered at once.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

type Stats struct {
	Processed int
	Retried   int
	Dead      int
}

type Worker struct {
	queue       Queue
	handlers    map[string]Handler
	maxAttempts int
	runTimeout  time.Duration
	cron        *cron.Cron
}

func NewWorker(q Queue, maxAttempts int) *Worker {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &Worker{
		queue:       q,
		handlers:    map[string]Handler{},
		maxAttempts: maxAttempts,
		runTimeout:  50 * time.Second,
	}
}

func (w *Worker) Handle(kind string, h Handler) {
	w.handlers[kind] = h
}

// RunOnce drains at most the entries present when it starts, so re-queued
// failures wait for the next tick.
func (w *Worker) RunOnce(ctx context.Context) (Stats, error) {
	var st Stats
	n, err := w.queue.Len(ctx)
	if err != nil {
		return st, fmt.Errorf("outbox len: %w", err)
	}

	for i := int64(0); i < n; i++ {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		e, err := w.queue.Pop(ctx)
		if err != nil {
			logging.Logger.Warn().Err(err).Msg("outbox pop")
			continue
		}
		if e == nil {
			break
		}
		w.process(ctx, *e, &st)
	}
	return st, nil
}

func (w *Worker) process(ctx context.Context, e Entry, st *Stats) {
	log := logging.Logger.With().Str("outbox_id", e.ID).Str("kind", e.Kind).Int("attempts", e.Attempts).Logger()

	h, ok := w.handlers[e.Kind]
	if !ok {
		e.LastError = "no handler for kind"
		if err := w.queue.DeadLetter(ctx, e); err != nil {
			log.Error().Err(err).Msg("outbox dead-letter failed")
		}
		st.Dead++
		log.Error().Msg("outbox entry has no handler, dead-lettered")
		return
	}

	err := h(ctx, e)
	if err == nil {
		st.Processed++
		log.Info().Msg("outbox entry replayed")
		return
	}

	e.Attempts++
	e.LastError = err.Error()
	var perm permanentError
	if errors.As(err, &perm) || e.Attempts >= w.maxAttempts {
		if derr := w.queue.DeadLetter(ctx, e); derr != nil {
			log.Error().Err(derr).Msg("outbox dead-letter failed")
		}
		st.Dead++
		log.Error().Err(err).Msg("outbox entry dead-lettered")
		return
	}
	if perr := w.queue.Push(ctx, e); perr != nil {
		log.Error().Err(perr).Str("payload", string(e.Payload)).Msg("outbox re-queue failed, entry lost")
		return
	}
	st.Retried++
	log.Warn().Err(err).Msg("outbox entry re-queued")
}

// Start runs RunOnce on a cron schedule (robfig cron syntax, e.g. "@every 1m").
func (w *Worker) Start(schedule string) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), w.runTimeout)
		defer cancel()
		st, err := w.RunOnce(ctx)
		if err != nil {
			logging.Logger.Warn().Err(err).Msg("outbox run")
			return
		}
		if st.Processed+st.Retried+st.Dead > 0 {
			logging.Logger.Info().
				Int("processed", st.Processed).
				Int("retried", st.Retried).
				Int("dead", st.Dead).
				Msg("outbox run finished")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule outbox worker: %w", err)
	}
	w.cron = c
	c.Start()
	logging.Logger.Info().Str("schedule", schedule).Int("max_attempts", w.maxAttempts).Msg("outbox worker started")
	return nil
}

// Stop waits for a running pass to finish.
func (w *Worker) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
}
