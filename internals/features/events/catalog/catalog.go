// Package catalog holds the event price table. It is loaded once at boot
// from EVENT_CATALOG_FILE, with the embedded default as fallback.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"techfest_backend/internals/features/events/model"
	helper "techfest_backend/internals/helpers"
)

//go:embed default_events.yaml
var defaultEvents []byte

var (
	ErrUnknownEvent   = errors.New("unknown event")
	ErrSelectionSize  = errors.New("select between 1 and 3 events")
	ErrDuplicateEvent = errors.New("event selected more than once")
)

const (
	MinSelection = 1
	MaxSelection = 3
)

type Item struct {
	Slug            string     `yaml:"slug"`
	Name            string     `yaml:"name"`
	Description     string     `yaml:"description"`
	Location        string     `yaml:"location"`
	Date            *time.Time `yaml:"date"`
	MaxParticipants int        `yaml:"max_participants"`
	PriceRaw        string     `yaml:"price"`
	SpotPriceRaw    string     `yaml:"spot_price"`
	TeamSize        int        `yaml:"team_size"`

	Price     decimal.Decimal `yaml:"-"`
	SpotPrice decimal.Decimal `yaml:"-"`
}

type Catalog struct {
	Currency string `yaml:"currency"`
	Events   []Item `yaml:"events"`

	bySlug map[string]int
}

// Load reads path; an empty path or a missing file falls back to the embedded table.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default()
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

func Default() (*Catalog, error) {
	return Parse(defaultEvents)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if c.Currency == "" {
		c.Currency = "INR"
	}
	c.bySlug = make(map[string]int, len(c.Events))
	for i := range c.Events {
		it := &c.Events[i]
		it.Name = strings.TrimSpace(it.Name)
		if it.Name == "" {
			return nil, fmt.Errorf("catalog entry %d: name is required", i)
		}
		// a missing slug is derived from the name
		src := it.Slug
		if strings.TrimSpace(src) == "" {
			src = it.Name
		}
		it.Slug = helper.Slugify(src, 100)
		if _, dup := c.bySlug[it.Slug]; dup {
			return nil, fmt.Errorf("catalog: duplicate slug %q", it.Slug)
		}
		p, err := decimal.NewFromString(it.PriceRaw)
		if err != nil || !p.IsPositive() {
			return nil, fmt.Errorf("catalog %s: invalid price %q", it.Slug, it.PriceRaw)
		}
		it.Price = p
		it.SpotPrice = p
		if it.SpotPriceRaw != "" {
			sp, err := decimal.NewFromString(it.SpotPriceRaw)
			if err != nil || !sp.IsPositive() {
				return nil, fmt.Errorf("catalog %s: invalid spot_price %q", it.Slug, it.SpotPriceRaw)
			}
			it.SpotPrice = sp
		}
		if it.TeamSize < 1 {
			it.TeamSize = 1
		}
		c.bySlug[it.Slug] = i
	}
	return &c, nil
}

func (c *Catalog) Get(slug string) (Item, bool) {
	i, ok := c.bySlug[strings.ToLower(strings.TrimSpace(slug))]
	if !ok {
		return Item{}, false
	}
	return c.Events[i], true
}

func (c *Catalog) Price(slug string) (decimal.Decimal, error) {
	it, ok := c.Get(slug)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownEvent, slug)
	}
	return it.Price, nil
}

func (c *Catalog) SpotPrice(slug string) (decimal.Decimal, error) {
	it, ok := c.Get(slug)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownEvent, slug)
	}
	return it.SpotPrice, nil
}

// Total sums the configured prices of 1..3 distinct events.
func (c *Catalog) Total(slugs []string) (decimal.Decimal, error) {
	if len(slugs) < MinSelection || len(slugs) > MaxSelection {
		return decimal.Zero, ErrSelectionSize
	}
	seen := make(map[string]struct{}, len(slugs))
	total := decimal.Zero
	for _, s := range slugs {
		key := strings.ToLower(strings.TrimSpace(s))
		if _, dup := seen[key]; dup {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrDuplicateEvent, key)
		}
		seen[key] = struct{}{}
		p, err := c.Price(key)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(p)
	}
	return total, nil
}

// Names joins display names with ", " for order notes and tickets.
func (c *Catalog) Names(slugs []string) string {
	names := make([]string, 0, len(slugs))
	for _, s := range slugs {
		if it, ok := c.Get(s); ok {
			names = append(names, it.Name)
		} else {
			names = append(names, s)
		}
	}
	return strings.Join(names, ", ")
}

// Models converts the table into rows for seeding the events table.
func (c *Catalog) Models() []model.EventModel {
	out := make([]model.EventModel, 0, len(c.Events))
	for _, it := range c.Events {
		m := model.EventModel{
			EventSlug: it.Slug,
			EventName: it.Name,
			EventDate: it.Date,
		}
		if it.Description != "" {
			d := it.Description
			m.EventDescription = &d
		}
		if it.Location != "" {
			l := it.Location
			m.EventLocation = &l
		}
		if it.MaxParticipants > 0 {
			n := it.MaxParticipants
			m.EventMaxParticipants = &n
		}
		out = append(out, m)
	}
	return out
}
