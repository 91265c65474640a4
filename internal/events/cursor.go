// Package events turns "find the next occurrence" search primitives into
// bounded, strictly increasing enumerations of recurring events.
package events

import (
	"errors"
	"log/slog"

	"github.com/star/starephem/internal/astrotime"
	"github.com/star/starephem/internal/engine"
	"github.com/star/starephem/internal/ephemerr"
	"github.com/star/starephem/internal/metrics"
)

// DefaultMaxEvents caps a single enumeration.
const DefaultMaxEvents = 5000

// Family describes one kind of recurring event.
type Family[E any] struct {
	// Name labels logs, metrics and errors.
	Name string

	// Search returns the first event at or after start.
	Search func(start astrotime.Time) (E, error)

	// Time extracts the time an event is ordered by.
	Time func(E) astrotime.Time

	// LowerBound is where the search after an event resumes. It skips past
	// the event far enough that Search cannot find it again. Nil resumes at
	// the event time itself.
	LowerBound func(E) astrotime.Time

	// Kind and Cycle describe a fixed repeating sub-kind sequence
	// 0, 1, …, Cycle−1. Cycle 0 means the family has none.
	Kind  func(E) int
	Cycle int
}

type cursorConfig struct {
	maxEvents int
	logger    *slog.Logger
}

// CursorOption configures a Cursor.
type CursorOption func(*cursorConfig)

// WithMaxEvents sets the enumeration cap.
func WithMaxEvents(n int) CursorOption {
	return func(c *cursorConfig) { c.maxEvents = n }
}

// WithLogger sets the cursor's logger.
func WithLogger(l *slog.Logger) CursorOption {
	return func(c *cursorConfig) { c.logger = l }
}

// Cursor walks the events of one family.
type Cursor[E any] struct {
	family Family[E]
	cfg    cursorConfig
}

// NewCursor returns a cursor over f.
func NewCursor[E any](f Family[E], opts ...CursorOption) *Cursor[E] {
	cfg := cursorConfig{maxEvents: DefaultMaxEvents, logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Cursor[E]{family: f, cfg: cfg}
}

// Family returns the cursor's family.
func (c *Cursor[E]) Family() Family[E] { return c.family }

// Next returns the first event at or after t.
func (c *Cursor[E]) Next(t astrotime.Time) (E, error) {
	ev, err := c.family.Search(t)
	metrics.RecordSearch(c.family.Name, err)
	if err != nil {
		var zero E
		if errors.Is(err, engine.ErrNotFound) {
			return zero, ephemerr.New(ephemerr.SearchNotFound, c.op("next"), err)
		}
		return zero, ephemerr.New(ephemerr.SearchFailure, c.op("next"), err)
	}
	return ev, nil
}

// NextAfter returns the event following prev. The result must be strictly
// later than prev; a search that does not move forward is a SearchFailure.
func (c *Cursor[E]) NextAfter(prev E) (E, error) {
	prevTime := c.family.Time(prev)
	start := prevTime
	if c.family.LowerBound != nil {
		start = c.family.LowerBound(prev)
	}
	ev, err := c.Next(start)
	if err != nil {
		return ev, err
	}
	if t := c.family.Time(ev); !t.After(prevTime) {
		var zero E
		return zero, ephemerr.Newf(ephemerr.SearchFailure, c.op("next_after"),
			"search returned %s, not after previous event at %s", t, prevTime)
	}
	return ev, nil
}

// Enumerate returns every event with time in [from, to), in order. Any
// failure discards the events found so far.
func (c *Cursor[E]) Enumerate(from, to astrotime.Time) ([]E, error) {
	events := []E{}
	current, err := c.Next(from)
	if err != nil {
		return nil, err
	}
	if t := c.family.Time(current); t.Before(from) {
		return nil, ephemerr.Newf(ephemerr.SearchFailure, c.op("enumerate"),
			"search from %s returned earlier event at %s", from, t)
	}

	for c.family.Time(current).Before(to) {
		if len(events) >= c.cfg.maxEvents {
			return nil, ephemerr.Newf(ephemerr.SearchFailure, c.op("enumerate"),
				"more than %d events between %s and %s", c.cfg.maxEvents, from, to)
		}
		events = append(events, current)
		if current, err = c.NextAfter(current); err != nil {
			return nil, err
		}
	}

	metrics.RecordEnumeration(c.family.Name, len(events))
	c.cfg.logger.Debug("events enumerated",
		"family", c.family.Name,
		"from", from.String(),
		"to", to.String(),
		"count", len(events),
	)
	return events, nil
}

// CheckSequence verifies that events follow the family's sub-kind cycle,
// for callers that want the extra assertion.
func (c *Cursor[E]) CheckSequence(events []E) error {
	f := c.family
	if f.Cycle == 0 || f.Kind == nil {
		return nil
	}
	for i := 1; i < len(events); i++ {
		prev, cur := f.Kind(events[i-1]), f.Kind(events[i])
		if cur != (prev+1)%f.Cycle {
			return ephemerr.Newf(ephemerr.SearchFailure, c.op("check_sequence"),
				"event %d at %s has kind %d after kind %d", i, f.Time(events[i]), cur, prev)
		}
	}
	return nil
}

func (c *Cursor[E]) op(name string) string {
	return "events." + c.family.Name + "." + name
}
