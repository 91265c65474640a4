package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/star/starephem/internal/astrotime"
	"github.com/star/starephem/internal/engine"
)

// ErrUnknownFamily is returned for a family name outside FamilyNames.
var ErrUnknownFamily = errors.New("unknown event family")

// FamilyNames lists the families EnumerateRecords accepts.
var FamilyNames = []string{"apsides", "eclipses", "nodes", "quarters", "transits"}

// Record is a family-independent view of one event, for the API and CLI.
type Record struct {
	Family string             `json:"family"`
	Kind   string             `json:"kind,omitempty"`
	Time   time.Time          `json:"time"`
	Start  *time.Time         `json:"start,omitempty"`
	Finish *time.Time         `json:"finish,omitempty"`
	Values map[string]float64 `json:"values,omitempty"`
}

func utc(t astrotime.Time) time.Time { return t.ToTime() }

func utcPtr(t astrotime.Time) *time.Time {
	u := t.ToTime()
	return &u
}

// EnumerateRecords enumerates the named family over [from, to). body
// selects the planet for transits and is ignored otherwise.
func EnumerateRecords(name string, body engine.Body, from, to astrotime.Time, opts ...CursorOption) ([]Record, error) {
	switch name {
	case "apsides":
		return collect(NewCursor(LunarApsides(), opts...), from, to, func(a engine.Apsis) Record {
			return Record{
				Kind:   a.Kind.String(),
				Time:   utc(a.Time),
				Values: map[string]float64{"distance_km": a.DistanceKM, "distance_au": a.DistanceAU},
			}
		})
	case "eclipses":
		return collect(NewCursor(LunarEclipses(), opts...), from, to, func(e engine.LunarEclipse) Record {
			return Record{
				Kind: e.Kind.String(),
				Time: utc(e.Peak),
				Values: map[string]float64{
					"semi_duration_penumbral_min": e.SemiDurationPenumbral,
					"semi_duration_partial_min":   e.SemiDurationPartial,
					"semi_duration_total_min":     e.SemiDurationTotal,
					"obscuration":                 e.Obscuration,
				},
			}
		})
	case "nodes":
		return collect(NewCursor(MoonNodes(), opts...), from, to, func(n engine.NodeEvent) Record {
			return Record{Kind: n.Kind.String(), Time: utc(n.Time)}
		})
	case "quarters":
		return collect(NewCursor(MoonQuarters(), opts...), from, to, func(q engine.MoonQuarter) Record {
			return Record{Kind: quarterKind(q.Quarter), Time: utc(q.Time)}
		})
	case "transits":
		f, err := Transits(body)
		if err != nil {
			return nil, err
		}
		return collect(NewCursor(f, opts...), from, to, func(tr engine.Transit) Record {
			return Record{
				Kind:   body.String(),
				Time:   utc(tr.Peak),
				Start:  utcPtr(tr.Start),
				Finish: utcPtr(tr.Finish),
				Values: map[string]float64{"separation_arcmin": tr.Separation},
			}
		})
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, name)
}

func collect[E any](c *Cursor[E], from, to astrotime.Time, convert func(E) Record) ([]Record, error) {
	evs, err := c.Enumerate(from, to)
	if err != nil {
		return nil, err
	}
	out := make([]Record, len(evs))
	for i, ev := range evs {
		out[i] = convert(ev)
		out[i].Family = c.Family().Name
	}
	return out, nil
}

func quarterKind(q int) string {
	switch q {
	case 0:
		return "new"
	case 1:
		return "first_quarter"
	case 2:
		return "full"
	case 3:
		return "third_quarter"
	}
	return fmt.Sprintf("quarter_%d", q)
}
