package events

import (
	"fmt"

	"github.com/star/starephem/internal/astrotime"
	"github.com/star/starephem/internal/engine"
)

// Resume offsets, in days, past an event before searching for the next.
// Each is shorter than the minimum spacing of its family.
const (
	apsisSkipDays   = 11
	eclipseSkipDays = 10
	nodeSkipDays    = 10
	quarterSkipDays = 6
	transitSkipDays = 100
)

func after(t astrotime.Time, days float64) astrotime.Time {
	return astrotime.FromTT(t.TT + days)
}

// LunarApsides alternates perigee (kind 0) and apogee (kind 1).
func LunarApsides() Family[engine.Apsis] {
	return Family[engine.Apsis]{
		Name:       "apsides",
		Search:     engine.SearchLunarApsis,
		Time:       func(a engine.Apsis) astrotime.Time { return a.Time },
		LowerBound: func(a engine.Apsis) astrotime.Time { return after(a.Time, apsisSkipDays) },
		Kind:       func(a engine.Apsis) int { return int(a.Kind) },
		Cycle:      2,
	}
}

// LunarEclipses is ordered by the time of greatest eclipse.
func LunarEclipses() Family[engine.LunarEclipse] {
	return Family[engine.LunarEclipse]{
		Name:       "eclipses",
		Search:     engine.SearchLunarEclipse,
		Time:       func(e engine.LunarEclipse) astrotime.Time { return e.Peak },
		LowerBound: func(e engine.LunarEclipse) astrotime.Time { return after(e.Peak, eclipseSkipDays) },
	}
}

// MoonNodes alternates ascending (kind 0) and descending (kind 1) nodes.
func MoonNodes() Family[engine.NodeEvent] {
	return Family[engine.NodeEvent]{
		Name:       "nodes",
		Search:     engine.SearchMoonNode,
		Time:       func(n engine.NodeEvent) astrotime.Time { return n.Time },
		LowerBound: func(n engine.NodeEvent) astrotime.Time { return after(n.Time, nodeSkipDays) },
		Kind: func(n engine.NodeEvent) int {
			if n.Kind == engine.AscendingNode {
				return 0
			}
			return 1
		},
		Cycle: 2,
	}
}

// MoonQuarters cycles new, first quarter, full, third quarter.
func MoonQuarters() Family[engine.MoonQuarter] {
	return Family[engine.MoonQuarter]{
		Name:       "quarters",
		Search:     engine.SearchMoonQuarter,
		Time:       func(q engine.MoonQuarter) astrotime.Time { return q.Time },
		LowerBound: func(q engine.MoonQuarter) astrotime.Time { return after(q.Time, quarterSkipDays) },
		Kind:       func(q engine.MoonQuarter) int { return q.Quarter },
		Cycle:      4,
	}
}

// Transits of body across the Sun, ordered by mid-transit.
func Transits(body engine.Body) (Family[engine.Transit], error) {
	if body != engine.Mercury && body != engine.Venus {
		return Family[engine.Transit]{}, fmt.Errorf("%w: %s does not transit the Sun", engine.ErrInvalidBody, body)
	}
	return Family[engine.Transit]{
		Name: "transits",
		Search: func(start astrotime.Time) (engine.Transit, error) {
			return engine.SearchTransit(body, start)
		},
		Time:       func(tr engine.Transit) astrotime.Time { return tr.Peak },
		LowerBound: func(tr engine.Transit) astrotime.Time { return after(tr.Finish, transitSkipDays) },
	}, nil
}
