package engine

import (
	"fmt"

	"github.com/soniakeys/meeus/v3/moonphase"

	"github.com/star/starephem/internal/astrotime"
)

// MoonQuarter is a new moon (0), first quarter (1), full moon (2) or last
// quarter (3).
type MoonQuarter struct {
	Quarter int
	Time    astrotime.Time
}

var quarterNames = [4]string{"new moon", "first quarter", "full moon", "third quarter"}

func (q MoonQuarter) String() string {
	if q.Quarter < 0 || q.Quarter > 3 {
		return fmt.Sprintf("quarter(%d) %s", q.Quarter, q.Time)
	}
	return fmt.Sprintf("%s %s", quarterNames[q.Quarter], q.Time)
}

var phaseFuncs = [4]func(float64) float64{moonphase.New, moonphase.First, moonphase.Full, moonphase.Last}

// SearchMoonQuarter finds the first lunar quarter at or after start.
func SearchMoonQuarter(start astrotime.Time) (MoonQuarter, error) {
	if err := checkTime(start); err != nil {
		return MoonQuarter{}, err
	}
	k := synodic.firstBefore(start)
	for i := 0; i < maxCycleScan; i++ {
		y := synodic.year(k + float64(i))
		for q, phase := range phaseFuncs {
			t := timeFromJDE(phase(y))
			if !t.Before(start) {
				return MoonQuarter{Quarter: q, Time: t}, nil
			}
		}
	}
	return MoonQuarter{}, fmt.Errorf("moon quarter after %s: %w", start, ErrNoConvergence)
}
