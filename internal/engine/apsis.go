package engine

import (
	"fmt"
	"math"

	"github.com/soniakeys/meeus/v3/apsis"

	"github.com/star/starephem/internal/astrotime"
)

// ApsisKind distinguishes the closest and farthest points of an orbit.
type ApsisKind int

const (
	Pericenter ApsisKind = iota
	Apocenter
)

func (k ApsisKind) String() string {
	switch k {
	case Pericenter:
		return "pericenter"
	case Apocenter:
		return "apocenter"
	}
	return fmt.Sprintf("apsis(%d)", int(k))
}

// Apsis is a lunar perigee or apogee.
type Apsis struct {
	Kind       ApsisKind
	Time       astrotime.Time
	DistanceAU float64
	DistanceKM float64
}

// SearchLunarApsis finds the first lunar perigee or apogee at or after start.
func SearchLunarApsis(start astrotime.Time) (Apsis, error) {
	if err := checkTime(start); err != nil {
		return Apsis{}, err
	}
	k := anomalistic.firstBefore(start)
	for i := 0; i < maxCycleScan; i++ {
		y := anomalistic.year(k + float64(i))
		if t := timeFromJDE(apsis.Perigee(y)); !t.Before(start) {
			return newApsis(Pericenter, t, apsis.PerigeeParallax(y).Rad()), nil
		}
		if t := timeFromJDE(apsis.Apogee(y)); !t.Before(start) {
			return newApsis(Apocenter, t, apsis.ApogeeParallax(y).Rad()), nil
		}
	}
	return Apsis{}, fmt.Errorf("lunar apsis after %s: %w", start, ErrNoConvergence)
}

func newApsis(kind ApsisKind, t astrotime.Time, parallax float64) Apsis {
	km := EarthEquatorialRadiusKM / math.Sin(parallax)
	return Apsis{Kind: kind, Time: t, DistanceKM: km, DistanceAU: km / KMPerAU}
}
