package engine

import (
	"fmt"
	"math"

	"github.com/soniakeys/meeus/v3/moonphase"

	"github.com/star/starephem/internal/astrotime"
	"github.com/star/starephem/internal/transform"
)

// EclipseKind classifies a lunar eclipse by the deepest shadow the Moon enters.
type EclipseKind int

const (
	Penumbral EclipseKind = iota + 1
	Partial
	Total
)

func (k EclipseKind) String() string {
	switch k {
	case Penumbral:
		return "penumbral"
	case Partial:
		return "partial"
	case Total:
		return "total"
	}
	return fmt.Sprintf("eclipse(%d)", int(k))
}

// LunarEclipse describes one lunar eclipse. Semi-durations are in minutes
// and are zero for phases that do not occur.
type LunarEclipse struct {
	Kind                  EclipseKind
	Peak                  astrotime.Time
	SemiDurationPenumbral float64
	SemiDurationPartial   float64
	SemiDurationTotal     float64
	Obscuration           float64 // fraction of the lunar disc inside the umbra at peak
}

const (
	// lunarEclipseHorizon bounds the search; eclipse seasons recur twice a year.
	lunarEclipseHorizon = 20 * 365.25

	// Full moons farther than this from the shadow axis cannot be eclipsed.
	eclipseCandidateRad = 2.0 * deg2rad

	// shadowEnlargement accounts for the Earth's atmosphere (Chauvenet).
	shadowEnlargement = 1.02
)

// shadow is the Moon's position relative to the Earth's shadow, all in radians.
type shadow struct {
	sep      float64 // Moon center to shadow axis
	umbra    float64
	penumbra float64
	moon     float64 // apparent lunar radius
}

func shadowAt(tt float64) (shadow, error) {
	earth, err := helioState(Earth, tt)
	if err != nil {
		return shadow{}, err
	}
	axis := earth.Position()
	moon := geoMoonPos(tt)
	sepDeg, err := transform.AngleBetween(moon, axis)
	if err != nil {
		return shadow{}, err
	}

	sunKM := axis.Length() * KMPerAU
	moonKM := moon.Length() * KMPerAU
	piMoon := math.Asin(EarthEquatorialRadiusKM / moonKM)
	piSun := math.Asin(EarthEquatorialRadiusKM / sunKM)
	sunRadius := math.Asin(SunRadiusKM / sunKM)

	return shadow{
		sep:      sepDeg * deg2rad,
		umbra:    shadowEnlargement * (piMoon + piSun - sunRadius),
		penumbra: shadowEnlargement * (piMoon + piSun + sunRadius),
		moon:     math.Asin(MoonRadiusKM / moonKM),
	}, nil
}

func (s shadow) kind() EclipseKind {
	switch {
	case s.sep+s.moon < s.umbra:
		return Total
	case s.sep-s.moon < s.umbra:
		return Partial
	case s.sep-s.moon < s.penumbra:
		return Penumbral
	}
	return 0
}

// SearchLunarEclipse finds the first lunar eclipse whose peak is at or after start.
func SearchLunarEclipse(start astrotime.Time) (LunarEclipse, error) {
	if err := checkTime(start); err != nil {
		return LunarEclipse{}, err
	}
	k := synodic.firstBefore(start)
	limit := start.TT + lunarEclipseHorizon

	for {
		full := moonphase.Full(synodic.year(k)) - astrotime.J2000
		k++
		if full > limit {
			return LunarEclipse{}, fmt.Errorf("lunar eclipse after %s: %w", start, ErrNotFound)
		}
		if full < start.TT-1 {
			continue
		}
		s, err := shadowAt(full)
		if err != nil {
			return LunarEclipse{}, err
		}
		if s.sep > eclipseCandidateRad {
			continue
		}

		ecl, ok, err := refineLunarEclipse(full)
		if err != nil {
			return LunarEclipse{}, err
		}
		if ok && !ecl.Peak.Before(start) {
			return ecl, nil
		}
	}
}

// refineLunarEclipse locates greatest eclipse near a full moon and measures
// its phases. ok is false when the Moon misses the penumbra.
func refineLunarEclipse(full float64) (LunarEclipse, bool, error) {
	sepAt := func(tt float64) (float64, error) {
		s, err := shadowAt(tt)
		return s.sep, err
	}
	peak, _, err := goldenMin(sepAt, full-0.5, full+0.5)
	if err != nil {
		return LunarEclipse{}, false, err
	}
	s, err := shadowAt(peak)
	if err != nil {
		return LunarEclipse{}, false, err
	}
	kind := s.kind()
	if kind == 0 {
		return LunarEclipse{}, false, nil
	}

	ecl := LunarEclipse{Kind: kind, Peak: astrotime.FromTT(peak)}
	semi := func(radius func(shadow) float64) (float64, error) {
		contact, err := bisect(func(tt float64) (float64, error) {
			s, err := shadowAt(tt)
			return s.sep - radius(s), err
		}, peak, peak+0.5)
		if err != nil {
			return 0, err
		}
		return (contact - peak) * 1440, nil
	}

	if ecl.SemiDurationPenumbral, err = semi(func(s shadow) float64 { return s.penumbra + s.moon }); err != nil {
		return LunarEclipse{}, false, err
	}
	if kind >= Partial {
		if ecl.SemiDurationPartial, err = semi(func(s shadow) float64 { return s.umbra + s.moon }); err != nil {
			return LunarEclipse{}, false, err
		}
	}
	if kind == Total {
		if ecl.SemiDurationTotal, err = semi(func(s shadow) float64 { return s.umbra - s.moon }); err != nil {
			return LunarEclipse{}, false, err
		}
		ecl.Obscuration = 1
	} else if kind == Partial {
		ecl.Obscuration = circleOverlap(s.moon, s.umbra, s.sep) / (math.Pi * s.moon * s.moon)
	}
	return ecl, true, nil
}

// circleOverlap is the area shared by two circles of radii r1 and r2 whose
// centers are d apart.
func circleOverlap(r1, r2, d float64) float64 {
	if d >= r1+r2 {
		return 0
	}
	if d <= math.Abs(r1-r2) {
		m := math.Min(r1, r2)
		return math.Pi * m * m
	}
	a1 := r1 * r1 * math.Acos((d*d+r1*r1-r2*r2)/(2*d*r1))
	a2 := r2 * r2 * math.Acos((d*d+r2*r2-r1*r1)/(2*d*r2))
	a3 := 0.5 * math.Sqrt((-d+r1+r2)*(d+r1-r2)*(d-r1+r2)*(d+r1+r2))
	return a1 + a2 - a3
}
