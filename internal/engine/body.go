// Package engine is the ephemeris engine the rest of starephem binds to:
// analytic positions for the Sun, planets, Earth and Moon, a gravity
// simulation handle for small bodies, fixed-star slots, and "next
// occurrence" search primitives for recurring lunar and planetary events.
//
// Units are AU, AU/day and days; vectors are in the EQJ frame (mean
// equator and equinox of J2000.0). Planet positions come from the JPL
// approximate Keplerian elements (Standish, valid 1800–2050); lunar
// quantities come from github.com/soniakeys/meeus/v3.
package engine

import "fmt"

// Body identifies a solar-system body, a reference point or a star slot.
type Body int

const (
	Sun Body = iota
	Mercury
	Venus
	Earth
	Moon
	EMB // Earth/Moon barycenter
	Mars
	Jupiter
	Saturn
	Uranus
	Neptune
	Pluto
	SSB // solar system barycenter
	Star1
	Star2
	Star3
	Star4
	Star5
	Star6
	Star7
	Star8
)

var bodyNames = map[Body]string{
	Sun:     "sun",
	Mercury: "mercury",
	Venus:   "venus",
	Earth:   "earth",
	Moon:    "moon",
	EMB:     "emb",
	Mars:    "mars",
	Jupiter: "jupiter",
	Saturn:  "saturn",
	Uranus:  "uranus",
	Neptune: "neptune",
	Pluto:   "pluto",
	SSB:     "ssb",
}

func (b Body) String() string {
	if name, ok := bodyNames[b]; ok {
		return name
	}
	if b.IsStar() {
		return fmt.Sprintf("star%d", int(b-Star1)+1)
	}
	return fmt.Sprintf("body(%d)", int(b))
}

// IsStar reports whether b is one of the user-definable star slots.
func (b Body) IsStar() bool {
	return b >= Star1 && b <= Star8
}

// ParseBody returns the body with the given lower-case name.
func ParseBody(name string) (Body, error) {
	for b, n := range bodyNames {
		if n == name {
			return b, nil
		}
	}
	for b := Star1; b <= Star8; b++ {
		if b.String() == name {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidBody, name)
}

// Physical constants.
const (
	// KMPerAU is the astronomical unit in kilometers.
	KMPerAU = 1.4959787069098932e+8

	// SpeedOfLight in AU/day.
	SpeedOfLight = 173.1446326846693

	// EarthMoonMassRatio is M_earth / M_moon.
	EarthMoonMassRatio = 81.30056

	// EarthEquatorialRadiusKM is the IAU 1976 equatorial radius.
	EarthEquatorialRadiusKM = 6378.14

	SunRadiusKM     = 695700.0
	MoonRadiusKM    = 1737.4
	MercuryRadiusKM = 2439.7
	VenusRadiusKM   = 6051.8

	// gaussK is the Gaussian gravitational constant.
	gaussK = 0.01720209895

	// AULightYear is the number of AU in one light year.
	AULightYear = 63241.07708807546
)

// GMSun is the Sun's gravitational parameter in AU³/day².
const GMSun = gaussK * gaussK

// gm holds the gravitational parameters (AU³/day²) of the planets,
// expressed as Sun/planet mass ratios (IAU 2009).
var gm = map[Body]float64{
	Mercury: GMSun / 6023600.0,
	Venus:   GMSun / 408523.71,
	EMB:     GMSun / 328900.56,
	Mars:    GMSun / 3098708.0,
	Jupiter: GMSun / 1047.348644,
	Saturn:  GMSun / 3497.9018,
	Uranus:  GMSun / 22902.98,
	Neptune: GMSun / 19412.26,
}
