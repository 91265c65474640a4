package transform

import (
	"fmt"
	"math"
	"strings"

	"github.com/soniakeys/meeus/v3/refraction"
	"github.com/soniakeys/unit"

	"github.com/star/starephem/internal/astrotime"
)

// Observer is a geographic location on the Earth's surface.
type Observer struct {
	Latitude  float64 // degrees, north positive
	Longitude float64 // degrees, east positive
	Height    float64 // meters above sea level
}

// Validate checks the observer's coordinate ranges.
func (o Observer) Validate() error {
	if !finite(o.Latitude, o.Longitude, o.Height) {
		return fmt.Errorf("%w: observer", ErrNonFinite)
	}
	if o.Latitude < -90 || o.Latitude > 90 {
		return fmt.Errorf("observer latitude %.6f out of range [-90, 90]", o.Latitude)
	}
	if o.Longitude < -180 || o.Longitude > 180 {
		return fmt.Errorf("observer longitude %.6f out of range [-180, 180]", o.Longitude)
	}
	return nil
}

// Refraction selects how atmospheric refraction is applied to altitudes.
type Refraction int

const (
	// RefractionNone returns airless (geometric) altitudes.
	RefractionNone Refraction = iota
	// RefractionNormal applies Saemundsson's formula above −1° and tapers
	// the correction to zero at the nadir.
	RefractionNormal
	// RefractionJPLHor applies the same formula without the taper, matching
	// JPL Horizons output for negative altitudes.
	RefractionJPLHor
)

func (r Refraction) String() string {
	switch r {
	case RefractionNone:
		return "none"
	case RefractionNormal:
		return "normal"
	case RefractionJPLHor:
		return "jplhor"
	default:
		return fmt.Sprintf("refraction(%d)", int(r))
	}
}

// ParseRefraction parses "none", "normal" or "jplhor" (case-insensitive).
func ParseRefraction(s string) (Refraction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return RefractionNone, nil
	case "normal":
		return RefractionNormal, nil
	case "jplhor":
		return RefractionJPLHor, nil
	default:
		return RefractionNone, fmt.Errorf("unknown refraction mode %q", s)
	}
}

// RefractionAngle returns the amount in degrees by which refraction raises
// an object seen at geometric altitude alt (degrees).
func RefractionAngle(mode Refraction, alt float64) float64 {
	if alt < -90 || alt > 90 {
		return 0
	}
	if mode != RefractionNormal && mode != RefractionJPLHor {
		return 0
	}

	hd := math.Max(alt, -1.0)
	refr := refraction.Saemundsson(unit.AngleFromDeg(hd)).Deg()

	if mode == RefractionNormal && alt < -1.0 {
		refr *= (alt + 90.0) / (hd + 90.0)
	}
	return refr
}

// HorizonCoords holds azimuth, altitude and the equatorial coordinates of
// date used to compute them.
type HorizonCoords struct {
	Azimuth  float64 // degrees, 0 = North, clockwise
	Altitude float64 // degrees above the horizon, refraction applied per mode
	RA       float64 // hours, true equator of date
	Dec      float64 // degrees, true equator of date
}

// Horizon converts equatorial coordinates of date (RA hours, Dec degrees)
// to azimuth and altitude for an observer at time t.
//
// Uses the SEZ (South-East-Zenith) topocentric rotation per Vallado Section 4.4.
// RA/Dec are returned unrefracted.
func Horizon(t astrotime.Time, obs Observer, ra, dec float64, mode Refraction) (HorizonCoords, error) {
	if err := obs.Validate(); err != nil {
		return HorizonCoords{}, err
	}
	if !finite(ra, dec) {
		return HorizonCoords{}, fmt.Errorf("%w: ra=%g dec=%g", ErrNonFinite, ra, dec)
	}

	lat := obs.Latitude * deg2rad
	// Local hour angle in radians.
	ha := (SiderealTime(t) + obs.Longitude/15.0 - ra) * 15.0 * deg2rad
	d := dec * deg2rad

	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	sinDec, cosDec := math.Sin(d), math.Cos(d)
	cosHA := math.Cos(ha)

	south := sinLat*cosDec*cosHA - cosLat*sinDec
	east := -cosDec * math.Sin(ha)
	zenith := cosLat*cosDec*cosHA + sinLat*sinDec

	// In SEZ, North = -South direction, so az = atan2(east, -south).
	az := math.Atan2(east, -south) * rad2deg
	if az < 0 {
		az += 360
	}
	alt := math.Asin(math.Max(-1, math.Min(1, zenith))) * rad2deg
	alt += RefractionAngle(mode, alt)

	return HorizonCoords{
		Azimuth:  az,
		Altitude: alt,
		RA:       ra,
		Dec:      dec,
	}, nil
}
