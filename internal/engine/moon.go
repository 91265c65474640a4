package engine

import (
	"math"

	"github.com/soniakeys/meeus/v3/moonposition"

	"github.com/star/starephem/internal/astrotime"
	"github.com/star/starephem/internal/transform"
)

// moonVelocityStep is the half-width of the central difference used for
// the geocentric Moon velocity, in days.
const moonVelocityStep = 1.0 / 24

// geoMoonPos returns the geocentric Moon in EQJ (AU). The meeus series is
// referred to the mean ecliptic of date; general precession in longitude
// takes it back to the J2000 ecliptic.
func geoMoonPos(tt float64) transform.Vector {
	lon, lat, distKM := moonposition.Position(tt + astrotime.J2000)

	T := tt / astrotime.DaysPerCentury
	precArcsec := 5029.0966*T + 1.11113*T*T - 0.000006*T*T*T
	lambda := lon.Rad() - precArcsec/3600*deg2rad
	beta := lat.Rad()
	r := distKM / KMPerAU

	sl, cl := math.Sincos(lambda)
	sb, cb := math.Sincos(beta)
	ecl := transform.Vector{X: r * cb * cl, Y: r * cb * sl, Z: r * sb}
	v, _ := eclToEQJ.Rotate(ecl)
	return v
}

func geoMoonState(tt float64) transform.StateVector {
	p := geoMoonPos(tt)
	after := geoMoonPos(tt + moonVelocityStep)
	before := geoMoonPos(tt - moonVelocityStep)
	vel := after.Sub(before).Scale(1 / (2 * moonVelocityStep))
	return transform.NewState(p, vel)
}

// GeoMoon returns the geocentric position of the Moon in EQJ.
func GeoMoon(t astrotime.Time) (transform.Vector, error) {
	if err := checkTime(t); err != nil {
		return transform.Vector{}, err
	}
	v := geoMoonPos(t.TT)
	v.T = t
	return v, nil
}

// GeoVector returns the geocentric EQJ position of body, without
// light-time correction.
func GeoVector(body Body, t astrotime.Time) (transform.Vector, error) {
	if body == Moon {
		return GeoMoon(t)
	}
	earth, err := HelioVector(Earth, t)
	if err != nil {
		return transform.Vector{}, err
	}
	if body == Earth {
		return transform.Vector{T: t}, nil
	}
	target, err := HelioVector(body, t)
	if err != nil {
		return transform.Vector{}, err
	}
	return target.Sub(earth), nil
}
