package transform

import (
	"math"
	"time"

	"github.com/star/starephem/internal/astrotime"
)

// OmegaEarth is Earth's rotation rate in rad/s (IAU value).
const OmegaEarth = 7.292115146706979e-5

// GMST calculates Greenwich Mean Sidereal Time in radians for a given UTC time.
// Uses the IAU-82 model as described in Vallado "Fundamentals of Astrodynamics".
//
// Formula (Vallado Eq 3-47):
//
//	θ_GMST = 67310.54841 + (876600h + 8640184.812866)*T + 0.093104*T² - 6.2e-6*T³
//
// where T is Julian centuries of UT1 from J2000.0, result is in seconds of time.
func GMST(t time.Time) float64 {
	return gmstFromJD(astrotime.JulianDate(t))
}

// SiderealTime returns Greenwich apparent sidereal time in hours [0, 24):
// mean sidereal time plus the equation of the equinoxes.
func SiderealTime(t astrotime.Time) float64 {
	gmst := gmstFromJD(t.JD()) * 12.0 / math.Pi
	dpsi, eps := nutationAngles(t)
	gast := gmst + dpsi*math.Cos(eps)*12.0/math.Pi
	gast = math.Mod(gast, 24.0)
	if gast < 0 {
		gast += 24.0
	}
	return gast
}

func gmstFromJD(jd float64) float64 {
	tUT1 := (jd - astrotime.J2000) / astrotime.DaysPerCentury

	// 876600h = 876600 * 3600 = 3155760000 seconds.
	gmstSec := 67310.54841 +
		(3155760000.0+8640184.812866)*tUT1 +
		0.093104*tUT1*tUT1 -
		6.2e-6*tUT1*tUT1*tUT1

	// Normalize to [0, 86400) seconds, then convert to radians.
	gmstSec = math.Mod(gmstSec, 86400.0)
	if gmstSec < 0 {
		gmstSec += 86400.0
	}
	return gmstSec / 86400.0 * 2.0 * math.Pi
}
