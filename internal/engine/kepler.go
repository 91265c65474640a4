package engine

import (
	"fmt"
	"math"

	"github.com/star/starephem/internal/astrotime"
	"github.com/star/starephem/internal/transform"
)

// orbitalElements are JPL mean Keplerian elements referred to the J2000
// ecliptic and equinox, with their linear rates per Julian century.
type orbitalElements struct {
	a, e, i, l, peri, node                   float64 // AU, -, deg, deg, deg, deg
	aDot, eDot, iDot, lDot, periDot, nodeDot float64
}

// Standish, "Keplerian Elements for Approximate Positions of the Major
// Planets", table 1 (1800 AD – 2050 AD).
var elements = map[Body]orbitalElements{
	Mercury: {0.38709927, 0.20563593, 7.00497902, 252.25032350, 77.45779628, 48.33076593,
		0.00000037, 0.00001906, -0.00594749, 149472.67411175, 0.16047689, -0.12534081},
	Venus: {0.72333566, 0.00677672, 3.39467605, 181.97909950, 131.60246718, 76.67984255,
		0.00000390, -0.00004107, -0.00078890, 58517.81538729, 0.00268329, -0.27769418},
	EMB: {1.00000261, 0.01671123, -0.00001531, 100.46457166, 102.93768193, 0.0,
		0.00000562, -0.00004392, -0.01294668, 35999.37244981, 0.32327364, 0.0},
	Mars: {1.52371034, 0.09339410, 1.84969142, -4.55343205, -23.94362959, 49.55953891,
		0.00001847, 0.00007882, -0.00813131, 19140.30268499, 0.44441088, -0.29257343},
	Jupiter: {5.20288700, 0.04838624, 1.30439695, 34.39644051, 14.72847983, 100.47390909,
		-0.00011607, -0.00013253, -0.00183714, 3034.74612775, 0.21252668, 0.20469106},
	Saturn: {9.53667594, 0.05386179, 2.48599187, 49.95424423, 92.59887831, 113.66242448,
		-0.00125060, -0.00050991, 0.00193609, 1222.49362201, -0.41897216, -0.28867794},
	Uranus: {19.18916464, 0.04725744, 0.77263783, 313.23810451, 170.95427630, 74.01692503,
		-0.00196176, -0.00004397, -0.00242939, 428.48202785, 0.40805281, 0.04240589},
	Neptune: {30.06992276, 0.00859048, 1.77004347, -55.12002969, 44.96476227, 131.78422574,
		0.00026291, 0.00005105, 0.00035372, 218.45945325, -0.32241464, -0.00508664},
}

const (
	deg2rad         = math.Pi / 180
	keplerTolerance = 1e-12
	keplerMaxIter   = 50
)

var eclToEQJ = transform.RotationECLToEQJ()

// keplerState returns the heliocentric EQJ state of a planet with tabulated
// elements at tt (TT days since J2000).
func keplerState(body Body, tt float64) (transform.StateVector, error) {
	el, ok := elements[body]
	if !ok {
		return transform.StateVector{}, fmt.Errorf("%w: no elements for %s", ErrInvalidBody, body)
	}
	T := tt / astrotime.DaysPerCentury

	a := el.a + el.aDot*T
	e := el.e + el.eDot*T
	incl := (el.i + el.iDot*T) * deg2rad
	L := el.l + el.lDot*T
	peri := el.peri + el.periDot*T
	node := (el.node + el.nodeDot*T) * deg2rad

	omega := peri*deg2rad - node
	M := math.Remainder((L-peri)*deg2rad, 2*math.Pi)

	E, err := solveKepler(M, e)
	if err != nil {
		return transform.StateVector{}, fmt.Errorf("%s: %w", body, err)
	}

	// Mean motion from the mean longitude rate, rad/day.
	n := el.lDot * deg2rad / astrotime.DaysPerCentury
	sinE, cosE := math.Sincos(E)
	q := math.Sqrt(1 - e*e)
	eDot := n / (1 - e*cosE)

	xp := a * (cosE - e)
	yp := a * q * sinE
	vxp := -a * sinE * eDot
	vyp := a * q * cosE * eDot

	sw, cw := math.Sincos(omega)
	sn, cn := math.Sincos(node)
	si, ci := math.Sincos(incl)

	r11 := cw*cn - sw*sn*ci
	r12 := -sw*cn - cw*sn*ci
	r21 := cw*sn + sw*cn*ci
	r22 := -sw*sn + cw*cn*ci
	r31 := sw * si
	r32 := cw * si

	ecl := transform.StateVector{
		X: r11*xp + r12*yp, Y: r21*xp + r22*yp, Z: r31*xp + r32*yp,
		VX: r11*vxp + r12*vyp, VY: r21*vxp + r22*vyp, VZ: r31*vxp + r32*vyp,
	}
	s, err := eclToEQJ.RotateState(ecl)
	if err != nil {
		return transform.StateVector{}, fmt.Errorf("%s: %w", body, ErrNonFinite)
	}
	return s, nil
}

// solveKepler solves M = E − e·sin E for E by Newton iteration.
func solveKepler(M, e float64) (float64, error) {
	E := M
	if e > 0.8 {
		E = math.Pi
	}
	for i := 0; i < keplerMaxIter; i++ {
		dE := (E - e*math.Sin(E) - M) / (1 - e*math.Cos(E))
		E -= dE
		if math.Abs(dE) < keplerTolerance {
			return E, nil
		}
	}
	return 0, fmt.Errorf("kepler equation M=%g e=%g: %w", M, e, ErrNoConvergence)
}

// helioState is HelioState on a bare TT value.
func helioState(body Body, tt float64) (transform.StateVector, error) {
	switch {
	case body == Sun:
		return transform.StateVector{}, nil
	case body == Earth:
		emb, err := keplerState(EMB, tt)
		if err != nil {
			return transform.StateVector{}, err
		}
		moon := geoMoonState(tt)
		return emb.Sub(moon.Scale(1 / (1 + EarthMoonMassRatio))), nil
	case body == Moon:
		emb, err := keplerState(EMB, tt)
		if err != nil {
			return transform.StateVector{}, err
		}
		moon := geoMoonState(tt)
		return emb.Add(moon.Scale(EarthMoonMassRatio / (1 + EarthMoonMassRatio))), nil
	case body == SSB:
		return ssbState(tt)
	case body.IsStar():
		v, err := starVector(body)
		if err != nil {
			return transform.StateVector{}, err
		}
		return transform.StateVector{X: v[0], Y: v[1], Z: v[2]}, nil
	default:
		return keplerState(body, tt)
	}
}

// ssbBodies fixes the summation order of ssbState so results repeat bit for bit.
var ssbBodies = [...]Body{Mercury, Venus, EMB, Mars, Jupiter, Saturn, Uranus, Neptune}

// ssbState is the GM-weighted mean of the Sun and the planets.
func ssbState(tt float64) (transform.StateVector, error) {
	var sum transform.StateVector
	total := GMSun
	for _, body := range ssbBodies {
		mu := gm[body]
		s, err := keplerState(body, tt)
		if err != nil {
			return transform.StateVector{}, err
		}
		sum = sum.Add(s.Scale(mu))
		total += mu
	}
	return sum.Scale(1 / total), nil
}

// HelioState returns the heliocentric EQJ position and velocity of body.
// Pluto is not modeled by the engine and yields ErrInvalidBody.
func HelioState(body Body, t astrotime.Time) (transform.StateVector, error) {
	if err := checkTime(t); err != nil {
		return transform.StateVector{}, err
	}
	if body == Pluto {
		return transform.StateVector{}, fmt.Errorf("%w: %s has no analytic model", ErrInvalidBody, body)
	}
	s, err := helioState(body, t.TT)
	if err != nil {
		return transform.StateVector{}, err
	}
	s.T = t
	return s, nil
}

// HelioVector returns the heliocentric EQJ position of body.
func HelioVector(body Body, t astrotime.Time) (transform.Vector, error) {
	s, err := HelioState(body, t)
	if err != nil {
		return transform.Vector{}, err
	}
	return s.Position(), nil
}

func checkTime(t astrotime.Time) error {
	if math.IsNaN(t.TT) || math.IsInf(t.TT, 0) || math.IsNaN(t.UT) || math.IsInf(t.UT, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidTime, t.TT)
	}
	return nil
}
