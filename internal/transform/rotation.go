// Package transform provides vectors, frame rotations and coordinate
// conversions for solar-system positions.
//
// Frames:
//   - EQJ: mean equator and equinox of J2000.0 (the working frame).
//   - ECL: mean ecliptic and equinox of J2000.0, fixed obliquity.
//   - EQD: true equator and equinox of date (IAU 1976 precession plus
//     IAU 1980 nutation from meeus).
//
// Reference: Meeus, "Astronomical Algorithms", ch. 21–22.
package transform

import (
	"math"

	"github.com/soniakeys/meeus/v3/nutation"

	"github.com/star/starephem/internal/astrotime"
)

// ObliquityJ2000 is the mean obliquity of the ecliptic at J2000.0 in degrees.
const ObliquityJ2000 = 23.4392911

const (
	deg2rad    = math.Pi / 180.0
	rad2deg    = 180.0 / math.Pi
	arcsec2rad = deg2rad / 3600.0
)

// RotationMatrix maps vectors between frames: out = M · in.
type RotationMatrix [3][3]float64

// Identity returns the identity rotation.
func Identity() RotationMatrix {
	return RotationMatrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Combine returns the rotation that applies a first, then b.
func Combine(a, b RotationMatrix) RotationMatrix {
	var m RotationMatrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = b[i][0]*a[0][j] + b[i][1]*a[1][j] + b[i][2]*a[2][j]
		}
	}
	return m
}

// Inverse returns the inverse rotation (the transpose).
func (m RotationMatrix) Inverse() RotationMatrix {
	var t RotationMatrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[i][j] = m[j][i]
		}
	}
	return t
}

// Rotate applies m to v. The result keeps v's time.
func (m RotationMatrix) Rotate(v Vector) (Vector, error) {
	if err := v.Validate(); err != nil {
		return Vector{}, err
	}
	out := Vector{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
		T: v.T,
	}
	return out, out.Validate()
}

// RotateState applies m to both the position and the velocity of s.
func (m RotationMatrix) RotateState(s StateVector) (StateVector, error) {
	pos, err := m.Rotate(s.Position())
	if err != nil {
		return StateVector{}, err
	}
	vel, err := m.Rotate(s.Velocity())
	if err != nil {
		return StateVector{}, err
	}
	return NewState(pos, vel), nil
}

// rotX rotates vectors counterclockwise by angle (radians) about the X axis.
func rotX(angle float64) RotationMatrix {
	c, s := math.Cos(angle), math.Sin(angle)
	return RotationMatrix{{1, 0, 0}, {0, c, -s}, {0, s, c}}
}

// rotY rotates vectors counterclockwise by angle (radians) about the Y axis,
// in the sense that carries +X toward −Z.
func rotY(angle float64) RotationMatrix {
	c, s := math.Cos(angle), math.Sin(angle)
	return RotationMatrix{{c, 0, -s}, {0, 1, 0}, {s, 0, c}}
}

// rotZ rotates vectors counterclockwise by angle (radians) about the Z axis.
func rotZ(angle float64) RotationMatrix {
	c, s := math.Cos(angle), math.Sin(angle)
	return RotationMatrix{{c, -s, 0}, {s, c, 0}, {0, 0, 1}}
}

// RotationEQJToECL returns the fixed rotation from EQJ to the J2000 ecliptic.
func RotationEQJToECL() RotationMatrix {
	return rotX(-ObliquityJ2000 * deg2rad)
}

// RotationECLToEQJ returns the fixed rotation from the J2000 ecliptic to EQJ.
func RotationECLToEQJ() RotationMatrix {
	return rotX(ObliquityJ2000 * deg2rad)
}

// RotationEQJToEQD returns the time-dependent rotation from EQJ to the true
// equator and equinox of date: precession followed by nutation.
func RotationEQJToEQD(t astrotime.Time) RotationMatrix {
	return Combine(precession(t), nutationMatrix(t))
}

// precession returns the IAU 1976 precession matrix from J2000 to the mean
// equator of date (Lieske angles ζ, z, θ).
func precession(t astrotime.Time) RotationMatrix {
	T := t.Centuries()
	zeta := (2306.2181*T + 0.30188*T*T + 0.017998*T*T*T) * arcsec2rad
	z := (2306.2181*T + 1.09468*T*T + 0.018203*T*T*T) * arcsec2rad
	theta := (2004.3109*T - 0.42665*T*T - 0.041833*T*T*T) * arcsec2rad
	return Combine(Combine(rotZ(zeta), rotY(theta)), rotZ(z))
}

// nutationMatrix rotates from the mean to the true equator of date.
func nutationMatrix(t astrotime.Time) RotationMatrix {
	dpsi, eps := nutationAngles(t)
	dEps := eps - meanObliquity(t)
	return Combine(Combine(rotX(-(eps - dEps)), rotZ(dpsi)), rotX(eps))
}

// nutationAngles returns the nutation in longitude and the true obliquity,
// both in radians.
func nutationAngles(t astrotime.Time) (dpsi, eps float64) {
	dψ, dε := nutation.Nutation(t.JDE())
	return dψ.Rad(), meanObliquity(t) + dε.Rad()
}

func meanObliquity(t astrotime.Time) float64 {
	return nutation.MeanObliquity(t.JDE()).Rad()
}
