package transform

import (
	"errors"
	"fmt"
	"math"

	"github.com/star/starephem/internal/astrotime"
)

// ErrNonFinite is returned when a vector component is NaN or infinite.
var ErrNonFinite = errors.New("transform: non-finite vector component")

// ErrZeroVector is returned when a direction is requested from a zero-length vector.
var ErrZeroVector = errors.New("transform: zero-length vector")

// Vector is a Cartesian position in AU at a given time. The frame is
// implied by the producer (EQJ unless stated otherwise).
type Vector struct {
	X, Y, Z float64
	T       astrotime.Time
}

// StateVector is a position (AU) and velocity (AU/day) at a given time.
type StateVector struct {
	X, Y, Z    float64 // AU
	VX, VY, VZ float64 // AU/day
	T          astrotime.Time
}

// Length returns the magnitude of v.
func (v Vector) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v−w, keeping v's time.
func (v Vector) Sub(w Vector) Vector {
	return Vector{X: v.X - w.X, Y: v.Y - w.Y, Z: v.Z - w.Z, T: v.T}
}

// Add returns v+w, keeping v's time.
func (v Vector) Add(w Vector) Vector {
	return Vector{X: v.X + w.X, Y: v.Y + w.Y, Z: v.Z + w.Z, T: v.T}
}

// Scale returns k·v.
func (v Vector) Scale(k float64) Vector {
	return Vector{X: k * v.X, Y: k * v.Y, Z: k * v.Z, T: v.T}
}

// Dot returns the scalar product of v and w.
func (v Vector) Dot(w Vector) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// AngleBetween returns the angle between v and w in degrees.
func AngleBetween(v, w Vector) (float64, error) {
	r := v.Length() * w.Length()
	if r == 0 {
		return 0, ErrZeroVector
	}
	c := v.Dot(w) / r
	c = math.Max(-1, math.Min(1, c))
	return math.Acos(c) * 180 / math.Pi, nil
}

// Validate checks that every component of v is finite.
func (v Vector) Validate() error {
	if !finite(v.X, v.Y, v.Z) {
		return fmt.Errorf("%w: [%g, %g, %g]", ErrNonFinite, v.X, v.Y, v.Z)
	}
	return nil
}

// Position returns the position part of s.
func (s StateVector) Position() Vector {
	return Vector{X: s.X, Y: s.Y, Z: s.Z, T: s.T}
}

// Velocity returns the velocity part of s as a vector (AU/day).
func (s StateVector) Velocity() Vector {
	return Vector{X: s.VX, Y: s.VY, Z: s.VZ, T: s.T}
}

// Sub returns s−o component-wise, keeping s's time.
func (s StateVector) Sub(o StateVector) StateVector {
	return StateVector{
		X: s.X - o.X, Y: s.Y - o.Y, Z: s.Z - o.Z,
		VX: s.VX - o.VX, VY: s.VY - o.VY, VZ: s.VZ - o.VZ,
		T: s.T,
	}
}

// Add returns s+o component-wise, keeping s's time.
func (s StateVector) Add(o StateVector) StateVector {
	return StateVector{
		X: s.X + o.X, Y: s.Y + o.Y, Z: s.Z + o.Z,
		VX: s.VX + o.VX, VY: s.VY + o.VY, VZ: s.VZ + o.VZ,
		T: s.T,
	}
}

// Scale returns k·s for both position and velocity, keeping s's time.
func (s StateVector) Scale(k float64) StateVector {
	return StateVector{
		X: k * s.X, Y: k * s.Y, Z: k * s.Z,
		VX: k * s.VX, VY: k * s.VY, VZ: k * s.VZ,
		T: s.T,
	}
}

// Speed returns the magnitude of the velocity in AU/day.
func (s StateVector) Speed() float64 {
	return s.Velocity().Length()
}

// Validate checks that every component of s is finite.
func (s StateVector) Validate() error {
	if !finite(s.X, s.Y, s.Z, s.VX, s.VY, s.VZ) {
		return fmt.Errorf("%w: pos [%g, %g, %g] vel [%g, %g, %g]",
			ErrNonFinite, s.X, s.Y, s.Z, s.VX, s.VY, s.VZ)
	}
	return nil
}

// NewState joins a position and a velocity vector into a state at the position's time.
func NewState(pos, vel Vector) StateVector {
	return StateVector{X: pos.X, Y: pos.Y, Z: pos.Z, VX: vel.X, VY: vel.Y, VZ: vel.Z, T: pos.T}
}

func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
