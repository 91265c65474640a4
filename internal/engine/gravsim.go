package engine

import (
	"fmt"
	"math"

	"github.com/star/starephem/internal/astrotime"
	"github.com/star/starephem/internal/transform"
)

const (
	// MaxSimBodies bounds the number of small bodies in one simulation.
	MaxSimBodies = 16

	// DefaultMaxStepDays is the largest RK4 step used by Update.
	DefaultMaxStepDays = 10.0
)

// simPerturbers are the planets whose gravity acts on simulated bodies,
// in addition to the Sun. Their positions come from the analytic model.
var simPerturbers = [...]Body{Jupiter, Saturn, Uranus, Neptune}

// SimOptions tunes a gravity simulation.
type SimOptions struct {
	// MaxStepDays is the largest integration step; zero selects DefaultMaxStepDays.
	MaxStepDays float64
}

// Sim integrates massless bodies under the Sun and the giant planets.
// A Sim is not safe for concurrent use.
type Sim struct {
	origin  Body
	t       astrotime.Time
	bodies  []transform.StateVector // heliocentric
	maxStep float64
	dir     float64
	freed   bool
}

// NewSim starts a simulation at t. states are relative to origin, which
// must be the Sun or the solar system barycenter.
func NewSim(origin Body, t astrotime.Time, states []transform.StateVector, opts SimOptions) (*Sim, error) {
	if origin != Sun && origin != SSB {
		return nil, fmt.Errorf("%w: simulation origin %s", ErrInvalidBody, origin)
	}
	if err := checkTime(t); err != nil {
		return nil, err
	}
	if len(states) == 0 || len(states) > MaxSimBodies {
		return nil, fmt.Errorf("%w: %d", ErrTooManyBodies, len(states))
	}
	maxStep := opts.MaxStepDays
	if maxStep == 0 {
		maxStep = DefaultMaxStepDays
	}
	if !(maxStep > 0) || math.IsInf(maxStep, 0) {
		return nil, fmt.Errorf("%w: max step %g days", ErrInvalidParameter, maxStep)
	}

	offset, err := originState(origin, t.TT)
	if err != nil {
		return nil, err
	}
	bodies := make([]transform.StateVector, len(states))
	for i, s := range states {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("body %d: %w", i, ErrNonFinite)
		}
		h := s.Add(offset)
		h.T = t
		bodies[i] = h
	}

	return &Sim{
		origin:  origin,
		t:       t,
		bodies:  bodies,
		maxStep: maxStep,
		dir:     1,
	}, nil
}

// originState is the heliocentric state of the simulation origin.
func originState(origin Body, tt float64) (transform.StateVector, error) {
	if origin == Sun {
		return transform.StateVector{}, nil
	}
	return ssbState(tt)
}

// Update integrates every body to t and returns their states relative to
// the origin. The step sign always follows t, whatever Direction reports,
// and a successful move resets Direction to the sign of the move. On error
// the simulation keeps its previous time and state.
func (s *Sim) Update(t astrotime.Time) ([]transform.StateVector, error) {
	if s.freed {
		return nil, ErrFreed
	}
	if err := checkTime(t); err != nil {
		return nil, err
	}

	span := t.TT - s.t.TT
	next := make([]transform.StateVector, len(s.bodies))
	copy(next, s.bodies)

	if span != 0 {
		n := math.Ceil(math.Abs(span) / s.maxStep)
		h := span / n
		tt := s.t.TT
		for i := 0; i < int(n); i++ {
			p0, err := perturberPositions(tt)
			if err != nil {
				return nil, err
			}
			pm, err := perturberPositions(tt + h/2)
			if err != nil {
				return nil, err
			}
			p1, err := perturberPositions(tt + h)
			if err != nil {
				return nil, err
			}
			for b := range next {
				next[b] = rk4Step(next[b], h, p0, pm, p1)
			}
			tt = s.t.TT + float64(i+1)*h
		}
		for b := range next {
			if err := next[b].Validate(); err != nil {
				return nil, fmt.Errorf("body %d at tt=%g: %w", b, t.TT, ErrNonFinite)
			}
		}
		s.dir = math.Copysign(1, span)
	}

	offset, err := originState(s.origin, t.TT)
	if err != nil {
		return nil, err
	}
	out := make([]transform.StateVector, len(next))
	for b := range next {
		next[b].T = t
		out[b] = next[b].Sub(offset)
	}
	s.bodies = next
	s.t = t
	return out, nil
}

// BodyState returns the state of the origin or of a perturbing planet,
// relative to the origin, at the simulation's current time.
func (s *Sim) BodyState(body Body) (transform.StateVector, error) {
	if s.freed {
		return transform.StateVector{}, ErrFreed
	}
	if body != Sun && body != SSB && !isPerturber(body) {
		return transform.StateVector{}, fmt.Errorf("%w: %s is not part of the simulation", ErrInvalidBody, body)
	}
	offset, err := originState(s.origin, s.t.TT)
	if err != nil {
		return transform.StateVector{}, err
	}
	var helio transform.StateVector
	switch body {
	case Sun:
	case SSB:
		helio, err = ssbState(s.t.TT)
	default:
		helio, err = keplerState(body, s.t.TT)
	}
	if err != nil {
		return transform.StateVector{}, err
	}
	out := helio.Sub(offset)
	out.T = s.t
	return out, nil
}

// Time returns the simulation's current time.
func (s *Sim) Time() astrotime.Time { return s.t }

// NumBodies returns the number of simulated small bodies.
func (s *Sim) NumBodies() int { return len(s.bodies) }

// Direction is +1 when the simulation last moved forward in time (or has
// not moved yet) and −1 after a backward update or an odd number of swaps.
func (s *Sim) Direction() int { return int(s.dir) }

// Swap reverses the direction reported by Direction. Time and state are
// unchanged, and Update does not consult the flag.
func (s *Sim) Swap() error {
	if s.freed {
		return ErrFreed
	}
	s.dir = -s.dir
	return nil
}

// Free releases the simulation. It is safe to call more than once.
func (s *Sim) Free() {
	s.freed = true
	s.bodies = nil
}

func isPerturber(body Body) bool {
	for _, p := range simPerturbers {
		if p == body {
			return true
		}
	}
	return false
}

type perturberSet [len(simPerturbers)]transform.Vector

func perturberPositions(tt float64) (perturberSet, error) {
	var ps perturberSet
	for i, body := range simPerturbers {
		s, err := keplerState(body, tt)
		if err != nil {
			return ps, err
		}
		ps[i] = s.Position()
	}
	return ps, nil
}

// acceleration is the heliocentric acceleration on a massless body at r:
// solar gravity, the direct pull of each perturber and the indirect term
// from the perturber's pull on the Sun.
func acceleration(r transform.Vector, ps *perturberSet) transform.Vector {
	d := r.Length()
	a := r.Scale(-GMSun / (d * d * d))
	for i, body := range simPerturbers {
		p := ps[i]
		mu := gm[body]
		rel := p.Sub(r)
		dr := rel.Length()
		dp := p.Length()
		a = a.Add(rel.Scale(mu / (dr * dr * dr))).Sub(p.Scale(mu / (dp * dp * dp)))
	}
	return a
}

func derivative(s transform.StateVector, ps *perturberSet) transform.StateVector {
	acc := acceleration(s.Position(), ps)
	return transform.StateVector{X: s.VX, Y: s.VY, Z: s.VZ, VX: acc.X, VY: acc.Y, VZ: acc.Z}
}

// rk4Step advances s by h days given perturber positions at the start,
// midpoint and end of the step.
func rk4Step(s transform.StateVector, h float64, p0, pm, p1 perturberSet) transform.StateVector {
	k1 := derivative(s, &p0)
	k2 := derivative(s.Add(k1.Scale(h/2)), &pm)
	k3 := derivative(s.Add(k2.Scale(h/2)), &pm)
	k4 := derivative(s.Add(k3.Scale(h)), &p1)
	sum := k1.Add(k2.Scale(2)).Add(k3.Scale(2)).Add(k4)
	return s.Add(sum.Scale(h / 6))
}
