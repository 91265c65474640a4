package engine

import (
	"fmt"
	"math"
)

const (
	invPhi        = 0.6180339887498949
	timeTolerance = 1.0 / 86400 // one second, in days
	maxSolverIter = 100
)

// goldenMin returns the abscissa and value of the minimum of a unimodal f
// on [a, b].
func goldenMin(f func(float64) (float64, error), a, b float64) (float64, float64, error) {
	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)
	fc, err := f(c)
	if err != nil {
		return 0, 0, err
	}
	fd, err := f(d)
	if err != nil {
		return 0, 0, err
	}
	for i := 0; i < maxSolverIter; i++ {
		if b-a < timeTolerance {
			x := (a + b) / 2
			fx, err := f(x)
			return x, fx, err
		}
		if fc < fd {
			b, d, fd = d, c, fc
			c = b - invPhi*(b-a)
			if fc, err = f(c); err != nil {
				return 0, 0, err
			}
		} else {
			a, c, fc = c, d, fd
			d = a + invPhi*(b-a)
			if fd, err = f(d); err != nil {
				return 0, 0, err
			}
		}
	}
	return 0, 0, fmt.Errorf("golden section on [%g, %g]: %w", a, b, ErrNoConvergence)
}

// bisect finds x in [a, b] with f(x) = 0, given that f changes sign on the
// interval.
func bisect(f func(float64) (float64, error), a, b float64) (float64, error) {
	fa, err := f(a)
	if err != nil {
		return 0, err
	}
	fb, err := f(b)
	if err != nil {
		return 0, err
	}
	if math.Signbit(fa) == math.Signbit(fb) {
		return 0, fmt.Errorf("no sign change on [%g, %g]: %w", a, b, ErrNoConvergence)
	}
	for i := 0; i < maxSolverIter; i++ {
		m := (a + b) / 2
		if b-a < timeTolerance {
			return m, nil
		}
		fm, err := f(m)
		if err != nil {
			return 0, err
		}
		if math.Signbit(fm) == math.Signbit(fa) {
			a, fa = m, fm
		} else {
			b = m
		}
	}
	return 0, fmt.Errorf("bisection on [%g, %g]: %w", a, b, ErrNoConvergence)
}
