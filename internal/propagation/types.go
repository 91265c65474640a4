package propagation

import (
	"github.com/star/starephem/internal/astrotime"
	"github.com/star/starephem/internal/engine"
	"github.com/star/starephem/internal/transform"
)

// Handle is an engine-side gravity simulation. *engine.Sim satisfies it;
// tests substitute fakes to observe acquisition and release.
type Handle interface {
	Update(t astrotime.Time) ([]transform.StateVector, error)
	BodyState(body engine.Body) (transform.StateVector, error)
	Time() astrotime.Time
	NumBodies() int
	Swap() error
	Free()
}

// Opener acquires a Handle holding the given bodies at epoch, relative to
// origin. On error no handle exists and nothing needs releasing.
type Opener func(origin engine.Body, epoch astrotime.Time, initial []transform.StateVector) (Handle, error)
