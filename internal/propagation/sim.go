package propagation

import (
	"github.com/star/starephem/internal/astrotime"
	"github.com/star/starephem/internal/engine"
	"github.com/star/starephem/internal/transform"
)

// EngineOpener returns an Opener backed by the engine's RK4 gravity
// simulation (Sun plus Jupiter, Saturn, Uranus and Neptune as perturbers).
func EngineOpener(opts engine.SimOptions) Opener {
	return func(origin engine.Body, epoch astrotime.Time, initial []transform.StateVector) (Handle, error) {
		sim, err := engine.NewSim(origin, epoch, initial, opts)
		if err != nil {
			return nil, err
		}
		return sim, nil
	}
}
