package engine

import "errors"

// Engine status errors.
var (
	// ErrInvalidBody indicates a body the requested operation does not support.
	ErrInvalidBody = errors.New("engine: invalid body")

	// ErrInvalidTime indicates a time that is not finite or is out of range.
	ErrInvalidTime = errors.New("engine: invalid time")

	// ErrInvalidParameter indicates an argument outside its valid range.
	ErrInvalidParameter = errors.New("engine: invalid parameter")

	// ErrNonFinite indicates a state vector with NaN or Inf components.
	ErrNonFinite = errors.New("engine: non-finite state")

	// ErrTooManyBodies indicates a simulation request outside 1..MaxSimBodies bodies.
	ErrTooManyBodies = errors.New("engine: simulation body count out of range")

	// ErrFreed indicates use of a simulation handle after Free.
	ErrFreed = errors.New("engine: simulation handle already freed")

	// ErrNotFound indicates a search found no event within its horizon.
	ErrNotFound = errors.New("engine: no event found within search horizon")

	// ErrNoConvergence indicates a search or solver failed to converge.
	ErrNoConvergence = errors.New("engine: solver did not converge")

	// ErrStarUndefined indicates a star slot queried before DefineStar.
	ErrStarUndefined = errors.New("engine: star slot not defined")
)
