// Package propagation wraps engine gravity simulations in sessions whose
// engine resources are released exactly once.
package propagation

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/star/starephem/internal/astrotime"
	"github.com/star/starephem/internal/engine"
	"github.com/star/starephem/internal/ephemerr"
	"github.com/star/starephem/internal/metrics"
	"github.com/star/starephem/internal/transform"
)

// Session propagates one small body from an epoch state. Advances are
// cumulative: each one starts from wherever the previous one left the
// simulation. Calls are serialized, but a session is meant to have a
// single owner; share the epoch data, not the session.
type Session struct {
	mu     sync.Mutex
	handle Handle // nil once closed
	origin engine.Body
	logger *slog.Logger
}

// Open starts a session holding initial at epoch, relative to origin.
func Open(opener Opener, origin engine.Body, epoch astrotime.Time, initial transform.StateVector, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	h, err := opener(origin, epoch, []transform.StateVector{initial})
	if err != nil {
		return nil, ephemerr.New(ephemerr.Initialization, "session.open", err)
	}
	if h == nil {
		return nil, ephemerr.Newf(ephemerr.Initialization, "session.open", "opener returned no handle")
	}
	metrics.SessionOpened()
	logger.Debug("propagation session opened",
		"origin", origin.String(),
		"epoch_tt", epoch.TT,
	)
	return &Session{handle: h, origin: origin, logger: logger}, nil
}

// With opens a session, runs fn, and closes the session on every exit
// path, including a panic inside fn.
func With(opener Opener, origin engine.Body, epoch astrotime.Time, initial transform.StateVector, logger *slog.Logger, fn func(*Session) error) error {
	s, err := Open(opener, origin, epoch, initial, logger)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// AdvanceTo propagates the body from the current simulation time to t and
// returns its state relative to the origin. A failed advance leaves the
// session usable at its previous time.
func (s *Session) AdvanceTo(t astrotime.Time) (transform.StateVector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return transform.StateVector{}, ephemerr.New(ephemerr.NotInitialized, "session.advance", nil)
	}

	start := time.Now()
	states, err := s.handle.Update(t)
	if err == nil && len(states) == 0 {
		err = errors.New("engine returned no states")
	}
	metrics.RecordPropagation(time.Since(start), err)

	if err != nil {
		s.logger.Warn("propagation failed",
			"target_tt", t.TT,
			"current_tt", s.handle.Time().TT,
			"error", err,
		)
		return transform.StateVector{}, ephemerr.New(ephemerr.Propagation, "session.advance", err)
	}
	return states[0], nil
}

// BodyState returns the state of the origin or a perturbing body at the
// session's current time.
func (s *Session) BodyState(body engine.Body) (transform.StateVector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return transform.StateVector{}, ephemerr.New(ephemerr.NotInitialized, "session.body_state", nil)
	}
	st, err := s.handle.BodyState(body)
	if err != nil {
		return transform.StateVector{}, ephemerr.New(ephemerr.Propagation, "session.body_state", err)
	}
	return st, nil
}

// CurrentTime returns the simulation time the next advance starts from.
func (s *Session) CurrentTime() (astrotime.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return astrotime.Time{}, ephemerr.New(ephemerr.NotInitialized, "session.current_time", nil)
	}
	return s.handle.Time(), nil
}

// BodyCount returns the number of simulated bodies.
func (s *Session) BodyCount() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return 0, ephemerr.New(ephemerr.NotInitialized, "session.body_count", nil)
	}
	return s.handle.NumBodies(), nil
}

// ReverseDirection flips the simulation's time-flow convention without
// changing its time or state. AdvanceTo moves toward its target either way.
func (s *Session) ReverseDirection() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return ephemerr.New(ephemerr.NotInitialized, "session.reverse", nil)
	}
	if err := s.handle.Swap(); err != nil {
		return ephemerr.New(ephemerr.Propagation, "session.reverse", err)
	}
	return nil
}

// Close releases the engine handle. Only the first call frees it; later
// calls are no-ops.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return nil
	}
	s.handle.Free()
	s.handle = nil
	metrics.SessionClosed()
	s.logger.Debug("propagation session closed", "origin", s.origin.String())
	return nil
}
