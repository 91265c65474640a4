// Package ephem computes positions of a body that has no analytic model by
// propagating the nearest of a few precomputed anchor states through the
// engine's gravity simulation. Geocentric positions use the engine's Earth
// and carry no light-time or aberration correction: at Pluto's distance the
// geometric position lags the apparent one by a few arcseconds.
package ephem

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/star/starephem/internal/astrotime"
	"github.com/star/starephem/internal/engine"
	"github.com/star/starephem/internal/ephemerr"
	"github.com/star/starephem/internal/metrics"
	"github.com/star/starephem/internal/propagation"
	"github.com/star/starephem/internal/transform"
)

// VelocityStepDays is the half-width δ of the central difference used for
// velocities: one second. Smaller steps lose digits to cancellation in
// 30 AU positions; larger ones gain truncation error.
const VelocityStepDays = 1.0 / astrotime.SecondsPerDay

// ValidityMarginDays is how far, in TT days, queries may reach beyond the
// first and last anchors. Integration cost grows with the distance to the
// nearest anchor, and the engine's planetary elements lose validity.
const ValidityMarginDays = 18262.5

// EarthFunc returns the Earth's heliocentric EQJ state.
type EarthFunc func(t astrotime.Time) (transform.StateVector, error)

// Ephemeris answers position queries for one anchored body. It holds no
// engine resources between calls and is safe for concurrent use.
type Ephemeris struct {
	table  *AnchorTable
	opener propagation.Opener
	earth  EarthFunc
	logger *slog.Logger
}

// Option configures an Ephemeris.
type Option func(*Ephemeris)

// WithOpener replaces the engine session opener.
func WithOpener(o propagation.Opener) Option {
	return func(e *Ephemeris) { e.opener = o }
}

// WithEarth replaces the source of the Earth's heliocentric state.
func WithEarth(f EarthFunc) Option {
	return func(e *Ephemeris) { e.earth = f }
}

// WithLogger sets the logger passed to propagation sessions.
func WithLogger(l *slog.Logger) Option {
	return func(e *Ephemeris) { e.logger = l }
}

// WithTable replaces the anchor table.
func WithTable(tb *AnchorTable) Option {
	return func(e *Ephemeris) { e.table = tb }
}

// NewPluto returns an ephemeris for Pluto backed by PlutoAnchors.
func NewPluto(opts ...Option) *Ephemeris {
	e := &Ephemeris{
		table:  PlutoAnchors,
		opener: propagation.EngineOpener(engine.SimOptions{}),
		earth: func(t astrotime.Time) (transform.StateVector, error) {
			return engine.HelioState(engine.Earth, t)
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Table returns the anchor table in use.
func (e *Ephemeris) Table() *AnchorTable { return e.table }

// HeliocentricPosition returns the body's heliocentric EQJ position at t.
// Within ShortCircuitDays of an anchor the anchor's stored position is
// returned as is.
func (e *Ephemeris) HeliocentricPosition(t astrotime.Time) (transform.Vector, error) {
	if err := e.checkRange(t); err != nil {
		return transform.Vector{}, err
	}
	a := e.table.Nearest(t)
	if math.Abs(a.Time.TT-t.TT) < ShortCircuitDays {
		metrics.AnchorShortcut()
		p := a.State.Position()
		p.T = t
		return p, nil
	}
	s, err := e.propagate(a, t)
	if err != nil {
		return transform.Vector{}, err
	}
	return s.Position(), nil
}

// ValidRange returns the interval of times the ephemeris answers for.
func (e *Ephemeris) ValidRange() (from, to astrotime.Time) {
	first, last := e.table.Span()
	return astrotime.FromTT(first.TT - ValidityMarginDays), astrotime.FromTT(last.TT + ValidityMarginDays)
}

func (e *Ephemeris) checkRange(t astrotime.Time) error {
	from, to := e.ValidRange()
	if !(t.TT >= from.TT && t.TT <= to.TT) {
		return ephemerr.New(ephemerr.Propagation, "ephem.range",
			fmt.Errorf("%w: TT %g outside %s .. %s", engine.ErrInvalidTime, t.TT, from, to))
	}
	return nil
}

// propagate integrates from anchor a to t in a session of its own.
func (e *Ephemeris) propagate(a Anchor, t astrotime.Time) (transform.StateVector, error) {
	var out transform.StateVector
	err := propagation.With(e.opener, engine.Sun, a.Time, a.State, e.logger, func(s *propagation.Session) error {
		st, err := s.AdvanceTo(t)
		out = st
		return err
	})
	return out, err
}

// helioFrom propagates from anchor a even when t is within the
// short-circuit window, so nearby finite-difference samples never collapse
// onto the same stored state.
func (e *Ephemeris) helioFrom(a Anchor, t astrotime.Time) (transform.Vector, error) {
	s, err := e.propagate(a, t)
	if err != nil {
		return transform.Vector{}, err
	}
	return s.Position(), nil
}

func (e *Ephemeris) earthState(t astrotime.Time) (transform.StateVector, error) {
	s, err := e.earth(t)
	if err != nil {
		return transform.StateVector{}, ephemerr.New(ephemerr.Propagation, "ephem.earth", err)
	}
	return s, nil
}

// GeocentricPosition returns the geometric geocentric EQJ position at t.
func (e *Ephemeris) GeocentricPosition(t astrotime.Time) (transform.Vector, error) {
	helio, err := e.HeliocentricPosition(t)
	if err != nil {
		return transform.Vector{}, err
	}
	earth, err := e.earthState(t)
	if err != nil {
		return transform.Vector{}, err
	}
	return helio.Sub(earth.Position()), nil
}

// GeocentricState returns the geocentric EQJ position and velocity at t.
// The body's heliocentric velocity is a central difference over ±δ
// (VelocityStepDays), with both samples integrated from the anchor nearest
// t; the Earth's velocity comes from the engine.
func (e *Ephemeris) GeocentricState(t astrotime.Time) (transform.StateVector, error) {
	pos, err := e.GeocentricPosition(t)
	if err != nil {
		return transform.StateVector{}, err
	}
	a := e.table.Nearest(t)
	after, err := e.helioFrom(a, astrotime.FromTT(t.TT+VelocityStepDays))
	if err != nil {
		return transform.StateVector{}, err
	}
	before, err := e.helioFrom(a, astrotime.FromTT(t.TT-VelocityStepDays))
	if err != nil {
		return transform.StateVector{}, err
	}
	earth, err := e.earthState(t)
	if err != nil {
		return transform.StateVector{}, err
	}

	vel := after.Sub(before).Scale(1 / (2 * VelocityStepDays)).Sub(earth.Velocity())
	return transform.NewState(pos, vel), nil
}

// EquatorialCoordinates returns geocentric J2000 right ascension (hours),
// declination (degrees) and distance (AU).
func (e *Ephemeris) EquatorialCoordinates(t astrotime.Time) (transform.Equatorial, error) {
	geo, err := e.GeocentricPosition(t)
	if err != nil {
		return transform.Equatorial{}, err
	}
	eq, err := transform.EquatorFromVector(geo)
	if err != nil {
		return transform.Equatorial{}, frameErr("ephem.equatorial", err)
	}
	return eq, nil
}

// FullEcliptic returns geocentric J2000 ecliptic coordinates.
func (e *Ephemeris) FullEcliptic(t astrotime.Time) (transform.Ecliptic, error) {
	geo, err := e.GeocentricPosition(t)
	if err != nil {
		return transform.Ecliptic{}, err
	}
	ecl, err := transform.EclipticFromEQJ(geo)
	if err != nil {
		return transform.Ecliptic{}, frameErr("ephem.ecliptic", err)
	}
	return ecl, nil
}

// EclipticLongitude returns the geocentric J2000 ecliptic longitude in [0, 360).
func (e *Ephemeris) EclipticLongitude(t astrotime.Time) (float64, error) {
	ecl, err := e.FullEcliptic(t)
	if err != nil {
		return 0, err
	}
	return ecl.Lon, nil
}

// EclipticLatitude returns the geocentric J2000 ecliptic latitude in degrees.
func (e *Ephemeris) EclipticLatitude(t astrotime.Time) (float64, error) {
	ecl, err := e.FullEcliptic(t)
	if err != nil {
		return 0, err
	}
	return ecl.Lat, nil
}

// Horizon returns topocentric azimuth and altitude for obs. The J2000
// position is precessed and nutated to the equator of date first.
func (e *Ephemeris) Horizon(t astrotime.Time, obs transform.Observer, mode transform.Refraction) (transform.HorizonCoords, error) {
	geo, err := e.GeocentricPosition(t)
	if err != nil {
		return transform.HorizonCoords{}, err
	}
	return horizonOfDate(t, geo, obs, mode)
}

func horizonOfDate(t astrotime.Time, geo transform.Vector, obs transform.Observer, mode transform.Refraction) (transform.HorizonCoords, error) {
	ofDate, err := transform.RotationEQJToEQD(t).Rotate(geo)
	if err != nil {
		return transform.HorizonCoords{}, frameErr("ephem.horizon", err)
	}
	eq, err := transform.EquatorFromVector(ofDate)
	if err != nil {
		return transform.HorizonCoords{}, frameErr("ephem.horizon", err)
	}
	hor, err := transform.Horizon(t, obs, eq.RA, eq.Dec, mode)
	if err != nil {
		return transform.HorizonCoords{}, frameErr("ephem.horizon", err)
	}
	return hor, nil
}

func frameErr(op string, err error) error {
	return ephemerr.New(ephemerr.FrameConversion, op, err)
}
