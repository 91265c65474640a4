package ephem

import (
	"context"
	"fmt"
	"time"

	"github.com/star/starephem/internal/astrotime"
	"github.com/star/starephem/internal/propagation"
	"github.com/star/starephem/internal/transform"
)

// TrackPoint is one geocentric sample of a track.
type TrackPoint struct {
	Time       astrotime.Time
	Ecliptic   transform.Ecliptic
	Equatorial transform.Equatorial
}

// Track computes geocentric samples at each of times on a pool of workers.
// Every sample opens its own sessions, so workers share nothing but the
// anchor table. The result is in the order of times; any failed sample
// fails the whole track.
func (e *Ephemeris) Track(ctx context.Context, times []astrotime.Time, workers int) ([]TrackPoint, error) {
	points := make([]TrackPoint, len(times))
	errs := make([]error, len(times))

	start := time.Now()
	pool := propagation.NewWorkerPool(workers, e.logger)
	ok, failed := pool.Run(ctx, len(times), func(ctx context.Context, i int) error {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			return err
		}
		p, err := e.TrackPoint(times[i])
		points[i], errs[i] = p, err
		return err
	})

	e.logger.Debug("track computed",
		"points", len(times),
		"success", ok,
		"errors", failed,
		"workers", pool.Workers(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("track point %d at %s: %w", i, times[i], err)
		}
	}
	return points, nil
}

// TrackPoint computes a single track sample.
func (e *Ephemeris) TrackPoint(t astrotime.Time) (TrackPoint, error) {
	geo, err := e.GeocentricPosition(t)
	if err != nil {
		return TrackPoint{}, err
	}
	ecl, err := transform.EclipticFromEQJ(geo)
	if err != nil {
		return TrackPoint{}, frameErr("ephem.track", err)
	}
	eq, err := transform.EquatorFromVector(geo)
	if err != nil {
		return TrackPoint{}, frameErr("ephem.track", err)
	}
	return TrackPoint{Time: t, Ecliptic: ecl, Equatorial: eq}, nil
}
