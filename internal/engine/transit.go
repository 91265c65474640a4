package engine

import (
	"fmt"

	"github.com/star/starephem/internal/astrotime"
	"github.com/star/starephem/internal/transform"
)

// Transit is a passage of Mercury or Venus across the Sun's disc as seen
// from the Earth's center.
type Transit struct {
	Start      astrotime.Time
	Peak       astrotime.Time
	Finish     astrotime.Time
	Separation float64 // arcminutes between the centers at peak
}

const (
	coarseStepDays = 1.0

	// Candidate inferior conjunctions closer than this get refined.
	transitCandidateDeg = 2.0
)

// transitHorizon bounds the scan per planet; Venus transits come in pairs
// separated by more than a century.
var transitHorizon = map[Body]float64{
	Mercury: 50 * 365.25,
	Venus:   250 * 365.25,
}

var planetRadiusKM = map[Body]float64{
	Mercury: MercuryRadiusKM,
	Venus:   VenusRadiusKM,
}

// disc is the geocentric geometry of a planet against the Sun.
type disc struct {
	sep      float64 // degrees between centers
	limit    float64 // sum of apparent radii, degrees
	nearSide bool    // planet closer than the Sun
}

// discAt applies light-time correction to the planet only; the Sun's
// displacement over the same light time is negligible at this precision.
func discAt(body Body, tt float64) (disc, error) {
	earth, err := helioState(Earth, tt)
	if err != nil {
		return disc{}, err
	}
	e := earth.Position()
	p, err := keplerState(body, tt)
	if err != nil {
		return disc{}, err
	}
	geo := p.Position().Sub(e)
	if p, err = keplerState(body, tt-geo.Length()/SpeedOfLight); err != nil {
		return disc{}, err
	}
	geo = p.Position().Sub(e)
	sun := e.Scale(-1)

	sep, err := transform.AngleBetween(geo, sun)
	if err != nil {
		return disc{}, err
	}
	sunDist := sun.Length()
	planetDist := geo.Length()
	sunRadius := SunRadiusKM / (sunDist * KMPerAU) / deg2rad
	planetRadius := planetRadiusKM[body] / (planetDist * KMPerAU) / deg2rad
	return disc{sep: sep, limit: sunRadius + planetRadius, nearSide: planetDist < sunDist}, nil
}

// SearchTransit finds the first transit of body (Mercury or Venus) whose
// peak is at or after start. A transit already under way at start counts,
// so the scan begins one coarse step early.
func SearchTransit(body Body, start astrotime.Time) (Transit, error) {
	horizon, ok := transitHorizon[body]
	if !ok {
		return Transit{}, fmt.Errorf("%w: %s cannot transit the Sun", ErrInvalidBody, body)
	}
	if err := checkTime(start); err != nil {
		return Transit{}, err
	}

	sepAt := func(tt float64) (float64, error) {
		d, err := discAt(body, tt)
		return d.sep, err
	}

	// Coarse scan for local minima of the Sun–planet separation.
	begin := start.TT - coarseStepDays
	end := start.TT + horizon
	prev, err := sepAt(begin - coarseStepDays)
	if err != nil {
		return Transit{}, err
	}
	cur, err := sepAt(begin)
	if err != nil {
		return Transit{}, err
	}
	for tt := begin; tt < end; tt += coarseStepDays {
		next, err := sepAt(tt + coarseStepDays)
		if err != nil {
			return Transit{}, err
		}
		if cur <= prev && cur < next && cur < transitCandidateDeg {
			tr, ok, err := refineTransit(body, tt)
			if err != nil {
				return Transit{}, err
			}
			if ok && !tr.Peak.Before(start) {
				return tr, nil
			}
		}
		prev, cur = cur, next
	}
	return Transit{}, fmt.Errorf("%s transit after %s: %w", body, start, ErrNotFound)
}

// refineTransit finds the conjunction bracketed by tt±1 day and, if the
// discs overlap, the exterior contact times.
func refineTransit(body Body, tt float64) (Transit, bool, error) {
	sepAt := func(t float64) (float64, error) {
		d, err := discAt(body, t)
		return d.sep, err
	}
	peak, _, err := goldenMin(sepAt, tt-coarseStepDays, tt+coarseStepDays)
	if err != nil {
		return Transit{}, false, err
	}
	d, err := discAt(body, peak)
	if err != nil {
		return Transit{}, false, err
	}
	if !d.nearSide || d.sep >= d.limit {
		return Transit{}, false, nil
	}

	contact := func(t float64) (float64, error) {
		d, err := discAt(body, t)
		return d.sep - d.limit, err
	}
	first, err := bisect(contact, peak-coarseStepDays, peak)
	if err != nil {
		return Transit{}, false, err
	}
	last, err := bisect(contact, peak, peak+coarseStepDays)
	if err != nil {
		return Transit{}, false, err
	}

	return Transit{
		Start:      astrotime.FromTT(first),
		Peak:       astrotime.FromTT(peak),
		Finish:     astrotime.FromTT(last),
		Separation: d.sep * 60,
	}, true, nil
}
