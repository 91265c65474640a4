package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/star/starephem/internal/astrotime"
	"github.com/star/starephem/internal/cache"
	"github.com/star/starephem/internal/engine"
	"github.com/star/starephem/internal/ephem"
	"github.com/star/starephem/internal/ephemerr"
	"github.com/star/starephem/internal/events"
	"github.com/star/starephem/internal/transform"
)

const (
	defaultTrackStep  = 24 * time.Hour
	defaultTrackCount = 30
	defaultEventSpan  = 365 * 24 * time.Hour
)

type handlers struct {
	cfg    Config
	eph    *ephem.Ephemeris
	stars  *ephem.StarCatalog
	tracks *cache.TrackCache
	logger *slog.Logger
}

type equatorialJSON struct {
	RA   float64 `json:"ra_hours"`
	Dec  float64 `json:"dec_deg"`
	Dist float64 `json:"dist_au"`
}

type eclipticJSON struct {
	Lon float64 `json:"lon_deg"`
	Lat float64 `json:"lat_deg"`
}

type horizonJSON struct {
	Azimuth    float64 `json:"azimuth_deg"`
	Altitude   float64 `json:"altitude_deg"`
	RAOfDate   float64 `json:"ra_of_date_hours"`
	DecOfDate  float64 `json:"dec_of_date_deg"`
	Refraction string  `json:"refraction"`
}

type observerJSON struct {
	Lat    float64 `json:"lat_deg"`
	Lon    float64 `json:"lon_deg"`
	Height float64 `json:"height_m"`
}

type stateJSON struct {
	Position [3]float64 `json:"position_au"`
	Velocity [3]float64 `json:"velocity_au_per_day"`
}

type plutoResponse struct {
	Body         string         `json:"body"`
	T            string         `json:"t"`
	TT           float64        `json:"tt"`
	Heliocentric [3]float64     `json:"heliocentric_au"`
	Geocentric   stateJSON      `json:"geocentric"`
	Equatorial   equatorialJSON `json:"equatorial"`
	Ecliptic     eclipticJSON   `json:"ecliptic"`
}

type trackPointJSON struct {
	T    string  `json:"t"`
	RA   float64 `json:"ra_hours"`
	Dec  float64 `json:"dec_deg"`
	Dist float64 `json:"dist_au"`
	Lon  float64 `json:"lon_deg"`
	Lat  float64 `json:"lat_deg"`
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "starephem",
		"endpoints": []string{
			"/api/v1/pluto",
			"/api/v1/pluto/horizon",
			"/api/v1/pluto/track",
			"/api/v1/events/{family}",
			"/api/v1/stars",
			"/api/v1/stars/{name}",
			"/api/v1/cache/stats",
		},
		"event_families": events.FamilyNames,
	})
}

// pluto serves GET /api/v1/pluto?t=RFC3339.
func (h *handlers) pluto(w http.ResponseWriter, r *http.Request) {
	t, err := timeParam(r, "t", time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	at := astrotime.FromTime(t)

	helio, err := h.eph.HeliocentricPosition(at)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	geo, err := h.eph.GeocentricState(at)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	eq, err := transform.EquatorFromVector(geo.Position())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ecl, err := transform.EclipticFromEQJ(geo.Position())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, plutoResponse{
		Body:         engine.Pluto.String(),
		T:            t.UTC().Format(time.RFC3339),
		TT:           at.TT,
		Heliocentric: [3]float64{helio.X, helio.Y, helio.Z},
		Geocentric: stateJSON{
			Position: [3]float64{geo.X, geo.Y, geo.Z},
			Velocity: [3]float64{geo.VX, geo.VY, geo.VZ},
		},
		Equatorial: equatorialJSON{RA: eq.RA, Dec: eq.Dec, Dist: eq.Dist},
		Ecliptic:   eclipticJSON{Lon: ecl.Lon, Lat: ecl.Lat},
	})
}

// plutoHorizon serves GET /api/v1/pluto/horizon?t&lat&lon&height&refraction.
func (h *handlers) plutoHorizon(w http.ResponseWriter, r *http.Request) {
	t, err := timeParam(r, "t", time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	obs, mode, err := observerParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hor, err := h.eph.Horizon(astrotime.FromTime(t), obs, mode)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"body":     engine.Pluto.String(),
		"t":        t.UTC().Format(time.RFC3339),
		"observer": toObserverJSON(obs),
		"horizon":  toHorizonJSON(hor, mode),
	})
}

// plutoTrack serves GET /api/v1/pluto/track?from&step&count through the
// track cache. Sample times are rounded down to the cache step.
func (h *handlers) plutoTrack(w http.ResponseWriter, r *http.Request) {
	from, err := timeParam(r, "from", time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	step := defaultTrackStep
	if v := r.URL.Query().Get("step"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < h.tracks.Step() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid step parameter, must be a duration of at least %s", h.tracks.Step()))
			return
		}
		step = d
	}

	count := defaultTrackCount
	if v := r.URL.Query().Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid count parameter, must be a positive integer")
			return
		}
		count = n
	}
	if count > h.cfg.MaxTrackPoints {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error":      fmt.Sprintf("count %d exceeds the track budget", count),
			"max_points": h.cfg.MaxTrackPoints,
		})
		return
	}

	lo, hi := h.eph.ValidRange()
	first := astrotime.FromTime(from)
	last := first.AddDays(float64(count-1) * step.Hours() / 24)
	if first.Before(lo) || hi.Before(last) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("track must lie between %s and %s", lo, hi))
		return
	}

	times := make([]time.Time, count)
	for i := range times {
		times[i] = from.Add(time.Duration(i) * step)
	}
	points, err := h.tracks.Track(r.Context(), times)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]trackPointJSON, len(points))
	for i, p := range points {
		out[i] = trackPointJSON{
			T:    p.Time.ToTime().Round(time.Second).Format(time.RFC3339),
			RA:   p.Equatorial.RA,
			Dec:  p.Equatorial.Dec,
			Dist: p.Equatorial.Dist,
			Lon:  p.Ecliptic.Lon,
			Lat:  p.Ecliptic.Lat,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"body":         engine.Pluto.String(),
		"from":         from.UTC().Format(time.RFC3339),
		"step_seconds": step.Seconds(),
		"points":       out,
	})
}

// eventList serves GET /api/v1/events/{family}?from&to[&body].
func (h *handlers) eventList(w http.ResponseWriter, r *http.Request) {
	family := r.PathValue("family")

	from, err := timeParam(r, "from", time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := timeParam(r, "to", from.Add(defaultEventSpan))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to must not be before from")
		return
	}

	var body engine.Body
	if family == "transits" {
		name := r.URL.Query().Get("body")
		if name == "" {
			writeError(w, http.StatusBadRequest, "transits require a body parameter (mercury or venus)")
			return
		}
		if body, err = engine.ParseBody(name); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	records, err := events.EnumerateRecords(family, body,
		astrotime.FromTime(from), astrotime.FromTime(to),
		events.WithMaxEvents(h.cfg.MaxEvents),
		events.WithLogger(h.logger),
	)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"family": family,
		"from":   from.UTC().Format(time.RFC3339),
		"to":     to.UTC().Format(time.RFC3339),
		"count":  len(records),
		"events": records,
	})
}

func (h *handlers) starList(w http.ResponseWriter, r *http.Request) {
	names := h.stars.Names()
	list := make([]ephem.Star, 0, len(names))
	for _, n := range names {
		if s, ok := h.stars.Lookup(n); ok {
			list = append(list, s)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"stars": list})
}

// star serves GET /api/v1/stars/{name}?t[&lat&lon&height&refraction]. The
// horizon block is present only when lat and lon are given.
func (h *handlers) star(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	star, ok := h.stars.Lookup(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown star %q", name))
		return
	}
	t, err := timeParam(r, "t", time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	at := astrotime.FromTime(t)

	eq, err := h.stars.Equatorial(star.Name, at)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp := map[string]any{
		"star":       star,
		"t":          t.UTC().Format(time.RFC3339),
		"equatorial": equatorialJSON{RA: eq.RA, Dec: eq.Dec, Dist: eq.Dist},
	}

	q := r.URL.Query()
	if q.Has("lat") || q.Has("lon") {
		obs, mode, err := observerParams(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		hor, err := h.stars.Horizon(star.Name, at, obs, mode)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		resp["observer"] = toObserverJSON(obs)
		resp["horizon"] = toHorizonJSON(hor, mode)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) cacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracks.Stats())
}

// fail maps a computation error to a status code and logs server-side
// failures.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, events.ErrUnknownFamily), errors.Is(err, ephem.ErrUnknownStar):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidBody), errors.Is(err, engine.ErrInvalidParameter),
		errors.Is(err, engine.ErrInvalidTime):
		status = http.StatusBadRequest
	case errors.Is(err, ephemerr.SearchFailure):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			"component", "api",
			"path", r.URL.Path,
			"kind", ephemerr.KindOf(err).String(),
			"error", err,
		)
	}
	writeError(w, status, err.Error())
}

func toObserverJSON(obs transform.Observer) observerJSON {
	return observerJSON{Lat: obs.Latitude, Lon: obs.Longitude, Height: obs.Height}
}

func toHorizonJSON(hor transform.HorizonCoords, mode transform.Refraction) horizonJSON {
	return horizonJSON{
		Azimuth:    hor.Azimuth,
		Altitude:   hor.Altitude,
		RAOfDate:   hor.RA,
		DecOfDate:  hor.Dec,
		Refraction: mode.String(),
	}
}

// timeParam parses an RFC 3339 query parameter, or returns def when absent.
func timeParam(r *http.Request, name string, def time.Time) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s parameter, must be RFC 3339", name)
	}
	return t, nil
}

// observerParams reads lat, lon, height and refraction. lat and lon are
// required; refraction defaults to normal.
func observerParams(r *http.Request) (transform.Observer, transform.Refraction, error) {
	q := r.URL.Query()
	var obs transform.Observer

	parse := func(name string, dst *float64, need bool) error {
		v := q.Get(name)
		if v == "" {
			if need {
				return fmt.Errorf("missing %s parameter", name)
			}
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s parameter", name)
		}
		*dst = f
		return nil
	}
	if err := parse("lat", &obs.Latitude, true); err != nil {
		return obs, 0, err
	}
	if err := parse("lon", &obs.Longitude, true); err != nil {
		return obs, 0, err
	}
	if err := parse("height", &obs.Height, false); err != nil {
		return obs, 0, err
	}
	if err := obs.Validate(); err != nil {
		return obs, 0, err
	}

	mode := transform.RefractionNormal
	if v := q.Get("refraction"); v != "" {
		m, err := transform.ParseRefraction(v)
		if err != nil {
			return obs, 0, err
		}
		mode = m
	}
	return obs, mode, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
