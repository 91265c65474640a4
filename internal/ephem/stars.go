package ephem

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/star/starephem/internal/astrotime"
	"github.com/star/starephem/internal/engine"
	"github.com/star/starephem/internal/ephemerr"
	"github.com/star/starephem/internal/transform"
)

// slotMu guards the engine's star slots. The slots are process-global, so
// the lock is too: two catalogs must not interleave a configure and a query.
var slotMu sync.Mutex

// catalogSlot is the engine slot every catalog query goes through.
const catalogSlot = engine.Star1

// Star is a fixed star with J2000 coordinates.
type Star struct {
	Name   string  `json:"name"`
	RA     float64 `json:"ra_hours"`
	Dec    float64 `json:"dec_deg"`
	DistLy float64 `json:"distance_ly"`
}

// DefaultStars is a handful of bright stars for the API and CLI.
var DefaultStars = []Star{
	{Name: "sirius", RA: 6.752481, Dec: -16.716116, DistLy: 8.6},
	{Name: "vega", RA: 18.615649, Dec: 38.783689, DistLy: 25.0},
	{Name: "polaris", RA: 2.530301, Dec: 89.264109, DistLy: 433},
	{Name: "betelgeuse", RA: 5.919529, Dec: 7.407064, DistLy: 548},
	{Name: "canopus", RA: 6.399197, Dec: -52.695661, DistLy: 310},
}

// StarCatalog maps names to fixed stars and answers position queries by
// binding a star to an engine slot and reading it back in one critical
// section.
type StarCatalog struct {
	mu    sync.RWMutex
	stars map[string]Star
	earth EarthFunc
}

// NewStarCatalog returns a catalog holding stars.
func NewStarCatalog(stars ...Star) (*StarCatalog, error) {
	c := &StarCatalog{
		stars: make(map[string]Star),
		earth: func(t astrotime.Time) (transform.StateVector, error) {
			return engine.HelioState(engine.Earth, t)
		},
	}
	for _, s := range stars {
		if err := c.Define(s.Name, s.RA, s.Dec, s.DistLy); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Define adds or replaces a star. Coordinates are validated by the engine.
func (c *StarCatalog) Define(name string, raHours, decDeg, distLy float64) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return errors.New("star name is empty")
	}
	slotMu.Lock()
	err := engine.DefineStar(catalogSlot, raHours, decDeg, distLy)
	slotMu.Unlock()
	if err != nil {
		return fmt.Errorf("star %q: %w", name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stars[name] = Star{Name: name, RA: raHours, Dec: decDeg, DistLy: distLy}
	return nil
}

// Lookup returns the named star.
func (c *StarCatalog) Lookup(name string) (Star, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.stars[strings.ToLower(name)]
	return s, ok
}

// Names returns the catalog's star names in sorted order.
func (c *StarCatalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.stars))
	for n := range c.stars {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ErrUnknownStar is returned for names missing from the catalog.
var ErrUnknownStar = errors.New("unknown star")

// geocentric binds the star to the engine slot and reads its heliocentric
// position under slotMu, then subtracts the Earth.
func (c *StarCatalog) geocentric(name string, t astrotime.Time) (transform.Vector, error) {
	star, ok := c.Lookup(name)
	if !ok {
		return transform.Vector{}, fmt.Errorf("%w: %q", ErrUnknownStar, name)
	}

	slotMu.Lock()
	err := engine.DefineStar(catalogSlot, star.RA, star.Dec, star.DistLy)
	var helio transform.Vector
	if err == nil {
		helio, err = engine.HelioVector(catalogSlot, t)
	}
	slotMu.Unlock()
	if err != nil {
		return transform.Vector{}, ephemerr.New(ephemerr.Propagation, "stars.position", err)
	}

	earth, err := c.earth(t)
	if err != nil {
		return transform.Vector{}, ephemerr.New(ephemerr.Propagation, "stars.earth", err)
	}
	return helio.Sub(earth.Position()), nil
}

// Equatorial returns the star's geocentric J2000 coordinates.
func (c *StarCatalog) Equatorial(name string, t astrotime.Time) (transform.Equatorial, error) {
	geo, err := c.geocentric(name, t)
	if err != nil {
		return transform.Equatorial{}, err
	}
	eq, err := transform.EquatorFromVector(geo)
	if err != nil {
		return transform.Equatorial{}, frameErr("stars.equatorial", err)
	}
	return eq, nil
}

// Horizon returns the star's azimuth and altitude for obs.
func (c *StarCatalog) Horizon(name string, t astrotime.Time, obs transform.Observer, mode transform.Refraction) (transform.HorizonCoords, error) {
	geo, err := c.geocentric(name, t)
	if err != nil {
		return transform.HorizonCoords{}, err
	}
	return horizonOfDate(t, geo, obs, mode)
}
