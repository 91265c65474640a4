// Package cache provides an in-memory memo cache of track samples.
//
// Samples are keyed by their time rounded down to a fixed step, so repeated
// track requests over overlapping ranges only propagate the samples they have
// not seen. When the cache grows past its entry limit the oldest sample times
// are evicted first.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/star/starephem/internal/astrotime"
	"github.com/star/starephem/internal/ephem"
	"github.com/star/starephem/internal/metrics"
)

// Config holds cache configuration loaded from environment variables.
type Config struct {
	Step       time.Duration // Key rounding interval (default: 1h)
	MaxEntries int           // Entries kept before eviction (default: 10000)
}

// BatchFunc computes track samples for times, in order.
type BatchFunc func(ctx context.Context, times []astrotime.Time) ([]ephem.TrackPoint, error)

// CacheEntry wraps a sample with generation metadata.
type CacheEntry struct {
	Point       ephem.TrackPoint
	GeneratedAt time.Time
}

// TrackCache is an in-memory cache of track samples.
// Safe for concurrent use by multiple goroutines.
type TrackCache struct {
	mu      sync.RWMutex
	entries map[time.Time]*CacheEntry

	config Config
	batch  BatchFunc
	logger *slog.Logger

	// Counters (lock-free).
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewTrackCache creates a track cache that fills misses through batch.
func NewTrackCache(config Config, batch BatchFunc, logger *slog.Logger) *TrackCache {
	if config.Step <= 0 {
		config.Step = time.Hour
	}
	if config.MaxEntries < 1 {
		config.MaxEntries = 1
	}

	logger.Info("cache initialized",
		"step_seconds", config.Step.Seconds(),
		"max_entries", config.MaxEntries,
	)

	return &TrackCache{
		entries: make(map[time.Time]*CacheEntry),
		config:  config,
		batch:   batch,
		logger:  logger,
	}
}

// RoundToStep rounds a timestamp down to the nearest step boundary.
// Always converts to UTC first so equal instants share a key.
func (c *TrackCache) RoundToStep(t time.Time) time.Time {
	return t.UTC().Truncate(c.config.Step)
}

// Step returns the key rounding interval.
func (c *TrackCache) Step() time.Duration {
	return c.config.Step
}

// Get returns the cached sample for the step containing t.
func (c *TrackCache) Get(t time.Time) (ephem.TrackPoint, bool) {
	key := c.RoundToStep(t)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	c.record(ok)
	if !ok {
		return ephem.TrackPoint{}, false
	}
	return entry.Point, true
}

// Track returns one sample per element of times. Each time is rounded to
// the step, so a sample's Time is its key rather than the requested
// instant. Missing keys are computed in a single batch call; a failed
// batch leaves the cache unchanged.
func (c *TrackCache) Track(ctx context.Context, times []time.Time) ([]ephem.TrackPoint, error) {
	keys := make([]time.Time, len(times))
	out := make([]ephem.TrackPoint, len(times))
	found := make([]bool, len(times))

	var missing []time.Time
	seen := make(map[time.Time]bool)

	c.mu.RLock()
	for i, t := range times {
		keys[i] = c.RoundToStep(t)
		if entry, ok := c.entries[keys[i]]; ok {
			out[i], found[i] = entry.Point, true
		} else if !seen[keys[i]] {
			seen[keys[i]] = true
			missing = append(missing, keys[i])
		}
	}
	c.mu.RUnlock()

	for _, ok := range found {
		c.record(ok)
	}
	if len(missing) == 0 {
		return out, nil
	}

	at := make([]astrotime.Time, len(missing))
	for i, k := range missing {
		at[i] = astrotime.FromTime(k)
	}
	points, err := c.batch(ctx, at)
	if err != nil {
		return nil, err
	}
	if len(points) != len(missing) {
		return nil, fmt.Errorf("cache: batch returned %d points for %d times", len(points), len(missing))
	}

	computed := make(map[time.Time]ephem.TrackPoint, len(missing))
	for i, k := range missing {
		computed[k] = points[i]
	}
	c.putAll(computed)

	for i := range out {
		if !found[i] {
			out[i] = computed[keys[i]]
		}
	}
	return out, nil
}

func (c *TrackCache) record(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	metrics.TrackCacheLookup(hit)
}

// putAll stores samples and evicts down to MaxEntries. Caller must not hold mu.
func (c *TrackCache) putAll(points map[time.Time]ephem.TrackPoint) {
	now := time.Now()

	c.mu.Lock()
	for k, p := range points {
		c.entries[k] = &CacheEntry{Point: p, GeneratedAt: now}
	}
	removed := c.evictOldestLocked()
	count := len(c.entries)
	c.mu.Unlock()

	if removed > 0 {
		c.evictions.Add(int64(removed))
		c.logger.Debug("cache eviction", "entries_removed", removed)
	}
	metrics.SetTrackCacheEntries(count)
}

// evictOldestLocked drops the earliest keys beyond MaxEntries. Caller must
// hold mu for writing.
func (c *TrackCache) evictOldestLocked() int {
	excess := len(c.entries) - c.config.MaxEntries
	if excess <= 0 {
		return 0
	}

	keys := make([]time.Time, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	for _, k := range keys[:excess] {
		delete(c.entries, k)
	}
	return excess
}

// Purge removes every entry.
func (c *TrackCache) Purge() {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[time.Time]*CacheEntry)
	c.mu.Unlock()

	c.evictions.Add(int64(n))
	metrics.SetTrackCacheEntries(0)
}

// Stats returns current cache statistics.
func (c *TrackCache) Stats() CacheStats {
	c.mu.RLock()
	count := len(c.entries)

	var oldest, newest time.Time
	for ts := range c.entries {
		if oldest.IsZero() || ts.Before(oldest) {
			oldest = ts
		}
		if newest.IsZero() || ts.After(newest) {
			newest = ts
		}
	}
	c.mu.RUnlock()

	return CacheStats{
		Entries:         count,
		MaxEntries:      c.config.MaxEntries,
		StepSeconds:     c.config.Step.Seconds(),
		OldestTimestamp: oldest,
		NewestTimestamp: newest,
		Hits:            c.hits.Load(),
		Misses:          c.misses.Load(),
		Evictions:       c.evictions.Load(),
	}
}

// CacheStats holds cache statistics for the stats endpoint.
type CacheStats struct {
	Entries         int       `json:"entries"`
	MaxEntries      int       `json:"max_entries"`
	StepSeconds     float64   `json:"step_seconds"`
	OldestTimestamp time.Time `json:"oldest"`
	NewestTimestamp time.Time `json:"newest"`
	Hits            int64     `json:"hits"`
	Misses          int64     `json:"misses"`
	Evictions       int64     `json:"evictions"`
}
