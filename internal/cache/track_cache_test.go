package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/star/starephem/internal/astrotime"
	"github.com/star/starephem/internal/ephem"
	"github.com/star/starephem/internal/transform"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func testConfig() Config {
	return Config{Step: time.Hour, MaxEntries: 100}
}

// countingBatch returns samples whose ecliptic longitude is the day number,
// and counts the times it was asked for.
func countingBatch(calls, asked *atomic.Int64) BatchFunc {
	return func(ctx context.Context, times []astrotime.Time) ([]ephem.TrackPoint, error) {
		calls.Add(1)
		asked.Add(int64(len(times)))
		out := make([]ephem.TrackPoint, len(times))
		for i, t := range times {
			out[i] = ephem.TrackPoint{Time: t, Ecliptic: transform.Ecliptic{Lon: t.UT}}
		}
		return out, nil
	}
}

func hours(base time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = base.Add(time.Duration(i) * time.Hour)
	}
	return out
}

// TestRoundToStep verifies timestamp rounding.
func TestRoundToStep(t *testing.T) {
	var calls, asked atomic.Int64
	c := NewTrackCache(testConfig(), countingBatch(&calls, &asked), testLogger())

	tests := []struct {
		input    time.Time
		expected time.Time
	}{
		{
			input:    time.Date(2026, 2, 6, 12, 0, 3, 0, time.UTC),
			expected: time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC),
		},
		{
			input:    time.Date(2026, 2, 6, 12, 59, 59, 0, time.UTC),
			expected: time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC),
		},
		{
			input:    time.Date(2026, 2, 6, 13, 0, 0, 0, time.UTC),
			expected: time.Date(2026, 2, 6, 13, 0, 0, 0, time.UTC),
		},
		{
			input:    time.Date(2026, 2, 6, 14, 30, 0, 0, time.FixedZone("CET", 3600)),
			expected: time.Date(2026, 2, 6, 13, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		got := c.RoundToStep(tt.input)
		if !got.Equal(tt.expected) {
			t.Errorf("RoundToStep(%v) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

// TestTrackFillsAndHits verifies that a second request is served from the cache.
func TestTrackFillsAndHits(t *testing.T) {
	var calls, asked atomic.Int64
	c := NewTrackCache(testConfig(), countingBatch(&calls, &asked), testLogger())
	ctx := context.Background()
	base := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	first, err := c.Track(ctx, hours(base, 10))
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if len(first) != 10 {
		t.Fatalf("points: got %d, want 10", len(first))
	}
	if calls.Load() != 1 || asked.Load() != 10 {
		t.Errorf("batch calls=%d asked=%d, want 1 and 10", calls.Load(), asked.Load())
	}

	second, err := c.Track(ctx, hours(base.Add(5*time.Hour), 10))
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	// Hours 5-9 overlap, only 10-14 are new.
	if calls.Load() != 2 || asked.Load() != 15 {
		t.Errorf("batch calls=%d asked=%d, want 2 and 15", calls.Load(), asked.Load())
	}
	if second[0].Ecliptic.Lon != first[5].Ecliptic.Lon {
		t.Errorf("overlapping sample differs: %v vs %v", second[0].Ecliptic.Lon, first[5].Ecliptic.Lon)
	}
	for i := 1; i < len(second); i++ {
		if second[i].Time.UT <= second[i-1].Time.UT {
			t.Fatalf("samples out of order at %d", i)
		}
	}

	stats := c.Stats()
	if stats.Entries != 15 {
		t.Errorf("entries: got %d, want 15", stats.Entries)
	}
	if stats.Hits != 5 {
		t.Errorf("hits: got %d, want 5", stats.Hits)
	}
	if stats.Misses != 15 {
		t.Errorf("misses: got %d, want 15", stats.Misses)
	}
	if !stats.OldestTimestamp.Equal(base) {
		t.Errorf("oldest: got %v, want %v", stats.OldestTimestamp, base)
	}
}

// TestTrackDeduplicatesKeys verifies that times in the same step share one sample.
func TestTrackDeduplicatesKeys(t *testing.T) {
	var calls, asked atomic.Int64
	c := NewTrackCache(testConfig(), countingBatch(&calls, &asked), testLogger())
	base := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	times := []time.Time{base, base.Add(10 * time.Minute), base.Add(50 * time.Minute)}
	points, err := c.Track(context.Background(), times)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if asked.Load() != 1 {
		t.Errorf("asked: got %d, want 1", asked.Load())
	}
	for i, p := range points {
		if d := p.Time.ToTime().Sub(base).Abs(); d > time.Millisecond {
			t.Errorf("point %d time = %v, want %v", i, p.Time.ToTime(), base)
		}
	}
}

// TestGet verifies hit and miss accounting on single lookups.
func TestGet(t *testing.T) {
	var calls, asked atomic.Int64
	c := NewTrackCache(testConfig(), countingBatch(&calls, &asked), testLogger())
	base := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, ok := c.Get(base); ok {
		t.Fatal("expected miss on empty cache")
	}
	if _, err := c.Track(context.Background(), []time.Time{base}); err != nil {
		t.Fatalf("Track: %v", err)
	}
	if _, ok := c.Get(base.Add(30 * time.Minute)); !ok {
		t.Fatal("expected hit within the same step")
	}
	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 2 {
		t.Errorf("hits=%d misses=%d, want 1 and 2", stats.Hits, stats.Misses)
	}
}

// TestEvictOldest verifies that the earliest keys go first past MaxEntries.
func TestEvictOldest(t *testing.T) {
	var calls, asked atomic.Int64
	cfg := testConfig()
	cfg.MaxEntries = 5
	c := NewTrackCache(cfg, countingBatch(&calls, &asked), testLogger())
	base := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := c.Track(context.Background(), hours(base, 8)); err != nil {
		t.Fatalf("Track: %v", err)
	}

	stats := c.Stats()
	if stats.Entries != 5 {
		t.Errorf("entries: got %d, want 5", stats.Entries)
	}
	if stats.Evictions != 3 {
		t.Errorf("evictions: got %d, want 3", stats.Evictions)
	}
	if want := base.Add(3 * time.Hour); !stats.OldestTimestamp.Equal(want) {
		t.Errorf("oldest: got %v, want %v", stats.OldestTimestamp, want)
	}
	if _, ok := c.Get(base); ok {
		t.Error("oldest key should have been evicted")
	}
}

// TestBatchFailureLeavesCache verifies that a failed batch stores nothing.
func TestBatchFailureLeavesCache(t *testing.T) {
	boom := errors.New("boom")
	c := NewTrackCache(testConfig(), func(ctx context.Context, times []astrotime.Time) ([]ephem.TrackPoint, error) {
		return nil, boom
	}, testLogger())

	_, err := c.Track(context.Background(), hours(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), 3))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if n := c.Stats().Entries; n != 0 {
		t.Errorf("entries: got %d, want 0", n)
	}
}

// TestPurge verifies that Purge empties the cache.
func TestPurge(t *testing.T) {
	var calls, asked atomic.Int64
	c := NewTrackCache(testConfig(), countingBatch(&calls, &asked), testLogger())
	if _, err := c.Track(context.Background(), hours(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), 4)); err != nil {
		t.Fatalf("Track: %v", err)
	}
	c.Purge()
	if n := c.Stats().Entries; n != 0 {
		t.Errorf("entries after purge: got %d, want 0", n)
	}
}
