package astrotime

import (
	"math"
	"testing"
	"time"
)

// TestJulianDate verifies our Julian Date calculation against known values.
func TestJulianDate(t *testing.T) {
	tests := []struct {
		name     string
		time     time.Time
		expected float64
	}{
		{
			name:     "J2000.0 epoch",
			time:     time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
			expected: 2451545.0,
		},
		{
			name:     "Unix epoch",
			time:     time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
			expected: 2440587.5,
		},
		{
			// Vallado Example 3-15: April 6, 2004, 07:51:28.386 UTC
			name:     "Vallado example date",
			time:     time.Date(2004, 4, 6, 7, 51, 28, 386009000, time.UTC),
			expected: 2453101.827411875,
		},
		{
			name:     "non-UTC location is normalized",
			time:     time.Date(2000, 1, 1, 13, 0, 0, 0, time.FixedZone("CET", 3600)),
			expected: 2451545.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JulianDate(tt.time)
			diff := math.Abs(got - tt.expected)
			if diff > 1e-6 {
				t.Errorf("JulianDate(%v) = %.10f, want %.10f (diff=%.2e)", tt.time, got, tt.expected, diff)
			}
		})
	}
}

func TestFromTimeRoundTrip(t *testing.T) {
	times := []time.Time{
		time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 8, 18, 17, 16, 500000000, time.UTC),
		time.Date(2100, 12, 31, 23, 59, 59, 0, time.UTC),
	}
	for _, want := range times {
		got := FromTime(want).ToTime()
		if d := got.Sub(want); d > time.Millisecond || d < -time.Millisecond {
			t.Errorf("round trip %v -> %v (diff %v)", want, got, d)
		}
	}
}

func TestDeltaT(t *testing.T) {
	tests := []struct {
		year     float64
		min, max float64
	}{
		{1900, -5, 0},
		{1950, 28, 31},
		{2000, 63, 65},
		{2020, 68, 73},
	}
	for _, tt := range tests {
		ut := (tt.year - 2000) * 365.2425
		got := DeltaT(ut)
		if got < tt.min || got > tt.max {
			t.Errorf("DeltaT(%.0f) = %.2f s, want within [%.0f, %.0f]", tt.year, got, tt.min, tt.max)
		}
	}
}

func TestFromTTInvertsFromUT(t *testing.T) {
	for _, ut := range []float64{-36525, -1000.25, 0, 8766.5, 36525} {
		a := FromUT(ut)
		b := FromTT(a.TT)
		if math.Abs(a.UT-b.UT) > 1e-9 {
			t.Errorf("FromTT(%.6f).UT = %.9f, want %.9f", a.TT, b.UT, a.UT)
		}
	}
}

func TestOrdering(t *testing.T) {
	a := FromUT(10)
	b := a.AddDays(1)
	if !a.Before(b) || !b.After(a) {
		t.Fatalf("expected %v before %v", a, b)
	}
	if d := b.Sub(a); math.Abs(d-1) > 1e-6 {
		t.Errorf("Sub = %.9f, want ~1", d)
	}
}
