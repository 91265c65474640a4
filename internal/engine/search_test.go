package engine

import (
	"errors"
	"testing"
	"time"
)

func TestSearchMoonQuarter(t *testing.T) {
	q, err := SearchMoonQuarter(at(t, "2024-01-01T00:00:00Z"))
	if err != nil {
		t.Fatal(err)
	}
	if q.Quarter != 3 || !within(q.Time, at(t, "2024-01-04T03:30:00Z"), 10*time.Minute) {
		t.Errorf("first quarter event = %v", q)
	}

	want := []struct {
		quarter int
		at      string
	}{
		{0, "2024-01-11T11:57:00Z"},
		{1, "2024-01-18T03:52:00Z"},
		{2, "2024-01-25T17:54:00Z"},
	}
	for _, w := range want {
		q, err = SearchMoonQuarter(q.Time.AddDays(6))
		if err != nil {
			t.Fatal(err)
		}
		if q.Quarter != w.quarter || !within(q.Time, at(t, w.at), 10*time.Minute) {
			t.Errorf("got %v, want quarter %d at %s", q, w.quarter, w.at)
		}
	}
}

func TestSearchMoonQuarterAtEvent(t *testing.T) {
	q, err := SearchMoonQuarter(at(t, "2024-01-01T00:00:00Z"))
	if err != nil {
		t.Fatal(err)
	}
	again, err := SearchMoonQuarter(q.Time)
	if err != nil {
		t.Fatal(err)
	}
	if again.Quarter != q.Quarter || again.Time != q.Time {
		t.Errorf("search from event time returned %v, want %v", again, q)
	}
}

func TestSearchMoonNodeAlternates(t *testing.T) {
	n, err := SearchMoonNode(at(t, "2021-03-01T00:00:00Z"))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		next, err := SearchMoonNode(n.Time.AddDays(10))
		if err != nil {
			t.Fatal(err)
		}
		if next.Kind != -n.Kind {
			t.Fatalf("node %d: %s followed by %s", i, n.Kind, next.Kind)
		}
		gap := next.Time.Sub(n.Time)
		if gap < 12 || gap > 15.2 {
			t.Errorf("node %d: gap %.2f days", i, gap)
		}
		n = next
	}
}

func TestSearchLunarApsis(t *testing.T) {
	a, err := SearchLunarApsis(at(t, "2022-01-01T00:00:00Z"))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 26; i++ {
		switch a.Kind {
		case Pericenter:
			if a.DistanceKM < 356000 || a.DistanceKM > 370500 {
				t.Errorf("perigee %s at %.0f km", a.Time, a.DistanceKM)
			}
		case Apocenter:
			if a.DistanceKM < 404000 || a.DistanceKM > 406800 {
				t.Errorf("apogee %s at %.0f km", a.Time, a.DistanceKM)
			}
		}
		if d := a.DistanceAU*KMPerAU - a.DistanceKM; d > 1e-6 || d < -1e-6 {
			t.Errorf("AU/km mismatch: %g", d)
		}
		next, err := SearchLunarApsis(a.Time.AddDays(11))
		if err != nil {
			t.Fatal(err)
		}
		if next.Kind == a.Kind {
			t.Fatalf("apsis %d: %s followed by %s", i, a.Kind, next.Kind)
		}
		a = next
	}
}

func TestSearchLunarEclipse(t *testing.T) {
	tests := []struct {
		name  string
		from  string
		kind  EclipseKind
		peak  string
		check func(*testing.T, LunarEclipse)
	}{
		{
			name: "total 2019",
			from: "2019-01-01T00:00:00Z",
			kind: Total,
			peak: "2019-01-21T05:12:00Z",
			check: func(t *testing.T, e LunarEclipse) {
				if e.SemiDurationTotal < 20 || e.SemiDurationTotal > 45 {
					t.Errorf("total semi-duration = %.1f min", e.SemiDurationTotal)
				}
				if e.SemiDurationPartial < 80 || e.SemiDurationPartial > 115 {
					t.Errorf("partial semi-duration = %.1f min", e.SemiDurationPartial)
				}
				if e.SemiDurationPenumbral <= e.SemiDurationPartial {
					t.Errorf("penumbral %.1f <= partial %.1f", e.SemiDurationPenumbral, e.SemiDurationPartial)
				}
				if e.Obscuration != 1 {
					t.Errorf("obscuration = %g", e.Obscuration)
				}
			},
		},
		{
			name: "partial 2021",
			from: "2021-06-01T00:00:00Z",
			kind: Partial,
			peak: "2021-11-19T09:03:00Z",
			check: func(t *testing.T, e LunarEclipse) {
				if e.Obscuration < 0.9 || e.Obscuration >= 1 {
					t.Errorf("obscuration = %g", e.Obscuration)
				}
				if e.SemiDurationTotal != 0 {
					t.Errorf("total semi-duration = %g", e.SemiDurationTotal)
				}
			},
		},
		{
			name: "penumbral 2020",
			from: "2020-01-01T00:00:00Z",
			kind: Penumbral,
			peak: "2020-01-10T19:10:00Z",
			check: func(t *testing.T, e LunarEclipse) {
				if e.SemiDurationPartial != 0 || e.Obscuration != 0 {
					t.Errorf("penumbral eclipse with umbral phase: %+v", e)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := SearchLunarEclipse(at(t, tt.from))
			if err != nil {
				t.Fatal(err)
			}
			if e.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", e.Kind, tt.kind)
			}
			if !within(e.Peak, at(t, tt.peak), 20*time.Minute) {
				t.Errorf("peak = %s, want %s", e.Peak, tt.peak)
			}
			tt.check(t, e)
		})
	}
}

func TestSearchTransit(t *testing.T) {
	tests := []struct {
		name                string
		body                Body
		from                string
		start, peak, finish string
	}{
		{"mercury 2016", Mercury, "2016-01-01T00:00:00Z", "2016-05-09T11:12:00Z", "2016-05-09T14:57:00Z", "2016-05-09T18:42:00Z"},
		{"mercury 2019", Mercury, "2016-06-01T00:00:00Z", "2019-11-11T12:35:00Z", "2019-11-11T15:20:00Z", "2019-11-11T18:04:00Z"},
		{"mercury 2019 under way", Mercury, "2019-11-11T14:00:00Z", "2019-11-11T12:35:00Z", "2019-11-11T15:20:00Z", "2019-11-11T18:04:00Z"},
		{"venus 2012", Venus, "2012-01-01T00:00:00Z", "2012-06-05T22:09:00Z", "2012-06-06T01:29:00Z", "2012-06-06T04:49:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := SearchTransit(tt.body, at(t, tt.from))
			if err != nil {
				t.Fatal(err)
			}
			if !within(tr.Peak, at(t, tt.peak), 20*time.Minute) {
				t.Errorf("peak = %s, want %s", tr.Peak, tt.peak)
			}
			if !within(tr.Start, at(t, tt.start), 30*time.Minute) {
				t.Errorf("start = %s, want %s", tr.Start, tt.start)
			}
			if !within(tr.Finish, at(t, tt.finish), 30*time.Minute) {
				t.Errorf("finish = %s, want %s", tr.Finish, tt.finish)
			}
			if !(tr.Start.Before(tr.Peak) && tr.Peak.Before(tr.Finish)) {
				t.Errorf("contacts out of order: %+v", tr)
			}
			if tr.Separation <= 0 || tr.Separation > 16.5 {
				t.Errorf("separation = %.2f arcmin", tr.Separation)
			}
		})
	}
}

func TestSearchTransitAfterPeak(t *testing.T) {
	// Past mid-transit the 2019 event no longer qualifies.
	tr, err := SearchTransit(Mercury, at(t, "2019-11-11T16:00:00Z"))
	if err != nil {
		t.Fatal(err)
	}
	if got := tr.Peak.ToTime().Format("2006-01-02"); got != "2032-11-13" {
		t.Errorf("peak = %s, want 2032-11-13", tr.Peak)
	}
}

func TestSearchTransitInvalidBody(t *testing.T) {
	if _, err := SearchTransit(Mars, at(t, "2000-01-01T00:00:00Z")); !errors.Is(err, ErrInvalidBody) {
		t.Errorf("err = %v, want ErrInvalidBody", err)
	}
}

func TestCircleOverlap(t *testing.T) {
	if a := circleOverlap(1, 1, 3); a != 0 {
		t.Errorf("disjoint overlap = %g", a)
	}
	if a := circleOverlap(1, 3, 0.5); a < 3.14159 || a > 3.1416 {
		t.Errorf("contained overlap = %g", a)
	}
	half := circleOverlap(1, 1000, 1000)
	if half < 1.5 || half > 1.65 {
		t.Errorf("half-covered disc overlap = %g, want ~π/2", half)
	}
}
