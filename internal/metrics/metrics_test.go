package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		// Known exact routes.
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/metrics", "/metrics"},
		{"/", "/"},
		{"/api/v1/pluto", "/api/v1/pluto"},
		{"/api/v1/pluto/horizon", "/api/v1/pluto/horizon"},
		{"/api/v1/pluto/track", "/api/v1/pluto/track"},
		{"/api/v1/cache/stats", "/api/v1/cache/stats"},

		// Parameterized routes collapse to one label.
		{"/api/v1/events/quarters", "/api/v1/events/{family}"},
		{"/api/v1/events/transits", "/api/v1/events/{family}"},
		{"/api/v1/events/bogus", "/api/v1/events/{family}"},
		{"/api/v1/stars/sirius", "/api/v1/stars/{name}"},

		// Unknown/bot paths collapse to "other".
		{"/api/v1/events/", "other"},
		{"/api/v1/events/quarters/extra", "other"},
		{"/wp-admin", "other"},
		{"/robots.txt", "other"},
		{"/.env", "other"},
		{"/api/v2/something", "other"},
		{"/favicon.ico", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := normalizeRoute(tt.path)
			if got != tt.want {
				t.Errorf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

// TestMetricsCardinality verifies that 100 unique star names produce
// exactly 1 distinct path label, not 100.
func TestMetricsCardinality(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		label := normalizeRoute(fmt.Sprintf("/api/v1/stars/star-%d", i))
		seen[label] = true
	}
	if len(seen) != 1 {
		t.Errorf("expected 1 unique label for parameterized paths, got %d: %v", len(seen), seen)
	}
}

func TestSessionGauge(t *testing.T) {
	before := testutil.ToFloat64(sessionsActive)
	opened := testutil.ToFloat64(sessionsOpened)

	SessionOpened()
	SessionOpened()
	SessionClosed()

	if got := testutil.ToFloat64(sessionsActive) - before; got != 1 {
		t.Errorf("active delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(sessionsOpened) - opened; got != 2 {
		t.Errorf("opened delta = %v, want 2", got)
	}
}

func TestRecordSearch(t *testing.T) {
	ok := searchCalls.WithLabelValues("quarters", "ok")
	failed := searchCalls.WithLabelValues("quarters", "error")
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	RecordSearch("quarters", nil)
	RecordSearch("quarters", nil)
	RecordSearch("quarters", errors.New("diverged"))

	if got := testutil.ToFloat64(ok) - okBefore; got != 2 {
		t.Errorf("ok delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(failed) - failedBefore; got != 1 {
		t.Errorf("error delta = %v, want 1", got)
	}
}

func TestMiddlewareRecordsNormalizedRoute(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	c := httpRequestsTotal.WithLabelValues("/api/v1/stars/{name}", http.MethodGet, "418")
	before := testutil.ToFloat64(c)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stars/vega", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got := testutil.ToFloat64(c) - before; got != 1 {
		t.Errorf("request counter delta = %v, want 1", got)
	}
}
