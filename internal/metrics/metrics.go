package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starephem_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "starephem_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	sessionsOpened = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "starephem_sessions_opened_total",
		Help: "Propagation sessions opened.",
	})

	sessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "starephem_sessions_active",
		Help: "Propagation sessions currently holding an engine handle.",
	})

	propagationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "starephem_propagation_duration_seconds",
			Help:    "Duration of a single session advance.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 4, 10),
		},
		[]string{"result"},
	)

	anchorShortcuts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "starephem_anchor_shortcuts_total",
		Help: "Position requests answered from a stored anchor without propagation.",
	})

	searchCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starephem_search_calls_total",
			Help: "Event search primitive calls by family and result.",
		},
		[]string{"family", "result"},
	)

	enumeratedEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starephem_enumerated_events_total",
			Help: "Events returned by successful enumerations.",
		},
		[]string{"family"},
	)

	trackCacheEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "starephem_track_cache_entries",
		Help: "Samples held in the track cache.",
	})

	trackCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starephem_track_cache_lookups_total",
			Help: "Track cache lookups by result (hit or miss).",
		},
		[]string{"result"},
	)

	requestsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starephem_http_requests_rejected_total",
			Help: "Requests refused before reaching a handler, by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		sessionsOpened,
		sessionsActive,
		propagationDuration,
		anchorShortcuts,
		searchCalls,
		enumeratedEvents,
		trackCacheEntries,
		trackCacheLookups,
		requestsRejected,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SessionOpened records a session acquiring an engine handle.
func SessionOpened() {
	sessionsOpened.Inc()
	sessionsActive.Inc()
}

// SessionClosed records a session releasing its engine handle.
func SessionClosed() {
	sessionsActive.Dec()
}

// RecordPropagation records the duration of one session advance.
func RecordPropagation(d time.Duration, err error) {
	propagationDuration.WithLabelValues(result(err)).Observe(d.Seconds())
}

// AnchorShortcut records a request served directly from an anchor.
func AnchorShortcut() {
	anchorShortcuts.Inc()
}

// RecordSearch records one search primitive call for a family.
func RecordSearch(family string, err error) {
	searchCalls.WithLabelValues(family, result(err)).Inc()
}

// RecordEnumeration records the number of events returned by an enumeration.
func RecordEnumeration(family string, n int) {
	enumeratedEvents.WithLabelValues(family).Add(float64(n))
}

// SetTrackCacheEntries sets the track cache size gauge.
func SetTrackCacheEntries(n int) {
	trackCacheEntries.Set(float64(n))
}

// TrackCacheLookup records a track cache hit or miss.
func TrackCacheLookup(hit bool) {
	if hit {
		trackCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	trackCacheLookups.WithLabelValues("miss").Inc()
}

// IncRequestsRejected records a request refused for reason (e.g. "rate_limit").
func IncRequestsRejected(reason string) {
	requestsRejected.WithLabelValues(reason).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// knownRoutes are recorded under their own path label.
var knownRoutes = map[string]bool{
	"/":                     true,
	"/healthz":              true,
	"/readyz":               true,
	"/metrics":              true,
	"/api/v1/pluto":         true,
	"/api/v1/pluto/horizon": true,
	"/api/v1/pluto/track":   true,
	"/api/v1/stars":         true,
	"/api/v1/cache/stats":   true,
}

// paramRoutes collapse a single trailing path segment into a placeholder.
var paramRoutes = []struct {
	prefix string
	label  string
}{
	{"/api/v1/events/", "/api/v1/events/{family}"},
	{"/api/v1/stars/", "/api/v1/stars/{name}"},
}

// normalizeRoute maps a request path to a bounded set of metric labels.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	for _, r := range paramRoutes {
		rest, ok := strings.CutPrefix(path, r.prefix)
		if ok && rest != "" && !strings.Contains(rest, "/") {
			return r.label
		}
	}
	return "other"
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
