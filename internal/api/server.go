// Package api serves positions and event listings over JSON HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/star/starephem/internal/astrotime"
	"github.com/star/starephem/internal/auth"
	"github.com/star/starephem/internal/cache"
	"github.com/star/starephem/internal/ephem"
	"github.com/star/starephem/internal/health"
	"github.com/star/starephem/internal/httputil"
	"github.com/star/starephem/internal/metrics"
)

// Config holds the request limits and access settings of the API.
type Config struct {
	Auth               auth.Config
	TrustProxy         bool
	MaxEvents          int
	MaxTrackPoints     int
	MaxConcurrentPerIP int
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(addr string, logger *slog.Logger, cfg Config, eph *ephem.Ephemeris, stars *ephem.StarCatalog, tracks *cache.TrackCache) *Server {
	h := &handlers{
		cfg:    cfg,
		eph:    eph,
		stars:  stars,
		tracks: tracks,
		logger: logger,
	}
	limiter := httputil.NewLimiter(cfg.MaxConcurrentPerIP)
	limited := func(fn http.HandlerFunc) http.Handler {
		return limiter.Limit(fn, cfg.TrustProxy, logger)
	}

	routes := []route{
		{"GET /{$}", http.HandlerFunc(h.index), false},
		{"GET /healthz", http.HandlerFunc(health.Healthz), true},
		{"GET /readyz", health.Readyz(h.ready, logger), true},
		{"GET /metrics", metrics.Handler(), true},
		{"GET /api/v1/pluto", http.HandlerFunc(h.pluto), false},
		{"GET /api/v1/pluto/horizon", http.HandlerFunc(h.plutoHorizon), false},
		{"GET /api/v1/pluto/track", limited(h.plutoTrack), false},
		{"GET /api/v1/events/{family}", limited(h.eventList), false},
		{"GET /api/v1/stars", http.HandlerFunc(h.starList), true},
		{"GET /api/v1/stars/{name}", http.HandlerFunc(h.star), true},
		{"GET /api/v1/cache/stats", http.HandlerFunc(h.cacheStats), true},
	}

	mux := http.NewServeMux()
	authCfg := cfg.Auth
	authCfg.Public = append([]string(nil), cfg.Auth.Public...)
	for _, rt := range routes {
		mux.Handle(rt.pattern, rt.handler)
		if rt.public {
			authCfg.Public = append(authCfg.Public, publicPath(rt.pattern))
		}
	}

	// Build middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = loggingMiddleware(logger, cfg.TrustProxy)(handler)
	handler = metrics.Middleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// route is one registered endpoint. Public routes skip bearer auth.
type route struct {
	pattern string
	handler http.Handler
	public  bool
}

// publicPath turns a mux pattern into an auth.Config.Public entry: the
// method is dropped and a trailing wildcard segment becomes a subtree.
func publicPath(pattern string) string {
	if _, path, ok := strings.Cut(pattern, " "); ok {
		pattern = path
	}
	if i := strings.Index(pattern, "{"); i >= 0 {
		return pattern[:i]
	}
	return pattern
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// ready computes one geocentric position, which touches the anchor table,
// a gravity session and the engine's Earth.
func (h *handlers) ready(ctx context.Context) error {
	_, err := h.eph.GeocentricPosition(astrotime.FromTime(time.Now()))
	return err
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", httputil.ClientIP(r, trustProxy),
			)
		})
	}
}
