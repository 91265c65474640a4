package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/star/starephem/internal/api"
	"github.com/star/starephem/internal/astrotime"
	"github.com/star/starephem/internal/auth"
	"github.com/star/starephem/internal/cache"
	"github.com/star/starephem/internal/config"
	"github.com/star/starephem/internal/engine"
	"github.com/star/starephem/internal/ephem"
	"github.com/star/starephem/internal/propagation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	cfg.Log(logger)
	if cfg.AuthEnabled {
		logger.Info("auth enabled")
	}

	eph := ephem.NewPluto(
		ephem.WithOpener(propagation.EngineOpener(engine.SimOptions{MaxStepDays: cfg.SimMaxStepDays})),
		ephem.WithLogger(logger),
	)
	logger.Info("anchor table loaded", "body", "pluto", "anchors", eph.Table().Len())

	stars, err := ephem.NewStarCatalog(ephem.DefaultStars...)
	if err != nil {
		logger.Error("star catalog", "error", err)
		os.Exit(1)
	}

	tracks := cache.NewTrackCache(cache.Config{
		Step:       cfg.CacheStep,
		MaxEntries: cfg.CacheMaxEntries,
	}, func(ctx context.Context, times []astrotime.Time) ([]ephem.TrackPoint, error) {
		return eph.Track(ctx, times, cfg.Workers)
	}, logger)

	srv := api.NewServer(cfg.HTTPAddr, logger, api.Config{
		Auth:               auth.Config{Enabled: cfg.AuthEnabled, Token: cfg.AuthToken},
		TrustProxy:         cfg.TrustProxy,
		MaxEvents:          cfg.MaxEvents,
		MaxTrackPoints:     cfg.MaxTrackPoints,
		MaxConcurrentPerIP: cfg.MaxConcurrentPerIP,
	}, eph, stars, tracks)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting server", "addr", cfg.HTTPAddr, "auth_enabled", cfg.AuthEnabled, "stars", len(stars.Names()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
