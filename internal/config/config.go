// Package config loads service configuration from STAREPHEM_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Prefix is prepended to every variable name.
const Prefix = "STAREPHEM_"

// Config is the effective service configuration.
type Config struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AuthEnabled bool   `env:"AUTH_ENABLED"`
	AuthToken   string `env:"AUTH_TOKEN"`
	TrustProxy  bool   `env:"TRUST_PROXY"`

	// Workers sizes the track worker pool; zero means runtime.NumCPU().
	Workers        int     `env:"WORKERS"`
	SimMaxStepDays float64 `env:"SIM_MAX_STEP_DAYS" envDefault:"10"`
	MaxEvents      int     `env:"MAX_EVENTS" envDefault:"5000"`
	MaxTrackPoints int     `env:"MAX_TRACK_POINTS" envDefault:"2000"`

	// MaxConcurrentPerIP caps in-flight event and track requests per client.
	MaxConcurrentPerIP int `env:"MAX_CONCURRENT_PER_IP" envDefault:"4"`

	CacheStep       time.Duration `env:"CACHE_STEP" envDefault:"1h"`
	CacheMaxEntries int           `env:"CACHE_MAX_ENTRIES" envDefault:"10000"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	return parse(env.Options{Prefix: Prefix})
}

// LoadFrom parses vars instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.AuthEnabled && c.AuthToken == "" {
		return errors.New(Prefix + "AUTH_TOKEN is required when auth is enabled")
	}
	if c.Workers < 1 {
		return fmt.Errorf("%sWORKERS must be positive, got %d", Prefix, c.Workers)
	}
	if !(c.SimMaxStepDays > 0) {
		return fmt.Errorf("%sSIM_MAX_STEP_DAYS must be positive, got %v", Prefix, c.SimMaxStepDays)
	}
	if c.MaxEvents < 1 {
		return fmt.Errorf("%sMAX_EVENTS must be positive, got %d", Prefix, c.MaxEvents)
	}
	if c.MaxTrackPoints < 1 {
		return fmt.Errorf("%sMAX_TRACK_POINTS must be positive, got %d", Prefix, c.MaxTrackPoints)
	}
	if c.MaxConcurrentPerIP < 1 {
		return fmt.Errorf("%sMAX_CONCURRENT_PER_IP must be positive, got %d", Prefix, c.MaxConcurrentPerIP)
	}
	if c.CacheStep < time.Second {
		return fmt.Errorf("%sCACHE_STEP must be at least 1s, got %s", Prefix, c.CacheStep)
	}
	if c.CacheMaxEntries < 1 {
		return fmt.Errorf("%sCACHE_MAX_ENTRIES must be positive, got %d", Prefix, c.CacheMaxEntries)
	}
	return nil
}

// ParseLevel maps debug, info, warn or error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%sLOG_LEVEL must be debug, info, warn or error, got %q", Prefix, s)
}

// Log writes the effective configuration, without the auth token.
func (c Config) Log(logger *slog.Logger) {
	logger.Info("config",
		"http_addr", c.HTTPAddr,
		"log_level", c.LogLevel,
		"auth_enabled", c.AuthEnabled,
		"trust_proxy", c.TrustProxy,
		"workers", c.Workers,
		"sim_max_step_days", c.SimMaxStepDays,
		"max_events", c.MaxEvents,
		"max_track_points", c.MaxTrackPoints,
		"max_concurrent_per_ip", c.MaxConcurrentPerIP,
		"cache_step_seconds", c.CacheStep.Seconds(),
		"cache_max_entries", c.CacheMaxEntries,
	)
}
