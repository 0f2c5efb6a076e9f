// Package config defines service configuration and its loader.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file. ":memory:" keeps everything in RAM.
	DBPath string `koanf:"db_path"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Year pins the session's current year. 0 follows the calendar year.
	Year int `koanf:"year"`

	// Region selects regional holidays in addition to nationwide ones (e.g. "BY").
	Region string `koanf:"region"`

	// HolidaysFile is an optional YAML holiday rule file; empty uses the
	// embedded defaults.
	HolidaysFile string `koanf:"holidays_file"`

	// SeedYears is how many years, starting at the current one, get holiday
	// rules seeded on startup when the store has none for that year.
	SeedYears int `koanf:"seed_years"`

	// DemoData loads a small demo roster into an empty store.
	DemoData bool `koanf:"demo_data"`

	// AllowedOrigins feeds the CORS middleware.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// RateLimitPerMinute caps write requests per client IP. 0 disables.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`

	// SchedulerInterval is how often the year-change scheduler checks the date.
	SchedulerInterval time.Duration `koanf:"scheduler_interval"`

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// New returns a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		Addr:               ":8080",
		DBPath:             "./data/teamplanner.db",
		LogLevel:           "info",
		LogFormat:          "text",
		Region:             "",
		SeedYears:          2,
		AllowedOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		RateLimitPerMinute: 120,
		SchedulerInterval:  time.Hour,
		ShutdownTimeout:    10 * time.Second,
	}
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.DBPath) == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case c.Year != 0 && (c.Year < 1970 || c.Year > 2200):
		return fmt.Errorf("%w: year %d out of range", ErrInvalidConfig, c.Year)
	case c.SeedYears < 0:
		return fmt.Errorf("%w: seed_years must not be negative", ErrInvalidConfig)
	case c.RateLimitPerMinute < 0:
		return fmt.Errorf("%w: rate_limit_per_minute must not be negative", ErrInvalidConfig)
	case c.SchedulerInterval <= 0:
		return fmt.Errorf("%w: scheduler_interval must be positive", ErrInvalidConfig)
	case c.ShutdownTimeout <= 0:
		return fmt.Errorf("%w: shutdown_timeout must be positive", ErrInvalidConfig)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		return fmt.Errorf("%w: log_format %q (want text or json)", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// SlogLevel parses LogLevel. Accepts debug, info, warn/warning, error.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.LogLevel)
}
