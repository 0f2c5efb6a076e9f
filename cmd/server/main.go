/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the teamplanner server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (defaults, YAML file, TEAMPLANNER_* env)
  2. Configure the slog logger
  3. Open the SQLite store (runs migrations)
  4. Load holiday rules and seed the configured years
  5. Create the planner session and API handler
  6. Optionally load demo data into an empty store
  7. Start the HTTP server and the year scheduler

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (shutdown_timeout)
  3. Stop the year scheduler
  4. Close database connection

EXAMPLES:
  # Run with defaults
  ./server

  # In-memory database with demo data
  TEAMPLANNER_DB_PATH=":memory:" TEAMPLANNER_DEMO_DATA=true ./server

  # Config file
  TEAMPLANNER_CONFIG=./teamplanner.yaml ./server

SEE ALSO:
  - config/loader.go: Configuration sources
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/warp/teamplanner/api"
	"github.com/warp/teamplanner/calendar"
	"github.com/warp/teamplanner/config"
	"github.com/warp/teamplanner/metrics"
	"github.com/warp/teamplanner/planner"
	"github.com/warp/teamplanner/store/sqlite"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "teamplanner: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	// Initialize store
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	rules, err := loadRules(cfg.HolidaysFile)
	if err != nil {
		return err
	}

	m := metrics.NewManager()
	opts := []planner.Option{
		planner.WithLogger(logger),
		planner.WithMetrics(m),
		planner.WithCalendar(calendar.New(store, calendar.WithRegion(cfg.Region))),
	}
	if cfg.Year != 0 {
		opts = append(opts, planner.WithYear(cfg.Year))
	}
	session := planner.NewSession(store, opts...)

	first := session.Today().Year()
	for year := first; year < first+cfg.SeedYears; year++ {
		if _, err := session.SeedHolidays(ctx, rules, year); err != nil {
			return fmt.Errorf("seed holidays %d: %w", year, err)
		}
	}

	if cfg.DemoData {
		err := api.SeedScenario(ctx, session, "small-team")
		switch {
		case errors.Is(err, api.ErrStoreNotEmpty):
			logger.Info("store not empty, demo data skipped")
		case err != nil:
			return fmt.Errorf("load demo data: %w", err)
		default:
			logger.Info("demo data loaded")
		}
	}

	handler := api.NewHandler(session, rules, logger)
	router := api.NewRouter(handler, api.RouterConfig{
		AllowedOrigins:  cfg.AllowedOrigins,
		WritesPerMinute: cfg.RateLimitPerMinute,
		Metrics:         m,
	})

	scheduler := api.NewYearScheduler(session, logger)
	scheduler.Metrics = m
	scheduler.CheckInterval = cfg.SchedulerInterval
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", "addr", cfg.Addr, "db", cfg.DBPath, "year", session.Year(), "region", cfg.Region)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts)), nil
}

func loadRules(path string) (calendar.Rules, error) {
	if path == "" {
		return calendar.DefaultRules(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open holidays file: %w", err)
	}
	defer f.Close()
	return calendar.LoadRules(f)
}
