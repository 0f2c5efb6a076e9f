/*
scheduler.go - Automated year change

PURPOSE:
  Periodically checks the wall clock. When the calendar year advances past
  the year the scheduler last saw, it logs the carryover report of the year
  that ended and moves the session to the new year.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Only moves the session when it is still on the year that ended, so a
    year picked by hand (PUT /api/year) is left alone
  - SetYear only marks the cache stale; statistics rebuild on the next read

USAGE:
  scheduler := NewYearScheduler(session, logger)
  scheduler.CheckInterval = cfg.SchedulerInterval
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: GetRollover endpoint (manual report)
  - stats/rollover.go: RolloverReport
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/teamplanner/metrics"
	"github.com/warp/teamplanner/planner"
)

// YearScheduler advances the session year at the turn of the year.
type YearScheduler struct {
	Session       *planner.Session
	Logger        *slog.Logger
	Metrics       *metrics.Manager
	CheckInterval time.Duration
	Enabled       bool

	now      func() time.Time
	lastYear int

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewYearScheduler creates a scheduler that starts from the session's clock.
func NewYearScheduler(session *planner.Session, logger *slog.Logger) *YearScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &YearScheduler{
		Session:       session,
		Logger:        logger,
		CheckInterval: time.Hour,
		Enabled:       true,
		now:           session.Today,
		lastYear:      session.Today().Year(),
		stop:          make(chan struct{}),
	}
}

// Start begins the scheduler.
func (ys *YearScheduler) Start() {
	ys.mu.Lock()
	defer ys.mu.Unlock()

	if !ys.Enabled || ys.CheckInterval <= 0 {
		ys.Logger.Info("year scheduler disabled")
		return
	}

	ys.ticker = time.NewTicker(ys.CheckInterval)
	ys.wg.Add(1)

	go ys.run(ys.ticker)

	ys.Logger.Info("year scheduler started", "interval", ys.CheckInterval)
}

// Stop stops the scheduler and waits for a running check to finish.
func (ys *YearScheduler) Stop() {
	ys.mu.Lock()
	ticker := ys.ticker
	ys.ticker = nil
	if ticker != nil {
		ticker.Stop()
		close(ys.stop)
	}
	ys.mu.Unlock()

	// a running Check needs ys.mu
	if ticker != nil {
		ys.wg.Wait()
		ys.Logger.Info("year scheduler stopped")
	}
}

func (ys *YearScheduler) run(ticker *time.Ticker) {
	defer ys.wg.Done()

	for {
		select {
		case <-ticker.C:
			ys.Check(context.Background())
		case <-ys.stop:
			return
		}
	}
}

// Check runs one year-change check. It reports whether the session year moved.
// Concurrent checks are serialized.
func (ys *YearScheduler) Check(ctx context.Context) bool {
	ys.mu.Lock()
	defer ys.mu.Unlock()

	year := ys.now().Year()
	if year <= ys.lastYear {
		return false
	}
	ended := ys.lastYear
	ys.lastYear = year

	report, err := ys.Session.Rollover(ctx, ended)
	if err != nil {
		ys.Logger.Error("rollover report failed", "from", ended, "error", err)
	} else {
		ys.Logger.Info("year ended",
			"from", report.FromYear, "to", report.ToYear,
			"roster", report.RosterCount,
			"employees", report.EmployeeCount,
			"carrying", len(report.Entries),
			"carryover", report.TotalCarryover().String())
	}

	if ys.Session.Year() != ended {
		ys.Logger.Info("session year pinned, not advancing", "year", ys.Session.Year())
		return false
	}
	ys.Session.SetYear(year)
	ys.Metrics.YearRolledOver()
	return true
}
