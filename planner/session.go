/*
Package planner wraps the statistics engine in a session object that owns the
invalidation cache and is the only write path into the ledger.

PURPOSE:
  Callers (the HTTP api, the year scheduler, tests) talk to one Session. It
  reads statistics through the cache, routes every ledger, employee and
  department write through the store and invalidates afterwards, and admits
  vacation requests only after every check passed.

CACHE LIFECYCLE:
  ┌────────┐  write / SetYear   ┌───────┐  next read   ┌───────────────┐
  │ fresh  │ ─────────────────▶ │ stale │ ───────────▶ │ rebuild year  │
  └────────┘                    └───────┘              └───────┬───────┘
       ▲                                                       │
       └───────────────────────────────────────────────────────┘

  Only the current year is cached. Other years are computed on demand by the
  same Assembler, so both paths always agree.

  Invalidate also drops the carryover memo: it is derived from the same
  ledger. SetYear keeps the memo because carryover_into(e, Y) does not depend
  on which year is selected.

CONCURRENCY:
  Every public method holds the session mutex for its whole duration. No
  ledger write interleaves with a statistic computation.

SEE ALSO:
  - admission.go: RequestLeave and friends
  - records.go: Sick, training and overtime writes
  - roster.go: Employee and department writes
*/
package planner

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/warp/teamplanner/calendar"
	"github.com/warp/teamplanner/ledger"
	"github.com/warp/teamplanner/metrics"
	"github.com/warp/teamplanner/stats"
	"golang.org/x/text/cases"
)

// Session owns one statistics cache over one store.
type Session struct {
	mu sync.Mutex

	store     ledger.Store
	calendar  *calendar.Calendar
	resolver  *stats.Resolver
	assembler *stats.Assembler
	logger    *slog.Logger
	metrics   *metrics.Manager
	now       func() time.Time

	year  int
	cache cache
}

// Option configures a Session.
type Option func(*Session)

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(m *metrics.Manager) Option {
	return func(s *Session) { s.metrics = m }
}

// WithClock overrides "today" for activity checks and the default year.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithYear sets the initial current year. Default: the clock's year.
func WithYear(year int) Option {
	return func(s *Session) { s.year = year }
}

// WithCalendar overrides the business-day calendar. Default: the store's
// holidays, nationwide only.
func WithCalendar(c *calendar.Calendar) Option {
	return func(s *Session) { s.calendar = c }
}

func NewSession(store ledger.Store, opts ...Option) *Session {
	s := &Session{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.calendar == nil {
		s.calendar = calendar.New(store)
	}
	if s.year == 0 {
		s.year = s.now().Year()
	}
	s.resolver = stats.NewResolver(store, stats.WithMemoObserver(s.metrics))
	s.assembler = stats.NewAssembler(store, stats.WithResolver(s.resolver), stats.WithClock(s.now))
	s.cache = newCache()
	return s
}

// =============================================================================
// CACHE CONTROL
// =============================================================================

// Year returns the current year.
func (s *Session) Year() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.year
}

// SetYear switches the current year and invalidates the statistics cache.
func (s *Session) SetYear(year int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if year == s.year {
		return
	}
	s.logger.Info("current year changed", "from", s.year, "to", year)
	s.year = year
	s.cache.markStale()
	s.metrics.CacheInvalidated()
}

// Invalidate marks the cache stale and drops the carryover memo. Nothing is
// recomputed until the next read.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidate()
}

func (s *Session) invalidate() {
	s.cache.markStale()
	s.resolver.Reset()
	s.metrics.CacheInvalidated()
}

// EnsureFresh rebuilds the cache when stale.
func (s *Session) EnsureFresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureFresh(ctx)
}

func (s *Session) ensureFresh(ctx context.Context) error {
	today := s.now()
	if s.cache.fresh(s.year, today) {
		return nil
	}
	start := time.Now()

	roster, err := s.store.Employees(ctx)
	if err != nil {
		return err
	}
	computed, err := s.assembler.ComputeAll(ctx, roster, s.year)
	if err != nil {
		return err
	}
	s.cache.fill(s.year, today, roster, computed)

	elapsed := time.Since(start)
	s.metrics.CacheRebuilt(elapsed, len(computed))
	s.logger.Debug("statistics cache rebuilt",
		"year", s.year, "employees", len(roster), "active", len(computed), "duration", elapsed)
	return nil
}

// =============================================================================
// STATISTIC READS
// =============================================================================

// Statistic returns one employee's statistic for year. The current year is
// served from the cache; other years are computed directly.
func (s *Session) Statistic(ctx context.Context, id ledger.EmployeeID, year int) (stats.YearlyStatistic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statistic(ctx, id, year)
}

func (s *Session) statistic(ctx context.Context, id ledger.EmployeeID, year int) (stats.YearlyStatistic, error) {
	if year == s.year {
		if err := s.ensureFresh(ctx); err != nil {
			return stats.YearlyStatistic{}, err
		}
		if stat, ok := s.cache.get(id); ok {
			s.metrics.StatisticLookup("cache")
			return stat, nil
		}
	}

	e, err := s.store.Employee(ctx, id)
	if err != nil {
		return stats.YearlyStatistic{}, err
	}
	s.metrics.StatisticLookup("direct")
	return s.assembler.Compute(ctx, e, year)
}

// Statistics returns the current year's statistics of all active employees,
// in roster order. A non-zero departmentID filters to that department.
func (s *Session) Statistics(ctx context.Context, departmentID ledger.DepartmentID) ([]stats.YearlyStatistic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureFresh(ctx); err != nil {
		return nil, err
	}
	all := s.cache.all()
	if departmentID == 0 {
		return all, nil
	}
	filtered := make([]stats.YearlyStatistic, 0, len(all))
	for _, st := range all {
		if st.Employee.DepartmentID == departmentID {
			filtered = append(filtered, st)
		}
	}
	return filtered, nil
}

// Search returns current-year statistics whose employee name, ID or email
// contains query, ignoring case. An empty query matches everyone.
func (s *Session) Search(ctx context.Context, query string) ([]stats.YearlyStatistic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureFresh(ctx); err != nil {
		return nil, err
	}
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(query))

	var result []stats.YearlyStatistic
	for _, st := range s.cache.all() {
		e := st.Employee
		haystack := fold.String(strings.Join([]string{e.FullName(), e.LastName + ", " + e.FirstName, string(e.ID), e.Email}, "\n"))
		if strings.Contains(haystack, needle) {
			result = append(result, st)
		}
	}
	return result, nil
}

// TeamStatistic aggregates all active employees for year.
func (s *Session) TeamStatistic(ctx context.Context, year int) (stats.TeamStatistic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if year == s.year {
		if err := s.ensureFresh(ctx); err != nil {
			return stats.TeamStatistic{}, err
		}
		return stats.Team(year, s.cache.all()), nil
	}

	roster, err := s.store.Employees(ctx)
	if err != nil {
		return stats.TeamStatistic{}, err
	}
	computed, err := s.assembler.ComputeAll(ctx, roster, year)
	if err != nil {
		return stats.TeamStatistic{}, err
	}
	return stats.Team(year, computed), nil
}

// Rows groups the current year's statistics under department headers.
func (s *Session) Rows(ctx context.Context) ([]stats.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureFresh(ctx); err != nil {
		return nil, err
	}
	departments, err := s.store.Departments(ctx)
	if err != nil {
		return nil, err
	}
	return stats.GroupByDepartment(s.cache.all(), departments), nil
}

// Rollover reports the carryover of every active employee from fromYear
// into fromYear+1.
func (s *Session) Rollover(ctx context.Context, fromYear int) (stats.RolloverReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roster, err := s.store.Employees(ctx)
	if err != nil {
		return stats.RolloverReport{}, err
	}
	return s.assembler.Rollover(ctx, roster, fromYear)
}

// =============================================================================
// CALENDAR
// =============================================================================

// BusinessDays counts business days in [from, to].
func (s *Session) BusinessDays(ctx context.Context, from, to time.Time) (int, error) {
	if err := calendar.ValidateRange(from, to); err != nil {
		return 0, err
	}
	return s.calendar.CountBusinessDays(ctx, from, to)
}

// Today returns the session clock's date.
func (s *Session) Today() time.Time {
	return calendar.Day(s.now())
}
