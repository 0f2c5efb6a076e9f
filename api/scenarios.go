/*
scenarios.go - Demo data loaders for testing and demonstrations

PURPOSE:
	Provides pre-built scenarios that populate an empty store with realistic
	data. Each scenario creates departments, employees and ledger records
	through the planner session, so every write passes the same validation
	and admission checks as API traffic.

AVAILABLE SCENARIOS:
	small-team:   Two departments, five employees, a mixed year of records
	year-end:     Leftover days around the carryover cap, one departure

HOW SCENARIOS WORK:
 1. Refuse to load into a store that already has employees
 2. Create departments
 3. Create employees (one hired mid-year for the pro-rated allowance)
 4. Book vacation of the previous and the current year through admission
 5. Add sick, training and overtime records

Dates are relative to the session's current year, so a scenario looks the
same whenever it is loaded.

USAGE VIA API:
	POST /api/scenarios/load
	{"scenario_id": "small-team"}

SEE ALSO:
  - handlers.go: error mapping of failed loads
  - cmd/server/main.go: demo_data config option
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/teamplanner/calendar"
	"github.com/warp/teamplanner/ledger"
	"github.com/warp/teamplanner/planner"
)

// ErrStoreNotEmpty is returned when a scenario would mix with existing data.
var ErrStoreNotEmpty = errors.New("store already has employees")

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "small-team",
		Name:        "Small Team",
		Description: "Two departments, five employees, vacation, sick leave, training and overtime",
	},
	{
		ID:          "year-end",
		Name:        "Year-End Carryover",
		Description: "Leftover days below and above the 30-day carryover cap, one departure",
	},
}

var loaders = map[string]func(context.Context, *planner.Session) error{
	"small-team": loadSmallTeam,
	"year-end":   loadYearEnd,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the scenario loaded through the API, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario loads a predefined scenario into an empty store.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := SeedScenario(r.Context(), h.Session, req.ScenarioID)
	switch {
	case errors.Is(err, ErrUnknownScenario):
		writeError(w, http.StatusBadRequest, "Unknown scenario", err)
		return
	case errors.Is(err, ErrStoreNotEmpty):
		writeError(w, http.StatusConflict, "Store is not empty", err)
		return
	case err != nil:
		h.fail(w, r, fmt.Errorf("load scenario %s: %w", req.ScenarioID, err))
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ErrUnknownScenario is returned for an unregistered scenario ID.
var ErrUnknownScenario = errors.New("unknown scenario")

// SeedScenario loads scenario id through session. The store must not have
// any employees yet.
func SeedScenario(ctx context.Context, session *planner.Session, id string) error {
	load, ok := loaders[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownScenario, id)
	}
	roster, err := session.Employees(ctx)
	if err != nil {
		return err
	}
	if len(roster) > 0 {
		return ErrStoreNotEmpty
	}
	return load(ctx, session)
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func loadSmallTeam(ctx context.Context, s *planner.Session) error {
	y := s.Year()
	sb := &scenarioBuilder{ctx: ctx, s: s}

	dev := sb.department("Entwicklung", "#3498db", 1)
	ops := sb.department("Betrieb", "#e67e22", 2)

	sb.employee("anna", dev, "Anna", "Schmidt", calendar.Date(y-6, time.April, 1), 30)
	sb.employee("jonas", dev, "Jonas", "Weber", calendar.Date(y-2, time.January, 1), 28)
	sb.employee("lea", dev, "Lea", "Öztürk", calendar.Date(y, time.July, 1), 26)
	sb.employee("mehmet", ops, "Mehmet", "Kaya", calendar.Date(y-10, time.September, 15), 30)
	sb.employee("sophie", 0, "Sophie", "Wagner", calendar.Date(y-1, time.March, 1), 25)

	// previous year
	sb.vacation("anna", calendar.Date(y-1, time.August, 4), calendar.Date(y-1, time.August, 22))
	sb.vacation("jonas", calendar.Date(y-1, time.May, 12), calendar.Date(y-1, time.May, 18))
	sb.vacation("mehmet", calendar.Date(y-1, time.July, 7), calendar.Date(y-1, time.July, 27))
	sb.vacation("sophie", calendar.Date(y-1, time.October, 6), calendar.Date(y-1, time.October, 12))

	// current year
	sb.vacation("anna", calendar.Date(y, time.February, 10), calendar.Date(y, time.February, 16))
	sb.vacation("jonas", calendar.Date(y, time.June, 2), calendar.Date(y, time.June, 15))
	sb.vacation("lea", calendar.Date(y, time.September, 1), calendar.Date(y, time.September, 5))
	sb.vacation("mehmet", calendar.Date(y, time.March, 17), calendar.Date(y, time.March, 23))
	sb.sick("jonas", calendar.Date(y, time.January, 13), calendar.Date(y, time.January, 17))
	sb.sick("mehmet", calendar.Date(y, time.November, 3), calendar.Date(y, time.November, 5))
	sb.training("anna", calendar.Date(y, time.April, 7), "2", "Go Fortgeschrittene")
	sb.training("lea", calendar.Date(y, time.October, 14), "0.5", "Datenschutz")
	sb.overtime("mehmet", calendar.Date(y, time.March, 3), "3.5")
	sb.overtime("mehmet", calendar.Date(y, time.March, 10), "-1")
	sb.overtime("sophie", calendar.Date(y, time.May, 20), "2")

	return sb.err
}

func loadYearEnd(ctx context.Context, s *planner.Session) error {
	y := s.Year()
	sb := &scenarioBuilder{ctx: ctx, s: s}

	team := sb.department("Vertrieb", "#2ecc71", 1)

	// 30 + 30 carried in, barely used: rest far above the cap
	sb.employee("klaus", team, "Klaus", "Becker", calendar.Date(y-8, time.January, 1), 30)
	sb.vacation("klaus", calendar.Date(y-1, time.July, 1), calendar.Date(y-1, time.July, 7))

	// mostly used: carries a small rest
	sb.employee("maria", team, "Maria", "Hoffmann", calendar.Date(y-3, time.February, 1), 25)
	sb.vacation("maria", calendar.Date(y-1, time.June, 2), calendar.Date(y-1, time.June, 29))
	sb.vacation("maria", calendar.Date(y-1, time.September, 1), calendar.Date(y-1, time.September, 21))

	// hired mid previous year: pro-rated allowance, no carryover into it
	sb.employee("tim", team, "Tim", "Schulz", calendar.Date(y-1, time.July, 1), 30)

	// left last year: no statistic, excluded from the report
	sb.employee("petra", team, "Petra", "Koch", calendar.Date(y-5, time.January, 1), 28)
	sb.depart("petra", calendar.Date(y-1, time.December, 31))

	return sb.err
}

// scenarioBuilder chains session writes and keeps the first error.
type scenarioBuilder struct {
	ctx context.Context
	s   *planner.Session
	err error
}

func (b *scenarioBuilder) department(name, color string, order int) ledger.DepartmentID {
	if b.err != nil {
		return 0
	}
	d, err := b.s.CreateDepartment(b.ctx, ledger.Department{Name: name, Color: color, SortOrder: order})
	if err != nil {
		b.err = fmt.Errorf("department %s: %w", name, err)
		return 0
	}
	return d.ID
}

func (b *scenarioBuilder) employee(id string, dept ledger.DepartmentID, first, last string, hired time.Time, base int) {
	if b.err != nil {
		return
	}
	_, err := b.s.SaveEmployee(b.ctx, ledger.Employee{
		ID:            ledger.EmployeeID(id),
		DepartmentID:  dept,
		FirstName:     first,
		LastName:      last,
		Email:         id + "@example.com",
		HireDate:      hired,
		BaseAllowance: base,
	})
	if err != nil {
		b.err = fmt.Errorf("employee %s: %w", id, err)
	}
}

func (b *scenarioBuilder) depart(id string, date time.Time) {
	if b.err != nil {
		return
	}
	if _, err := b.s.Depart(b.ctx, ledger.EmployeeID(id), date); err != nil {
		b.err = fmt.Errorf("depart %s: %w", id, err)
	}
}

func (b *scenarioBuilder) vacation(id string, from, to time.Time) {
	if b.err != nil {
		return
	}
	if _, err := b.s.RequestLeave(b.ctx, ledger.EmployeeID(id), from, to, ""); err != nil {
		b.err = fmt.Errorf("vacation %s %s: %w", id, from.Format(calendar.DateLayout), err)
	}
}

func (b *scenarioBuilder) sick(id string, from, to time.Time) {
	if b.err != nil {
		return
	}
	if _, err := b.s.RecordSickLeave(b.ctx, ledger.EmployeeID(id), from, to, ""); err != nil {
		b.err = fmt.Errorf("sick %s %s: %w", id, from.Format(calendar.DateLayout), err)
	}
}

func (b *scenarioBuilder) training(id string, date time.Time, days, title string) {
	if b.err != nil {
		return
	}
	if _, err := b.s.RecordTraining(b.ctx, ledger.EmployeeID(id), date, decimal.RequireFromString(days), title, ""); err != nil {
		b.err = fmt.Errorf("training %s: %w", id, err)
	}
}

func (b *scenarioBuilder) overtime(id string, date time.Time, hours string) {
	if b.err != nil {
		return
	}
	if _, err := b.s.RecordOvertime(b.ctx, ledger.EmployeeID(id), date, decimal.RequireFromString(hours), ""); err != nil {
		b.err = fmt.Errorf("overtime %s: %w", id, err)
	}
}
