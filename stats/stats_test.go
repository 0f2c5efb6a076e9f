package stats_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/teamplanner/calendar"
	"github.com/warp/teamplanner/ledger"
	"github.com/warp/teamplanner/ledger/ledgertest"
	"github.com/warp/teamplanner/ledger/memory"
	"github.com/warp/teamplanner/stats"
)

var today = calendar.Date(2025, time.June, 15)

func fixedClock() time.Time { return today }

func hired(base int, y int, m time.Month, d int) ledger.Employee {
	e := ledgertest.Employee("E1", "Anna", "Schmidt")
	e.BaseAllowance = base
	e.HireDate = calendar.Date(y, m, d)
	return e
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// countingSums counts SumVacation calls.
type countingSums struct {
	ledger.Sums
	vacationCalls int
}

func (c *countingSums) SumVacation(ctx context.Context, id ledger.EmployeeID, year int) (decimal.Decimal, error) {
	c.vacationCalls++
	return c.Sums.SumVacation(ctx, id, year)
}

type memoCounter struct{ hits, misses int }

func (m *memoCounter) CarryoverLookup(hit bool) {
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func book(t *testing.T, s ledger.Store, id ledger.EmployeeID, from time.Time, days string) {
	t.Helper()
	r := ledgertest.Vacation(id, from, from, 0)
	r.Days = dec(days)
	_, err := s.AppendLeave(context.Background(), r)
	require.NoError(t, err)
}

// =============================================================================
// ALLOWANCE
// =============================================================================

func TestProratedAllowance(t *testing.T) {
	tests := []struct {
		name     string
		employee ledger.Employee
		year     int
		want     int
	}{
		{"hired before year gets base", hired(30, 2020, time.March, 1), 2025, 30},
		{"hired after year gets zero", hired(30, 2026, time.January, 1), 2025, 0},
		{"base 30 hired July", hired(30, 2025, time.July, 1), 2025, 15},
		{"base 30 hired April rounds up", hired(30, 2025, time.April, 20), 2025, 23},
		{"base 24 hired October", hired(24, 2025, time.October, 1), 2025, 6},
		{"base 25 hired January is exact", hired(25, 2025, time.January, 1), 2025, 25},
		{"base 30 hired January is exact", hired(30, 2025, time.January, 1), 2025, 30},
		{"base 26 hired December", hired(26, 2025, time.December, 1), 2025, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stats.ProratedAllowance(tt.employee, tt.year))
		})
	}
}

func TestProratedAllowance_DepartureInHireYear(t *testing.T) {
	// GIVEN: hired March, leaving August of the same year: 6 months
	e := hired(30, 2025, time.March, 1)
	dep := calendar.Date(2025, time.August, 31)
	e.DepartureDate = &dep

	assert.Equal(t, 15, stats.ProratedAllowance(e, 2025))

	// departure in a later year does not shorten the hire year
	later := calendar.Date(2026, time.February, 28)
	e.DepartureDate = &later
	assert.Equal(t, 25, stats.ProratedAllowance(e, 2025))
}

// =============================================================================
// CARRYOVER
// =============================================================================

func TestCarryoverInto_HireYearIsZero(t *testing.T) {
	r := stats.NewResolver(memory.New())
	for _, year := range []int{2019, 2020} {
		got, err := r.CarryoverInto(context.Background(), hired(30, 2020, time.May, 1), year)
		require.NoError(t, err)
		assert.True(t, got.IsZero(), "year %d", year)
	}
}

func TestCarryoverInto_ClampedToCap(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	e := hired(50, 2020, time.January, 1)
	require.NoError(t, store.SaveEmployee(ctx, e))
	r := stats.NewResolver(store)

	// GIVEN: 50 unused days in 2020
	got, err := r.CarryoverInto(ctx, e, 2021)
	require.NoError(t, err)
	assert.Equal(t, "30", got.String())

	// AND: 80 available in 2021, still capped
	got, err = r.CarryoverInto(ctx, e, 2022)
	require.NoError(t, err)
	assert.Equal(t, "30", got.String())
}

func TestCarryoverInto_OverdrawnIsZero(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	e := hired(20, 2020, time.January, 1)
	require.NoError(t, store.SaveEmployee(ctx, e))
	book(t, store, e.ID, calendar.Date(2020, time.June, 1), "25")

	r := stats.NewResolver(store)
	got, err := r.CarryoverInto(ctx, e, 2021)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	rest, err := r.Settle(ctx, e, 2020)
	require.NoError(t, err)
	assert.Equal(t, "-5", rest.String())
}

func TestCarryoverInto_ChainsThroughYears(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	e := hired(24, 2022, time.October, 1)
	require.NoError(t, store.SaveEmployee(ctx, e))
	book(t, store, e.ID, calendar.Date(2023, time.March, 1), "20.5")

	r := stats.NewResolver(store)

	// 2022: allowance 6, nothing taken -> 6
	got, err := r.CarryoverInto(ctx, e, 2023)
	require.NoError(t, err)
	assert.Equal(t, "6", got.String())

	// 2023: 24 + 6 - 20.5 = 9.5
	got, err = r.CarryoverInto(ctx, e, 2024)
	require.NoError(t, err)
	assert.Equal(t, "9.5", got.String())
}

func TestResolver_MemoizesAndResets(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	e := hired(30, 2015, time.January, 1)
	require.NoError(t, store.SaveEmployee(ctx, e))

	sums := &countingSums{Sums: store}
	counter := &memoCounter{}
	r := stats.NewResolver(sums, stats.WithMemoObserver(counter))

	// WHEN: resolving 2025 walks back to 2015 once
	first, err := r.CarryoverInto(ctx, e, 2025)
	require.NoError(t, err)
	assert.Equal(t, 10, sums.vacationCalls)
	assert.Equal(t, 10, counter.misses)

	// THEN: the second read is a single memo hit
	second, err := r.CarryoverInto(ctx, e, 2025)
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
	assert.Equal(t, 10, sums.vacationCalls)
	assert.Equal(t, 1, counter.hits)

	// AND: a neighbouring year reuses the chain
	_, err = r.CarryoverInto(ctx, e, 2026)
	require.NoError(t, err)
	assert.Equal(t, 11, sums.vacationCalls)

	// WHEN: the ledger changes and the memo is reset
	book(t, store, e.ID, calendar.Date(2024, time.May, 2), "30")
	r.Reset()

	got, err := r.CarryoverInto(ctx, e, 2025)
	require.NoError(t, err)
	assert.Equal(t, "30", first.String())
	assert.Equal(t, "30", got.String(), "30 carried + 30 base - 30 taken is still capped at 30")

	got, err = r.CarryoverInto(ctx, e, 2024)
	require.NoError(t, err)
	assert.Equal(t, "30", got.String())
}

// =============================================================================
// ASSEMBLER
// =============================================================================

func TestAssembler_HiredMidYearScenario(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	e := hired(30, 2024, time.July, 1)
	require.NoError(t, store.SaveEmployee(ctx, e))
	a := stats.NewAssembler(store, stats.WithClock(fixedClock))

	s2024, err := a.Compute(ctx, e, 2024)
	require.NoError(t, err)
	assert.Equal(t, 15, s2024.Allowance)
	assert.True(t, s2024.CarryoverIn.IsZero())

	s2025, err := a.Compute(ctx, e, 2025)
	require.NoError(t, err)
	assert.Equal(t, 30, s2025.Allowance)
	assert.Equal(t, "15", s2025.CarryoverIn.String())
	assert.Equal(t, "45", s2025.Available().String())
	assert.Equal(t, "45", s2025.Remaining().String())
}

func TestAssembler_CollectsSums(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	e := hired(30, 2020, time.January, 1)
	require.NoError(t, store.SaveEmployee(ctx, e))
	book(t, store, e.ID, calendar.Date(2025, time.March, 3), "5")

	sick := ledgertest.Vacation(e.ID, calendar.Date(2025, time.April, 1), calendar.Date(2025, time.April, 2), 2)
	sick.Category = ledger.CategorySick
	_, err := store.AppendLeave(ctx, sick)
	require.NoError(t, err)

	training := ledgertest.Vacation(e.ID, calendar.Date(2025, time.May, 5), calendar.Date(2025, time.May, 5), 0)
	training.Category = ledger.CategoryTraining
	training.Title = "Erste Hilfe"
	training.Days = dec("0.5")
	_, err = store.AppendLeave(ctx, training)
	require.NoError(t, err)

	_, err = store.AppendOvertime(ctx, ledger.OvertimeRecord{EmployeeID: e.ID, Date: calendar.Date(2025, time.May, 6), Hours: dec("-1.5")})
	require.NoError(t, err)

	a := stats.NewAssembler(store, stats.WithClock(fixedClock))
	s, err := a.Compute(ctx, e, 2025)
	require.NoError(t, err)

	assert.Equal(t, "5", s.VacationTaken.String())
	assert.Equal(t, "2", s.SickDays.String())
	assert.Equal(t, "0.5", s.TrainingDays.String())
	assert.Equal(t, "-1.5", s.OvertimeHours.String())
	assert.Equal(t, "30", s.CarryoverIn.String())
	assert.Equal(t, "55", s.Remaining().String())
}

func TestAssembler_InactiveHasNoStatistic(t *testing.T) {
	ctx := context.Background()
	a := stats.NewAssembler(memory.New(), stats.WithClock(fixedClock))

	departed := hired(30, 2020, time.January, 1)
	departed.Status = ledger.StatusDeparted
	_, err := a.Compute(ctx, departed, 2025)
	assert.ErrorIs(t, err, ledger.ErrEmployeeInactive)

	left := hired(30, 2020, time.January, 1)
	yesterday := today.AddDate(0, 0, -1)
	left.DepartureDate = &yesterday
	_, err = a.Compute(ctx, left, 2024)
	assert.ErrorIs(t, err, ledger.ErrEmployeeInactive)

	leaving := hired(30, 2020, time.January, 1)
	leaving.DepartureDate = &today
	_, err = a.Compute(ctx, leaving, 2025)
	assert.NoError(t, err)
}

func TestTeam(t *testing.T) {
	empty := stats.Team(2025, nil)
	assert.Equal(t, 0, empty.EmployeeCount)
	assert.True(t, empty.AverageVacation.IsZero())

	team := stats.Team(2025, []stats.YearlyStatistic{
		{VacationTaken: dec("10"), SickDays: dec("2"), TrainingDays: dec("1"), OvertimeHours: dec("4.5")},
		{VacationTaken: dec("5"), SickDays: dec("0"), TrainingDays: dec("0.5"), OvertimeHours: dec("-2")},
	})
	assert.Equal(t, 2, team.EmployeeCount)
	assert.Equal(t, "15", team.TotalVacation.String())
	assert.Equal(t, "2", team.TotalSick.String())
	assert.Equal(t, "1.5", team.TotalTraining.String())
	assert.Equal(t, "2.5", team.TotalOvertime.String())
	assert.Equal(t, "7.5", team.AverageVacation.String())
}

func TestGroupByDepartment(t *testing.T) {
	it := ledger.Department{ID: 1, Name: "IT", SortOrder: 2}
	sales := ledger.Department{ID: 2, Name: "Vertrieb", SortOrder: 1}
	empty := ledger.Department{ID: 3, Name: "Empty", SortOrder: 0}

	stat := func(id ledger.EmployeeID, dept ledger.DepartmentID) stats.YearlyStatistic {
		e := ledgertest.Employee(id, "X", string(id))
		e.DepartmentID = dept
		return stats.YearlyStatistic{Employee: e}
	}
	rows := stats.GroupByDepartment([]stats.YearlyStatistic{
		stat("A", 1), stat("B", 2), stat("C", 0), stat("D", 1),
	}, []ledger.Department{it, sales, empty})

	require.Len(t, rows, 7)
	assert.Equal(t, stats.HeaderRow{Department: sales, Count: 1}, rows[0])
	assert.Equal(t, ledger.EmployeeID("B"), rows[1].(stats.EntryRow).Statistic.Employee.ID)
	assert.Equal(t, stats.HeaderRow{Department: it, Count: 2}, rows[2])
	assert.Equal(t, ledger.EmployeeID("A"), rows[3].(stats.EntryRow).Statistic.Employee.ID)
	assert.Equal(t, ledger.EmployeeID("D"), rows[4].(stats.EntryRow).Statistic.Employee.ID)
	assert.Equal(t, stats.HeaderRow{Department: stats.Unassigned, Count: 1}, rows[5])
	assert.IsType(t, stats.EntryRow{}, rows[6])
}

func TestRollover(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	full := hired(40, 2020, time.January, 1)
	require.NoError(t, store.SaveEmployee(ctx, full))

	partial := hired(30, 2024, time.July, 1)
	partial.ID = "E2"
	require.NoError(t, store.SaveEmployee(ctx, partial))
	book(t, store, partial.ID, calendar.Date(2024, time.August, 1), "15")

	departed := hired(30, 2020, time.January, 1)
	departed.ID = "E3"
	departed.Status = ledger.StatusDeparted
	require.NoError(t, store.SaveEmployee(ctx, departed))

	a := stats.NewAssembler(store, stats.WithClock(fixedClock))
	employees, err := store.Employees(ctx)
	require.NoError(t, err)

	report, err := a.Rollover(ctx, employees, 2024)
	require.NoError(t, err)

	assert.Equal(t, 2024, report.FromYear)
	assert.Equal(t, 2025, report.ToYear)
	assert.Equal(t, 3, report.RosterCount)
	assert.Equal(t, 2, report.EmployeeCount)
	require.Len(t, report.Entries, 1, "E2 used its whole 2024 allowance")

	entry := report.Entries[0]
	assert.Equal(t, full.ID, entry.Employee.ID)
	assert.Equal(t, "70", entry.Rest.String())
	assert.Equal(t, "30", entry.Carryover.String())
	assert.Equal(t, "40", entry.Forfeited.String())
	assert.Equal(t, "30", report.TotalCarryover().String())
}
