// Package ledgertest holds a behavioral test suite every ledger.Store
// implementation must pass.
package ledgertest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/teamplanner/calendar"
	"github.com/warp/teamplanner/ledger"
)

// Run executes the suite. newStore must return an empty store per call.
func Run(t *testing.T, newStore func(t *testing.T) ledger.Store) {
	t.Run("SumsAreZeroWithoutRecords", func(t *testing.T) { testEmptySums(t, newStore(t)) })
	t.Run("SumsFollowGoverningYear", func(t *testing.T) { testGoverningYear(t, newStore(t)) })
	t.Run("OvertimeIsSigned", func(t *testing.T) { testOvertime(t, newStore(t)) })
	t.Run("OverlappingVacation", func(t *testing.T) { testOverlap(t, newStore(t)) })
	t.Run("UpdateAndDeleteLeave", func(t *testing.T) { testUpdateDelete(t, newStore(t)) })
	t.Run("EmployeesOrderedByName", func(t *testing.T) { testEmployeeOrder(t, newStore(t)) })
	t.Run("DeleteEmployeeCascades", func(t *testing.T) { testCascade(t, newStore(t)) })
	t.Run("Departments", func(t *testing.T) { testDepartments(t, newStore(t)) })
	t.Run("Holidays", func(t *testing.T) { testHolidays(t, newStore(t)) })
}

// Employee returns a valid active employee hired on 2020-01-01.
func Employee(id ledger.EmployeeID, first, last string) ledger.Employee {
	return ledger.Employee{
		ID:            id,
		FirstName:     first,
		LastName:      last,
		HireDate:      calendar.Date(2020, time.January, 1),
		BaseAllowance: 30,
		Status:        ledger.StatusActive,
	}
}

// Vacation builds an unsaved vacation record.
func Vacation(id ledger.EmployeeID, from, to time.Time, days int64) ledger.LeaveRecord {
	return ledger.LeaveRecord{
		EmployeeID: id,
		Category:   ledger.CategoryVacation,
		Start:      from,
		End:        to,
		Days:       decimal.NewFromInt(days),
	}
}

func mustEmployee(t *testing.T, s ledger.Store, e ledger.Employee) {
	t.Helper()
	require.NoError(t, s.SaveEmployee(context.Background(), e))
}

func testEmptySums(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	mustEmployee(t, s, Employee("E1", "Anna", "Schmidt"))

	for name, sum := range map[string]func(context.Context, ledger.EmployeeID, int) (decimal.Decimal, error){
		"vacation": s.SumVacation,
		"sick":     s.SumSick,
		"training": s.SumTraining,
		"overtime": s.SumOvertime,
	} {
		got, err := sum(ctx, "E1", 2025)
		require.NoError(t, err, name)
		assert.True(t, got.IsZero(), "%s: got %s", name, got)
	}
}

func testGoverningYear(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	mustEmployee(t, s, Employee("E1", "Anna", "Schmidt"))

	// GIVEN: a vacation starting in 2025 and ending in 2026
	_, err := s.AppendLeave(ctx, Vacation("E1", calendar.Date(2025, time.December, 29), calendar.Date(2026, time.January, 2), 4))
	require.NoError(t, err)
	_, err = s.AppendLeave(ctx, Vacation("E1", calendar.Date(2025, time.March, 3), calendar.Date(2025, time.March, 4), 2))
	require.NoError(t, err)

	sick := Vacation("E1", calendar.Date(2025, time.April, 1), calendar.Date(2025, time.April, 1), 1)
	sick.Category = ledger.CategorySick
	_, err = s.AppendLeave(ctx, sick)
	require.NoError(t, err)

	training := Vacation("E1", calendar.Date(2025, time.May, 5), calendar.Date(2025, time.May, 5), 0)
	training.Category = ledger.CategoryTraining
	training.Title = "Erste Hilfe"
	training.Days = decimal.RequireFromString("0.5")
	_, err = s.AppendLeave(ctx, training)
	require.NoError(t, err)

	// THEN: the whole cross-year vacation counts against 2025
	v25, err := s.SumVacation(ctx, "E1", 2025)
	require.NoError(t, err)
	assert.Equal(t, "6", v25.String())

	v26, err := s.SumVacation(ctx, "E1", 2026)
	require.NoError(t, err)
	assert.True(t, v26.IsZero())

	sk, err := s.SumSick(ctx, "E1", 2025)
	require.NoError(t, err)
	assert.Equal(t, "1", sk.String())

	tr, err := s.SumTraining(ctx, "E1", 2025)
	require.NoError(t, err)
	assert.Equal(t, "0.5", tr.String())

	records, err := s.LeaveRecords(ctx, "E1", ledger.CategoryVacation, 2025)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].Start.Before(records[1].Start), "ordered by start")
}

func testOvertime(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	mustEmployee(t, s, Employee("E1", "Anna", "Schmidt"))

	for _, h := range []string{"3", "-1.5", "2.25"} {
		_, err := s.AppendOvertime(ctx, ledger.OvertimeRecord{
			EmployeeID: "E1",
			Date:       calendar.Date(2025, time.June, 2),
			Hours:      decimal.RequireFromString(h),
		})
		require.NoError(t, err)
	}
	last, err := s.AppendOvertime(ctx, ledger.OvertimeRecord{
		EmployeeID: "E1",
		Date:       calendar.Date(2024, time.December, 31),
		Hours:      decimal.NewFromInt(8),
	})
	require.NoError(t, err)

	sum, err := s.SumOvertime(ctx, "E1", 2025)
	require.NoError(t, err)
	assert.Equal(t, "3.75", sum.String())

	records, err := s.OvertimeRecords(ctx, "E1", 2024)
	require.NoError(t, err)
	require.Len(t, records, 1)

	require.NoError(t, s.DeleteOvertime(ctx, last.ID))
	assert.ErrorIs(t, s.DeleteOvertime(ctx, last.ID), ledger.ErrRecordNotFound)
}

func testOverlap(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	mustEmployee(t, s, Employee("E1", "Anna", "Schmidt"))
	mustEmployee(t, s, Employee("E2", "Ben", "Weber"))

	existing, err := s.AppendLeave(ctx, Vacation("E1", calendar.Date(2025, time.March, 10), calendar.Date(2025, time.March, 14), 5))
	require.NoError(t, err)

	sick := Vacation("E1", calendar.Date(2025, time.March, 17), calendar.Date(2025, time.March, 18), 2)
	sick.Category = ledger.CategorySick
	_, err = s.AppendLeave(ctx, sick)
	require.NoError(t, err)

	// touching the last day
	got, err := s.OverlappingVacation(ctx, "E1", calendar.Date(2025, time.March, 14), calendar.Date(2025, time.March, 20), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, existing.ID, got[0].ID)

	// sick leave never collides
	got, err = s.OverlappingVacation(ctx, "E1", calendar.Date(2025, time.March, 17), calendar.Date(2025, time.March, 18), 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	// other employee
	got, err = s.OverlappingVacation(ctx, "E2", calendar.Date(2025, time.March, 10), calendar.Date(2025, time.March, 14), 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	// excluded self
	got, err = s.OverlappingVacation(ctx, "E1", calendar.Date(2025, time.March, 10), calendar.Date(2025, time.March, 14), existing.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testUpdateDelete(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	mustEmployee(t, s, Employee("E1", "Anna", "Schmidt"))

	r, err := s.AppendLeave(ctx, Vacation("E1", calendar.Date(2025, time.March, 10), calendar.Date(2025, time.March, 14), 5))
	require.NoError(t, err)
	require.NotZero(t, r.ID)

	r.End = calendar.Date(2025, time.March, 12)
	r.Days = decimal.NewFromInt(3)
	r.Note = "shortened"
	require.NoError(t, s.UpdateLeave(ctx, r))

	got, err := s.LeaveRecord(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, calendar.SameDay(calendar.Date(2025, time.March, 12), got.End))
	assert.Equal(t, "3", got.Days.String())
	assert.Equal(t, "shortened", got.Note)
	assert.Equal(t, ledger.CategoryVacation, got.Category)

	require.NoError(t, s.DeleteLeave(ctx, r.ID))
	_, err = s.LeaveRecord(ctx, r.ID)
	assert.ErrorIs(t, err, ledger.ErrRecordNotFound)
	assert.ErrorIs(t, s.DeleteLeave(ctx, r.ID), ledger.ErrRecordNotFound)
	assert.ErrorIs(t, s.UpdateLeave(ctx, r), ledger.ErrRecordNotFound)

	_, err = s.AppendLeave(ctx, Vacation("nobody", calendar.Date(2025, time.March, 10), calendar.Date(2025, time.March, 14), 5))
	assert.ErrorIs(t, err, ledger.ErrEmployeeNotFound)
}

func testEmployeeOrder(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	mustEmployee(t, s, Employee("E1", "Ben", "Weber"))
	mustEmployee(t, s, Employee("E2", "Anna", "Schmidt"))
	mustEmployee(t, s, Employee("E3", "Aaron", "Weber"))

	departed := Employee("E4", "Carl", "Albers")
	departed.Status = ledger.StatusDeparted
	mustEmployee(t, s, departed)

	all, err := s.Employees(ctx)
	require.NoError(t, err)
	ids := make([]ledger.EmployeeID, 0, len(all))
	for _, e := range all {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []ledger.EmployeeID{"E4", "E2", "E3", "E1"}, ids)

	// upsert keeps identity
	e, err := s.Employee(ctx, "E1")
	require.NoError(t, err)
	e.BaseAllowance = 28
	require.NoError(t, s.SaveEmployee(ctx, e))
	e, err = s.Employee(ctx, "E1")
	require.NoError(t, err)
	assert.Equal(t, 28, e.BaseAllowance)

	_, err = s.Employee(ctx, "missing")
	assert.ErrorIs(t, err, ledger.ErrEmployeeNotFound)
}

func testCascade(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	mustEmployee(t, s, Employee("E1", "Anna", "Schmidt"))

	r, err := s.AppendLeave(ctx, Vacation("E1", calendar.Date(2025, time.March, 10), calendar.Date(2025, time.March, 14), 5))
	require.NoError(t, err)
	_, err = s.AppendOvertime(ctx, ledger.OvertimeRecord{EmployeeID: "E1", Date: calendar.Date(2025, time.March, 3), Hours: decimal.NewFromInt(2)})
	require.NoError(t, err)

	require.NoError(t, s.DeleteEmployee(ctx, "E1"))

	_, err = s.LeaveRecord(ctx, r.ID)
	assert.ErrorIs(t, err, ledger.ErrRecordNotFound)
	sum, err := s.SumOvertime(ctx, "E1", 2025)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
	assert.ErrorIs(t, s.DeleteEmployee(ctx, "E1"), ledger.ErrEmployeeNotFound)
}

func testDepartments(t *testing.T, s ledger.Store) {
	ctx := context.Background()

	it, err := s.SaveDepartment(ctx, ledger.Department{Name: "IT", SortOrder: 2})
	require.NoError(t, err)
	assert.NotZero(t, it.ID)
	assert.Equal(t, ledger.DefaultDepartmentColor, it.Color)

	sales, err := s.SaveDepartment(ctx, ledger.Department{Name: "Vertrieb", Color: "#3498db", SortOrder: 1})
	require.NoError(t, err)

	_, err = s.SaveDepartment(ctx, ledger.Department{Name: "it"})
	assert.ErrorIs(t, err, ledger.ErrDuplicateDepartment)

	all, err := s.Departments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, sales.ID, all[0].ID, "ordered by sort order")

	e := Employee("E1", "Anna", "Schmidt")
	e.DepartmentID = it.ID
	mustEmployee(t, s, e)

	n, err := s.CountEmployees(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.ErrorIs(t, s.DeleteDepartment(ctx, it.ID), ledger.ErrDepartmentInUse)

	it.Name = "Informatik"
	it, err = s.SaveDepartment(ctx, it)
	require.NoError(t, err)
	got, err := s.Department(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, "Informatik", got.Name)

	require.NoError(t, s.DeleteDepartment(ctx, sales.ID))
	_, err = s.Department(ctx, sales.ID)
	assert.ErrorIs(t, err, ledger.ErrDepartmentNotFound)

	bad := Employee("E2", "Ben", "Weber")
	bad.DepartmentID = sales.ID
	assert.ErrorIs(t, s.SaveEmployee(ctx, bad), ledger.ErrDepartmentNotFound)
}

func testHolidays(t *testing.T, s ledger.Store) {
	ctx := context.Background()

	ny, err := s.SaveHoliday(ctx, calendar.Holiday{Date: calendar.Date(2025, time.January, 1), Name: "Neujahr", Active: true})
	require.NoError(t, err)
	_, err = s.SaveHoliday(ctx, calendar.Holiday{Date: calendar.Date(2025, time.January, 6), Name: "Heilige Drei Könige", Region: "BY", Active: true})
	require.NoError(t, err)
	_, err = s.SaveHoliday(ctx, calendar.Holiday{Date: calendar.Date(2026, time.January, 1), Name: "Neujahr", Active: true})
	require.NoError(t, err)

	_, err = s.SaveHoliday(ctx, calendar.Holiday{Date: calendar.Date(2025, time.January, 1), Name: "dup", Active: true})
	assert.ErrorIs(t, err, ledger.ErrDuplicateHoliday)

	got, err := s.Holidays(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Neujahr", got[0].Name)
	assert.Equal(t, "BY", got[1].Region)

	require.NoError(t, s.DeleteHoliday(ctx, ny.ID))
	got, err = s.Holidays(ctx, 2025)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.ErrorIs(t, s.DeleteHoliday(ctx, ny.ID), ledger.ErrHolidayNotFound)
}
