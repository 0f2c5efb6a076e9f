package ledger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/teamplanner/calendar"
	"github.com/warp/teamplanner/ledger"
)

func validEmployee() ledger.Employee {
	return ledger.Employee{
		ID:            "E1",
		FirstName:     "Max",
		LastName:      "Mustermann",
		HireDate:      calendar.Date(2020, time.January, 1),
		BaseAllowance: 30,
		Status:        ledger.StatusActive,
	}
}

func TestEmployee_IsActive(t *testing.T) {
	today := calendar.Date(2025, time.June, 15)

	e := validEmployee()
	assert.True(t, e.IsActive(today))

	// departure today still counts as active
	dep := today
	e.DepartureDate = &dep
	assert.True(t, e.IsActive(today))

	past := calendar.Date(2025, time.June, 14)
	e.DepartureDate = &past
	assert.False(t, e.IsActive(today))

	e = validEmployee()
	e.Status = ledger.StatusDeparted
	assert.False(t, e.IsActive(today))
}

func TestEmployee_Validate(t *testing.T) {
	require.NoError(t, validEmployee().Validate())

	tests := []struct {
		name   string
		mutate func(*ledger.Employee)
	}{
		{"missing id", func(e *ledger.Employee) { e.ID = "" }},
		{"missing last name", func(e *ledger.Employee) { e.LastName = " " }},
		{"allowance too low", func(e *ledger.Employee) { e.BaseAllowance = 19 }},
		{"allowance too high", func(e *ledger.Employee) { e.BaseAllowance = 51 }},
		{"unknown status", func(e *ledger.Employee) { e.Status = "paused" }},
		{"departure before hire", func(e *ledger.Employee) {
			d := calendar.Date(2019, time.December, 31)
			e.DepartureDate = &d
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEmployee()
			tt.mutate(&e)
			err := e.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ledger.ErrInvalidEmployee))
			assert.True(t, ledger.IsClientError(err))
		})
	}
}

func TestLeaveRecord_Validate(t *testing.T) {
	r := ledger.LeaveRecord{
		Category: ledger.CategoryVacation,
		Start:    calendar.Date(2025, time.March, 3),
		End:      calendar.Date(2025, time.March, 7),
		Days:     decimal.NewFromInt(5),
	}
	require.NoError(t, r.Validate())

	reversed := r
	reversed.Start, reversed.End = r.End, r.Start
	assert.ErrorIs(t, reversed.Validate(), ledger.ErrInvalidRange)

	zero := r
	zero.Days = decimal.Zero
	assert.ErrorIs(t, zero.Validate(), ledger.ErrInvalidRecord)

	training := r
	training.Category = ledger.CategoryTraining
	assert.NoError(t, training.Validate(), "title is optional")
	training.Title = "Go"
	assert.ErrorIs(t, training.Validate(), ledger.ErrInvalidRecord, "title too short")
	training.Title = "Go Workshop"
	training.Days = decimal.RequireFromString("0.5")
	assert.NoError(t, training.Validate())
	training.Days = decimal.NewFromInt(31)
	assert.ErrorIs(t, training.Validate(), ledger.ErrInvalidRecord)
}

func TestOvertimeRecord_Validate(t *testing.T) {
	r := ledger.OvertimeRecord{Date: calendar.Date(2025, time.May, 5), Hours: decimal.RequireFromString("-1.5")}
	require.NoError(t, r.Validate())

	r.Hours = decimal.NewFromInt(25)
	assert.ErrorIs(t, r.Validate(), ledger.ErrInvalidRecord)
	r.Hours = decimal.Zero
	assert.ErrorIs(t, r.Validate(), ledger.ErrInvalidRecord)
}

func TestLeaveRecord_Overlaps(t *testing.T) {
	r := ledger.LeaveRecord{Start: calendar.Date(2025, time.March, 10), End: calendar.Date(2025, time.March, 14)}

	assert.True(t, r.Overlaps(calendar.Date(2025, time.March, 14), calendar.Date(2025, time.March, 20)))
	assert.True(t, r.Overlaps(calendar.Date(2025, time.March, 1), calendar.Date(2025, time.March, 10)))
	assert.True(t, r.Overlaps(calendar.Date(2025, time.March, 11), calendar.Date(2025, time.March, 12)))
	assert.False(t, r.Overlaps(calendar.Date(2025, time.March, 15), calendar.Date(2025, time.March, 20)))
	assert.False(t, r.Overlaps(calendar.Date(2025, time.March, 1), calendar.Date(2025, time.March, 9)))
}

func TestErrorHelpers(t *testing.T) {
	overlap := &ledger.OverlapError{Existing: []ledger.LeaveRecord{{
		ID: 7, Start: calendar.Date(2025, time.March, 10), End: calendar.Date(2025, time.March, 14),
	}}}
	assert.True(t, errors.Is(overlap, ledger.ErrOverlap))
	assert.True(t, ledger.IsConflict(overlap))
	assert.Contains(t, overlap.Error(), "#7 2025-03-10..2025-03-14")

	short := &ledger.InsufficientBalanceError{
		EmployeeID: "E1", Year: 2025,
		Requested: decimal.NewFromInt(6), Remaining: decimal.NewFromInt(5),
	}
	assert.True(t, errors.Is(short, ledger.ErrInsufficientBalance))
	assert.False(t, ledger.IsClientError(short))

	inactive := &ledger.InactiveError{EmployeeID: "E1", Year: 2025}
	assert.True(t, ledger.IsNotFound(inactive))
}

func TestParseCategory(t *testing.T) {
	c, ok := ledger.ParseCategory("Sick")
	require.True(t, ok)
	assert.Equal(t, ledger.CategorySick, c)

	_, ok = ledger.ParseCategory("holiday")
	assert.False(t, ok)
}
