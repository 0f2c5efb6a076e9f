/*
errors.go - Typed errors produced by the engine

ERROR KINDS:
  InvalidRange        end before start (calendar.ErrInvalidRange)
  EmptyRange          zero business days in the requested span
  Overlap             conflicting existing vacation (carries the records)
  InsufficientBalance requested days exceed remaining (carries both)
  EmployeeInactive    no statistic: the employee is not active

  All of these are recoverable at the call site. Use errors.Is against the
  sentinels and errors.As against the structured types.
*/
package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/teamplanner/calendar"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRange aliases the calendar sentinel so callers need one import.
	ErrInvalidRange = calendar.ErrInvalidRange

	ErrEmptyRange          = errors.New("no business days in range")
	ErrRangeTooLong        = errors.New("range exceeds one year")
	ErrOverlap             = errors.New("overlaps existing vacation")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrEmployeeInactive    = errors.New("employee not active")

	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrDepartmentNotFound = errors.New("department not found")
	ErrRecordNotFound     = errors.New("record not found")
	ErrHolidayNotFound    = errors.New("holiday not found")

	ErrDuplicateDepartment = errors.New("department name already exists")
	ErrDepartmentInUse     = errors.New("department still has employees")
	ErrDuplicateHoliday    = errors.New("holiday already exists for date and region")

	ErrInvalidEmployee = errors.New("invalid employee")
	ErrInvalidRecord   = errors.New("invalid record")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// OverlapError lists the vacation records a request collides with.
type OverlapError struct {
	Existing []LeaveRecord
}

func (e *OverlapError) Error() string {
	parts := make([]string, 0, len(e.Existing))
	for _, r := range e.Existing {
		parts = append(parts, fmt.Sprintf("#%d %s..%s", r.ID,
			r.Start.Format(calendar.DateLayout), r.End.Format(calendar.DateLayout)))
	}
	return "overlaps existing vacation: " + strings.Join(parts, ", ")
}

func (e *OverlapError) Unwrap() error { return ErrOverlap }

// InsufficientBalanceError reports a balance shortage.
type InsufficientBalanceError struct {
	EmployeeID EmployeeID
	Year       int
	Requested  decimal.Decimal
	Remaining  decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient leave balance for %s in %d: requested %s, remaining %s",
		e.EmployeeID, e.Year, e.Requested, e.Remaining)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// InactiveError names the employee without a statistic.
type InactiveError struct {
	EmployeeID EmployeeID
	Year       int
}

func (e *InactiveError) Error() string {
	return fmt.Sprintf("employee %s not active for %d", e.EmployeeID, e.Year)
}

func (e *InactiveError) Unwrap() error { return ErrEmployeeInactive }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports errors caused by invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrEmptyRange) ||
		errors.Is(err, ErrRangeTooLong) ||
		errors.Is(err, ErrInvalidEmployee) ||
		errors.Is(err, ErrInvalidRecord)
}

// IsNotFound reports missing entities, including "no statistic" for inactive employees.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrDepartmentNotFound) ||
		errors.Is(err, ErrRecordNotFound) ||
		errors.Is(err, ErrHolidayNotFound) ||
		errors.Is(err, ErrEmployeeInactive)
}

// IsConflict reports collisions with existing state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrOverlap) ||
		errors.Is(err, ErrDuplicateDepartment) ||
		errors.Is(err, ErrDepartmentInUse) ||
		errors.Is(err, ErrDuplicateHoliday)
}
