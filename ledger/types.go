/*
Package ledger defines the personnel data model and the persistence contract
consumed by the statistics engine.

PURPOSE:
  Employees accrue a yearly leave allowance and book vacation, sick, training
  and overtime records against it. This package holds those records and the
  Store interface through which the engine reads sums and writes entries.
  Persistence itself lives in ledger/memory (tests, dev) and store/sqlite.

GOVERNING DATE:
  Every record is attributed to exactly one year: the start date for ranged
  categories (vacation, sick, training) and the single date for overtime.
  A vacation from 2025-12-29 to 2026-01-02 counts fully against 2025.
  There is no cross-year splitting.

PRECISION:
  Day counts and overtime hours use decimal.Decimal. Half-day training and
  signed overtime (e.g. -1.5h) are common, and yearly sums must be exact.

SEE ALSO:
  - store.go: Store interface
  - errors.go: Typed errors shared by the engine and the api
*/
package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/teamplanner/calendar"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type DepartmentID int64
type RecordID int64

// =============================================================================
// EMPLOYEE
// =============================================================================

// Status is the administrative lifecycle state of an employee.
type Status string

const (
	StatusActive   Status = "active"
	StatusDeparted Status = "departed"
)

// Allowance bounds for the yearly base allowance, in days.
const (
	MinBaseAllowance = 20
	MaxBaseAllowance = 50
)

// Employee is a person that accrues leave.
type Employee struct {
	ID            EmployeeID
	DepartmentID  DepartmentID
	FirstName     string
	LastName      string
	Email         string
	BirthDate     *time.Time
	HireDate      time.Time
	DepartureDate *time.Time
	BaseAllowance int
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FullName returns "First Last".
func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// IsActive reports whether the employee is active at today: status active and
// no departure date before today.
func (e Employee) IsActive(today time.Time) bool {
	if e.Status != StatusActive {
		return false
	}
	if e.DepartureDate != nil && calendar.Day(*e.DepartureDate).Before(calendar.Day(today)) {
		return false
	}
	return true
}

// HireYear is the calendar year of the hire date.
func (e Employee) HireYear() int { return e.HireDate.Year() }

// =============================================================================
// DEPARTMENT
// =============================================================================

// Department groups employees.
type Department struct {
	ID        DepartmentID
	Name      string // unique, case-insensitive
	Color     string // "#rrggbb"
	SortOrder int
}

// DefaultDepartmentColor is used when no color tag is given.
const DefaultDepartmentColor = "#95a5a6"

// =============================================================================
// LEDGER RECORDS
// =============================================================================

// Category distinguishes ledger record kinds.
type Category string

const (
	CategoryVacation Category = "vacation"
	CategorySick     Category = "sick"
	CategoryTraining Category = "training"
	CategoryOvertime Category = "overtime"
)

// IsRanged reports whether records of this category have a start and end date.
func (c Category) IsRanged() bool {
	return c == CategoryVacation || c == CategorySick || c == CategoryTraining
}

// ParseCategory maps a wire name to a Category.
func ParseCategory(s string) (Category, bool) {
	switch c := Category(strings.ToLower(s)); c {
	case CategoryVacation, CategorySick, CategoryTraining, CategoryOvertime:
		return c, true
	}
	return "", false
}

// LeaveRecord is a vacation, sick or training entry. The three categories are
// structurally identical; only training uses Title.
type LeaveRecord struct {
	ID         RecordID
	EmployeeID EmployeeID
	Category   Category
	Start      time.Time
	End        time.Time
	Days       decimal.Decimal
	Title      string
	Note       string
	CreatedAt  time.Time
}

// Year is the governing year of the record.
func (r LeaveRecord) Year() int { return r.Start.Year() }

// Overlaps reports whether [from, to] intersects the record's range.
func (r LeaveRecord) Overlaps(from, to time.Time) bool {
	return !(calendar.Day(to).Before(calendar.Day(r.Start)) || calendar.Day(from).After(calendar.Day(r.End)))
}

// OvertimeRecord is a signed hour delta: positive accrued, negative used.
type OvertimeRecord struct {
	ID         RecordID
	EmployeeID EmployeeID
	Date       time.Time
	Hours      decimal.Decimal
	Note       string
	CreatedAt  time.Time
}

// Year is the governing year of the record.
func (r OvertimeRecord) Year() int { return r.Date.Year() }
