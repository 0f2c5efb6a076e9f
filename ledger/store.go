package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/teamplanner/calendar"
)

// =============================================================================
// STORE - Persistence contract consumed by the engine
// =============================================================================

// Sums exposes per-employee, per-year aggregates. Every sum is zero, never an
// error, when no records exist.
type Sums interface {
	SumVacation(ctx context.Context, employeeID EmployeeID, year int) (decimal.Decimal, error)
	SumSick(ctx context.Context, employeeID EmployeeID, year int) (decimal.Decimal, error)
	SumTraining(ctx context.Context, employeeID EmployeeID, year int) (decimal.Decimal, error)
	SumOvertime(ctx context.Context, employeeID EmployeeID, year int) (decimal.Decimal, error)
}

// Records exposes raw ledger entries and the writes that mutate them.
type Records interface {
	// OverlappingVacation returns vacation records of the employee whose range
	// intersects [from, to]. A non-zero excluding ID is skipped (used on edits).
	OverlappingVacation(ctx context.Context, employeeID EmployeeID, from, to time.Time, excluding RecordID) ([]LeaveRecord, error)

	// LeaveRecords lists the employee's records of a ranged category governed by year.
	LeaveRecords(ctx context.Context, employeeID EmployeeID, category Category, year int) ([]LeaveRecord, error)
	LeaveRecord(ctx context.Context, id RecordID) (LeaveRecord, error)
	OvertimeRecords(ctx context.Context, employeeID EmployeeID, year int) ([]OvertimeRecord, error)

	AppendLeave(ctx context.Context, r LeaveRecord) (LeaveRecord, error)
	UpdateLeave(ctx context.Context, r LeaveRecord) error
	DeleteLeave(ctx context.Context, id RecordID) error
	AppendOvertime(ctx context.Context, r OvertimeRecord) (OvertimeRecord, error)
	DeleteOvertime(ctx context.Context, id RecordID) error
}

// Roster exposes employees and departments.
type Roster interface {
	Employee(ctx context.Context, id EmployeeID) (Employee, error)
	// Employees returns every employee, active or not, ordered by last then first name.
	Employees(ctx context.Context) ([]Employee, error)
	SaveEmployee(ctx context.Context, e Employee) error
	// DeleteEmployee removes the employee and cascades to its ledger records.
	DeleteEmployee(ctx context.Context, id EmployeeID) error

	Departments(ctx context.Context) ([]Department, error)
	Department(ctx context.Context, id DepartmentID) (Department, error)
	SaveDepartment(ctx context.Context, d Department) (Department, error)
	DeleteDepartment(ctx context.Context, id DepartmentID) error
	CountEmployees(ctx context.Context, id DepartmentID) (int, error)
}

// Holidays stores the holiday calendar.
type Holidays interface {
	calendar.HolidaySource
	SaveHoliday(ctx context.Context, h calendar.Holiday) (calendar.Holiday, error)
	DeleteHoliday(ctx context.Context, id int64) error
}

// Store is the full persistence contract.
type Store interface {
	Sums
	Records
	Roster
	Holidays
}
