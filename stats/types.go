package stats

import (
	"github.com/shopspring/decimal"
	"github.com/warp/teamplanner/ledger"
)

// =============================================================================
// YEARLY STATISTIC
// =============================================================================

// YearlyStatistic is the derived leave summary of one employee for one year.
// It is a value: never mutated after Compute returns it.
type YearlyStatistic struct {
	Employee      ledger.Employee
	Year          int
	Allowance     int
	CarryoverIn   decimal.Decimal
	VacationTaken decimal.Decimal
	SickDays      decimal.Decimal
	TrainingDays  decimal.Decimal
	OvertimeHours decimal.Decimal
}

// Available is allowance plus carryover.
func (s YearlyStatistic) Available() decimal.Decimal {
	return decimal.NewFromInt(int64(s.Allowance)).Add(s.CarryoverIn)
}

// Remaining is available minus vacation taken. May be negative when the
// ledger was written around the admission service.
func (s YearlyStatistic) Remaining() decimal.Decimal {
	return s.Available().Sub(s.VacationTaken)
}

// =============================================================================
// TEAM STATISTIC
// =============================================================================

// TeamStatistic aggregates the statistics of all active employees for a year.
type TeamStatistic struct {
	Year            int
	EmployeeCount   int
	TotalVacation   decimal.Decimal
	TotalSick       decimal.Decimal
	TotalTraining   decimal.Decimal
	TotalOvertime   decimal.Decimal
	AverageVacation decimal.Decimal
}
