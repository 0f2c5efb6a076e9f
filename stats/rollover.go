package stats

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/warp/teamplanner/ledger"
)

// =============================================================================
// YEAR ROLLOVER REPORT
// =============================================================================

// RolloverEntry is one employee's transfer into the next year.
type RolloverEntry struct {
	Employee  ledger.Employee
	Rest      decimal.Decimal // unclamped remaining of the source year
	Carryover decimal.Decimal // days carried, in [0, 30]
	Forfeited decimal.Decimal // rest above the cap
}

// RolloverReport summarizes the carryover of every active employee from
// FromYear into ToYear. Entries only lists employees carrying days.
// RosterCount includes departed employees; EmployeeCount does not.
type RolloverReport struct {
	FromYear      int
	ToYear        int
	RosterCount   int
	EmployeeCount int
	Entries       []RolloverEntry
}

// TotalCarryover sums the carried days.
func (r RolloverReport) TotalCarryover() decimal.Decimal {
	total := decimal.Zero
	for _, e := range r.Entries {
		total = total.Add(e.Carryover)
	}
	return total
}

// Rollover builds the report for the change from fromYear to fromYear+1.
func (a *Assembler) Rollover(ctx context.Context, employees []ledger.Employee, fromYear int) (RolloverReport, error) {
	report := RolloverReport{FromYear: fromYear, ToYear: fromYear + 1, RosterCount: len(employees)}
	for _, e := range employees {
		if !e.IsActive(a.now()) {
			continue
		}
		report.EmployeeCount++

		carryover, err := a.resolver.CarryoverInto(ctx, e, fromYear+1)
		if err != nil {
			return RolloverReport{}, err
		}
		if !carryover.IsPositive() {
			continue
		}
		rest, err := a.resolver.Settle(ctx, e, fromYear)
		if err != nil {
			return RolloverReport{}, err
		}
		report.Entries = append(report.Entries, RolloverEntry{
			Employee:  e,
			Rest:      rest,
			Carryover: carryover,
			Forfeited: rest.Sub(carryover),
		})
	}
	return report, nil
}
