package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/teamplanner/ledger"
)

// =============================================================================
// ASSEMBLER
// =============================================================================

// Assembler builds YearlyStatistic values from the ledger sums and the
// carryover resolver.
type Assembler struct {
	sums     ledger.Sums
	resolver *Resolver
	now      func() time.Time
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithClock overrides the evaluation time used for the activity check.
func WithClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) { a.now = now }
}

// WithResolver shares a resolver (and its memo) with the caller.
func WithResolver(r *Resolver) AssemblerOption {
	return func(a *Assembler) { a.resolver = r }
}

func NewAssembler(sums ledger.Sums, opts ...AssemblerOption) *Assembler {
	a := &Assembler{sums: sums, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	if a.resolver == nil {
		a.resolver = NewResolver(sums)
	}
	return a
}

// Resolver returns the carryover resolver in use.
func (a *Assembler) Resolver() *Resolver { return a.resolver }

// Today is the evaluation date.
func (a *Assembler) Today() time.Time { return a.now() }

// Compute returns the employee's statistic for year, or an *ledger.InactiveError
// when the employee is not active at evaluation time.
func (a *Assembler) Compute(ctx context.Context, e ledger.Employee, year int) (YearlyStatistic, error) {
	if !e.IsActive(a.now()) {
		return YearlyStatistic{}, &ledger.InactiveError{EmployeeID: e.ID, Year: year}
	}

	carryover, err := a.resolver.CarryoverInto(ctx, e, year)
	if err != nil {
		return YearlyStatistic{}, err
	}

	stat := YearlyStatistic{
		Employee:    e,
		Year:        year,
		Allowance:   ProratedAllowance(e, year),
		CarryoverIn: carryover,
	}

	sums := []struct {
		name string
		fn   func(context.Context, ledger.EmployeeID, int) (decimal.Decimal, error)
		dst  *decimal.Decimal
	}{
		{"vacation", a.sums.SumVacation, &stat.VacationTaken},
		{"sick", a.sums.SumSick, &stat.SickDays},
		{"training", a.sums.SumTraining, &stat.TrainingDays},
		{"overtime", a.sums.SumOvertime, &stat.OvertimeHours},
	}
	for _, s := range sums {
		v, err := s.fn(ctx, e.ID, year)
		if err != nil {
			return YearlyStatistic{}, fmt.Errorf("%s sum %s/%d: %w", s.name, e.ID, year, err)
		}
		*s.dst = v
	}
	return stat, nil
}

// ComputeAll returns statistics for every active employee in roster order.
// Inactive employees are skipped.
func (a *Assembler) ComputeAll(ctx context.Context, employees []ledger.Employee, year int) ([]YearlyStatistic, error) {
	result := make([]YearlyStatistic, 0, len(employees))
	for _, e := range employees {
		if !e.IsActive(a.now()) {
			continue
		}
		stat, err := a.Compute(ctx, e, year)
		if err != nil {
			return nil, err
		}
		result = append(result, stat)
	}
	return result, nil
}
