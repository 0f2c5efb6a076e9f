/*
Package stats derives leave statistics from the ledger.

PURPOSE:
  Computes the pro-rated yearly allowance, the recursive carryover from the
  previous year, and assembles both with the four ledger sums into an
  immutable YearlyStatistic. Team aggregates, department rows and the
  year-end rollover report are built on top.

KEY FORMULAS:
  allowance(e, Y):
    hire year <  Y  -> base allowance
    hire year >  Y  -> 0
    hire year == Y  -> ceil(base * months / 12), months counted inclusively
                       from hire month to December (or to the departure month
                       when the employee also leaves in Y)

  carryover_into(e, Y), source year S = Y-1:
    S < hire year   -> 0
    otherwise       -> clamp(allowance(e, S) + carryover_into(e, S)
                             - vacation(e, S), 0, 30)

  Rounding is always up, in favor of the employee. The product base*months
  is divided once in decimal, so a whole year yields the base exactly
  (25 hired in January is 25, not 26) and only true fractions round up.

SEE ALSO:
  - carryover.go: Memoized resolver
  - assembler.go: YearlyStatistic assembly
*/
package stats

import (
	"github.com/shopspring/decimal"
	"github.com/warp/teamplanner/ledger"
)

// CarryoverCap is the statutory maximum of days carried into the next year.
const CarryoverCap = 30

var (
	twelve      = decimal.NewFromInt(12)
	carryoverUp = decimal.NewFromInt(CarryoverCap)
)

// ProratedAllowance returns the employee's allowance for year.
func ProratedAllowance(e ledger.Employee, year int) int {
	hireYear := e.HireDate.Year()
	switch {
	case hireYear < year:
		return e.BaseAllowance
	case hireYear > year:
		return 0
	}

	hireMonth := int(e.HireDate.Month())
	months := 12 - hireMonth + 1
	if e.DepartureDate != nil && e.DepartureDate.Year() == year {
		months = int(e.DepartureDate.Month()) - hireMonth + 1
	}
	if months <= 0 {
		return 0
	}

	exact := decimal.NewFromInt(int64(e.BaseAllowance)).
		Mul(decimal.NewFromInt(int64(months))).
		Div(twelve)
	return int(exact.Ceil().IntPart())
}

// clampCarryover bounds a remaining balance to [0, CarryoverCap].
func clampCarryover(rest decimal.Decimal) decimal.Decimal {
	if rest.IsNegative() {
		return decimal.Zero
	}
	if rest.GreaterThan(carryoverUp) {
		return carryoverUp
	}
	return rest
}
