package stats

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/teamplanner/ledger"
)

// =============================================================================
// CARRYOVER RESOLVER
// =============================================================================

// MemoObserver is notified of every carryover memo lookup.
type MemoObserver interface {
	CarryoverLookup(hit bool)
}

type memoKey struct {
	employee ledger.EmployeeID
	year     int
}

// Resolver evaluates carryover_into with a memo keyed by (employee, year).
// The memo is only valid while the ledger and the employee record are
// unchanged: owners must call Reset after every write.
type Resolver struct {
	sums     ledger.Sums
	observer MemoObserver

	mu   sync.Mutex
	memo map[memoKey]decimal.Decimal
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithMemoObserver reports memo hits and misses.
func WithMemoObserver(o MemoObserver) ResolverOption {
	return func(r *Resolver) { r.observer = o }
}

func NewResolver(sums ledger.Sums, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		sums: sums,
		memo: make(map[memoKey]decimal.Decimal),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CarryoverInto returns the days carried from year-1 into year, in [0, 30].
func (r *Resolver) CarryoverInto(ctx context.Context, e ledger.Employee, year int) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.carryoverInto(ctx, e, year)
}

// Settle returns the unclamped rest of source year: allowance plus incoming
// carryover minus vacation taken. CarryoverInto(source+1) is Settle clamped.
func (r *Resolver) Settle(ctx context.Context, e ledger.Employee, source int) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settle(ctx, e, source)
}

// Reset drops every memoized value.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.memo)
}

func (r *Resolver) carryoverInto(ctx context.Context, e ledger.Employee, year int) (decimal.Decimal, error) {
	source := year - 1
	if source < e.HireDate.Year() {
		return decimal.Zero, nil
	}

	key := memoKey{employee: e.ID, year: year}
	if v, ok := r.memo[key]; ok {
		r.observe(true)
		return v, nil
	}
	r.observe(false)

	rest, err := r.settle(ctx, e, source)
	if err != nil {
		return decimal.Zero, err
	}
	v := clampCarryover(rest)
	r.memo[key] = v
	return v, nil
}

func (r *Resolver) settle(ctx context.Context, e ledger.Employee, source int) (decimal.Decimal, error) {
	incoming, err := r.carryoverInto(ctx, e, source)
	if err != nil {
		return decimal.Zero, err
	}
	taken, err := r.sums.SumVacation(ctx, e.ID, source)
	if err != nil {
		return decimal.Zero, fmt.Errorf("vacation sum %s/%d: %w", e.ID, source, err)
	}
	available := decimal.NewFromInt(int64(ProratedAllowance(e, source))).Add(incoming)
	return available.Sub(taken), nil
}

func (r *Resolver) observe(hit bool) {
	if r.observer != nil {
		r.observer.CarryoverLookup(hit)
	}
}
