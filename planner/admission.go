/*
admission.go - Leave admission: validate everything, then write once

ADMISSION STEPS:
  1. ValidateRange(from, to)               -> InvalidRange
     span longer than one year             -> RangeTooLong
  2. days = CountBusinessDays(from, to)    -> EmptyRange when 0
  3. OverlappingVacation(employee, range)  -> Overlap(existing)
  4. statistic(employee, from.Year)        -> EmployeeInactive
     days > remaining                      -> InsufficientBalance
  5. AppendLeave(days) + Invalidate

  Nothing is written unless every step passed. A rejected request leaves
  both the ledger and the cache untouched.

REVISION:
  ReviseLeave re-runs the same steps for an existing vacation record, with
  the record itself excluded from the overlap check and its current days
  credited back when it is governed by the same year.
*/
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/teamplanner/calendar"
	"github.com/warp/teamplanner/ledger"
)

// maxSpan is the longest admissible range: to may be at most 365 days after from.
const maxSpan = 365 * 24 * time.Hour

// RequestLeave admits a vacation request and returns the stored record.
func (s *Session) RequestLeave(ctx context.Context, id ledger.EmployeeID, from, to time.Time, note string) (ledger.LeaveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, to = calendar.Day(from), calendar.Day(to)
	record, err := s.admit(ctx, id, from, to, 0, decimal.Zero)
	if err != nil {
		s.reject(id, from, to, err)
		return ledger.LeaveRecord{}, err
	}
	record.Note = note

	record, err = s.store.AppendLeave(ctx, record)
	if err != nil {
		return ledger.LeaveRecord{}, fmt.Errorf("store vacation: %w", err)
	}
	s.invalidate()
	s.metrics.Admission("admitted")
	s.metrics.LedgerWrite(string(ledger.CategoryVacation), "create")
	s.logger.Info("leave admitted",
		"employee", id, "record", record.ID,
		"from", from.Format(calendar.DateLayout), "to", to.Format(calendar.DateLayout),
		"days", record.Days.String())
	return record, nil
}

// ReviseLeave moves or resizes an existing vacation record.
func (s *Session) ReviseLeave(ctx context.Context, recordID ledger.RecordID, from, to time.Time, note string) (ledger.LeaveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.LeaveRecord(ctx, recordID)
	if err != nil {
		return ledger.LeaveRecord{}, err
	}
	if existing.Category != ledger.CategoryVacation {
		return ledger.LeaveRecord{}, fmt.Errorf("%w: record %d is %s, not vacation",
			ledger.ErrInvalidRecord, recordID, existing.Category)
	}

	from, to = calendar.Day(from), calendar.Day(to)
	credit := decimal.Zero
	if existing.Year() == from.Year() {
		credit = existing.Days
	}
	revised, err := s.admit(ctx, existing.EmployeeID, from, to, recordID, credit)
	if err != nil {
		s.reject(existing.EmployeeID, from, to, err)
		return ledger.LeaveRecord{}, err
	}
	revised.ID = existing.ID
	revised.Note = note
	revised.CreatedAt = existing.CreatedAt

	if err := s.store.UpdateLeave(ctx, revised); err != nil {
		return ledger.LeaveRecord{}, fmt.Errorf("update vacation %d: %w", recordID, err)
	}
	s.invalidate()
	s.metrics.Admission("revised")
	s.metrics.LedgerWrite(string(ledger.CategoryVacation), "update")
	s.logger.Info("leave revised",
		"employee", existing.EmployeeID, "record", recordID,
		"from", from.Format(calendar.DateLayout), "to", to.Format(calendar.DateLayout),
		"days", revised.Days.String())
	return revised, nil
}

// CancelLeave deletes a vacation record.
func (s *Session) CancelLeave(ctx context.Context, recordID ledger.RecordID) error {
	return s.DeleteRecord(ctx, ledger.CategoryVacation, recordID)
}

// admit runs steps 1-4 and returns the unsaved record. credit is added to
// the remaining balance (the record being revised).
func (s *Session) admit(ctx context.Context, id ledger.EmployeeID, from, to time.Time, excluding ledger.RecordID, credit decimal.Decimal) (ledger.LeaveRecord, error) {
	if err := validateSpan(from, to); err != nil {
		return ledger.LeaveRecord{}, err
	}

	n, err := s.calendar.CountBusinessDays(ctx, from, to)
	if err != nil {
		return ledger.LeaveRecord{}, err
	}
	if n == 0 {
		return ledger.LeaveRecord{}, ledger.ErrEmptyRange
	}
	days := decimal.NewFromInt(int64(n))

	existing, err := s.store.OverlappingVacation(ctx, id, from, to, excluding)
	if err != nil {
		return ledger.LeaveRecord{}, err
	}
	if len(existing) > 0 {
		return ledger.LeaveRecord{}, &ledger.OverlapError{Existing: existing}
	}

	stat, err := s.statistic(ctx, id, from.Year())
	if err != nil {
		return ledger.LeaveRecord{}, err
	}
	remaining := stat.Remaining().Add(credit)
	if days.GreaterThan(remaining) {
		return ledger.LeaveRecord{}, &ledger.InsufficientBalanceError{
			EmployeeID: id,
			Year:       from.Year(),
			Requested:  days,
			Remaining:  remaining,
		}
	}

	return ledger.LeaveRecord{
		EmployeeID: id,
		Category:   ledger.CategoryVacation,
		Start:      from,
		End:        to,
		Days:       days,
	}, nil
}

func (s *Session) reject(id ledger.EmployeeID, from, to time.Time, err error) {
	s.metrics.Admission(outcome(err))
	s.logger.Info("leave rejected",
		"employee", id,
		"from", from.Format(calendar.DateLayout), "to", to.Format(calendar.DateLayout),
		"reason", err.Error())
}

// validateSpan applies the range checks shared by every ranged write.
func validateSpan(from, to time.Time) error {
	if err := calendar.ValidateRange(from, to); err != nil {
		return err
	}
	if calendar.Day(to).Sub(calendar.Day(from)) > maxSpan {
		return ledger.ErrRangeTooLong
	}
	return nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInvalidRange), errors.Is(err, ledger.ErrRangeTooLong):
		return "invalid_range"
	case errors.Is(err, ledger.ErrEmptyRange):
		return "empty_range"
	case errors.Is(err, ledger.ErrOverlap):
		return "overlap"
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ledger.ErrEmployeeInactive):
		return "inactive"
	case ledger.IsNotFound(err):
		return "not_found"
	}
	return "error"
}
