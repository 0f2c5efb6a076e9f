package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/teamplanner/calendar"
	"github.com/warp/teamplanner/ledger"
)

// =============================================================================
// SICK, TRAINING AND OVERTIME WRITES
// =============================================================================

// RecordSickLeave stores a sick leave over [from, to] counted in business days.
func (s *Session) RecordSickLeave(ctx context.Context, id ledger.EmployeeID, from, to time.Time, note string) (ledger.LeaveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, to = calendar.Day(from), calendar.Day(to)
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

	return s.appendLeave(ctx, ledger.LeaveRecord{
		EmployeeID: id,
		Category:   ledger.CategorySick,
		Start:      from,
		End:        to,
		Days:       decimal.NewFromInt(int64(n)),
		Note:       note,
	})
}

// RecordTraining stores a training of days (fractional allowed) starting on
// date. The end date covers ceil(days) business days.
func (s *Session) RecordTraining(ctx context.Context, id ledger.EmployeeID, date time.Time, days decimal.Decimal, title, note string) (ledger.LeaveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	date = calendar.Day(date)
	record := ledger.LeaveRecord{
		EmployeeID: id,
		Category:   ledger.CategoryTraining,
		Start:      date,
		End:        date,
		Days:       days,
		Title:      title,
		Note:       note,
	}
	if err := record.Validate(); err != nil {
		return ledger.LeaveRecord{}, err
	}
	end, err := s.calendar.AdvanceBusinessDays(ctx, date, int(days.Ceil().IntPart()))
	if err != nil {
		return ledger.LeaveRecord{}, err
	}
	record.End = end

	return s.appendLeave(ctx, record)
}

// RecordOvertime stores a signed hour delta.
func (s *Session) RecordOvertime(ctx context.Context, id ledger.EmployeeID, date time.Time, hours decimal.Decimal, note string) (ledger.OvertimeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := ledger.OvertimeRecord{
		EmployeeID: id,
		Date:       calendar.Day(date),
		Hours:      hours,
		Note:       note,
	}
	if err := record.Validate(); err != nil {
		return ledger.OvertimeRecord{}, err
	}
	if _, err := s.store.Employee(ctx, id); err != nil {
		return ledger.OvertimeRecord{}, err
	}

	record, err := s.store.AppendOvertime(ctx, record)
	if err != nil {
		return ledger.OvertimeRecord{}, fmt.Errorf("store overtime: %w", err)
	}
	s.invalidate()
	s.metrics.LedgerWrite(string(ledger.CategoryOvertime), "create")
	s.logger.Info("overtime recorded", "employee", id, "record", record.ID, "hours", hours.String())
	return record, nil
}

// DeleteRecord removes a ledger record of the given category.
func (s *Session) DeleteRecord(ctx context.Context, category ledger.Category, id ledger.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case category == ledger.CategoryOvertime:
		if err := s.store.DeleteOvertime(ctx, id); err != nil {
			return err
		}
	case category.IsRanged():
		existing, err := s.store.LeaveRecord(ctx, id)
		if err != nil {
			return err
		}
		if existing.Category != category {
			return ledger.ErrRecordNotFound
		}
		if err := s.store.DeleteLeave(ctx, id); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown category %q", ledger.ErrInvalidRecord, category)
	}

	s.invalidate()
	s.metrics.LedgerWrite(string(category), "delete")
	s.logger.Info("record deleted", "category", category, "record", id)
	return nil
}

// LeaveRecord returns a single vacation, sick or training record.
func (s *Session) LeaveRecord(ctx context.Context, id ledger.RecordID) (ledger.LeaveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.LeaveRecord(ctx, id)
}

// EmployeeRecords lists one employee's ledger entries of a year.
type EmployeeRecords struct {
	Vacation []ledger.LeaveRecord
	Sick     []ledger.LeaveRecord
	Training []ledger.LeaveRecord
	Overtime []ledger.OvertimeRecord
}

// Records returns the ledger entries governed by year.
func (s *Session) Records(ctx context.Context, id ledger.EmployeeID, year int) (EmployeeRecords, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.Employee(ctx, id); err != nil {
		return EmployeeRecords{}, err
	}

	var out EmployeeRecords
	for _, c := range []struct {
		category ledger.Category
		dst      *[]ledger.LeaveRecord
	}{
		{ledger.CategoryVacation, &out.Vacation},
		{ledger.CategorySick, &out.Sick},
		{ledger.CategoryTraining, &out.Training},
	} {
		records, err := s.store.LeaveRecords(ctx, id, c.category, year)
		if err != nil {
			return EmployeeRecords{}, err
		}
		*c.dst = records
	}
	overtime, err := s.store.OvertimeRecords(ctx, id, year)
	if err != nil {
		return EmployeeRecords{}, err
	}
	out.Overtime = overtime
	return out, nil
}

func (s *Session) appendLeave(ctx context.Context, record ledger.LeaveRecord) (ledger.LeaveRecord, error) {
	if err := record.Validate(); err != nil {
		return ledger.LeaveRecord{}, err
	}
	if _, err := s.store.Employee(ctx, record.EmployeeID); err != nil {
		return ledger.LeaveRecord{}, err
	}

	stored, err := s.store.AppendLeave(ctx, record)
	if err != nil {
		return ledger.LeaveRecord{}, fmt.Errorf("store %s: %w", record.Category, err)
	}
	s.invalidate()
	s.metrics.LedgerWrite(string(record.Category), "create")
	s.logger.Info("record stored",
		"category", record.Category, "employee", record.EmployeeID, "record", stored.ID,
		"from", record.Start.Format(calendar.DateLayout), "to", record.End.Format(calendar.DateLayout),
		"days", record.Days.String())
	return stored, nil
}
