package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/teamplanner/ledger"
)

// =============================================================================
// SUMS (ledger.Sums)
// =============================================================================

func (s *Store) sumColumn(ctx context.Context, query string, args ...any) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return decimal.Zero, err
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, err
	}
	return sumDecimals(values)
}

func (s *Store) sumLeave(ctx context.Context, employeeID ledger.EmployeeID, category ledger.Category, year int) (decimal.Decimal, error) {
	from, to := yearBounds(year)
	total, err := s.sumColumn(ctx, `
		SELECT days FROM leave_records
		WHERE employee_id = ? AND category = ? AND start_date BETWEEN ? AND ?`,
		employeeID, category, from, to,
	)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum %s for %s/%d: %w", category, employeeID, year, err)
	}
	return total, nil
}

func (s *Store) SumVacation(ctx context.Context, employeeID ledger.EmployeeID, year int) (decimal.Decimal, error) {
	return s.sumLeave(ctx, employeeID, ledger.CategoryVacation, year)
}

func (s *Store) SumSick(ctx context.Context, employeeID ledger.EmployeeID, year int) (decimal.Decimal, error) {
	return s.sumLeave(ctx, employeeID, ledger.CategorySick, year)
}

func (s *Store) SumTraining(ctx context.Context, employeeID ledger.EmployeeID, year int) (decimal.Decimal, error) {
	return s.sumLeave(ctx, employeeID, ledger.CategoryTraining, year)
}

func (s *Store) SumOvertime(ctx context.Context, employeeID ledger.EmployeeID, year int) (decimal.Decimal, error) {
	from, to := yearBounds(year)
	total, err := s.sumColumn(ctx, `
		SELECT hours FROM overtime_records
		WHERE employee_id = ? AND date BETWEEN ? AND ?`,
		employeeID, from, to,
	)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum overtime for %s/%d: %w", employeeID, year, err)
	}
	return total, nil
}

// =============================================================================
// LEAVE RECORDS
// =============================================================================

const leaveColumns = `id, employee_id, category, start_date, end_date, days, title, note, created_at`

func (s *Store) OverlappingVacation(ctx context.Context, employeeID ledger.EmployeeID, from, to time.Time, excluding ledger.RecordID) ([]ledger.LeaveRecord, error) {
	return s.queryLeave(ctx, `
		SELECT `+leaveColumns+` FROM leave_records
		WHERE employee_id = ? AND category = 'vacation'
		  AND start_date <= ? AND end_date >= ? AND id != ?
		ORDER BY start_date, id`,
		employeeID, formatDate(to), formatDate(from), excluding,
	)
}

func (s *Store) LeaveRecords(ctx context.Context, employeeID ledger.EmployeeID, category ledger.Category, year int) ([]ledger.LeaveRecord, error) {
	from, to := yearBounds(year)
	return s.queryLeave(ctx, `
		SELECT `+leaveColumns+` FROM leave_records
		WHERE employee_id = ? AND category = ? AND start_date BETWEEN ? AND ?
		ORDER BY start_date, id`,
		employeeID, category, from, to,
	)
}

func (s *Store) LeaveRecord(ctx context.Context, id ledger.RecordID) (ledger.LeaveRecord, error) {
	records, err := s.queryLeave(ctx, `SELECT `+leaveColumns+` FROM leave_records WHERE id = ?`, id)
	if err != nil {
		return ledger.LeaveRecord{}, err
	}
	if len(records) == 0 {
		return ledger.LeaveRecord{}, ledger.ErrRecordNotFound
	}
	return records[0], nil
}

func (s *Store) AppendLeave(ctx context.Context, r ledger.LeaveRecord) (ledger.LeaveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireEmployee(ctx, r.EmployeeID); err != nil {
		return ledger.LeaveRecord{}, err
	}
	r.CreatedAt = s.now().UTC().Truncate(time.Second)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_records (employee_id, category, start_date, end_date, days, title, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.EmployeeID, r.Category, formatDate(r.Start), formatDate(r.End),
		r.Days.String(), r.Title, r.Note, r.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return ledger.LeaveRecord{}, fmt.Errorf("failed to append %s record: %w", r.Category, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ledger.LeaveRecord{}, err
	}
	r.ID = ledger.RecordID(id)
	return r, nil
}

// UpdateLeave rewrites range, days, title and note. Owner and category are immutable.
func (s *Store) UpdateLeave(ctx context.Context, r ledger.LeaveRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE leave_records SET start_date = ?, end_date = ?, days = ?, title = ?, note = ?
		WHERE id = ?`,
		formatDate(r.Start), formatDate(r.End), r.Days.String(), r.Title, r.Note, r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update record %d: %w", r.ID, err)
	}
	return affectedOne(res, ledger.ErrRecordNotFound)
}

func (s *Store) DeleteLeave(ctx context.Context, id ledger.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM leave_records WHERE id = ?", id)
	if err != nil {
		return err
	}
	return affectedOne(res, ledger.ErrRecordNotFound)
}

func (s *Store) queryLeave(ctx context.Context, query string, args ...any) ([]ledger.LeaveRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ledger.LeaveRecord
	for rows.Next() {
		r, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func scanLeave(rows *sql.Rows) (ledger.LeaveRecord, error) {
	var r ledger.LeaveRecord
	var start, end, days, createdAt string
	if err := rows.Scan(&r.ID, &r.EmployeeID, &r.Category, &start, &end, &days, &r.Title, &r.Note, &createdAt); err != nil {
		return r, err
	}
	var err error
	if r.Start, err = parseDate(start); err != nil {
		return r, err
	}
	if r.End, err = parseDate(end); err != nil {
		return r, err
	}
	if r.Days, err = decimal.NewFromString(days); err != nil {
		return r, fmt.Errorf("corrupt days %q on record %d: %w", days, r.ID, err)
	}
	r.CreatedAt = parseTimestamp(createdAt)
	return r, nil
}

// =============================================================================
// OVERTIME RECORDS
// =============================================================================

func (s *Store) OvertimeRecords(ctx context.Context, employeeID ledger.EmployeeID, year int) ([]ledger.OvertimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, to := yearBounds(year)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, date, hours, note, created_at FROM overtime_records
		WHERE employee_id = ? AND date BETWEEN ? AND ?
		ORDER BY date, id`,
		employeeID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ledger.OvertimeRecord
	for rows.Next() {
		var r ledger.OvertimeRecord
		var date, hours, createdAt string
		if err := rows.Scan(&r.ID, &r.EmployeeID, &date, &hours, &r.Note, &createdAt); err != nil {
			return nil, err
		}
		if r.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		if r.Hours, err = decimal.NewFromString(hours); err != nil {
			return nil, fmt.Errorf("corrupt hours %q on record %d: %w", hours, r.ID, err)
		}
		r.CreatedAt = parseTimestamp(createdAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) AppendOvertime(ctx context.Context, r ledger.OvertimeRecord) (ledger.OvertimeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireEmployee(ctx, r.EmployeeID); err != nil {
		return ledger.OvertimeRecord{}, err
	}
	r.CreatedAt = s.now().UTC().Truncate(time.Second)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO overtime_records (employee_id, date, hours, note, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.EmployeeID, formatDate(r.Date), r.Hours.String(), r.Note, r.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return ledger.OvertimeRecord{}, fmt.Errorf("failed to append overtime record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ledger.OvertimeRecord{}, err
	}
	r.ID = ledger.RecordID(id)
	return r, nil
}

func (s *Store) DeleteOvertime(ctx context.Context, id ledger.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM overtime_records WHERE id = ?", id)
	if err != nil {
		return err
	}
	return affectedOne(res, ledger.ErrRecordNotFound)
}

// requireEmployee must be called with s.mu held.
func (s *Store) requireEmployee(ctx context.Context, id ledger.EmployeeID) error {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM employees WHERE id = ?", id).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrEmployeeNotFound
	}
	return nil
}
