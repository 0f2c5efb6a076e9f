package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/warp/teamplanner/ledger"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

const employeeColumns = `id, department_id, first_name, last_name, email, birth_date, hire_date,
	departure_date, base_allowance, status, created_at, updated_at`

// SaveEmployee inserts or updates an employee (upsert on ID).
func (s *Store) SaveEmployee(ctx context.Context, e ledger.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	department := sql.NullInt64{Int64: int64(e.DepartmentID), Valid: e.DepartmentID != 0}
	if department.Valid {
		if _, err := s.department(ctx, e.DepartmentID); err != nil {
			return err
		}
	}

	now := s.now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (`+employeeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			department_id = excluded.department_id,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			email = excluded.email,
			birth_date = excluded.birth_date,
			hire_date = excluded.hire_date,
			departure_date = excluded.departure_date,
			base_allowance = excluded.base_allowance,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		e.ID, department, e.FirstName, e.LastName, e.Email,
		formatOptionalDate(e.BirthDate), formatDate(e.HireDate), formatOptionalDate(e.DepartureDate),
		e.BaseAllowance, e.Status, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save employee %s: %w", e.ID, err)
	}
	return nil
}

func (s *Store) Employee(ctx context.Context, id ledger.EmployeeID) (ledger.Employee, error) {
	employees, err := s.queryEmployees(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
	if err != nil {
		return ledger.Employee{}, err
	}
	if len(employees) == 0 {
		return ledger.Employee{}, ledger.ErrEmployeeNotFound
	}
	return employees[0], nil
}

func (s *Store) Employees(ctx context.Context) ([]ledger.Employee, error) {
	return s.queryEmployees(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY last_name, first_name, id`)
}

// DeleteEmployee removes the employee; ledger records go with it (ON DELETE CASCADE).
func (s *Store) DeleteEmployee(ctx context.Context, id ledger.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM employees WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete employee %s: %w", id, err)
	}
	return affectedOne(res, ledger.ErrEmployeeNotFound)
}

func (s *Store) queryEmployees(ctx context.Context, query string, args ...any) ([]ledger.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []ledger.Employee
	for rows.Next() {
		var e ledger.Employee
		var department sql.NullInt64
		var birth, departure sql.NullString
		var hire, createdAt, updatedAt string
		if err := rows.Scan(&e.ID, &department, &e.FirstName, &e.LastName, &e.Email, &birth, &hire,
			&departure, &e.BaseAllowance, &e.Status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		e.DepartmentID = ledger.DepartmentID(department.Int64)
		if e.HireDate, err = parseDate(hire); err != nil {
			return nil, err
		}
		if e.BirthDate, err = parseOptionalDate(birth); err != nil {
			return nil, err
		}
		if e.DepartureDate, err = parseOptionalDate(departure); err != nil {
			return nil, err
		}
		e.CreatedAt = parseTimestamp(createdAt)
		e.UpdatedAt = parseTimestamp(updatedAt)
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// =============================================================================
// DEPARTMENTS
// =============================================================================

func (s *Store) Departments(ctx context.Context) ([]ledger.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, color, sort_order FROM departments ORDER BY sort_order, name COLLATE NOCASE",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var departments []ledger.Department
	for rows.Next() {
		var d ledger.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Color, &d.SortOrder); err != nil {
			return nil, err
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

func (s *Store) Department(ctx context.Context, id ledger.DepartmentID) (ledger.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.department(ctx, id)
}

// department must be called with s.mu held.
func (s *Store) department(ctx context.Context, id ledger.DepartmentID) (ledger.Department, error) {
	var d ledger.Department
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, color, sort_order FROM departments WHERE id = ?", id,
	).Scan(&d.ID, &d.Name, &d.Color, &d.SortOrder)
	if errors.Is(err, sql.ErrNoRows) {
		return d, ledger.ErrDepartmentNotFound
	}
	return d, err
}

// SaveDepartment inserts (ID 0) or updates a department.
func (s *Store) SaveDepartment(ctx context.Context, d ledger.Department) (ledger.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.Color == "" {
		d.Color = ledger.DefaultDepartmentColor
	}

	if d.ID == 0 {
		res, err := s.db.ExecContext(ctx,
			"INSERT INTO departments (name, color, sort_order) VALUES (?, ?, ?)",
			d.Name, d.Color, d.SortOrder,
		)
		if isUniqueConstraintError(err) {
			return ledger.Department{}, ledger.ErrDuplicateDepartment
		}
		if err != nil {
			return ledger.Department{}, fmt.Errorf("failed to create department: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return ledger.Department{}, err
		}
		d.ID = ledger.DepartmentID(id)
		return d, nil
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE departments SET name = ?, color = ?, sort_order = ? WHERE id = ?",
		d.Name, d.Color, d.SortOrder, d.ID,
	)
	if isUniqueConstraintError(err) {
		return ledger.Department{}, ledger.ErrDuplicateDepartment
	}
	if err != nil {
		return ledger.Department{}, fmt.Errorf("failed to update department %d: %w", d.ID, err)
	}
	if err := affectedOne(res, ledger.ErrDepartmentNotFound); err != nil {
		return ledger.Department{}, err
	}
	return d, nil
}

func (s *Store) DeleteDepartment(ctx context.Context, id ledger.DepartmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.countEmployees(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ledger.ErrDepartmentInUse
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM departments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete department %d: %w", id, err)
	}
	return affectedOne(res, ledger.ErrDepartmentNotFound)
}

func (s *Store) CountEmployees(ctx context.Context, id ledger.DepartmentID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countEmployees(ctx, id)
}

func (s *Store) countEmployees(ctx context.Context, id ledger.DepartmentID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM employees WHERE department_id = ?", id).Scan(&n)
	return n, err
}
