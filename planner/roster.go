package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/warp/teamplanner/calendar"
	"github.com/warp/teamplanner/ledger"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// Employees returns the roster snapshot the current cache was built from,
// including inactive employees.
func (s *Session) Employees(ctx context.Context) ([]ledger.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureFresh(ctx); err != nil {
		return nil, err
	}
	return append([]ledger.Employee(nil), s.cache.roster...), nil
}

func (s *Session) Employee(ctx context.Context, id ledger.EmployeeID) (ledger.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Employee(ctx, id)
}

// SaveEmployee creates or updates an employee.
func (s *Session) SaveEmployee(ctx context.Context, e ledger.Employee) (ledger.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.FirstName = strings.TrimSpace(e.FirstName)
	e.LastName = strings.TrimSpace(e.LastName)
	e.Email = strings.TrimSpace(e.Email)
	e.HireDate = calendar.Day(e.HireDate)
	if e.Status == "" {
		e.Status = ledger.StatusActive
	}
	if err := e.Validate(); err != nil {
		return ledger.Employee{}, err
	}
	if err := s.store.SaveEmployee(ctx, e); err != nil {
		return ledger.Employee{}, err
	}
	s.invalidate()
	s.logger.Info("employee saved", "employee", e.ID, "name", e.FullName())
	return s.store.Employee(ctx, e.ID)
}

// DeleteEmployee removes the employee and all of its ledger records.
func (s *Session) DeleteEmployee(ctx context.Context, id ledger.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	s.invalidate()
	s.logger.Info("employee deleted", "employee", id)
	return nil
}

// Depart records a departure date. Once the date lies in the past the status
// flips to departed as well.
func (s *Session) Depart(ctx context.Context, id ledger.EmployeeID, date time.Time) (ledger.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.store.Employee(ctx, id)
	if err != nil {
		return ledger.Employee{}, err
	}
	day := calendar.Day(date)
	e.DepartureDate = &day
	if day.Before(calendar.Day(s.now())) {
		e.Status = ledger.StatusDeparted
	}
	if err := e.Validate(); err != nil {
		return ledger.Employee{}, err
	}
	if err := s.store.SaveEmployee(ctx, e); err != nil {
		return ledger.Employee{}, err
	}
	s.invalidate()
	s.logger.Info("employee departure recorded", "employee", id, "date", day.Format(calendar.DateLayout))
	return e, nil
}

// =============================================================================
// DEPARTMENTS
// =============================================================================

func (s *Session) Departments(ctx context.Context) ([]ledger.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Departments(ctx)
}

func (s *Session) CreateDepartment(ctx context.Context, d ledger.Department) (ledger.Department, error) {
	d.ID = 0
	return s.saveDepartment(ctx, d)
}

func (s *Session) UpdateDepartment(ctx context.Context, d ledger.Department) (ledger.Department, error) {
	if d.ID == 0 {
		return ledger.Department{}, ledger.ErrDepartmentNotFound
	}
	return s.saveDepartment(ctx, d)
}

func (s *Session) saveDepartment(ctx context.Context, d ledger.Department) (ledger.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d.Name = strings.TrimSpace(d.Name)
	if err := d.Validate(); err != nil {
		return ledger.Department{}, err
	}
	saved, err := s.store.SaveDepartment(ctx, d)
	if err != nil {
		return ledger.Department{}, err
	}
	s.invalidate()
	s.logger.Info("department saved", "department", saved.ID, "name", saved.Name)
	return saved, nil
}

// DeleteDepartment fails with ErrDepartmentInUse while employees are assigned.
func (s *Session) DeleteDepartment(ctx context.Context, id ledger.DepartmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteDepartment(ctx, id); err != nil {
		return fmt.Errorf("delete department %d: %w", id, err)
	}
	s.invalidate()
	s.logger.Info("department deleted", "department", id)
	return nil
}
