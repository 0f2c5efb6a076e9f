// Package memory provides an in-memory ledger.Store (for testing/dev).
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/teamplanner/calendar"
	"github.com/warp/teamplanner/ledger"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	employees   map[ledger.EmployeeID]ledger.Employee
	departments map[ledger.DepartmentID]ledger.Department
	leave       map[ledger.RecordID]ledger.LeaveRecord
	overtime    map[ledger.RecordID]ledger.OvertimeRecord
	holidays    map[int64]calendar.Holiday
	nextID      int64
	now         func() time.Time
}

var _ ledger.Store = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		employees:   make(map[ledger.EmployeeID]ledger.Employee),
		departments: make(map[ledger.DepartmentID]ledger.Department),
		leave:       make(map[ledger.RecordID]ledger.LeaveRecord),
		overtime:    make(map[ledger.RecordID]ledger.OvertimeRecord),
		holidays:    make(map[int64]calendar.Holiday),
		now:         time.Now,
	}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

// =============================================================================
// SUMS
// =============================================================================

func (m *Memory) sumLeave(employeeID ledger.EmployeeID, category ledger.Category, year int) decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := decimal.Zero
	for _, r := range m.leave {
		if r.EmployeeID == employeeID && r.Category == category && r.Year() == year {
			total = total.Add(r.Days)
		}
	}
	return total
}

func (m *Memory) SumVacation(_ context.Context, employeeID ledger.EmployeeID, year int) (decimal.Decimal, error) {
	return m.sumLeave(employeeID, ledger.CategoryVacation, year), nil
}

func (m *Memory) SumSick(_ context.Context, employeeID ledger.EmployeeID, year int) (decimal.Decimal, error) {
	return m.sumLeave(employeeID, ledger.CategorySick, year), nil
}

func (m *Memory) SumTraining(_ context.Context, employeeID ledger.EmployeeID, year int) (decimal.Decimal, error) {
	return m.sumLeave(employeeID, ledger.CategoryTraining, year), nil
}

func (m *Memory) SumOvertime(_ context.Context, employeeID ledger.EmployeeID, year int) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := decimal.Zero
	for _, r := range m.overtime {
		if r.EmployeeID == employeeID && r.Year() == year {
			total = total.Add(r.Hours)
		}
	}
	return total, nil
}

// =============================================================================
// RECORDS
// =============================================================================

func (m *Memory) OverlappingVacation(_ context.Context, employeeID ledger.EmployeeID, from, to time.Time, excluding ledger.RecordID) ([]ledger.LeaveRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.LeaveRecord
	for _, r := range m.leave {
		if r.EmployeeID != employeeID || r.Category != ledger.CategoryVacation || r.ID == excluding {
			continue
		}
		if r.Overlaps(from, to) {
			result = append(result, r)
		}
	}
	sortLeave(result)
	return result, nil
}

func (m *Memory) LeaveRecords(_ context.Context, employeeID ledger.EmployeeID, category ledger.Category, year int) ([]ledger.LeaveRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.LeaveRecord
	for _, r := range m.leave {
		if r.EmployeeID == employeeID && r.Category == category && r.Year() == year {
			result = append(result, r)
		}
	}
	sortLeave(result)
	return result, nil
}

func (m *Memory) LeaveRecord(_ context.Context, id ledger.RecordID) (ledger.LeaveRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.leave[id]
	if !ok {
		return ledger.LeaveRecord{}, ledger.ErrRecordNotFound
	}
	return r, nil
}

func (m *Memory) OvertimeRecords(_ context.Context, employeeID ledger.EmployeeID, year int) ([]ledger.OvertimeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.OvertimeRecord
	for _, r := range m.overtime {
		if r.EmployeeID == employeeID && r.Year() == year {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *Memory) AppendLeave(_ context.Context, r ledger.LeaveRecord) (ledger.LeaveRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.employees[r.EmployeeID]; !ok {
		return ledger.LeaveRecord{}, ledger.ErrEmployeeNotFound
	}
	r.ID = ledger.RecordID(m.id())
	r.CreatedAt = m.now().UTC()
	m.leave[r.ID] = r
	return r, nil
}

func (m *Memory) UpdateLeave(_ context.Context, r ledger.LeaveRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.leave[r.ID]
	if !ok {
		return ledger.ErrRecordNotFound
	}
	r.EmployeeID = old.EmployeeID
	r.Category = old.Category
	r.CreatedAt = old.CreatedAt
	m.leave[r.ID] = r
	return nil
}

func (m *Memory) DeleteLeave(_ context.Context, id ledger.RecordID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.leave[id]; !ok {
		return ledger.ErrRecordNotFound
	}
	delete(m.leave, id)
	return nil
}

func (m *Memory) AppendOvertime(_ context.Context, r ledger.OvertimeRecord) (ledger.OvertimeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.employees[r.EmployeeID]; !ok {
		return ledger.OvertimeRecord{}, ledger.ErrEmployeeNotFound
	}
	r.ID = ledger.RecordID(m.id())
	r.CreatedAt = m.now().UTC()
	m.overtime[r.ID] = r
	return r, nil
}

func (m *Memory) DeleteOvertime(_ context.Context, id ledger.RecordID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.overtime[id]; !ok {
		return ledger.ErrRecordNotFound
	}
	delete(m.overtime, id)
	return nil
}

// =============================================================================
// ROSTER
// =============================================================================

func (m *Memory) Employee(_ context.Context, id ledger.EmployeeID) (ledger.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.employees[id]
	if !ok {
		return ledger.Employee{}, ledger.ErrEmployeeNotFound
	}
	return e, nil
}

func (m *Memory) Employees(_ context.Context) ([]ledger.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]ledger.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].LastName != result[j].LastName {
			return result[i].LastName < result[j].LastName
		}
		if result[i].FirstName != result[j].FirstName {
			return result[i].FirstName < result[j].FirstName
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// SaveEmployee inserts or replaces the employee (upsert on ID).
func (m *Memory) SaveEmployee(_ context.Context, e ledger.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.DepartmentID != 0 {
		if _, ok := m.departments[e.DepartmentID]; !ok {
			return ledger.ErrDepartmentNotFound
		}
	}
	now := m.now().UTC()
	if old, ok := m.employees[e.ID]; ok {
		e.CreatedAt = old.CreatedAt
	} else {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	m.employees[e.ID] = e
	return nil
}

func (m *Memory) DeleteEmployee(_ context.Context, id ledger.EmployeeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.employees[id]; !ok {
		return ledger.ErrEmployeeNotFound
	}
	delete(m.employees, id)
	for rid, r := range m.leave {
		if r.EmployeeID == id {
			delete(m.leave, rid)
		}
	}
	for rid, r := range m.overtime {
		if r.EmployeeID == id {
			delete(m.overtime, rid)
		}
	}
	return nil
}

func (m *Memory) Departments(_ context.Context) ([]ledger.Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]ledger.Department, 0, len(m.departments))
	for _, d := range m.departments {
		result = append(result, d)
	}
	sortDepartments(result)
	return result, nil
}

func (m *Memory) Department(_ context.Context, id ledger.DepartmentID) (ledger.Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.departments[id]
	if !ok {
		return ledger.Department{}, ledger.ErrDepartmentNotFound
	}
	return d, nil
}

// SaveDepartment inserts (ID 0) or updates a department. Names are unique
// case-insensitively.
func (m *Memory) SaveDepartment(_ context.Context, d ledger.Department) (ledger.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, other := range m.departments {
		if other.ID != d.ID && strings.EqualFold(other.Name, d.Name) {
			return ledger.Department{}, ledger.ErrDuplicateDepartment
		}
	}
	if d.ID == 0 {
		d.ID = ledger.DepartmentID(m.id())
	} else if _, ok := m.departments[d.ID]; !ok {
		return ledger.Department{}, ledger.ErrDepartmentNotFound
	}
	if d.Color == "" {
		d.Color = ledger.DefaultDepartmentColor
	}
	m.departments[d.ID] = d
	return d, nil
}

func (m *Memory) DeleteDepartment(_ context.Context, id ledger.DepartmentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.departments[id]; !ok {
		return ledger.ErrDepartmentNotFound
	}
	for _, e := range m.employees {
		if e.DepartmentID == id {
			return ledger.ErrDepartmentInUse
		}
	}
	delete(m.departments, id)
	return nil
}

func (m *Memory) CountEmployees(_ context.Context, id ledger.DepartmentID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, e := range m.employees {
		if e.DepartmentID == id {
			n++
		}
	}
	return n, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// Holidays returns every stored holiday of the year, regardless of region.
func (m *Memory) Holidays(_ context.Context, year int) ([]calendar.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []calendar.Holiday
	for _, h := range m.holidays {
		if h.Date.Year() == year {
			result = append(result, h)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// SaveHoliday inserts (ID 0) or updates a holiday. Date plus region is unique.
func (m *Memory) SaveHoliday(_ context.Context, h calendar.Holiday) (calendar.Holiday, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h.Date = calendar.Day(h.Date)
	for _, other := range m.holidays {
		if other.ID != h.ID && other.Date.Equal(h.Date) && other.Region == h.Region {
			return calendar.Holiday{}, ledger.ErrDuplicateHoliday
		}
	}
	if h.ID == 0 {
		h.ID = m.id()
	} else if _, ok := m.holidays[h.ID]; !ok {
		return calendar.Holiday{}, ledger.ErrHolidayNotFound
	}
	m.holidays[h.ID] = h
	return h, nil
}

func (m *Memory) DeleteHoliday(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.holidays[id]; !ok {
		return ledger.ErrHolidayNotFound
	}
	delete(m.holidays, id)
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func sortLeave(rs []ledger.LeaveRecord) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].Start.Equal(rs[j].Start) {
			return rs[i].Start.Before(rs[j].Start)
		}
		return rs[i].ID < rs[j].ID
	})
}

func sortDepartments(ds []ledger.Department) {
	sort.Slice(ds, func(i, j int) bool {
		if ds[i].SortOrder != ds[j].SortOrder {
			return ds[i].SortOrder < ds[j].SortOrder
		}
		return strings.ToLower(ds[i].Name) < strings.ToLower(ds[j].Name)
	})
}
