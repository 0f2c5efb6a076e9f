/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry go-playground/validator tags. Handlers run
  Handler.decode, which rejects unknown fields and failed tags with 400.
  Domain rules (allowance range, overlap, balance) stay in the engine.

NUMBERS AND DATES:
  Day and hour quantities are exact decimals. They are written as JSON
  numbers via json.Number so 0.5 stays 0.5. Dates are YYYY-MM-DD.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/teamplanner/calendar"
	"github.com/warp/teamplanner/ledger"
	"github.com/warp/teamplanner/planner"
	"github.com/warp/teamplanner/stats"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID            string `json:"id"`
	DepartmentID  int64  `json:"department_id,omitempty"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	BirthDate     string `json:"birth_date,omitempty"`
	HireDate      string `json:"hire_date"`
	DepartureDate string `json:"departure_date,omitempty"`
	BaseAllowance int    `json:"base_allowance"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// EmployeeRequest creates or replaces an employee. An empty ID on create
// gets a generated one.
type EmployeeRequest struct {
	ID            string `json:"id" validate:"omitempty,max=64"`
	DepartmentID  int64  `json:"department_id" validate:"gte=0"`
	FirstName     string `json:"first_name" validate:"required,min=2,max=100"`
	LastName      string `json:"last_name" validate:"required,min=2,max=100"`
	Email         string `json:"email" validate:"omitempty,email"`
	BirthDate     string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	HireDate      string `json:"hire_date" validate:"required,datetime=2006-01-02"`
	DepartureDate string `json:"departure_date" validate:"omitempty,datetime=2006-01-02"`
	BaseAllowance int    `json:"base_allowance" validate:"required,min=20,max=50"`
	Status        string `json:"status" validate:"omitempty,oneof=active departed"`
}

// DepartRequest records an employee's departure.
type DepartRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

func toEmployeeDTO(e ledger.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:            string(e.ID),
		DepartmentID:  int64(e.DepartmentID),
		FirstName:     e.FirstName,
		LastName:      e.LastName,
		Name:          e.FullName(),
		Email:         e.Email,
		BirthDate:     formatOptionalDate(e.BirthDate),
		HireDate:      formatDate(e.HireDate),
		DepartureDate: formatOptionalDate(e.DepartureDate),
		BaseAllowance: e.BaseAllowance,
		Status:        string(e.Status),
	}
	if !e.CreatedAt.IsZero() {
		dto.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// toEmployee converts a validated request. Date formats were checked by the
// validator, so parse errors cannot occur here.
func (req EmployeeRequest) toEmployee() ledger.Employee {
	e := ledger.Employee{
		ID:            ledger.EmployeeID(req.ID),
		DepartmentID:  ledger.DepartmentID(req.DepartmentID),
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		BirthDate:     parseOptionalDate(req.BirthDate),
		DepartureDate: parseOptionalDate(req.DepartureDate),
		BaseAllowance: req.BaseAllowance,
		Status:        ledger.Status(req.Status),
	}
	e.HireDate, _ = calendar.ParseDate(req.HireDate)
	return e
}

// =============================================================================
// STATISTICS
// =============================================================================

// StatisticDTO is one employee's derived numbers for a year.
type StatisticDTO struct {
	EmployeeID    string      `json:"employee_id"`
	Name          string      `json:"name"`
	DepartmentID  int64       `json:"department_id,omitempty"`
	Year          int         `json:"year"`
	Allowance     int         `json:"allowance"`
	CarryoverIn   json.Number `json:"carryover_in"`
	Available     json.Number `json:"available"`
	VacationTaken json.Number `json:"vacation_taken"`
	Remaining     json.Number `json:"remaining"`
	SickDays      json.Number `json:"sick_days"`
	TrainingDays  json.Number `json:"training_days"`
	OvertimeHours json.Number `json:"overtime_hours"`
}

func toStatisticDTO(s stats.YearlyStatistic) StatisticDTO {
	return StatisticDTO{
		EmployeeID:    string(s.Employee.ID),
		Name:          s.Employee.FullName(),
		DepartmentID:  int64(s.Employee.DepartmentID),
		Year:          s.Year,
		Allowance:     s.Allowance,
		CarryoverIn:   number(s.CarryoverIn),
		Available:     number(s.Available()),
		VacationTaken: number(s.VacationTaken),
		Remaining:     number(s.Remaining()),
		SickDays:      number(s.SickDays),
		TrainingDays:  number(s.TrainingDays),
		OvertimeHours: number(s.OvertimeHours),
	}
}

func toStatisticDTOs(in []stats.YearlyStatistic) []StatisticDTO {
	out := make([]StatisticDTO, len(in))
	for i, s := range in {
		out[i] = toStatisticDTO(s)
	}
	return out
}

// TeamStatisticDTO aggregates the active roster of a year.
type TeamStatisticDTO struct {
	Year            int         `json:"year"`
	EmployeeCount   int         `json:"employee_count"`
	TotalVacation   json.Number `json:"total_vacation"`
	TotalSick       json.Number `json:"total_sick"`
	TotalTraining   json.Number `json:"total_training"`
	TotalOvertime   json.Number `json:"total_overtime"`
	AverageVacation json.Number `json:"average_vacation"`
}

func toTeamStatisticDTO(t stats.TeamStatistic) TeamStatisticDTO {
	return TeamStatisticDTO{
		Year:            t.Year,
		EmployeeCount:   t.EmployeeCount,
		TotalVacation:   number(t.TotalVacation),
		TotalSick:       number(t.TotalSick),
		TotalTraining:   number(t.TotalTraining),
		TotalOvertime:   number(t.TotalOvertime),
		AverageVacation: number(t.AverageVacation),
	}
}

// RowDTO is a department header or an employee entry.
type RowDTO struct {
	Type       string         `json:"type"` // "header" or "entry"
	Department *DepartmentDTO `json:"department,omitempty"`
	Count      int            `json:"count,omitempty"`
	Statistic  *StatisticDTO  `json:"statistic,omitempty"`
}

func toRowDTOs(rows []stats.Row) []RowDTO {
	out := make([]RowDTO, 0, len(rows))
	for _, row := range rows {
		switch r := row.(type) {
		case stats.HeaderRow:
			d := toDepartmentDTO(r.Department)
			out = append(out, RowDTO{Type: "header", Department: &d, Count: r.Count})
		case stats.EntryRow:
			s := toStatisticDTO(r.Statistic)
			out = append(out, RowDTO{Type: "entry", Statistic: &s})
		}
	}
	return out
}

// RolloverDTO reports the carryover from one year into the next.
type RolloverDTO struct {
	FromYear       int                `json:"from_year"`
	ToYear         int                `json:"to_year"`
	RosterCount    int                `json:"roster_count"`
	EmployeeCount  int                `json:"employee_count"`
	TotalCarryover json.Number        `json:"total_carryover"`
	Entries        []RolloverEntryDTO `json:"entries"`
}

type RolloverEntryDTO struct {
	EmployeeID string      `json:"employee_id"`
	Name       string      `json:"name"`
	Rest       json.Number `json:"rest"`
	Carryover  json.Number `json:"carryover"`
	Forfeited  json.Number `json:"forfeited"`
}

func toRolloverDTO(r stats.RolloverReport) RolloverDTO {
	dto := RolloverDTO{
		FromYear:       r.FromYear,
		ToYear:         r.ToYear,
		RosterCount:    r.RosterCount,
		EmployeeCount:  r.EmployeeCount,
		TotalCarryover: number(r.TotalCarryover()),
		Entries:        make([]RolloverEntryDTO, len(r.Entries)),
	}
	for i, e := range r.Entries {
		dto.Entries[i] = RolloverEntryDTO{
			EmployeeID: string(e.Employee.ID),
			Name:       e.Employee.FullName(),
			Rest:       number(e.Rest),
			Carryover:  number(e.Carryover),
			Forfeited:  number(e.Forfeited),
		}
	}
	return dto
}

// YearDTO is the session's current year.
type YearDTO struct {
	Year int `json:"year"`
}

// YearRequest switches the current year.
type YearRequest struct {
	Year int `json:"year" validate:"required,min=1970,max=2200"`
}

// BusinessDaysDTO answers a working-day count.
type BusinessDaysDTO struct {
	From string `json:"from"`
	To   string `json:"to"`
	Days int    `json:"days"`
}

// =============================================================================
// LEDGER RECORDS
// =============================================================================

// LeaveRequest asks for vacation or records sick leave over [From, To].
type LeaveRequest struct {
	From string `json:"from" validate:"required,datetime=2006-01-02"`
	To   string `json:"to" validate:"required,datetime=2006-01-02"`
	Note string `json:"note" validate:"max=500"`
}

func (req LeaveRequest) dates() (from, to time.Time) {
	from, _ = calendar.ParseDate(req.From)
	to, _ = calendar.ParseDate(req.To)
	return from, to
}

// TrainingRequest records a training starting on Date.
type TrainingRequest struct {
	Date  string          `json:"date" validate:"required,datetime=2006-01-02"`
	Days  decimal.Decimal `json:"days"`
	Title string          `json:"title" validate:"omitempty,min=3,max=200"`
	Note  string          `json:"note" validate:"max=500"`
}

// OvertimeRequest records a signed hour delta.
type OvertimeRequest struct {
	Date  string          `json:"date" validate:"required,datetime=2006-01-02"`
	Hours decimal.Decimal `json:"hours"`
	Note  string          `json:"note" validate:"max=500"`
}

// LeaveRecordDTO is a stored vacation, sick or training record.
type LeaveRecordDTO struct {
	ID         int64       `json:"id"`
	EmployeeID string      `json:"employee_id"`
	Category   string      `json:"category"`
	Start      string      `json:"start"`
	End        string      `json:"end"`
	Days       json.Number `json:"days"`
	Title      string      `json:"title,omitempty"`
	Note       string      `json:"note,omitempty"`
}

func toLeaveRecordDTO(r ledger.LeaveRecord) LeaveRecordDTO {
	return LeaveRecordDTO{
		ID:         int64(r.ID),
		EmployeeID: string(r.EmployeeID),
		Category:   string(r.Category),
		Start:      formatDate(r.Start),
		End:        formatDate(r.End),
		Days:       number(r.Days),
		Title:      r.Title,
		Note:       r.Note,
	}
}

func toLeaveRecordDTOs(in []ledger.LeaveRecord) []LeaveRecordDTO {
	out := make([]LeaveRecordDTO, len(in))
	for i, r := range in {
		out[i] = toLeaveRecordDTO(r)
	}
	return out
}

// OvertimeRecordDTO is a stored overtime entry.
type OvertimeRecordDTO struct {
	ID         int64       `json:"id"`
	EmployeeID string      `json:"employee_id"`
	Date       string      `json:"date"`
	Hours      json.Number `json:"hours"`
	Note       string      `json:"note,omitempty"`
}

func toOvertimeRecordDTO(r ledger.OvertimeRecord) OvertimeRecordDTO {
	return OvertimeRecordDTO{
		ID:         int64(r.ID),
		EmployeeID: string(r.EmployeeID),
		Date:       formatDate(r.Date),
		Hours:      number(r.Hours),
		Note:       r.Note,
	}
}

// RecordsDTO lists one employee's records of a year by category.
type RecordsDTO struct {
	Year     int                 `json:"year"`
	Vacation []LeaveRecordDTO    `json:"vacation"`
	Sick     []LeaveRecordDTO    `json:"sick"`
	Training []LeaveRecordDTO    `json:"training"`
	Overtime []OvertimeRecordDTO `json:"overtime"`
}

func toRecordsDTO(year int, r planner.EmployeeRecords) RecordsDTO {
	dto := RecordsDTO{
		Year:     year,
		Vacation: toLeaveRecordDTOs(r.Vacation),
		Sick:     toLeaveRecordDTOs(r.Sick),
		Training: toLeaveRecordDTOs(r.Training),
		Overtime: make([]OvertimeRecordDTO, len(r.Overtime)),
	}
	for i, o := range r.Overtime {
		dto.Overtime[i] = toOvertimeRecordDTO(o)
	}
	return dto
}

// =============================================================================
// DEPARTMENTS AND HOLIDAYS
// =============================================================================

type DepartmentDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	SortOrder int    `json:"sort_order"`
}

// DepartmentRequest creates or renames a department.
type DepartmentRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	Color     string `json:"color" validate:"omitempty,hexcolor"`
	SortOrder int    `json:"sort_order"`
}

func toDepartmentDTO(d ledger.Department) DepartmentDTO {
	return DepartmentDTO{ID: int64(d.ID), Name: d.Name, Color: d.Color, SortOrder: d.SortOrder}
}

type HolidayDTO struct {
	ID     int64  `json:"id"`
	Date   string `json:"date"`
	Name   string `json:"name"`
	Region string `json:"region,omitempty"`
	Active bool   `json:"active"`
}

// HolidayRequest stores a holiday. Active defaults to true.
type HolidayRequest struct {
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Name   string `json:"name" validate:"required,min=3,max=100"`
	Region string `json:"region" validate:"max=16"`
	Active *bool  `json:"active"`
}

// SeedHolidaysRequest expands the configured holiday rules into Year.
type SeedHolidaysRequest struct {
	Year int `json:"year" validate:"required,min=1970,max=2200"`
}

func toHolidayDTO(h calendar.Holiday) HolidayDTO {
	return HolidayDTO{
		ID:     h.ID,
		Date:   formatDate(h.Date),
		Name:   h.Name,
		Region: h.Region,
		Active: h.Active,
	}
}

// =============================================================================
// SCENARIOS AND ERRORS
// =============================================================================

// ScenarioDTO describes a demo data set.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a demo data set.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the body of every non-2xx response. Overlap and balance
// failures carry their details.
type ErrorResponse struct {
	Error     string           `json:"error"`
	Details   string           `json:"details,omitempty"`
	Existing  []LeaveRecordDTO `json:"existing,omitempty"`
	Requested json.Number      `json:"requested,omitempty"`
	Remaining json.Number      `json:"remaining,omitempty"`
}

// =============================================================================
// HELPERS
// =============================================================================

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(calendar.DateLayout)
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

func parseOptionalDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := calendar.ParseDate(s)
	if err != nil {
		return nil
	}
	return &t
}
