/*
handlers.go - HTTP API handlers for the leave planner

PURPOSE:
  Exposes the planner session via REST API. Handles HTTP request/response,
  JSON serialization and validation, and delegates to the session.

ENDPOINTS:
  Year and statistics:
    GET    /api/year                         Current year
    PUT    /api/year                         Switch current year
    GET    /api/statistics                   Statistics of the current year (?department=)
    GET    /api/statistics/rows              Department-grouped rows
    GET    /api/statistics/team              Team aggregate (?year=)
    GET    /api/statistics/search            Case-insensitive search (?q=)
    GET    /api/rollover                     Carryover report (?from=)

  Employees:
    GET    /api/employees                    Roster, departed included
    POST   /api/employees                    Create employee
    GET    /api/employees/{id}               Employee details
    PUT    /api/employees/{id}               Replace employee
    DELETE /api/employees/{id}               Delete employee and its records
    POST   /api/employees/{id}/depart        Record departure
    GET    /api/employees/{id}/statistic     Statistic of a year (?year=)
    GET    /api/employees/{id}/records       Ledger records of a year (?year=)

  Ledger writes:
    POST   /api/employees/{id}/vacation              Request leave (admission)
    PUT    /api/employees/{id}/vacation/{recordID}   Revise leave
    DELETE /api/employees/{id}/vacation/{recordID}   Cancel leave
    POST   /api/employees/{id}/sick                  Record sick leave
    POST   /api/employees/{id}/training              Record training
    POST   /api/employees/{id}/overtime              Record overtime
    DELETE /api/records/{category}/{recordID}        Delete any record

  Departments, holidays, calendar:
    GET|POST /api/departments, PUT|DELETE /api/departments/{id}
    GET /api/holidays?year=, POST /api/holidays, PUT|DELETE /api/holidays/{id}
    POST /api/holidays/defaults               Seed holiday rules into a year
    GET  /api/calendar/business-days?from=&to=

ERROR HANDLING:
  Engine errors map to HTTP status in statusFor:
  - 400: invalid or empty range, range too long, validation
  - 404: not found, and no statistic for inactive employees
  - 409: overlap, duplicate department or holiday, department in use
  - 422: insufficient balance
  - 500: everything else (logged)

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo data loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/warp/teamplanner/calendar"
	"github.com/warp/teamplanner/ledger"
	"github.com/warp/teamplanner/planner"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Session *planner.Session
	Rules   calendar.Rules
	Logger  *slog.Logger

	validate *validator.Validate
	newID    func() string

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a handler over session. rules feed POST /holidays/defaults.
func NewHandler(session *planner.Session, rules calendar.Rules, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Session:  session,
		Rules:    rules,
		Logger:   logger,
		validate: validator.New(),
		newID:    uuid.NewString,
	}
}

// =============================================================================
// YEAR AND STATISTICS
// =============================================================================

func (h *Handler) GetYear(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, YearDTO{Year: h.Session.Year()})
}

// SetYear switches the session year. The cache rebuilds on the next read.
func (h *Handler) SetYear(w http.ResponseWriter, r *http.Request) {
	var req YearRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.Session.SetYear(req.Year)
	writeJSON(w, http.StatusOK, YearDTO{Year: h.Session.Year()})
}

// ListStatistics returns the current year's statistics, optionally for one department.
func (h *Handler) ListStatistics(w http.ResponseWriter, r *http.Request) {
	var dept ledger.DepartmentID
	if raw := r.URL.Query().Get("department"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			writeError(w, http.StatusBadRequest, "Invalid department", err)
			return
		}
		dept = ledger.DepartmentID(id)
	}

	list, err := h.Session.Statistics(r.Context(), dept)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatisticDTOs(list))
}

func (h *Handler) ListRows(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Session.Rows(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRowDTOs(rows))
}

func (h *Handler) GetTeamStatistic(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearParam(w, r, "year", h.Session.Year())
	if !ok {
		return
	}
	team, err := h.Session.TeamStatistic(r.Context(), year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTeamStatisticDTO(team))
}

func (h *Handler) SearchStatistics(w http.ResponseWriter, r *http.Request) {
	list, err := h.Session.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatisticDTOs(list))
}

// GetRollover reports the carryover from ?from= (default: current year) into the next year.
func (h *Handler) GetRollover(w http.ResponseWriter, r *http.Request) {
	from, ok := h.yearParam(w, r, "from", h.Session.Year())
	if !ok {
		return
	}
	report, err := h.Session.Rollover(r.Context(), from)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRolloverDTO(report))
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees, departed ones included.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Session.Employees(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	e, err := h.Session.Employee(r.Context(), employeeID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(e))
}

// CreateEmployee creates a new employee. Without an ID a UUID is assigned.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.ID == "" {
		req.ID = h.newID()
	}

	ctx := r.Context()
	if _, err := h.Session.Employee(ctx, ledger.EmployeeID(req.ID)); err == nil {
		writeError(w, http.StatusConflict, "Employee already exists", nil)
		return
	} else if !errors.Is(err, ledger.ErrEmployeeNotFound) {
		h.fail(w, r, err)
		return
	}

	saved, err := h.Session.SaveEmployee(ctx, req.toEmployee())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(saved))
}

// UpdateEmployee replaces an existing employee's master data.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	id := employeeID(r)
	existing, err := h.Session.Employee(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	e := req.toEmployee()
	e.ID = id
	if e.Status == "" {
		e.Status = existing.Status
	}
	saved, err := h.Session.SaveEmployee(ctx, e)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(saved))
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.DeleteEmployee(r.Context(), employeeID(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DepartEmployee(w http.ResponseWriter, r *http.Request) {
	var req DepartRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, _ := calendar.ParseDate(req.Date)
	e, err := h.Session.Depart(r.Context(), employeeID(r), date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(e))
}

// GetStatistic returns one employee's statistic for ?year= (default: current year).
func (h *Handler) GetStatistic(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearParam(w, r, "year", h.Session.Year())
	if !ok {
		return
	}
	st, err := h.Session.Statistic(r.Context(), employeeID(r), year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatisticDTO(st))
}

func (h *Handler) GetRecords(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearParam(w, r, "year", h.Session.Year())
	if !ok {
		return
	}
	records, err := h.Session.Records(r.Context(), employeeID(r), year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordsDTO(year, records))
}

// =============================================================================
// LEDGER WRITES
// =============================================================================

// RequestVacation runs leave admission.
func (h *Handler) RequestVacation(w http.ResponseWriter, r *http.Request) {
	var req LeaveRequest
	if !h.decode(w, r, &req) {
		return
	}
	from, to := req.dates()
	record, err := h.Session.RequestLeave(r.Context(), employeeID(r), from, to, req.Note)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveRecordDTO(record))
}

func (h *Handler) ReviseVacation(w http.ResponseWriter, r *http.Request) {
	var req LeaveRequest
	if !h.decode(w, r, &req) {
		return
	}
	recordID, ok := h.ownedVacation(w, r)
	if !ok {
		return
	}
	from, to := req.dates()
	record, err := h.Session.ReviseLeave(r.Context(), recordID, from, to, req.Note)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRecordDTO(record))
}

func (h *Handler) CancelVacation(w http.ResponseWriter, r *http.Request) {
	recordID, ok := h.ownedVacation(w, r)
	if !ok {
		return
	}
	if err := h.Session.CancelLeave(r.Context(), recordID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RecordSick(w http.ResponseWriter, r *http.Request) {
	var req LeaveRequest
	if !h.decode(w, r, &req) {
		return
	}
	from, to := req.dates()
	record, err := h.Session.RecordSickLeave(r.Context(), employeeID(r), from, to, req.Note)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveRecordDTO(record))
}

func (h *Handler) RecordTraining(w http.ResponseWriter, r *http.Request) {
	var req TrainingRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, _ := calendar.ParseDate(req.Date)
	record, err := h.Session.RecordTraining(r.Context(), employeeID(r), date, req.Days, req.Title, req.Note)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveRecordDTO(record))
}

func (h *Handler) RecordOvertime(w http.ResponseWriter, r *http.Request) {
	var req OvertimeRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, _ := calendar.ParseDate(req.Date)
	record, err := h.Session.RecordOvertime(r.Context(), employeeID(r), date, req.Hours, req.Note)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOvertimeRecordDTO(record))
}

// DeleteRecord removes a record of any category.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	category, ok := ledger.ParseCategory(chi.URLParam(r, "category"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid category", nil)
		return
	}
	recordID, ok := h.idParam(w, r, "recordID")
	if !ok {
		return
	}
	if err := h.Session.DeleteRecord(r.Context(), category, ledger.RecordID(recordID)); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedVacation resolves {recordID} and checks it is a vacation of {id}.
func (h *Handler) ownedVacation(w http.ResponseWriter, r *http.Request) (ledger.RecordID, bool) {
	raw, ok := h.idParam(w, r, "recordID")
	if !ok {
		return 0, false
	}
	recordID := ledger.RecordID(raw)
	record, err := h.Session.LeaveRecord(r.Context(), recordID)
	if err != nil {
		h.fail(w, r, err)
		return 0, false
	}
	if record.EmployeeID != employeeID(r) || record.Category != ledger.CategoryVacation {
		writeError(w, http.StatusNotFound, "Record not found", ledger.ErrRecordNotFound)
		return 0, false
	}
	return recordID, true
}

// =============================================================================
// DEPARTMENTS
// =============================================================================

func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Session.Departments(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]DepartmentDTO, len(departments))
	for i, d := range departments {
		dtos[i] = toDepartmentDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req DepartmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	d, err := h.Session.CreateDepartment(r.Context(), ledger.Department{
		Name:      req.Name,
		Color:     req.Color,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDepartmentDTO(d))
}

func (h *Handler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	var req DepartmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	d, err := h.Session.UpdateDepartment(r.Context(), ledger.Department{
		ID:        ledger.DepartmentID(id),
		Name:      req.Name,
		Color:     req.Color,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDepartmentDTO(d))
}

func (h *Handler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.Session.DeleteDepartment(r.Context(), ledger.DepartmentID(id)); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HOLIDAY ENDPOINTS
// =============================================================================

// ListHolidays returns all stored holidays of ?year=, inactive ones included.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearParam(w, r, "year", h.Session.Year())
	if !ok {
		return
	}
	holidays, err := h.Session.Holidays(r.Context(), year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = toHolidayDTO(hol)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	h.saveHoliday(w, r, 0)
}

func (h *Handler) UpdateHoliday(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	h.saveHoliday(w, r, id)
}

func (h *Handler) saveHoliday(w http.ResponseWriter, r *http.Request, id int64) {
	var req HolidayRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, _ := calendar.ParseDate(req.Date)
	active := req.Active == nil || *req.Active

	saved, err := h.Session.SaveHoliday(r.Context(), calendar.Holiday{
		ID:     id,
		Date:   date,
		Name:   req.Name,
		Region: strings.TrimSpace(req.Region),
		Active: active,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, toHolidayDTO(saved))
}

func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.Session.DeleteHoliday(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddDefaultHolidays expands the configured holiday rules into a year,
// skipping dates already stored.
func (h *Handler) AddDefaultHolidays(w http.ResponseWriter, r *http.Request) {
	var req SeedHolidaysRequest
	if !h.decode(w, r, &req) {
		return
	}
	n, err := h.Session.SeedHolidays(r.Context(), h.Rules, req.Year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"year": req.Year, "added": n})
}

// BusinessDays counts working days in [from, to].
func (h *Handler) BusinessDays(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := calendar.ParseDate(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
		return
	}
	to, err := calendar.ParseDate(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
		return
	}

	n, err := h.Session.BusinessDays(r.Context(), from, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BusinessDaysDTO{From: formatDate(from), To: formatDate(to), Days: n})
}

// =============================================================================
// REQUEST AND RESPONSE HELPERS
// =============================================================================

// decode reads a JSON body into dst and validates it. On failure the 400
// response is already written.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", validationDetails(err))
		return false
	}
	return true
}

func validationDetails(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(parts, "; "))
}

func (h *Handler) yearParam(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1970 || year > 2200 {
		writeError(w, http.StatusBadRequest, "Invalid "+name, err)
		return 0, false
	}
	return year, true
}

func (h *Handler) idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid "+name, err)
		return 0, false
	}
	return id, true
}

func employeeID(r *http.Request) ledger.EmployeeID {
	return ledger.EmployeeID(chi.URLParam(r, "id"))
}

// fail maps an engine error to its HTTP status and writes it.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error("request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, status, "Internal error", err)
		return
	}

	resp := ErrorResponse{Error: http.StatusText(status), Details: err.Error()}
	var overlap *ledger.OverlapError
	if errors.As(err, &overlap) {
		resp.Existing = toLeaveRecordDTOs(overlap.Existing)
	}
	var short *ledger.InsufficientBalanceError
	if errors.As(err, &short) {
		resp.Requested = number(short.Requested)
		resp.Remaining = number(short.Remaining)
	}
	writeJSON(w, status, resp)
}

func statusFor(err error) int {
	switch {
	case ledger.IsClientError(err):
		return http.StatusBadRequest
	case ledger.IsNotFound(err):
		return http.StatusNotFound
	case ledger.IsConflict(err):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
