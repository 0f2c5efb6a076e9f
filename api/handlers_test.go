/*
handlers_test.go - HTTP tests for the planner API

Tests for:
- Employee CRUD and request validation
- Leave admission status mapping (201, 400, 404, 409, 422)
- Revising and cancelling leave through the employee-scoped routes
- Departments, holidays, year switching and the business-day calculator
- Metrics and health endpoints
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/teamplanner/calendar"
	"github.com/warp/teamplanner/ledger/memory"
	"github.com/warp/teamplanner/metrics"
	"github.com/warp/teamplanner/planner"
)

var testToday = calendar.Date(2025, time.June, 15)

type testServer struct {
	t       *testing.T
	session *planner.Session
	handler *Handler
	router  http.Handler
}

func newTestServer(t *testing.T, cfg RouterConfig) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewManager(metrics.WithRegistry(prometheus.NewRegistry()))
	}

	session := planner.NewSession(memory.New(),
		planner.WithClock(func() time.Time { return testToday }),
		planner.WithLogger(logger),
		planner.WithMetrics(cfg.Metrics),
	)
	rules := calendar.DefaultRules()
	for _, year := range []int{2024, 2025} {
		_, err := session.SeedHolidays(context.Background(), rules, year)
		require.NoError(t, err)
	}

	h := NewHandler(session, rules, logger)
	return &testServer{t: t, session: session, handler: h, router: NewRouter(h, cfg)}
}

func (ts *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (ts *testServer) createEmployee(id string, base int, hired string) {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/employees", map[string]any{
		"id":             id,
		"first_name":     "Anna",
		"last_name":      "Schmidt-" + id,
		"hire_date":      hired,
		"base_allowance": base,
	})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployees_CreateGetUpdateDelete(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	// GIVEN: a create request without ID
	rec := ts.do(http.MethodPost, "/api/employees", map[string]any{
		"first_name":     "Jürgen",
		"last_name":      "Öztürk",
		"email":          "j.oeztuerk@example.com",
		"hire_date":      "2024-07-01",
		"base_allowance": 30,
	})

	// THEN: a UUID is assigned
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[EmployeeDTO](t, rec)
	assert.Len(t, created.ID, 36)
	assert.Equal(t, "Jürgen Öztürk", created.Name)
	assert.Equal(t, "active", created.Status)

	rec = ts.do(http.MethodGet, "/api/employees/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-07-01", decodeBody[EmployeeDTO](t, rec).HireDate)

	rec = ts.do(http.MethodPut, "/api/employees/"+created.ID, map[string]any{
		"first_name":     "Jürgen",
		"last_name":      "Öztürk",
		"hire_date":      "2024-07-01",
		"base_allowance": 32,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 32, decodeBody[EmployeeDTO](t, rec).BaseAllowance)

	rec = ts.do(http.MethodGet, "/api/employees", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]EmployeeDTO](t, rec), 1)

	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/api/employees/"+created.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/employees/"+created.ID, nil).Code)
}

func TestEmployees_Validation(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	ts.createEmployee("E1", 30, "2020-01-01")

	tests := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"allowance below range", map[string]any{"first_name": "Anna", "last_name": "Berg", "hire_date": "2020-01-01", "base_allowance": 19}, http.StatusBadRequest},
		{"short name", map[string]any{"first_name": "A", "last_name": "Berg", "hire_date": "2020-01-01", "base_allowance": 30}, http.StatusBadRequest},
		{"bad date", map[string]any{"first_name": "Anna", "last_name": "Berg", "hire_date": "01.01.2020", "base_allowance": 30}, http.StatusBadRequest},
		{"unknown field", map[string]any{"first_name": "Anna", "last_name": "Berg", "hire_date": "2020-01-01", "base_allowance": 30, "salary": 1}, http.StatusBadRequest},
		{"unknown department", map[string]any{"first_name": "Anna", "last_name": "Berg", "hire_date": "2020-01-01", "base_allowance": 30, "department_id": 99}, http.StatusNotFound},
		{"duplicate id", map[string]any{"id": "E1", "first_name": "Anna", "last_name": "Berg", "hire_date": "2020-01-01", "base_allowance": 30}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/api/employees", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

// =============================================================================
// LEAVE ADMISSION
// =============================================================================

func TestVacation_AdmissionStatusMapping(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	ts.createEmployee("E1", 20, "2025-01-01")

	// GIVEN: an admitted week
	rec := ts.do(http.MethodPost, "/api/employees/E1/vacation", LeaveRequest{From: "2025-03-03", To: "2025-03-07"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decodeBody[LeaveRecordDTO](t, rec)
	assert.Equal(t, "5", first.Days.String())

	// overlap -> 409 with the existing record
	rec = ts.do(http.MethodPost, "/api/employees/E1/vacation", LeaveRequest{From: "2025-03-07", To: "2025-03-11"})
	require.Equal(t, http.StatusConflict, rec.Code)
	conflict := decodeBody[ErrorResponse](t, rec)
	require.Len(t, conflict.Existing, 1)
	assert.Equal(t, first.ID, conflict.Existing[0].ID)

	// more than remaining -> 422 with both numbers
	rec = ts.do(http.MethodPost, "/api/employees/E1/vacation", LeaveRequest{From: "2025-04-22", To: "2025-05-30"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	short := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "15", short.Remaining.String())
	assert.NotEmpty(t, short.Requested.String())

	// weekend only -> 400
	rec = ts.do(http.MethodPost, "/api/employees/E1/vacation", LeaveRequest{From: "2025-03-15", To: "2025-03-16"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// reversed -> 400
	rec = ts.do(http.MethodPost, "/api/employees/E1/vacation", LeaveRequest{From: "2025-03-20", To: "2025-03-18"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// unknown employee -> 404
	rec = ts.do(http.MethodPost, "/api/employees/nobody/vacation", LeaveRequest{From: "2025-03-18", To: "2025-03-20"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// THEN: only the first request reached the ledger
	rec = ts.do(http.MethodGet, "/api/employees/E1/statistic", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decodeBody[StatisticDTO](t, rec)
	assert.Equal(t, "5", st.VacationTaken.String())
	assert.Equal(t, "15", st.Remaining.String())
	assert.Equal(t, 20, st.Allowance)
}

func TestVacation_InactiveEmployeeIsNotFound(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	ts.createEmployee("E1", 30, "2020-01-01")

	rec := ts.do(http.MethodPost, "/api/employees/E1/depart", DepartRequest{Date: "2025-05-31"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "departed", decodeBody[EmployeeDTO](t, rec).Status)

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/employees/E1/statistic", nil).Code)
	rec = ts.do(http.MethodPost, "/api/employees/E1/vacation", LeaveRequest{From: "2025-07-01", To: "2025-07-02"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// an edit without status keeps the employee departed
	rec = ts.do(http.MethodPut, "/api/employees/E1", map[string]any{
		"first_name":     "Anna",
		"last_name":      "Schmidt",
		"hire_date":      "2020-01-01",
		"departure_date": "2025-05-31",
		"base_allowance": 28,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "departed", decodeBody[EmployeeDTO](t, rec).Status)
}

func TestVacation_ReviseAndCancel(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	ts.createEmployee("E1", 30, "2020-01-01")
	ts.createEmployee("E2", 30, "2020-01-01")

	rec := ts.do(http.MethodPost, "/api/employees/E1/vacation", LeaveRequest{From: "2025-03-03", To: "2025-03-07"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := strconv.FormatInt(decodeBody[LeaveRecordDTO](t, rec).ID, 10)

	// another employee's path does not reach the record
	rec = ts.do(http.MethodPut, "/api/employees/E2/vacation/"+id, LeaveRequest{From: "2025-03-10", To: "2025-03-11"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPut, "/api/employees/E1/vacation/"+id, LeaveRequest{From: "2025-03-05", To: "2025-03-11", Note: "shifted"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	revised := decodeBody[LeaveRecordDTO](t, rec)
	assert.Equal(t, "2025-03-05", revised.Start)
	assert.Equal(t, "5", revised.Days.String())
	assert.Equal(t, "shifted", revised.Note)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodDelete, "/api/employees/E1/vacation/abc", nil).Code)
	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/api/employees/E1/vacation/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, "/api/employees/E1/vacation/"+id, nil).Code)
}

func TestRecords_SickTrainingOvertime(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	ts.createEmployee("E1", 30, "2020-01-01")

	rec := ts.do(http.MethodPost, "/api/employees/E1/sick", LeaveRequest{From: "2025-04-17", To: "2025-04-22"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sick := decodeBody[LeaveRecordDTO](t, rec)
	assert.Equal(t, "2", sick.Days.String())

	rec = ts.do(http.MethodPost, "/api/employees/E1/training", map[string]any{
		"date": "2025-04-17", "days": 1.5, "title": "Go workshop",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	training := decodeBody[LeaveRecordDTO](t, rec)
	assert.Equal(t, "2025-04-22", training.End)
	assert.Equal(t, "1.5", training.Days.String())

	// the title is optional, but a given one needs three characters
	rec = ts.do(http.MethodPost, "/api/employees/E1/training", map[string]any{"date": "2025-05-05", "days": "0.5"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = ts.do(http.MethodPost, "/api/employees/E1/training", map[string]any{"date": "2025-05-06", "days": 1, "title": "Go"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/employees/E1/overtime", map[string]any{"date": "2025-04-23", "hours": "-2.25"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodPost, "/api/employees/E1/overtime", map[string]any{"date": "2025-04-23", "hours": 30})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/employees/E1/records?year=2025", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	records := decodeBody[RecordsDTO](t, rec)
	assert.Len(t, records.Sick, 1)
	assert.Len(t, records.Training, 2)
	require.Len(t, records.Overtime, 1)
	assert.Equal(t, "-2.25", records.Overtime[0].Hours.String())
	assert.Empty(t, records.Vacation)

	// wrong category is not found; unknown category is a bad request
	sickID := strconv.FormatInt(sick.ID, 10)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, "/api/records/training/"+sickID, nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodDelete, "/api/records/holiday/"+sickID, nil).Code)
	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/api/records/sick/"+sickID, nil).Code)
}

// =============================================================================
// STATISTICS, YEAR AND DEPARTMENTS
// =============================================================================

func TestStatistics_YearRowsTeamAndSearch(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	rec := ts.do(http.MethodPost, "/api/departments", DepartmentRequest{Name: "IT", Color: "#3498db"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	it := decodeBody[DepartmentDTO](t, rec)

	assert.Equal(t, http.StatusConflict, ts.do(http.MethodPost, "/api/departments", DepartmentRequest{Name: "it"}).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/departments", DepartmentRequest{Name: "X", Color: "blue"}).Code)

	rec = ts.do(http.MethodPost, "/api/employees", map[string]any{
		"id": "E1", "department_id": it.ID, "first_name": "Anna", "last_name": "Schmidt",
		"hire_date": "2024-07-01", "base_allowance": 30,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ts.createEmployee("E2", 30, "2020-01-01")

	rec = ts.do(http.MethodGet, "/api/statistics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]StatisticDTO](t, rec), 2)

	rec = ts.do(http.MethodGet, "/api/statistics?department="+strconv.FormatInt(it.ID, 10), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	byDept := decodeBody[[]StatisticDTO](t, rec)
	require.Len(t, byDept, 1)
	assert.Equal(t, "15", byDept[0].CarryoverIn.String())

	rec = ts.do(http.MethodGet, "/api/statistics/rows", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decodeBody[[]RowDTO](t, rec)
	require.Len(t, rows, 4)
	assert.Equal(t, "header", rows[0].Type)
	assert.Equal(t, "IT", rows[0].Department.Name)
	assert.Equal(t, "entry", rows[1].Type)

	rec = ts.do(http.MethodGet, "/api/statistics/search?q=SCHMIDT", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]StatisticDTO](t, rec), 2)

	rec = ts.do(http.MethodGet, "/api/statistics/team?year=2025", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decodeBody[TeamStatisticDTO](t, rec).EmployeeCount)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/statistics/team?year=abc", nil).Code)

	// switching the year changes what the list shows
	rec = ts.do(http.MethodPut, "/api/year", YearRequest{Year: 2024})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2024, decodeBody[YearDTO](t, ts.do(http.MethodGet, "/api/year", nil)).Year)
	rec = ts.do(http.MethodGet, "/api/statistics?department="+strconv.FormatInt(it.ID, 10), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	byDept = decodeBody[[]StatisticDTO](t, rec)
	require.Len(t, byDept, 1)
	assert.Equal(t, 15, byDept[0].Allowance)
	assert.Equal(t, 2024, byDept[0].Year)

	rec = ts.do(http.MethodGet, "/api/rollover?from=2024", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decodeBody[RolloverDTO](t, rec)
	assert.Equal(t, 2, report.EmployeeCount)
	assert.Equal(t, "45", report.TotalCarryover.String())

	// departments in use cannot be deleted
	path := "/api/departments/" + strconv.FormatInt(it.ID, 10)
	assert.Equal(t, http.StatusConflict, ts.do(http.MethodDelete, path, nil).Code)
	rec = ts.do(http.MethodPut, path, DepartmentRequest{Name: "Informatik", Color: "#2980b9", SortOrder: 3})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Informatik", decodeBody[DepartmentDTO](t, rec).Name)
}

// =============================================================================
// HOLIDAYS AND CALENDAR
// =============================================================================

func TestHolidays_AndBusinessDays(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	rec := ts.do(http.MethodGet, "/api/calendar/business-days?from=2025-12-22&to=2025-12-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 6, decodeBody[BusinessDaysDTO](t, rec).Days)

	// a company day off on Dec 24
	rec = ts.do(http.MethodPost, "/api/holidays", HolidayRequest{Date: "2025-12-24", Name: "Heiligabend"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	eve := decodeBody[HolidayDTO](t, rec)
	assert.True(t, eve.Active)
	assert.Equal(t, http.StatusConflict, ts.do(http.MethodPost, "/api/holidays", HolidayRequest{Date: "2025-12-24", Name: "Heiligabend"}).Code)

	rec = ts.do(http.MethodGet, "/api/calendar/business-days?from=2025-12-22&to=2025-12-31", nil)
	assert.Equal(t, 5, decodeBody[BusinessDaysDTO](t, rec).Days)

	// deactivating restores the count
	inactive := false
	rec = ts.do(http.MethodPut, "/api/holidays/"+strconv.FormatInt(eve.ID, 10),
		HolidayRequest{Date: "2025-12-24", Name: "Heiligabend", Active: &inactive})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = ts.do(http.MethodGet, "/api/calendar/business-days?from=2025-12-22&to=2025-12-31", nil)
	assert.Equal(t, 6, decodeBody[BusinessDaysDTO](t, rec).Days)

	rec = ts.do(http.MethodGet, "/api/holidays?year=2025", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decodeBody[[]HolidayDTO](t, rec)
	assert.Len(t, all, len(calendar.DefaultRules().For(2025))+1)

	rec = ts.do(http.MethodPost, "/api/holidays/defaults", SeedHolidaysRequest{Year: 2026})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(len(calendar.DefaultRules().For(2026))), decodeBody[map[string]float64](t, rec)["added"])

	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/api/holidays/"+strconv.FormatInt(eve.ID, 10), nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, "/api/holidays/"+strconv.FormatInt(eve.ID, 10), nil).Code)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/calendar/business-days?from=2025-12-31&to=2025-12-22", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/calendar/business-days?from=x&to=2025-12-22", nil).Code)
}

// =============================================================================
// TRANSPORT
// =============================================================================

func TestRouter_HealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	ts.createEmployee("E1", 30, "2020-01-01")

	rec := ts.do(http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	ts.do(http.MethodGet, "/api/employees/E1/statistic", nil)
	rec = ts.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `teamplanner_http_requests_total{method="GET",route="/api/employees/{id}/statistic",status_code="200"} 1`)
	assert.Contains(t, body, `teamplanner_http_requests_total{method="POST",route="/api/employees",status_code="201"} 1`)
	assert.Contains(t, body, "teamplanner_cache_rebuilds_total 1")
}

func TestRouter_RateLimitsWrites(t *testing.T) {
	ts := newTestServer(t, RouterConfig{WritesPerMinute: 2})

	ts.createEmployee("E1", 30, "2020-01-01")
	ts.createEmployee("E2", 30, "2020-01-01")
	rec := ts.do(http.MethodPost, "/api/departments", DepartmentRequest{Name: "IT"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// reads are not limited
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/employees", nil).Code)
}
