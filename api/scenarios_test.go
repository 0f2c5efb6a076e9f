package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_ListAndLoad(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	rec := ts.do(http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]ScenarioDTO](t, rec), len(scenarios))
	assert.Equal(t, "null\n", ts.do(http.MethodGet, "/api/scenarios/current", nil).Body.String())

	// WHEN: loading the small team
	rec = ts.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "small-team"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: every employee has a statistic and the rows are grouped
	rec = ts.do(http.MethodGet, "/api/statistics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]StatisticDTO](t, rec)
	require.Len(t, list, 5)

	rec = ts.do(http.MethodGet, "/api/statistics/rows", nil)
	rows := decodeBody[[]RowDTO](t, rec)
	require.Len(t, rows, 8, "3 headers + 5 entries")
	assert.Equal(t, "Entwicklung", rows[0].Department.Name)
	assert.Equal(t, 3, rows[0].Count)

	rec = ts.do(http.MethodGet, "/api/employees/lea/statistic", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	lea := decodeBody[StatisticDTO](t, rec)
	assert.Equal(t, 13, lea.Allowance)
	assert.Equal(t, "0.5", lea.TrainingDays.String())

	assert.Equal(t, "small-team", decodeBody[ScenarioDTO](t, ts.do(http.MethodGet, "/api/scenarios/current", nil)).ID)

	// a second load would mix data
	rec = ts.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "year-end"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = ts.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScenarios_YearEndRollover(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	require.NoError(t, SeedScenario(context.Background(), ts.session, "year-end"))

	report, err := ts.session.Rollover(context.Background(), 2024)
	require.NoError(t, err)

	// petra left: only three active employees
	assert.Equal(t, 3, report.EmployeeCount)
	assert.Equal(t, 4, report.RosterCount)
	byID := map[string]string{}
	forfeited := map[string]string{}
	for _, e := range report.Entries {
		byID[string(e.Employee.ID)] = e.Carryover.String()
		forfeited[string(e.Employee.ID)] = e.Forfeited.String()
	}
	assert.Equal(t, "30", byID["klaus"])
	assert.Equal(t, "25", forfeited["klaus"])
	assert.Equal(t, "15", byID["tim"])
	assert.Contains(t, byID, "maria")
}
