package planner_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/teamplanner/calendar"
	"github.com/warp/teamplanner/ledger"
)

func TestRecordSickLeave_CountsBusinessDays(t *testing.T) {
	f := newFixture(t)
	f.employee("E1", 30, calendar.Date(2020, time.January, 1))

	record, err := f.session.RecordSickLeave(f.ctx, "E1",
		calendar.Date(2025, time.April, 17), calendar.Date(2025, time.April, 22), "flu")
	require.NoError(t, err)
	assert.Equal(t, "2", record.Days.String())

	st, err := f.session.Statistic(f.ctx, "E1", 2025)
	require.NoError(t, err)
	assert.Equal(t, "2", st.SickDays.String())
	assert.Equal(t, "60", st.Remaining().String(), "sick leave does not touch the vacation balance")

	_, err = f.session.RecordSickLeave(f.ctx, "E1",
		calendar.Date(2025, time.April, 19), calendar.Date(2025, time.April, 21), "")
	assert.ErrorIs(t, err, ledger.ErrEmptyRange)

	_, err = f.session.RecordSickLeave(f.ctx, "nobody",
		calendar.Date(2025, time.April, 22), calendar.Date(2025, time.April, 22), "")
	assert.ErrorIs(t, err, ledger.ErrEmployeeNotFound)
}

func TestRecordTraining_EndSkipsHolidays(t *testing.T) {
	f := newFixture(t)
	f.employee("E1", 30, calendar.Date(2020, time.January, 1))

	// GIVEN: 1.5 days starting the Thursday before Easter
	record, err := f.session.RecordTraining(f.ctx, "E1",
		calendar.Date(2025, time.April, 17), dec("1.5"), "Go workshop", "")
	require.NoError(t, err)

	// THEN: two business days are covered, Good Friday and Easter Monday skipped
	assert.True(t, calendar.SameDay(calendar.Date(2025, time.April, 22), record.End), record.End)
	assert.Equal(t, "1.5", record.Days.String())

	st, err := f.session.Statistic(f.ctx, "E1", 2025)
	require.NoError(t, err)
	assert.Equal(t, "1.5", st.TrainingDays.String())
}

func TestRecordTraining_Validation(t *testing.T) {
	f := newFixture(t)
	f.employee("E1", 30, calendar.Date(2020, time.January, 1))
	day := calendar.Date(2025, time.May, 5)

	untitled, err := f.session.RecordTraining(f.ctx, "E1", day, dec("0.5"), "", "")
	require.NoError(t, err)
	assert.Empty(t, untitled.Title)
	assert.True(t, calendar.SameDay(day, untitled.End))

	_, err = f.session.RecordTraining(f.ctx, "E1", day, dec("1"), "Go", "")
	assert.ErrorIs(t, err, ledger.ErrInvalidRecord, "title too short")
	_, err = f.session.RecordTraining(f.ctx, "E1", day, dec("0"), "Kurs", "")
	assert.ErrorIs(t, err, ledger.ErrInvalidRecord)
	_, err = f.session.RecordTraining(f.ctx, "E1", day, dec("31"), "Kurs", "")
	assert.ErrorIs(t, err, ledger.ErrInvalidRecord)
}

func TestRecordOvertime(t *testing.T) {
	f := newFixture(t)
	f.employee("E1", 30, calendar.Date(2020, time.January, 1))
	day := calendar.Date(2025, time.May, 6)

	_, err := f.session.RecordOvertime(f.ctx, "E1", day, dec("2.5"), "release")
	require.NoError(t, err)
	_, err = f.session.RecordOvertime(f.ctx, "E1", day, dec("-1"), "left early")
	require.NoError(t, err)

	st, err := f.session.Statistic(f.ctx, "E1", 2025)
	require.NoError(t, err)
	assert.Equal(t, "1.5", st.OvertimeHours.String())

	_, err = f.session.RecordOvertime(f.ctx, "E1", day, dec("25"), "")
	assert.ErrorIs(t, err, ledger.ErrInvalidRecord)
	_, err = f.session.RecordOvertime(f.ctx, "E1", day, dec("0"), "")
	assert.ErrorIs(t, err, ledger.ErrInvalidRecord)
	_, err = f.session.RecordOvertime(f.ctx, "nobody", day, dec("1"), "")
	assert.ErrorIs(t, err, ledger.ErrEmployeeNotFound)
}

func TestDeleteRecord(t *testing.T) {
	f := newFixture(t)
	f.employee("E1", 30, calendar.Date(2020, time.January, 1))

	sick, err := f.session.RecordSickLeave(f.ctx, "E1",
		calendar.Date(2025, time.May, 5), calendar.Date(2025, time.May, 6), "")
	require.NoError(t, err)
	overtime, err := f.session.RecordOvertime(f.ctx, "E1", calendar.Date(2025, time.May, 5), dec("3"), "")
	require.NoError(t, err)

	// WHEN: deleting with the wrong category
	err = f.session.DeleteRecord(f.ctx, ledger.CategoryVacation, sick.ID)
	assert.ErrorIs(t, err, ledger.ErrRecordNotFound)
	assert.ErrorIs(t, f.session.CancelLeave(f.ctx, sick.ID), ledger.ErrRecordNotFound)

	// THEN: the right category removes it and the statistic follows
	require.NoError(t, f.session.DeleteRecord(f.ctx, ledger.CategorySick, sick.ID))
	require.NoError(t, f.session.DeleteRecord(f.ctx, ledger.CategoryOvertime, overtime.ID))

	records, err := f.session.Records(f.ctx, "E1", 2025)
	require.NoError(t, err)
	assert.Empty(t, records.Sick)
	assert.Empty(t, records.Overtime)

	st, err := f.session.Statistic(f.ctx, "E1", 2025)
	require.NoError(t, err)
	assert.True(t, st.SickDays.IsZero())
	assert.True(t, st.OvertimeHours.IsZero())

	assert.ErrorIs(t, f.session.DeleteRecord(f.ctx, ledger.CategorySick, sick.ID), ledger.ErrRecordNotFound)
	assert.ErrorIs(t, f.session.DeleteRecord(f.ctx, "holiday", 1), ledger.ErrInvalidRecord)
}
