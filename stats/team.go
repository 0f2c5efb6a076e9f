package stats

import "github.com/shopspring/decimal"

// Team aggregates per-employee statistics of one year. The average is zero
// for an empty team.
func Team(year int, stats []YearlyStatistic) TeamStatistic {
	t := TeamStatistic{
		Year:            year,
		EmployeeCount:   len(stats),
		TotalVacation:   decimal.Zero,
		TotalSick:       decimal.Zero,
		TotalTraining:   decimal.Zero,
		TotalOvertime:   decimal.Zero,
		AverageVacation: decimal.Zero,
	}
	for _, s := range stats {
		t.TotalVacation = t.TotalVacation.Add(s.VacationTaken)
		t.TotalSick = t.TotalSick.Add(s.SickDays)
		t.TotalTraining = t.TotalTraining.Add(s.TrainingDays)
		t.TotalOvertime = t.TotalOvertime.Add(s.OvertimeHours)
	}
	if len(stats) > 0 {
		t.AverageVacation = t.TotalVacation.DivRound(decimal.NewFromInt(int64(len(stats))), 2)
	}
	return t
}
