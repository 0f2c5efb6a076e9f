package stats

import (
	"sort"
	"strings"

	"github.com/warp/teamplanner/ledger"
)

// =============================================================================
// DEPARTMENT ROWS - Header | Entry
// =============================================================================

// Row is either a HeaderRow or an EntryRow.
type Row interface {
	isRow()
}

// HeaderRow opens a department group.
type HeaderRow struct {
	Department ledger.Department
	Count      int
}

// EntryRow carries one employee statistic.
type EntryRow struct {
	Statistic YearlyStatistic
}

func (HeaderRow) isRow() {}
func (EntryRow) isRow()  {}

// Unassigned is the header used for employees without a known department.
var Unassigned = ledger.Department{Name: "Unassigned", Color: ledger.DefaultDepartmentColor}

// GroupByDepartment orders departments by sort order then name and emits a
// header followed by its entries. Departments without statistics are omitted;
// unassigned employees come last.
func GroupByDepartment(stats []YearlyStatistic, departments []ledger.Department) []Row {
	ordered := append([]ledger.Department(nil), departments...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].SortOrder != ordered[j].SortOrder {
			return ordered[i].SortOrder < ordered[j].SortOrder
		}
		return strings.ToLower(ordered[i].Name) < strings.ToLower(ordered[j].Name)
	})

	known := make(map[ledger.DepartmentID]bool, len(ordered))
	groups := make(map[ledger.DepartmentID][]YearlyStatistic)
	for _, d := range ordered {
		known[d.ID] = true
	}
	var unassigned []YearlyStatistic
	for _, s := range stats {
		id := s.Employee.DepartmentID
		if id == 0 || !known[id] {
			unassigned = append(unassigned, s)
			continue
		}
		groups[id] = append(groups[id], s)
	}

	rows := make([]Row, 0, len(stats)+len(ordered)+1)
	emit := func(d ledger.Department, entries []YearlyStatistic) {
		if len(entries) == 0 {
			return
		}
		rows = append(rows, HeaderRow{Department: d, Count: len(entries)})
		for _, s := range entries {
			rows = append(rows, EntryRow{Statistic: s})
		}
	}
	for _, d := range ordered {
		emit(d, groups[d.ID])
	}
	emit(Unassigned, unassigned)
	return rows
}
