package planner

import (
	"time"

	"github.com/warp/teamplanner/calendar"
	"github.com/warp/teamplanner/ledger"
	"github.com/warp/teamplanner/stats"
)

// cache holds the statistics of the current year and the roster snapshot
// they were computed from. It has no source of truth of its own: a rebuild
// from the ledger always reproduces it. Activity depends on the evaluation
// day, so a fill only holds for the day it was computed on.
type cache struct {
	stale   bool
	year    int
	day     time.Time
	roster  []ledger.Employee
	order   []ledger.EmployeeID
	entries map[ledger.EmployeeID]stats.YearlyStatistic
}

func newCache() cache {
	return cache{stale: true}
}

func (c *cache) markStale() { c.stale = true }

func (c *cache) fresh(year int, today time.Time) bool {
	return !c.stale && c.year == year && calendar.SameDay(c.day, today)
}

func (c *cache) fill(year int, today time.Time, roster []ledger.Employee, computed []stats.YearlyStatistic) {
	c.year = year
	c.day = calendar.Day(today)
	c.roster = roster
	c.order = make([]ledger.EmployeeID, 0, len(computed))
	c.entries = make(map[ledger.EmployeeID]stats.YearlyStatistic, len(computed))
	for _, st := range computed {
		c.order = append(c.order, st.Employee.ID)
		c.entries[st.Employee.ID] = st
	}
	c.stale = false
}

func (c *cache) get(id ledger.EmployeeID) (stats.YearlyStatistic, bool) {
	st, ok := c.entries[id]
	return st, ok
}

// all returns a copy in roster order.
func (c *cache) all() []stats.YearlyStatistic {
	result := make([]stats.YearlyStatistic, 0, len(c.order))
	for _, id := range c.order {
		result = append(result, c.entries[id])
	}
	return result
}
