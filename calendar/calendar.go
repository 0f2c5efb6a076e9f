/*
Package calendar provides working-day arithmetic for the leave engine.

PURPOSE:
  Leave is charged in business days, not calendar days. A business day is a
  weekday (Monday to Friday) that is not an active holiday for the calendar's
  region scope. This package counts business days in a range, advances a date
  by N business days and validates date ranges.

HOLIDAY SCOPE:
  A Holiday with an empty Region applies everywhere. A Holiday with a Region
  applies only to calendars configured for that region. Inactive holidays are
  ignored entirely.

MULTI-YEAR RANGES:
  Holiday sets are fetched per calendar year. A range spanning
  2025-12-22 .. 2026-01-09 fetches the 2025 and 2026 sets exactly once each.

EXAMPLE:
  cal := calendar.New(store, calendar.WithRegion("BY"))
  n, err := cal.CountBusinessDays(ctx, calendar.Date(2025, 1, 1), calendar.Date(2025, 1, 5))
  // n == 2 when 2025-01-01 is an active holiday

SEE ALSO:
  - holiday.go: Holiday type and HolidaySource interface
  - seed.go: YAML holiday seeds and the default holiday list
*/
package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DateLayout is the storage and wire layout for calendar dates.
const DateLayout = "2006-01-02"

// ErrInvalidRange is returned when a range ends before it starts.
var ErrInvalidRange = errors.New("invalid range: end before start")

// RangeError carries the offending bounds of an invalid range.
type RangeError struct {
	From time.Time
	To   time.Time
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid range: %s is after %s",
		e.From.Format(DateLayout), e.To.Format(DateLayout))
}

func (e *RangeError) Unwrap() error {
	return ErrInvalidRange
}

// =============================================================================
// DATES
// =============================================================================

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func StartOfYear(year int) time.Time { return Date(year, time.January, 1) }
func EndOfYear(year int) time.Time   { return Date(year, time.December, 31) }

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// SameDay reports whether a and b are the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ValidateRange fails with *RangeError when from is after to.
func ValidateRange(from, to time.Time) error {
	if Day(from).After(Day(to)) {
		return &RangeError{From: from, To: to}
	}
	return nil
}

// =============================================================================
// CALENDAR
// =============================================================================

// Calendar answers business-day questions against a HolidaySource.
type Calendar struct {
	source HolidaySource
	region string
}

// Option configures a Calendar.
type Option func(*Calendar)

// WithRegion restricts regional holidays to the given region tag.
func WithRegion(region string) Option {
	return func(c *Calendar) { c.region = region }
}

// New creates a Calendar. A nil source means weekends are the only non-working days.
func New(source HolidaySource, opts ...Option) *Calendar {
	c := &Calendar{source: source}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Region returns the configured region scope.
func (c *Calendar) Region() string { return c.region }

// CountBusinessDays counts business days in [from, to], inclusive.
// Returns 0 when from is after to.
func (c *Calendar) CountBusinessDays(ctx context.Context, from, to time.Time) (int, error) {
	from, to = Day(from), Day(to)
	if from.After(to) {
		return 0, nil
	}

	sets := holidaySets{}
	count := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		ok, err := c.isBusinessDay(ctx, sets, d)
		if err != nil {
			return 0, err
		}
		if ok {
			count++
		}
	}
	return count, nil
}

// AdvanceBusinessDays returns the date of the count-th business day starting at
// start. start itself is day 1 when it is a business day, so advancing by 1 from
// a business day returns start. count <= 0 returns start unchanged.
func (c *Calendar) AdvanceBusinessDays(ctx context.Context, start time.Time, count int) (time.Time, error) {
	d := Day(start)
	if count <= 0 {
		return d, nil
	}

	sets := holidaySets{}
	counted := 0
	for {
		ok, err := c.isBusinessDay(ctx, sets, d)
		if err != nil {
			return time.Time{}, err
		}
		if ok {
			counted++
			if counted == count {
				return d, nil
			}
		}
		d = d.AddDate(0, 0, 1)
	}
}

// IsBusinessDay reports whether day is a weekday and not an active holiday.
func (c *Calendar) IsBusinessDay(ctx context.Context, day time.Time) (bool, error) {
	return c.isBusinessDay(ctx, holidaySets{}, Day(day))
}

// Holidays returns the active holidays that apply to this calendar in year.
func (c *Calendar) Holidays(ctx context.Context, year int) ([]Holiday, error) {
	if c.source == nil {
		return nil, nil
	}
	all, err := c.source.Holidays(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("load holidays for %d: %w", year, err)
	}
	var applicable []Holiday
	for _, h := range all {
		if h.AppliesTo(c.region) {
			applicable = append(applicable, h)
		}
	}
	return applicable, nil
}

// holidaySets memoizes one year's holiday dates for the duration of a single call.
type holidaySets map[int]map[string]struct{}

func (c *Calendar) isBusinessDay(ctx context.Context, sets holidaySets, d time.Time) (bool, error) {
	if IsWeekend(d) {
		return false, nil
	}
	set, ok := sets[d.Year()]
	if !ok {
		holidays, err := c.Holidays(ctx, d.Year())
		if err != nil {
			return false, err
		}
		set = make(map[string]struct{}, len(holidays))
		for _, h := range holidays {
			set[h.Date.Format(DateLayout)] = struct{}{}
		}
		sets[d.Year()] = set
	}
	_, holiday := set[d.Format(DateLayout)]
	return !holiday, nil
}
