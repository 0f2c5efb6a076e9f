package calendar

import (
	"context"
	"time"
)

// Holiday is a non-working calendar date.
type Holiday struct {
	ID     int64
	Date   time.Time
	Name   string
	Region string // empty = nationwide
	Active bool
}

// AppliesTo reports whether the holiday is active and in scope for region.
func (h Holiday) AppliesTo(region string) bool {
	if !h.Active {
		return false
	}
	return h.Region == "" || h.Region == region
}

func (h Holiday) String() string {
	return h.Name + " (" + h.Date.Format(DateLayout) + ")"
}

// HolidaySource provides the holidays of a calendar year, active or not.
// Implementations must be idempotent and reflect the latest committed writes.
type HolidaySource interface {
	Holidays(ctx context.Context, year int) ([]Holiday, error)
}

// StaticHolidays is a HolidaySource backed by a fixed list.
type StaticHolidays []Holiday

func (s StaticHolidays) Holidays(_ context.Context, year int) ([]Holiday, error) {
	var out []Holiday
	for _, h := range s {
		if h.Date.Year() == year {
			out = append(out, h)
		}
	}
	return out, nil
}
