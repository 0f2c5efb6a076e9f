package planner

import (
	"context"
	"errors"
	"strings"

	"github.com/warp/teamplanner/calendar"
	"github.com/warp/teamplanner/ledger"
)

// =============================================================================
// HOLIDAYS
// =============================================================================
// Holiday writes change future business-day counts but never stored day
// counts, so they do not invalidate statistics.

// Holidays returns every stored holiday of year, inactive and other regions
// included.
func (s *Session) Holidays(ctx context.Context, year int) ([]calendar.Holiday, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Holidays(ctx, year)
}

func (s *Session) SaveHoliday(ctx context.Context, h calendar.Holiday) (calendar.Holiday, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h.Name = strings.TrimSpace(h.Name)
	if h.Name == "" || h.Date.IsZero() {
		return calendar.Holiday{}, ledger.ErrInvalidRecord
	}
	saved, err := s.store.SaveHoliday(ctx, h)
	if err != nil {
		return calendar.Holiday{}, err
	}
	s.logger.Info("holiday saved", "date", saved.Date.Format(calendar.DateLayout), "name", saved.Name, "region", saved.Region)
	return saved, nil
}

func (s *Session) DeleteHoliday(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.DeleteHoliday(ctx, id)
}

// SeedHolidays stores the holidays rules yield for year, skipping dates the
// store already has. Returns the number inserted.
func (s *Session) SeedHolidays(ctx context.Context, rules calendar.Rules, year int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, h := range rules.For(year) {
		if _, err := s.store.SaveHoliday(ctx, h); err != nil {
			if errors.Is(err, ledger.ErrDuplicateHoliday) {
				continue
			}
			return inserted, err
		}
		inserted++
	}
	if inserted > 0 {
		s.logger.Info("holidays seeded", "year", year, "count", inserted)
	}
	return inserted, nil
}
