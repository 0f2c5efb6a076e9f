package sqlite

import (
	"context"
	"fmt"

	"github.com/warp/teamplanner/calendar"
	"github.com/warp/teamplanner/ledger"
)

// =============================================================================
// HOLIDAYS (calendar.HolidaySource)
// =============================================================================

// Holidays returns every stored holiday of the year, regardless of region and
// active flag; the calendar applies both filters.
func (s *Store) Holidays(ctx context.Context, year int) ([]calendar.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, to := yearBounds(year)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, name, region, active FROM holidays
		WHERE date BETWEEN ? AND ?
		ORDER BY date, id`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("load holidays %d: %w", year, err)
	}
	defer rows.Close()

	var holidays []calendar.Holiday
	for rows.Next() {
		var h calendar.Holiday
		var date string
		if err := rows.Scan(&h.ID, &date, &h.Name, &h.Region, &h.Active); err != nil {
			return nil, err
		}
		if h.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// SaveHoliday inserts (ID 0) or updates a holiday.
func (s *Store) SaveHoliday(ctx context.Context, h calendar.Holiday) (calendar.Holiday, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h.Date = calendar.Day(h.Date)
	if h.ID == 0 {
		res, err := s.db.ExecContext(ctx,
			"INSERT INTO holidays (date, name, region, active) VALUES (?, ?, ?, ?)",
			formatDate(h.Date), h.Name, h.Region, h.Active,
		)
		if isUniqueConstraintError(err) {
			return calendar.Holiday{}, ledger.ErrDuplicateHoliday
		}
		if err != nil {
			return calendar.Holiday{}, fmt.Errorf("failed to save holiday: %w", err)
		}
		if h.ID, err = res.LastInsertId(); err != nil {
			return calendar.Holiday{}, err
		}
		return h, nil
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE holidays SET date = ?, name = ?, region = ?, active = ? WHERE id = ?",
		formatDate(h.Date), h.Name, h.Region, h.Active, h.ID,
	)
	if isUniqueConstraintError(err) {
		return calendar.Holiday{}, ledger.ErrDuplicateHoliday
	}
	if err != nil {
		return calendar.Holiday{}, fmt.Errorf("failed to update holiday %d: %w", h.ID, err)
	}
	if err := affectedOne(res, ledger.ErrHolidayNotFound); err != nil {
		return calendar.Holiday{}, err
	}
	return h, nil
}

func (s *Store) DeleteHoliday(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return err
	}
	return affectedOne(res, ledger.ErrHolidayNotFound)
}
