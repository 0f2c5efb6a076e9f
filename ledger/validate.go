package ledger

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/warp/teamplanner/calendar"
)

// =============================================================================
// VALIDATION - Structural checks applied before anything is persisted
// =============================================================================

var (
	maxRecordDays   = decimal.NewFromInt(365)
	maxTrainingDays = decimal.NewFromInt(30)
	maxOvertime     = decimal.NewFromInt(24)
	colorPattern    = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

// Training titles are optional; a given title has 3 to 200 characters.
const (
	minTitleLength = 3
	maxTitleLength = 200
)

// Validate checks the employee's own fields. Department existence is checked
// by the caller against the store.
func (e Employee) Validate() error {
	switch {
	case strings.TrimSpace(string(e.ID)) == "":
		return fmt.Errorf("%w: id is required", ErrInvalidEmployee)
	case utf8.RuneCountInString(strings.TrimSpace(e.FirstName)) < 2 ||
		utf8.RuneCountInString(strings.TrimSpace(e.LastName)) < 2:
		return fmt.Errorf("%w: first and last name need at least 2 characters", ErrInvalidEmployee)
	case e.HireDate.IsZero():
		return fmt.Errorf("%w: hire date is required", ErrInvalidEmployee)
	case e.BaseAllowance < MinBaseAllowance || e.BaseAllowance > MaxBaseAllowance:
		return fmt.Errorf("%w: base allowance %d outside [%d, %d]",
			ErrInvalidEmployee, e.BaseAllowance, MinBaseAllowance, MaxBaseAllowance)
	case e.Status != StatusActive && e.Status != StatusDeparted:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidEmployee, e.Status)
	}
	if e.DepartureDate != nil && calendar.Day(*e.DepartureDate).Before(calendar.Day(e.HireDate)) {
		return fmt.Errorf("%w: departure before hire date", ErrInvalidEmployee)
	}
	return nil
}

// Validate checks range and day bounds of a leave record.
func (r LeaveRecord) Validate() error {
	if !r.Category.IsRanged() {
		return fmt.Errorf("%w: category %q has no date range", ErrInvalidRecord, r.Category)
	}
	if err := calendar.ValidateRange(r.Start, r.End); err != nil {
		return err
	}
	if !r.Days.IsPositive() || r.Days.GreaterThan(maxRecordDays) {
		return fmt.Errorf("%w: days %s outside (0, 365]", ErrInvalidRecord, r.Days)
	}
	if r.Category == CategoryTraining {
		if n := utf8.RuneCountInString(strings.TrimSpace(r.Title)); n > 0 && (n < minTitleLength || n > maxTitleLength) {
			return fmt.Errorf("%w: training title needs %d to %d characters", ErrInvalidRecord, minTitleLength, maxTitleLength)
		}
		if r.Days.GreaterThan(maxTrainingDays) {
			return fmt.Errorf("%w: training days %s exceed 30", ErrInvalidRecord, r.Days)
		}
	}
	return nil
}

// Validate checks the hour bounds of an overtime record.
func (r OvertimeRecord) Validate() error {
	if r.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidRecord)
	}
	if r.Hours.IsZero() || r.Hours.Abs().GreaterThan(maxOvertime) {
		return fmt.Errorf("%w: hours %s outside [-24, 24] or zero", ErrInvalidRecord, r.Hours)
	}
	return nil
}

// Validate checks name and color tag.
func (d Department) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: department name is required", ErrInvalidRecord)
	}
	if d.Color != "" && !colorPattern.MatchString(d.Color) {
		return fmt.Errorf("%w: color %q is not #rrggbb", ErrInvalidRecord, d.Color)
	}
	return nil
}
