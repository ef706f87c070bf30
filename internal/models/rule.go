package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRule is wrapped by all rule validation failures.
var ErrInvalidRule = errors.New("invalid availability rule")

// AvailabilityRule is a trainer's open (or blocked) window. Recurring rules
// match a weekday, one-off rules match a single calendar date. Blocked rules
// subtract time instead of adding it.
type AvailabilityRule struct {
	ID           int64      `json:"id"`
	TrainerID    int64      `json:"trainer_id"`
	DayOfWeek    int        `json:"day_of_week"` // 0=Sunday .. 6=Saturday, recurring rules only
	SpecificDate *time.Time `json:"specific_date,omitempty"`
	StartMinute  TimeOfDay  `json:"start_minute"`
	EndMinute    TimeOfDay  `json:"end_minute"`
	IsRecurring  bool       `json:"is_recurring"`
	IsBlocked    bool       `json:"is_blocked"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Validate rejects malformed rules at write time. The resolver assumes every
// stored rule passed this check.
func (r *AvailabilityRule) Validate() error {
	if r.TrainerID == 0 {
		return fmt.Errorf("%w: trainer_id is required", ErrInvalidRule)
	}
	if !r.StartMinute.Valid() || !r.EndMinute.Valid() {
		return fmt.Errorf("%w: times must be within 00:00..24:00", ErrInvalidRule)
	}
	if r.StartMinute >= r.EndMinute {
		return fmt.Errorf("%w: start %s must be before end %s", ErrInvalidRule, r.StartMinute, r.EndMinute)
	}
	if r.IsRecurring {
		if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
			return fmt.Errorf("%w: day_of_week %d out of range", ErrInvalidRule, r.DayOfWeek)
		}
	} else if r.SpecificDate == nil {
		return fmt.Errorf("%w: one-off rule requires specific_date", ErrInvalidRule)
	}
	return nil
}

// AppliesTo reports whether the rule contributes to the given date.
func (r *AvailabilityRule) AppliesTo(date time.Time) bool {
	if r.IsRecurring {
		return int(date.Weekday()) == r.DayOfWeek
	}
	if r.SpecificDate == nil {
		return false
	}
	y1, m1, d1 := r.SpecificDate.Date()
	y2, m2, d2 := date.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
