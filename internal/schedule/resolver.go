package schedule

import (
	"errors"
	"fmt"
	"time"

	"trainerbook/internal/models"
)

var ErrInvalidDate = errors.New("invalid date")

// ResolveAvailability computes a trainer's open windows for one date from
// already-fetched rules. Recurring rules match the weekday, one-off rules
// match the exact date. Additive windows are unioned, blocked windows are
// subtracted afterwards, so a block always wins regardless of rule kind.
//
// Pure: no I/O, deterministic for identical inputs. Rules for other
// trainers or other dates are ignored, so callers may pass an unfiltered
// rule set.
func ResolveAvailability(rules []models.AvailabilityRule, date time.Time) ([]Interval, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: zero date", ErrInvalidDate)
	}

	var open, blocked []Interval
	for _, rule := range rules {
		if !rule.AppliesTo(date) {
			continue
		}
		iv := Interval{Start: rule.StartMinute, End: rule.EndMinute}
		if rule.IsBlocked {
			blocked = append(blocked, iv)
		} else {
			open = append(open, iv)
		}
	}

	// No matching additive rules means the trainer is simply not bookable.
	if len(open) == 0 {
		return nil, nil
	}

	return Subtract(Merge(open), blocked), nil
}
