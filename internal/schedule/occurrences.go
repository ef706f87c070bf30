package schedule

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"trainerbook/internal/models"
)

var rruleWeekdays = [7]rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// RuleOccurrences expands a rule into its next concrete dates starting at
// from, for calendar previews. A one-off rule yields at most its single
// date; a recurring rule yields count weekly occurrences.
func RuleOccurrences(rule models.AvailabilityRule, from time.Time, count int) ([]time.Time, error) {
	if count <= 0 {
		return nil, nil
	}
	from = truncateToDay(from)

	if !rule.IsRecurring {
		if rule.SpecificDate == nil {
			return nil, nil
		}
		date := truncateToDay(*rule.SpecificDate)
		if date.Before(from) {
			return nil, nil
		}
		return []time.Time{date}, nil
	}

	if rule.DayOfWeek < 0 || rule.DayOfWeek > 6 {
		return nil, fmt.Errorf("%w: day_of_week %d out of range", models.ErrInvalidRule, rule.DayOfWeek)
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{rruleWeekdays[rule.DayOfWeek]},
		Dtstart:   from,
		Count:     count,
	})
	if err != nil {
		return nil, fmt.Errorf("build rrule: %w", err)
	}
	return r.All(), nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
