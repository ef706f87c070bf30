package models

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay is the upper bound for a TimeOfDay value.
const MinutesPerDay = 24 * 60

// TimeOfDay is a minute-precision time of day, stored as minutes from
// midnight. 540 is 09:00, 1020 is 17:00.
type TimeOfDay int

// Valid reports whether t lies within a single day.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t <= MinutesPerDay
}

// Clock renders t as "HH:MM".
func (t TimeOfDay) Clock() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) String() string {
	return t.Clock()
}

// ParseClock parses "HH:MM" into a TimeOfDay.
func ParseClock(s string) (TimeOfDay, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q: expected HH:MM", s)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", s, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", s, err)
	}

	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("clock value %q is out of range", s)
	}

	return TimeOfDay(hours*60 + minutes), nil
}
