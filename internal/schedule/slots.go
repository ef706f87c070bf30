package schedule

import (
	"errors"
	"fmt"

	"trainerbook/internal/models"
)

var (
	ErrInvalidDuration    = errors.New("invalid session duration")
	ErrInvalidGranularity = errors.New("invalid slot granularity")
)

// Slot is a bookable candidate start. State is "open" when nothing touches
// the interval and "requested" when at least one pending booking overlaps
// it; candidates overlapping a confirmed booking are not emitted at all.
type Slot struct {
	Start models.TimeOfDay `json:"start"`
	End   models.TimeOfDay `json:"end"`
	State string           `json:"state"`
}

// GenerateSlots enumerates candidate starts at the given granularity inside
// each availability interval. A candidate must fit entirely within a single
// interval; a session never spans the gap between two windows. Bookings in
// cancelled or completed status do not constrain anything.
//
// Pure like the resolver: bookings are already-fetched rows for the same
// trainer and date.
func GenerateSlots(availability []Interval, durationMinutes int, bookings []models.Booking, granularityMinutes int) ([]Slot, error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("%w: %d minutes", ErrInvalidDuration, durationMinutes)
	}
	if granularityMinutes <= 0 {
		return nil, fmt.Errorf("%w: %d minutes", ErrInvalidGranularity, granularityMinutes)
	}

	var confirmed, pending []Interval
	for _, b := range bookings {
		iv := Interval{Start: b.StartMinute, End: b.EndMinute}
		switch b.Status {
		case models.StatusConfirmed:
			confirmed = append(confirmed, iv)
		case models.StatusPending:
			pending = append(pending, iv)
		}
	}

	duration := models.TimeOfDay(durationMinutes)
	step := models.TimeOfDay(granularityMinutes)

	var slots []Slot
	for _, window := range Merge(availability) {
		for start := window.Start; start+duration <= window.End; start += step {
			candidate := Interval{Start: start, End: start + duration}

			if overlapsAny(candidate, confirmed) {
				continue
			}

			state := models.SlotStateOpen
			if overlapsAny(candidate, pending) {
				state = models.SlotStateRequested
			}
			slots = append(slots, Slot{Start: candidate.Start, End: candidate.End, State: state})
		}
	}
	return slots, nil
}

func overlapsAny(candidate Interval, taken []Interval) bool {
	for _, iv := range taken {
		if candidate.Overlaps(iv) {
			return true
		}
	}
	return false
}
