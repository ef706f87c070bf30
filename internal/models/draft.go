package models

import "time"

// BookingDraft is the client's in-progress slot selection. It is kept in the
// state repository keyed by client, never in package-level variables, so
// concurrent clients cannot observe each other's wizard progress.
type BookingDraft struct {
	ClientID        int64      `json:"client_id"`
	TrainerID       int64      `json:"trainer_id"`
	Step            string     `json:"step"`
	Date            *time.Time `json:"date,omitempty"`
	DurationMinutes int        `json:"duration_minutes,omitempty"`
	StartMinute     *TimeOfDay `json:"start_minute,omitempty"`
}

// Complete reports whether every selection needed to create a booking is set.
func (d *BookingDraft) Complete() bool {
	return d != nil && d.TrainerID != 0 && d.Date != nil && d.DurationMinutes > 0 && d.StartMinute != nil
}

// NextStep returns the first selection still missing.
func (d *BookingDraft) NextStep() string {
	switch {
	case d.Date == nil:
		return StepSelectDate
	case d.DurationMinutes <= 0:
		return StepSelectDuration
	case d.StartMinute == nil:
		return StepSelectTime
	default:
		return StepConfirm
	}
}
