package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidBooking is wrapped by booking validation failures.
var ErrInvalidBooking = errors.New("invalid booking")

type Booking struct {
	ID          int64     `json:"id"`
	TrainerID   int64     `json:"trainer_id"`
	ClientID    int64     `json:"client_id"`
	ClientName  string    `json:"client_name"`
	Date        time.Time `json:"date"` // calendar date, time part ignored
	StartMinute TimeOfDay `json:"start_minute"`
	EndMinute   TimeOfDay `json:"end_minute"`
	Status      string    `json:"status"` // pending, confirmed, cancelled, completed
	Note        string    `json:"note"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int64     `json:"version"`
}

func (b *Booking) Validate() error {
	if b.TrainerID == 0 {
		return fmt.Errorf("%w: trainer_id is required", ErrInvalidBooking)
	}
	if b.ClientID == 0 {
		return fmt.Errorf("%w: client_id is required", ErrInvalidBooking)
	}
	if b.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidBooking)
	}
	if !b.StartMinute.Valid() || !b.EndMinute.Valid() {
		return fmt.Errorf("%w: times must be within 00:00..24:00", ErrInvalidBooking)
	}
	if b.StartMinute >= b.EndMinute {
		return fmt.Errorf("%w: start %s must be before end %s", ErrInvalidBooking, b.StartMinute, b.EndMinute)
	}
	return nil
}

// Duration returns the session length in minutes.
func (b *Booking) Duration() int {
	return int(b.EndMinute - b.StartMinute)
}

// IsActive reports whether the booking still occupies its interval.
func (b *Booking) IsActive() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}
