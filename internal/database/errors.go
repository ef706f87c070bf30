package database

import "errors"

var (
	ErrRuleNotFound           = errors.New("availability rule not found")
	ErrBookingNotFound        = errors.New("booking not found")
	ErrInvalidStatus          = errors.New("booking is not in the required status")
	ErrSlotTaken              = errors.New("interval overlaps a confirmed booking")
	ErrConcurrentModification = errors.New("booking was modified concurrently")
	ErrPastDate               = errors.New("booking date is in the past")
	ErrDateTooFar             = errors.New("booking date is beyond the allowed horizon")
	ErrOutsideAvailability    = errors.New("requested time is outside trainer availability")
)
