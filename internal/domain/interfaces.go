package domain

import (
	"context"
	"time"

	"trainerbook/internal/models"
	"trainerbook/internal/schedule"
)

// ConfirmResult is what a confirmation returns: the confirmed booking plus
// every pending booking the cascade cancelled. Delivery of the resulting
// notifications is the caller's concern.
type ConfirmResult struct {
	Confirmed *models.Booking   `json:"confirmed"`
	Cancelled []*models.Booking `json:"cancelled"`
}

// Repository is the persistence surface shared by the SQLite and Postgres
// stores.
type Repository interface {
	// Availability rules
	CreateRule(ctx context.Context, rule *models.AvailabilityRule) error
	GetRule(ctx context.Context, id int64) (*models.AvailabilityRule, error)
	DeleteRule(ctx context.Context, id int64) error
	ListRules(ctx context.Context, trainerID int64) ([]*models.AvailabilityRule, error)
	ListRulesForDate(ctx context.Context, trainerID int64, date time.Time) ([]*models.AvailabilityRule, error)

	// Bookings
	CreateBookingWithLock(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListBookings(ctx context.Context, trainerID int64, date time.Time, statuses ...string) ([]*models.Booking, error)
	ListBookingsByDateRange(ctx context.Context, trainerID int64, start, end time.Time) ([]*models.Booking, error)
	GetClientBookings(ctx context.Context, clientID int64) ([]*models.Booking, error)
	ConfirmBookingCascade(ctx context.Context, bookingID, version int64) (*ConfirmResult, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, fromStatus, toStatus string) error
	CompletePastBookings(ctx context.Context, before time.Time) (int64, error)

	// Sheets sync queue
	CreateSyncTask(ctx context.Context, task *models.SyncTask) error
	GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error)
	UpdateSyncTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error

	Close() error
}

// StateRepository keeps booking drafts and rate-limit counters.
type StateRepository interface {
	GetDraft(ctx context.Context, clientID int64) (*models.BookingDraft, error)
	SetDraft(ctx context.Context, draft *models.BookingDraft) error
	ClearDraft(ctx context.Context, clientID int64) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// EventPublisher fans booking lifecycle events out to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SyncWorker accepts sheets mirror tasks without blocking the caller.
type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, bookingID int64, booking *models.Booking, status string) error
}

// SheetsWriter mirrors bookings into the trainer's spreadsheet.
type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, bookingID int64, status string) error
	ReplaceScheduleSheet(ctx context.Context, bookings []*models.Booking) error
}

// AvailabilityService manages rules and answers slot queries.
type AvailabilityService interface {
	CreateRule(ctx context.Context, rule *models.AvailabilityRule) error
	DeleteRule(ctx context.Context, ruleID, trainerID int64) error
	ListRules(ctx context.Context, trainerID int64) ([]*models.AvailabilityRule, error)
	ResolveAvailability(ctx context.Context, trainerID int64, date time.Time) ([]schedule.Interval, error)
	GetSlots(ctx context.Context, trainerID int64, date time.Time, durationMinutes, granularityMinutes int) ([]schedule.Slot, error)
	RuleOccurrences(ctx context.Context, ruleID int64, from time.Time, count int) ([]time.Time, error)
}

// BookingService owns every booking status mutation.
type BookingService interface {
	ValidateBookingDate(date time.Time) error
	CreateBooking(ctx context.Context, booking *models.Booking) error
	ConfirmBooking(ctx context.Context, bookingID, version int64) (*ConfirmResult, error)
	RejectBooking(ctx context.Context, bookingID, version int64) error
	CancelBooking(ctx context.Context, bookingID, version int64) error
	CompleteBooking(ctx context.Context, bookingID, version int64) error
	CompletePastSessions(ctx context.Context) (int64, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListBookings(ctx context.Context, trainerID int64, date time.Time, statuses ...string) ([]*models.Booking, error)
	ListBookingsByDateRange(ctx context.Context, trainerID int64, start, end time.Time) ([]*models.Booking, error)
}

// DraftService drives the step-by-step booking wizard.
type DraftService interface {
	GetDraft(ctx context.Context, clientID int64) (*models.BookingDraft, error)
	StartDraft(ctx context.Context, clientID, trainerID int64) (*models.BookingDraft, error)
	SetDate(ctx context.Context, clientID int64, date time.Time) (*models.BookingDraft, error)
	SetDuration(ctx context.Context, clientID int64, minutes int) (*models.BookingDraft, error)
	SetStart(ctx context.Context, clientID int64, start models.TimeOfDay) (*models.BookingDraft, error)
	ClearDraft(ctx context.Context, clientID int64) error
}
