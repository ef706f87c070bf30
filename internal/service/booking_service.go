package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"trainerbook/internal/database"
	"trainerbook/internal/domain"
	"trainerbook/internal/events"
	"trainerbook/internal/metrics"
	"trainerbook/internal/models"
	"trainerbook/internal/schedule"
)

// BookingService owns every booking status transition. All confirmations go
// through the repository cascade so at most one confirmed booking survives
// per overlapping interval.
type BookingService struct {
	repo           domain.Repository
	availability   domain.AvailabilityService
	eventBus       domain.EventPublisher
	sheetsWorker   domain.SyncWorker
	maxBookingDays int
	logger         *zerolog.Logger
}

func NewBookingService(repo domain.Repository, availability domain.AvailabilityService, eventBus domain.EventPublisher, sheetsWorker domain.SyncWorker, maxBookingDays int, logger *zerolog.Logger) *BookingService {
	if maxBookingDays <= 0 {
		maxBookingDays = models.DefaultMaxBookingDays
	}
	return &BookingService{
		repo:           repo,
		availability:   availability,
		eventBus:       eventBus,
		sheetsWorker:   sheetsWorker,
		maxBookingDays: maxBookingDays,
		logger:         logger,
	}
}

func (s *BookingService) ValidateBookingDate(date time.Time) error {
	today := time.Now().Truncate(24 * time.Hour)

	if date.Before(today) {
		return database.ErrPastDate
	}

	maxDate := today.AddDate(0, 0, s.maxBookingDays)
	if date.After(maxDate) {
		return database.ErrDateTooFar
	}

	return nil
}

func (s *BookingService) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if err := booking.Validate(); err != nil {
		return err
	}
	if err := s.ValidateBookingDate(booking.Date); err != nil {
		return err
	}

	// Заявка должна целиком помещаться в одно открытое окно
	windows, err := s.availability.ResolveAvailability(ctx, booking.TrainerID, booking.Date)
	if err != nil {
		return err
	}
	requested := schedule.Interval{Start: booking.StartMinute, End: booking.EndMinute}
	if !fitsWindows(requested, windows) {
		return database.ErrOutsideAvailability
	}

	booking.Status = models.StatusPending
	if err := s.repo.CreateBookingWithLock(ctx, booking); err != nil {
		return err
	}

	metrics.IncBookingTransition(models.StatusPending)
	s.publishEvent(events.EventBookingCreated, booking, nil)
	s.enqueueSync(ctx, booking, "upsert")

	return nil
}

// ConfirmBooking promotes a pending booking and cancels every overlapping
// pending booking in the same transaction.
func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID, version int64) (*domain.ConfirmResult, error) {
	result, err := s.repo.ConfirmBookingCascade(ctx, bookingID, version)
	if err != nil {
		return nil, err
	}

	metrics.IncBookingTransition(models.StatusConfirmed)
	metrics.ObserveCascade(len(result.Cancelled))

	cancelledIDs := make([]int64, 0, len(result.Cancelled))
	for _, cancelled := range result.Cancelled {
		cancelledIDs = append(cancelledIDs, cancelled.ID)
	}

	s.publishEvent(events.EventBookingConfirmed, result.Confirmed, cancelledIDs)
	s.enqueueSync(ctx, result.Confirmed, "update_status")

	for _, cancelled := range result.Cancelled {
		metrics.IncBookingTransition(models.StatusCancelled)
		s.publishEvent(events.EventBookingCancelled, cancelled, nil)
		s.enqueueSync(ctx, cancelled, "update_status")
	}

	return result, nil
}

// RejectBooking declines a pending booking. Other pendings are untouched.
func (s *BookingService) RejectBooking(ctx context.Context, bookingID, version int64) error {
	return s.transition(ctx, bookingID, version, models.StatusPending, models.StatusCancelled, events.EventBookingRejected)
}

// CancelBooking cancels a confirmed booking, freeing the slot again.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, version int64) error {
	return s.transition(ctx, bookingID, version, models.StatusConfirmed, models.StatusCancelled, events.EventBookingCancelled)
}

// CompleteBooking marks a confirmed session as held.
func (s *BookingService) CompleteBooking(ctx context.Context, bookingID, version int64) error {
	return s.transition(ctx, bookingID, version, models.StatusConfirmed, models.StatusCompleted, events.EventBookingCompleted)
}

// CompletePastSessions sweeps confirmed bookings whose date has passed.
func (s *BookingService) CompletePastSessions(ctx context.Context) (int64, error) {
	today := time.Now().Truncate(24 * time.Hour)
	completed, err := s.repo.CompletePastBookings(ctx, today)
	if err != nil {
		return 0, err
	}
	if completed > 0 {
		s.logger.Info().Int64("count", completed).Msg("auto-completed past sessions")
	}
	return completed, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) ListBookings(ctx context.Context, trainerID int64, date time.Time, statuses ...string) ([]*models.Booking, error) {
	return s.repo.ListBookings(ctx, trainerID, date, statuses...)
}

func (s *BookingService) ListBookingsByDateRange(ctx context.Context, trainerID int64, start, end time.Time) ([]*models.Booking, error) {
	return s.repo.ListBookingsByDateRange(ctx, trainerID, start, end)
}

func (s *BookingService) transition(ctx context.Context, bookingID, version int64, fromStatus, toStatus, eventType string) error {
	err := s.repo.UpdateBookingStatusWithVersion(ctx, bookingID, version, fromStatus, toStatus)
	if err != nil {
		return err
	}

	metrics.IncBookingTransition(toStatus)

	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err == nil {
		s.publishEvent(eventType, booking, nil)
		s.enqueueSync(ctx, booking, "update_status")
	}

	return nil
}

func fitsWindows(requested schedule.Interval, windows []schedule.Interval) bool {
	for _, window := range windows {
		if window.Contains(requested) {
			return true
		}
	}
	return false
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, cancelledIDs []int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.PayloadFromBooking(booking, cancelledIDs)
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, booking *models.Booking, taskType string) {
	if s.sheetsWorker == nil {
		return
	}

	var status string
	if taskType == "update_status" {
		status = booking.Status
	}

	if err := s.sheetsWorker.EnqueueTask(ctx, taskType, booking.ID, booking, status); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}
