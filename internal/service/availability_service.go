package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"trainerbook/internal/database"
	"trainerbook/internal/domain"
	"trainerbook/internal/metrics"
	"trainerbook/internal/models"
	"trainerbook/internal/schedule"
)

// AvailabilityService answers "when can this trainer be booked" questions:
// rule CRUD, per-day resolution and slot generation.
type AvailabilityService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewAvailabilityService(repo domain.Repository, logger *zerolog.Logger) *AvailabilityService {
	return &AvailabilityService{
		repo:   repo,
		logger: logger,
	}
}

func (s *AvailabilityService) CreateRule(ctx context.Context, rule *models.AvailabilityRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	return s.repo.CreateRule(ctx, rule)
}

// DeleteRule removes a rule after checking it belongs to the trainer. A
// mismatched trainer gets not-found rather than a hint the rule exists.
func (s *AvailabilityService) DeleteRule(ctx context.Context, ruleID, trainerID int64) error {
	rule, err := s.repo.GetRule(ctx, ruleID)
	if err != nil {
		return err
	}
	if rule.TrainerID != trainerID {
		return database.ErrRuleNotFound
	}
	return s.repo.DeleteRule(ctx, ruleID)
}

func (s *AvailabilityService) ListRules(ctx context.Context, trainerID int64) ([]*models.AvailabilityRule, error) {
	return s.repo.ListRules(ctx, trainerID)
}

// ResolveAvailability returns the trainer's open windows for one date.
func (s *AvailabilityService) ResolveAvailability(ctx context.Context, trainerID int64, date time.Time) ([]schedule.Interval, error) {
	rules, err := s.repo.ListRulesForDate(ctx, trainerID, date)
	if err != nil {
		return nil, err
	}
	return schedule.ResolveAvailability(deref(rules), date)
}

// GetSlots resolves availability and overlays active bookings into bookable
// slot candidates.
func (s *AvailabilityService) GetSlots(ctx context.Context, trainerID int64, date time.Time, durationMinutes, granularityMinutes int) ([]schedule.Slot, error) {
	started := time.Now()

	availability, err := s.ResolveAvailability(ctx, trainerID, date)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.ListBookings(ctx, trainerID, date, models.StatusPending, models.StatusConfirmed)
	if err != nil {
		return nil, err
	}

	slots, err := schedule.GenerateSlots(availability, durationMinutes, derefBookings(bookings), granularityMinutes)
	if err != nil {
		return nil, err
	}

	metrics.ObserveSlotResolve(time.Since(started).Seconds())
	return slots, nil
}

// RuleOccurrences previews the next dates a rule fires on.
func (s *AvailabilityService) RuleOccurrences(ctx context.Context, ruleID int64, from time.Time, count int) ([]time.Time, error) {
	rule, err := s.repo.GetRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	return schedule.RuleOccurrences(*rule, from, count)
}

func deref(rules []*models.AvailabilityRule) []models.AvailabilityRule {
	out := make([]models.AvailabilityRule, 0, len(rules))
	for _, r := range rules {
		out = append(out, *r)
	}
	return out
}

func derefBookings(bookings []*models.Booking) []models.Booking {
	out := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, *b)
	}
	return out
}
