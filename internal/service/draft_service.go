package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"trainerbook/internal/domain"
	"trainerbook/internal/models"
)

// ErrNoDraft is returned when a wizard step arrives for a client without an
// active draft.
var ErrNoDraft = errors.New("no active booking draft")

// DraftService drives the step-by-step slot selection. Drafts live in the
// state repository keyed by client, so the wizard survives restarts when
// redis is the backing store.
type DraftService struct {
	stateRepo domain.StateRepository
	logger    *zerolog.Logger
}

func NewDraftService(stateRepo domain.StateRepository, logger *zerolog.Logger) *DraftService {
	return &DraftService{
		stateRepo: stateRepo,
		logger:    logger,
	}
}

func (s *DraftService) GetDraft(ctx context.Context, clientID int64) (*models.BookingDraft, error) {
	draft, err := s.stateRepo.GetDraft(ctx, clientID)
	if err != nil {
		s.logger.Error().Err(err).Int64("client_id", clientID).Msg("failed to get draft")
		return nil, err
	}
	return draft, nil
}

// StartDraft begins a fresh wizard, discarding any previous draft.
func (s *DraftService) StartDraft(ctx context.Context, clientID, trainerID int64) (*models.BookingDraft, error) {
	draft := &models.BookingDraft{
		ClientID:  clientID,
		TrainerID: trainerID,
		Step:      models.StepSelectDate,
	}
	if err := s.stateRepo.SetDraft(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *DraftService) SetDate(ctx context.Context, clientID int64, date time.Time) (*models.BookingDraft, error) {
	return s.update(ctx, clientID, func(draft *models.BookingDraft) {
		day := date.Truncate(24 * time.Hour)
		draft.Date = &day
	})
}

func (s *DraftService) SetDuration(ctx context.Context, clientID int64, minutes int) (*models.BookingDraft, error) {
	return s.update(ctx, clientID, func(draft *models.BookingDraft) {
		draft.DurationMinutes = minutes
	})
}

func (s *DraftService) SetStart(ctx context.Context, clientID int64, start models.TimeOfDay) (*models.BookingDraft, error) {
	return s.update(ctx, clientID, func(draft *models.BookingDraft) {
		draft.StartMinute = &start
	})
}

func (s *DraftService) ClearDraft(ctx context.Context, clientID int64) error {
	return s.stateRepo.ClearDraft(ctx, clientID)
}

func (s *DraftService) update(ctx context.Context, clientID int64, apply func(*models.BookingDraft)) (*models.BookingDraft, error) {
	draft, err := s.stateRepo.GetDraft(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, ErrNoDraft
	}

	apply(draft)
	draft.Step = draft.NextStep()

	if err := s.stateRepo.SetDraft(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}
