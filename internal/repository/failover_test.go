package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"trainerbook/internal/models"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetDraft(ctx context.Context, clientID int64) (*models.BookingDraft, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingDraft), args.Error(1)
}

func (m *mockRepo) SetDraft(ctx context.Context, draft *models.BookingDraft) error {
	args := m.Called(ctx, draft)
	return args.Error(0)
}

func (m *mockRepo) ClearDraft(ctx context.Context, clientID int64) error {
	args := m.Called(ctx, clientID)
	return args.Error(0)
}

func (m *mockRepo) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func TestFailoverStateRepository(t *testing.T) {
	primary := new(mockRepo)
	fallback := new(mockRepo)
	logger := zerolog.New(io.Discard)
	repo := NewFailoverStateRepository(primary, fallback, &logger)
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		draft := &models.BookingDraft{ClientID: 1}
		primary.On("GetDraft", ctx, int64(1)).Return(draft, nil).Once()

		got, err := repo.GetDraft(ctx, 1)
		assert.NoError(t, err)
		assert.Equal(t, draft, got)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		draft := &models.BookingDraft{ClientID: 2}
		primary.On("GetDraft", ctx, int64(2)).Return(nil, errors.New("fail")).Once()
		fallback.On("GetDraft", ctx, int64(2)).Return(draft, nil).Once()

		got, err := repo.GetDraft(ctx, 2)
		assert.NoError(t, err)
		assert.Equal(t, draft, got)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck = time.Now().Add(-2 * time.Minute)

		draft := &models.BookingDraft{ClientID: 3}
		primary.On("GetDraft", ctx, int64(3)).Return(draft, nil).Once()

		got, err := repo.GetDraft(ctx, 3)
		assert.NoError(t, err)
		assert.Equal(t, draft, got)
		assert.False(t, repo.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck = time.Now().Add(-2 * time.Minute)

		primary.On("GetDraft", ctx, int64(33)).Return(nil, errors.New("still fail")).Once()
		fallback.On("GetDraft", ctx, int64(33)).Return(nil, nil).Once()

		_, err := repo.GetDraft(ctx, 33)
		assert.NoError(t, err)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("SetDraftSuccess", func(t *testing.T) {
		repo.isDown.Store(false)
		draft := &models.BookingDraft{ClientID: 77}
		primary.On("SetDraft", ctx, draft).Return(nil).Once()

		err := repo.SetDraft(ctx, draft)
		assert.NoError(t, err)
		primary.AssertExpectations(t)
	})

	t.Run("SetDraftFailover", func(t *testing.T) {
		repo.isDown.Store(false)
		draft := &models.BookingDraft{ClientID: 4}
		primary.On("SetDraft", ctx, draft).Return(errors.New("fail")).Once()
		fallback.On("SetDraft", ctx, draft).Return(nil).Once()

		err := repo.SetDraft(ctx, draft)
		assert.NoError(t, err)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("ClearDraftFailover", func(t *testing.T) {
		repo.isDown.Store(false)
		primary.On("ClearDraft", ctx, int64(5)).Return(errors.New("fail")).Once()
		fallback.On("ClearDraft", ctx, int64(5)).Return(nil).Once()

		err := repo.ClearDraft(ctx, 5)
		assert.NoError(t, err)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("CheckRateLimitFailover", func(t *testing.T) {
		repo.isDown.Store(false)
		primary.On("CheckRateLimit", ctx, "client:6", 10, time.Minute).Return(false, errors.New("fail")).Once()
		fallback.On("CheckRateLimit", ctx, "client:6", 10, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "client:6", 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("SetDraftAlreadyDown", func(t *testing.T) {
		repo.isDown.Store(true)
		draft := &models.BookingDraft{ClientID: 44}
		fallback.On("SetDraft", ctx, draft).Return(nil).Once()

		err := repo.SetDraft(ctx, draft)
		assert.NoError(t, err)
		fallback.AssertExpectations(t)
	})

	t.Run("CheckRateLimitAlreadyDown", func(t *testing.T) {
		repo.isDown.Store(true)
		fallback.On("CheckRateLimit", ctx, "client:66", 10, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "client:66", 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		fallback.AssertExpectations(t)
	})
}
