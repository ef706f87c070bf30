package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"trainerbook/internal/domain"
	"trainerbook/internal/models"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateRule(ctx context.Context, rule *models.AvailabilityRule) error {
	return m.Called(ctx, rule).Error(0)
}
func (m *mockRepo) GetRule(ctx context.Context, id int64) (*models.AvailabilityRule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AvailabilityRule), args.Error(1)
}
func (m *mockRepo) DeleteRule(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) ListRules(ctx context.Context, trainerID int64) ([]*models.AvailabilityRule, error) {
	args := m.Called(ctx, trainerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AvailabilityRule), args.Error(1)
}
func (m *mockRepo) ListRulesForDate(ctx context.Context, trainerID int64, date time.Time) ([]*models.AvailabilityRule, error) {
	args := m.Called(ctx, trainerID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AvailabilityRule), args.Error(1)
}
func (m *mockRepo) CreateBookingWithLock(ctx context.Context, booking *models.Booking) error {
	return m.Called(ctx, booking).Error(0)
}
func (m *mockRepo) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) ListBookings(ctx context.Context, trainerID int64, date time.Time, statuses ...string) ([]*models.Booking, error) {
	args := m.Called(ctx, trainerID, date, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) ListBookingsByDateRange(ctx context.Context, trainerID int64, start, end time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, trainerID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetClientBookings(ctx context.Context, clientID int64) ([]*models.Booking, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) ConfirmBookingCascade(ctx context.Context, bookingID, version int64) (*domain.ConfirmResult, error) {
	args := m.Called(ctx, bookingID, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConfirmResult), args.Error(1)
}
func (m *mockRepo) UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, fromStatus, toStatus string) error {
	return m.Called(ctx, id, version, fromStatus, toStatus).Error(0)
}
func (m *mockRepo) CompletePastBookings(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockRepo) CreateSyncTask(ctx context.Context, task *models.SyncTask) error {
	return m.Called(ctx, task).Error(0)
}
func (m *mockRepo) GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SyncTask), args.Error(1)
}
func (m *mockRepo) UpdateSyncTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error {
	return m.Called(ctx, id, status, errMsg, nextRetryAt).Error(0)
}
func (m *mockRepo) Close() error {
	return m.Called().Error(0)
}

type mockSyncWorker struct {
	mock.Mock
}

func (m *mockSyncWorker) EnqueueTask(ctx context.Context, taskType string, bookingID int64, booking *models.Booking, status string) error {
	return m.Called(ctx, taskType, bookingID, booking, status).Error(0)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}

type mockStateRepo struct {
	mock.Mock
}

func (m *mockStateRepo) GetDraft(ctx context.Context, clientID int64) (*models.BookingDraft, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingDraft), args.Error(1)
}
func (m *mockStateRepo) SetDraft(ctx context.Context, draft *models.BookingDraft) error {
	return m.Called(ctx, draft).Error(0)
}
func (m *mockStateRepo) ClearDraft(ctx context.Context, clientID int64) error {
	return m.Called(ctx, clientID).Error(0)
}
func (m *mockStateRepo) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}
