package repository

import (
	"context"
	"sync"
	"time"

	"trainerbook/internal/models"
)

type MemoryStateRepository struct {
	drafts     sync.Map
	rateLimits sync.Map
	ttl        time.Duration
}

func NewMemoryStateRepository(ttl time.Duration) *MemoryStateRepository {
	return &MemoryStateRepository{
		ttl: ttl,
	}
}

func (r *MemoryStateRepository) GetDraft(ctx context.Context, clientID int64) (*models.BookingDraft, error) {
	val, ok := r.drafts.Load(clientID)
	if !ok {
		return nil, nil
	}
	return val.(*models.BookingDraft), nil
}

func (r *MemoryStateRepository) SetDraft(ctx context.Context, draft *models.BookingDraft) error {
	r.drafts.Store(draft.ClientID, draft)
	return nil
}

func (r *MemoryStateRepository) ClearDraft(ctx context.Context, clientID int64) error {
	r.drafts.Delete(clientID)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryStateRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(key)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(key, entry)
	return entry.count <= limit, nil
}
