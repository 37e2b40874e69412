package memory

import (
	"context"
	"sync"
	"time"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/activity"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
)

// ActivityRepository is an in-memory activity.Repository.
type ActivityRepository struct {
	mu      sync.RWMutex
	entries map[shared.UserID][]activity.Entry
}

// NewActivityRepository creates an empty repository.
func NewActivityRepository() *ActivityRepository {
	return &ActivityRepository{
		entries: make(map[shared.UserID][]activity.Entry),
	}
}

// Append implements activity.Repository.
func (r *ActivityRepository) Append(ctx context.Context, entry activity.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.UserID] = append(r.entries[entry.UserID], entry)
	return nil
}

// ListByUser implements activity.Repository.
func (r *ActivityRepository) ListByUser(ctx context.Context, userID shared.UserID, limit int) ([]activity.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.entries[userID]
	if limit <= 0 || limit > len(stored) {
		limit = len(stored)
	}
	out := make([]activity.Entry, 0, limit)
	for i := len(stored) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, stored[i])
	}
	return out, nil
}

// ListByUserSince implements activity.Repository.
func (r *ActivityRepository) ListByUserSince(ctx context.Context, userID shared.UserID, since time.Time) ([]activity.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.entries[userID]
	out := make([]activity.Entry, 0)
	for i := len(stored) - 1; i >= 0; i-- {
		if stored[i].OccurredAt.Before(since) {
			continue
		}
		out = append(out, stored[i])
	}
	return out, nil
}
