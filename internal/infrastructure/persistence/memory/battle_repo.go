package memory

import (
	"context"
	"sync"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/battle"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
)

// BattleRepository is an in-memory battle.Repository. Records append in
// arrival order and list newest first.
type BattleRepository struct {
	mu      sync.RWMutex
	records map[shared.UserID][]battle.Record
}

// NewBattleRepository creates an empty repository.
func NewBattleRepository() *BattleRepository {
	return &BattleRepository{
		records: make(map[shared.UserID][]battle.Record),
	}
}

// Append implements battle.Repository.
func (r *BattleRepository) Append(ctx context.Context, record battle.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.UserID] = append(r.records[record.UserID], record)
	return nil
}

// ListByUser implements battle.Repository.
func (r *BattleRepository) ListByUser(ctx context.Context, userID shared.UserID, limit int) ([]battle.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.records[userID]
	if limit <= 0 || limit > len(stored) {
		limit = len(stored)
	}
	out := make([]battle.Record, 0, limit)
	for i := len(stored) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, stored[i])
	}
	return out, nil
}

// CountByUser implements battle.Repository.
func (r *BattleRepository) CountByUser(ctx context.Context, userID shared.UserID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.records[userID])), nil
}
