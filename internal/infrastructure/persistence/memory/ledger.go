// Package memory provides in-process implementations of the persistence
// interfaces. They back single-node deployments and tests; semantics match
// the postgres implementations, including optimistic concurrency on the
// ledger.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/progress"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
)

// Ledger is an in-memory progress.Ledger. Commits use compare-and-swap on
// the record version, so concurrent transactions observe the same bounded
// retry and contention behavior as the postgres ledger.
type Ledger struct {
	mu      sync.RWMutex
	records map[shared.UserID]*progress.UserProgress
	unlocks map[shared.UserID]map[shared.AchievementID]time.Time

	subs      map[shared.UserID]map[int64]func(*progress.UserProgress)
	nextSubID int64
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		records: make(map[shared.UserID]*progress.UserProgress),
		unlocks: make(map[shared.UserID]map[shared.AchievementID]time.Time),
		subs:    make(map[shared.UserID]map[int64]func(*progress.UserProgress)),
	}
}

// Get implements progress.Ledger. Unknown users read as a zero-value record.
func (l *Ledger) Get(ctx context.Context, userID shared.UserID) (*progress.UserProgress, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot(userID), nil
}

// snapshot returns a clone of the stored record, or a fresh zero-value
// record. Callers must hold at least the read lock.
func (l *Ledger) snapshot(userID shared.UserID) *progress.UserProgress {
	if record, ok := l.records[userID]; ok {
		return record.Clone()
	}
	return progress.NewUserProgress(userID)
}

// Transaction implements progress.Ledger. The transaction function runs
// against a clone outside the lock; the commit lands only if the version is
// unchanged, otherwise the read-apply-commit cycle repeats up to the bounded
// retry count.
func (l *Ledger) Transaction(ctx context.Context, userID shared.UserID, fn progress.TxFunc) (*progress.UserProgress, error) {
	for attempt := 0; attempt < progress.DefaultTxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		l.mu.RLock()
		current := l.snapshot(userID)
		l.mu.RUnlock()
		readVersion := current.Version

		next, err := fn(current)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, shared.NewDomainError("ledger", "Transaction", shared.ErrInvalidEntity, "transaction returned nil record")
		}
		if err := next.Validate(); err != nil {
			return nil, err
		}

		l.mu.Lock()
		stored, exists := l.records[userID]
		if exists && stored.Version != readVersion {
			l.mu.Unlock()
			continue
		}
		if !exists && readVersion != 0 {
			l.mu.Unlock()
			continue
		}

		committed := next.Clone()
		committed.UserID = userID
		committed.Version = readVersion + 1
		committed.UpdatedAt = time.Now().UTC()
		l.records[userID] = committed

		// Subscribers are notified under the lock so deliveries keep the
		// per-user commit order. Callbacks must not block.
		result := committed.Clone()
		for _, notify := range l.subs[userID] {
			notify(committed.Clone())
		}
		l.mu.Unlock()

		return result, nil
	}
	return nil, shared.ErrLedgerContention
}

// Patch implements progress.Ledger with last-write-wins semantics.
func (l *Ledger) Patch(ctx context.Context, userID shared.UserID, patch progress.Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if patch.IsEmpty() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	record, ok := l.records[userID]
	if !ok {
		record = progress.NewUserProgress(userID)
		l.records[userID] = record
	}
	if patch.LastLoginAt != nil {
		record.LastLoginAt = *patch.LastLoginAt
	}
	return nil
}

// Subscribe implements progress.Ledger. The current record is delivered
// immediately, then again after every commit until the returned Unsubscribe
// runs or ctx is cancelled.
func (l *Ledger) Subscribe(ctx context.Context, userID shared.UserID, fn func(*progress.UserProgress)) (progress.Unsubscribe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	id := l.nextSubID
	l.nextSubID++
	if l.subs[userID] == nil {
		l.subs[userID] = make(map[int64]func(*progress.UserProgress))
	}
	l.subs[userID][id] = fn
	initial := l.snapshot(userID)
	l.mu.Unlock()

	fn(initial)

	unsubscribe := func() {
		l.mu.Lock()
		delete(l.subs[userID], id)
		l.mu.Unlock()
	}

	stop := context.AfterFunc(ctx, unsubscribe)
	return func() {
		stop()
		unsubscribe()
	}, nil
}

// UnlockAchievement implements progress.Ledger's write-if-absent primitive.
func (l *Ledger) UnlockAchievement(ctx context.Context, userID shared.UserID, achievementID shared.AchievementID, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	set, ok := l.unlocks[userID]
	if !ok {
		set = make(map[shared.AchievementID]time.Time)
		l.unlocks[userID] = set
	}
	if _, unlocked := set[achievementID]; unlocked {
		return false, nil
	}
	set[achievementID] = at.UTC()
	return true, nil
}

// Balances returns the current balance of every user with a ledger record.
// Used by maintenance jobs to enumerate users; not part of progress.Ledger.
func (l *Ledger) Balances(ctx context.Context) (map[shared.UserID]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[shared.UserID]int64, len(l.records))
	for userID, record := range l.records {
		out[userID] = record.Balance.Int64()
	}
	return out, nil
}

// Unlocked implements progress.Ledger.
func (l *Ledger) Unlocked(ctx context.Context, userID shared.UserID) (map[shared.AchievementID]time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[shared.AchievementID]time.Time, len(l.unlocks[userID]))
	for id, at := range l.unlocks[userID] {
		out[id] = at
	}
	return out, nil
}
