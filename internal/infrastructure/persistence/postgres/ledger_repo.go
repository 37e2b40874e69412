package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/progress"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LedgerRepository implements progress.Ledger on versioned rows. A commit is
// an UPDATE guarded by the version the transaction read; zero rows affected
// means a concurrent writer won and the read-apply-commit cycle repeats up
// to the bounded retry count.
//
// Subscriptions are in-process: subscribers see commits made through this
// repository instance, which is all a single-node deployment has.
type LedgerRepository struct {
	conn *Connection

	subMu     sync.Mutex
	subs      map[shared.UserID]map[int64]func(*progress.UserProgress)
	nextSubID int64
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(conn *Connection) *LedgerRepository {
	return &LedgerRepository{
		conn: conn,
		subs: make(map[shared.UserID]map[int64]func(*progress.UserProgress)),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

// Get returns the current progress record. Unknown users read as a
// zero-value record, not an error.
func (r *LedgerRepository) Get(ctx context.Context, userID shared.UserID) (*progress.UserProgress, error) {
	record, err := r.fetch(ctx, userID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return progress.NewUserProgress(userID), nil
	}
	return record, nil
}

// fetch reads the stored row, returning nil when the user has no row yet.
func (r *LedgerRepository) fetch(ctx context.Context, userID shared.UserID) (*progress.UserProgress, error) {
	query := `
		SELECT balance, counters, last_login_at, version, updated_at
		FROM user_progress
		WHERE user_id = $1
	`

	var (
		balance      int64
		countersJSON []byte
		lastLoginAt  *time.Time
		version      int64
		updatedAt    time.Time
	)
	err := r.conn.QueryRow(ctx, query, userID.String()).Scan(&balance, &countersJSON, &lastLoginAt, &version, &updatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read progress for %s: %w", userID, err)
	}

	counters := make(map[shared.Metric]int64)
	if len(countersJSON) > 0 {
		if err := json.Unmarshal(countersJSON, &counters); err != nil {
			return nil, fmt.Errorf("failed to decode counters for %s: %w", userID, err)
		}
	}

	record := &progress.UserProgress{
		UserID:    userID,
		Balance:   shared.RC(balance),
		Counters:  counters,
		Version:   version,
		UpdatedAt: updatedAt,
	}
	if lastLoginAt != nil {
		record.LastLoginAt = *lastLoginAt
	}
	return record, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Transactional writes
// ─────────────────────────────────────────────────────────────────────────────

// Transaction atomically applies fn with optimistic concurrency.
func (r *LedgerRepository) Transaction(ctx context.Context, userID shared.UserID, fn progress.TxFunc) (*progress.UserProgress, error) {
	for attempt := 0; attempt < progress.DefaultTxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current, err := r.fetch(ctx, userID)
		if err != nil {
			return nil, err
		}
		isNew := current == nil
		if isNew {
			current = progress.NewUserProgress(userID)
		}
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

		committed, err := r.commit(ctx, userID, next, readVersion, isNew)
		if err != nil {
			return nil, err
		}
		if committed == nil {
			// Version moved under us; re-read and retry.
			continue
		}

		r.notify(userID, committed)
		return committed, nil
	}
	return nil, shared.ErrLedgerContention
}

// commit attempts the guarded write. It returns nil without error when the
// version check lost the race.
func (r *LedgerRepository) commit(ctx context.Context, userID shared.UserID, next *progress.UserProgress, readVersion int64, isNew bool) (*progress.UserProgress, error) {
	countersJSON, err := json.Marshal(next.Counters)
	if err != nil {
		return nil, fmt.Errorf("failed to encode counters for %s: %w", userID, err)
	}

	now := time.Now().UTC()
	var lastLoginAt *time.Time
	if !next.LastLoginAt.IsZero() {
		t := next.LastLoginAt
		lastLoginAt = &t
	}

	if isNew {
		// First commit materializes the row. A concurrent first commit
		// conflicts on the primary key; treat that as a lost race.
		query := `
			INSERT INTO user_progress (user_id, balance, counters, last_login_at, version, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (user_id) DO NOTHING
		`
		tag, err := r.conn.Exec(ctx, query,
			userID.String(), next.Balance.Int64(), countersJSON, lastLoginAt, readVersion+1, now)
		if err != nil {
			return nil, fmt.Errorf("failed to insert progress for %s: %w", userID, err)
		}
		if tag.RowsAffected() == 0 {
			return nil, nil
		}
	} else {
		query := `
			UPDATE user_progress
			SET balance = $1, counters = $2, last_login_at = $3, version = $4, updated_at = $5
			WHERE user_id = $6 AND version = $7
		`
		tag, err := r.conn.Exec(ctx, query,
			next.Balance.Int64(), countersJSON, lastLoginAt, readVersion+1, now, userID.String(), readVersion)
		if err != nil {
			return nil, fmt.Errorf("failed to update progress for %s: %w", userID, err)
		}
		if tag.RowsAffected() == 0 {
			return nil, nil
		}
	}

	committed := next.Clone()
	committed.UserID = userID
	committed.Version = readVersion + 1
	committed.UpdatedAt = now
	return committed, nil
}

// Patch applies a best-effort partial update with last-write-wins semantics.
func (r *LedgerRepository) Patch(ctx context.Context, userID shared.UserID, patch progress.Patch) error {
	if patch.IsEmpty() {
		return nil
	}

	query := `
		INSERT INTO user_progress (user_id, last_login_at)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET last_login_at = EXCLUDED.last_login_at
	`
	if _, err := r.conn.Exec(ctx, query, userID.String(), patch.LastLoginAt); err != nil {
		return fmt.Errorf("failed to patch progress for %s: %w", userID, err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Subscriptions
// ─────────────────────────────────────────────────────────────────────────────

// Subscribe delivers the current record immediately, then after every commit
// made through this repository instance.
func (r *LedgerRepository) Subscribe(ctx context.Context, userID shared.UserID, fn func(*progress.UserProgress)) (progress.Unsubscribe, error) {
	initial, err := r.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	r.subMu.Lock()
	id := r.nextSubID
	r.nextSubID++
	if r.subs[userID] == nil {
		r.subs[userID] = make(map[int64]func(*progress.UserProgress))
	}
	r.subs[userID][id] = fn
	r.subMu.Unlock()

	fn(initial)

	unsubscribe := func() {
		r.subMu.Lock()
		delete(r.subs[userID], id)
		r.subMu.Unlock()
	}

	stop := context.AfterFunc(ctx, unsubscribe)
	return func() {
		stop()
		unsubscribe()
	}, nil
}

func (r *LedgerRepository) notify(userID shared.UserID, committed *progress.UserProgress) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for _, fn := range r.subs[userID] {
		fn(committed.Clone())
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Unlock state
// ─────────────────────────────────────────────────────────────────────────────

// UnlockAchievement records an unlock if absent. The primary key insert with
// ON CONFLICT DO NOTHING is the at-most-once primitive; RowsAffected tells
// the caller whether this call won.
func (r *LedgerRepository) UnlockAchievement(ctx context.Context, userID shared.UserID, achievementID shared.AchievementID, at time.Time) (bool, error) {
	query := `
		INSERT INTO achievement_unlocks (user_id, achievement_id, unlocked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, achievement_id) DO NOTHING
	`
	tag, err := r.conn.Exec(ctx, query, userID.String(), achievementID.String(), at.UTC())
	if err != nil {
		return false, fmt.Errorf("failed to unlock %s for %s: %w", achievementID, userID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Balances returns the current balance of every user with a ledger row.
// Used by maintenance jobs to enumerate users; not part of progress.Ledger.
func (r *LedgerRepository) Balances(ctx context.Context) (map[shared.UserID]int64, error) {
	query := `
		SELECT user_id, balance
		FROM user_progress
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	defer rows.Close()

	balances := make(map[shared.UserID]int64)
	for rows.Next() {
		var (
			userID  string
			balance int64
		)
		if err := rows.Scan(&userID, &balance); err != nil {
			return nil, fmt.Errorf("failed to scan balance row: %w", err)
		}
		balances[shared.UserID(userID)] = balance
	}
	return balances, rows.Err()
}

// Unlocked returns the user's unlock set.
func (r *LedgerRepository) Unlocked(ctx context.Context, userID shared.UserID) (map[shared.AchievementID]time.Time, error) {
	query := `
		SELECT achievement_id, unlocked_at
		FROM achievement_unlocks
		WHERE user_id = $1
	`

	rows, err := r.conn.Query(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list unlocks for %s: %w", userID, err)
	}
	defer rows.Close()

	unlocked := make(map[shared.AchievementID]time.Time)
	for rows.Next() {
		var (
			id string
			at time.Time
		)
		if err := rows.Scan(&id, &at); err != nil {
			return nil, fmt.Errorf("failed to scan unlock row: %w", err)
		}
		unlocked[shared.AchievementID(id)] = at
	}
	return unlocked, rows.Err()
}
