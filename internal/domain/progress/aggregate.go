package progress

import (
	"time"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER PROGRESS AGGREGATE
// ══════════════════════════════════════════════════════════════════════════════

// UserProgress is the per-user ledger record: the RC balance and the lifetime
// counters. It is the root aggregate of the economy; all mutation goes through
// the Engine's operations, never through direct writes.
//
// Level and rank are pure functions of the balance. They are derived on every
// read and never persisted as independent truth, so a committed mutation can
// never leave a stale derived value behind.
type UserProgress struct {
	// UserID - the owner. Exactly one record exists per user.
	UserID shared.UserID

	// Balance - current RC cells. Never negative; spends floor at zero.
	Balance shared.RC

	// Counters - named lifetime counters (tasksCompleted, pomodoros, ...).
	// Monotonically increasing by contract, with the single exception of
	// loginStreak, which the Engine may reset when a day is missed.
	Counters map[shared.Metric]int64

	// LastLoginAt - timestamp of the most recent login. Updated via Patch;
	// it has no concurrent-writer risk worth a transaction.
	LastLoginAt time.Time

	// Version - optimistic concurrency token. Incremented by the ledger on
	// every committed transaction; never exposed outside persistence.
	Version int64

	// UpdatedAt - time of the last committed mutation.
	UpdatedAt time.Time
}

// NewUserProgress creates a zero-value progress record for a user.
func NewUserProgress(userID shared.UserID) *UserProgress {
	return &UserProgress{
		UserID:   userID,
		Balance:  shared.MinRC,
		Counters: make(map[shared.Metric]int64),
	}
}

// Level returns the level derived from the current balance.
func (p *UserProgress) Level() shared.Level {
	return p.Balance.Level()
}

// Rank returns the rank tier derived from the current level.
func (p *UserProgress) Rank() shared.Rank {
	return p.Level().Rank()
}

// Counter returns the current value of a counter (zero if never incremented).
func (p *UserProgress) Counter(metric shared.Metric) int64 {
	return p.Counters[metric]
}

// Clone returns a deep copy. Transaction functions receive a clone so a
// retried transaction never observes a half-applied previous attempt.
func (p *UserProgress) Clone() *UserProgress {
	counters := make(map[shared.Metric]int64, len(p.Counters))
	for k, v := range p.Counters {
		counters[k] = v
	}
	return &UserProgress{
		UserID:      p.UserID,
		Balance:     p.Balance,
		Counters:    counters,
		LastLoginAt: p.LastLoginAt,
		Version:     p.Version,
		UpdatedAt:   p.UpdatedAt,
	}
}

// Validate checks the aggregate invariants.
func (p *UserProgress) Validate() error {
	if p.UserID.IsEmpty() {
		return shared.NewDomainError("progress", "Validate", shared.ErrEmptyValue, "user ID is required")
	}
	if !p.Balance.IsValid() {
		return shared.NewDomainError("progress", "Validate", shared.ErrNegativeValue, "balance cannot be negative")
	}
	for metric, value := range p.Counters {
		if !metric.IsValid() {
			return shared.NewDomainError("progress", "Validate", shared.ErrInvalidInput, "unknown counter metric "+metric.String())
		}
		if value < 0 {
			return shared.NewDomainError("progress", "Validate", shared.ErrNegativeValue, "counter "+metric.String()+" cannot be negative")
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UNLOCK RECORDS
// ══════════════════════════════════════════════════════════════════════════════

// UnlockRecord marks an achievement as unlocked for a user. Records are
// written at most once and never revoked; UnlockedAt is immutable.
type UnlockRecord struct {
	UserID        shared.UserID
	AchievementID shared.AchievementID
	UnlockedAt    time.Time
}

// View is the full user-facing progress aggregate assembled by the query
// layer: the ledger record plus derived fields and unlock state.
type View struct {
	UserID       shared.UserID                         `json:"user_id"`
	Balance      int64                                 `json:"balance"`
	Level        int                                   `json:"level"`
	Rank         string                                `json:"rank"`
	LevelPercent int                                   `json:"level_percent"`
	Counters     map[shared.Metric]int64               `json:"counters"`
	Unlocked     map[shared.AchievementID]time.Time    `json:"unlocked_achievements"`
	LastLoginAt  time.Time                             `json:"last_login_at,omitempty"`
}

// NewView derives the user-facing view from a ledger record and unlock set.
func NewView(p *UserProgress, unlocked map[shared.AchievementID]time.Time) *View {
	return &View{
		UserID:       p.UserID,
		Balance:      p.Balance.Int64(),
		Level:        p.Level().Int(),
		Rank:         p.Rank().String(),
		LevelPercent: p.Balance.ProgressToNextLevel(),
		Counters:     p.Counters,
		Unlocked:     unlocked,
		LastLoginAt:  p.LastLoginAt,
	}
}
