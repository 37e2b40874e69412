package progress

import (
	"context"
	"time"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER CONTRACT
// ══════════════════════════════════════════════════════════════════════════════

// TxFunc transforms the current progress record into the next one. It must be
// pure with respect to the record it receives: the ledger may call it several
// times against fresher reads before a commit succeeds. Returning an error
// aborts the transaction without committing.
type TxFunc func(current *UserProgress) (*UserProgress, error)

// Patch is a best-effort partial update. It is reserved for fields with no
// concurrent-writer risk; anything contended belongs in a Transaction.
type Patch struct {
	LastLoginAt *time.Time
}

// IsEmpty reports whether the patch carries no fields.
func (p Patch) IsEmpty() bool {
	return p.LastLoginAt == nil
}

// Unsubscribe cancels a subscription registered with Subscribe.
type Unsubscribe func()

// DefaultTxRetries is the bounded retry count for optimistic-concurrency
// commits. After exhaustion the caller sees shared.ErrLedgerContention;
// whether to retry is the caller's decision, never the ledger's.
const DefaultTxRetries = 5

// Ledger is the durable per-user store of balance, counters, and unlock
// state. Implementations provide compare-and-swap transaction semantics
// keyed by user: a commit lands only if no conflicting write happened since
// the read, and the transaction function is re-run against the latest value
// until it commits or the bounded retry count is exhausted.
//
// A user with no record yet reads as a zero-value record; the first committed
// transaction materializes it.
type Ledger interface {
	// Get returns the current progress record for a user. Unknown users get
	// a zero-value record, not an error.
	Get(ctx context.Context, userID shared.UserID) (*UserProgress, error)

	// Transaction atomically applies fn to the user's record. On success it
	// returns the committed record. On contention exhaustion it returns
	// shared.ErrLedgerContention and the store is unchanged by this call.
	Transaction(ctx context.Context, userID shared.UserID, fn TxFunc) (*UserProgress, error)

	// Patch applies a non-transactional partial update (last write wins).
	Patch(ctx context.Context, userID shared.UserID, patch Patch) error

	// Subscribe delivers the current record immediately and again after
	// every committed change, in commit order per user. The callback must
	// not block; slow consumers may observe coalesced updates ("last write
	// wins, eventually observed").
	Subscribe(ctx context.Context, userID shared.UserID, fn func(*UserProgress)) (Unsubscribe, error)

	// UnlockAchievement records an unlock if and only if it is absent, and
	// reports whether this call inserted it. This is the at-most-once
	// primitive the achievement evaluator relies on; concurrent evaluations
	// crossing the same threshold race here and exactly one wins.
	UnlockAchievement(ctx context.Context, userID shared.UserID, achievementID shared.AchievementID, at time.Time) (bool, error)

	// Unlocked returns the user's unlock set with immutable timestamps.
	Unlocked(ctx context.Context, userID shared.UserID) (map[shared.AchievementID]time.Time, error)
}
