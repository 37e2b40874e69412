package progress

import (
	"context"
	"time"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
	"github.com/blackreaper-app/blackreaper-engine/pkg/logger"
	"github.com/blackreaper-app/blackreaper-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESSION ENGINE
// The single mutation path into the economy. Reward sources (task completion,
// pomodoro, journal, battle resolution, login streak) call ApplyReward and
// IncrementCounter; nothing else writes balance, counters, or unlock state.
// ══════════════════════════════════════════════════════════════════════════════

// CounterObserver receives committed counter values synchronously, in commit
// order, as part of the same logical reward-processing step. The achievement
// evaluator implements this; forwarding after commit guarantees a counter
// update is never lost from achievement consideration.
type CounterObserver interface {
	CounterChanged(ctx context.Context, userID shared.UserID, metric shared.Metric, newValue int64) error
}

// RewardResult is the outcome of a committed balance mutation.
type RewardResult struct {
	NewBalance shared.RC
	NewLevel   shared.Level
	LeveledUp  bool
}

// LoginResult is the outcome of a login-streak check.
type LoginResult struct {
	// Streak - the loginStreak counter after the check.
	Streak int64

	// Changed - true if the streak value changed (same-day repeats do not).
	Changed bool
}

// Engine mutates a user's balance and counters atomically against the ledger
// and emits economy events. Events are fire-and-forget: a sink failure never
// blocks or rolls back the mutation.
type Engine struct {
	ledger   Ledger
	events   shared.EventPublisher
	observer CounterObserver
	log      *logger.Logger
}

// NewEngine creates a progression engine.
func NewEngine(ledger Ledger, events shared.EventPublisher, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Default()
	}
	return &Engine{
		ledger: ledger,
		events: events,
		log:    log.With(logger.String("component", "progression_engine")),
	}
}

// SetObserver wires the counter observer. Set once at startup; the evaluator
// holds a reference back to the engine for reward grants, so the observer is
// attached after both exist.
func (e *Engine) SetObserver(observer CounterObserver) {
	e.observer = observer
}

// Ledger exposes the underlying store for the query layer.
func (e *Engine) Ledger() Ledger {
	return e.ledger
}

// ─────────────────────────────────────────────────────────────────────────────
// ApplyReward
// ─────────────────────────────────────────────────────────────────────────────

// ApplyReward atomically applies a signed RC delta to the user's balance.
// Grants land fully; a spend or penalty larger than the balance truncates at
// zero instead of failing (there is no insufficient-funds error for
// penalties). The derived level is recomputed from the committed balance
// inside the same transaction, so LeveledUp can never report a stale value.
//
// On contention exhaustion the ledger error propagates unchanged; the caller
// decides whether to retry. The engine never retries on its own, because a
// blind retry could double-apply a reward.
func (e *Engine) ApplyReward(ctx context.Context, userID shared.UserID, delta int64, source shared.Source) (RewardResult, error) {
	if userID.IsEmpty() {
		return RewardResult{}, shared.NewDomainError("progress", "ApplyReward", shared.ErrEmptyValue, "user ID is required")
	}

	var oldLevel, newLevel shared.Level

	committed, err := e.ledger.Transaction(ctx, userID, func(current *UserProgress) (*UserProgress, error) {
		oldLevel = current.Balance.Level()
		current.Balance = current.Balance.Apply(delta)
		newLevel = current.Balance.Level()
		return current, nil
	})
	if err != nil {
		e.log.Error("reward transaction failed",
			logger.String("user_id", userID.String()),
			logger.Int64("delta", delta),
			logger.String("source", source.String()),
			logger.Err(err),
		)
		return RewardResult{}, err
	}

	result := RewardResult{
		NewBalance: committed.Balance,
		NewLevel:   newLevel,
		LeveledUp:  newLevel > oldLevel,
	}

	e.publish(shared.NewRewardAppliedEvent(userID, delta, result.NewBalance, result.NewLevel, result.LeveledUp, source))
	if result.LeveledUp {
		e.publish(shared.NewLevelUpEvent(userID, oldLevel, newLevel))
	}

	// Balance and level are derived, not counters, but achievements can set
	// thresholds on them. Forward them through the same observer path.
	if delta > 0 {
		e.notifyCounter(ctx, userID, shared.MetricRCBalance, result.NewBalance.Int64())
	}
	if result.LeveledUp {
		e.notifyCounter(ctx, userID, shared.MetricLevel, int64(result.NewLevel.Int()))
	}

	e.log.Debug("reward applied",
		logger.String("user_id", userID.String()),
		logger.Int64("delta", delta),
		logger.Int64("new_balance", result.NewBalance.Int64()),
		logger.Int("new_level", result.NewLevel.Int()),
		logger.Bool("leveled_up", result.LeveledUp),
		logger.String("source", source.String()),
	)

	return result, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// IncrementCounter
// ─────────────────────────────────────────────────────────────────────────────

// IncrementCounter atomically adds amount to a lifetime counter and forwards
// the committed value to the counter observer. Counters are monotonically
// increasing by contract; a negative amount is a caller bug and is not a
// supported path.
//
// An unrecognized metric is a programming error upstream: it is logged, no
// counter is touched, and shared.ErrInvalidMetric is returned.
func (e *Engine) IncrementCounter(ctx context.Context, userID shared.UserID, metric shared.Metric, amount int64) (int64, error) {
	if userID.IsEmpty() {
		return 0, shared.NewDomainError("progress", "IncrementCounter", shared.ErrEmptyValue, "user ID is required")
	}
	if !metric.IsValid() {
		e.log.Error("increment on unrecognized metric",
			logger.String("user_id", userID.String()),
			logger.String("metric", metric.String()),
		)
		return 0, shared.ErrInvalidMetric
	}
	if amount == 0 {
		return e.currentCounter(ctx, userID, metric)
	}

	var newValue int64
	_, err := e.ledger.Transaction(ctx, userID, func(current *UserProgress) (*UserProgress, error) {
		current.Counters[metric] = current.Counters[metric] + amount
		newValue = current.Counters[metric]
		return current, nil
	})
	if err != nil {
		e.log.Error("counter transaction failed",
			logger.String("user_id", userID.String()),
			logger.String("metric", metric.String()),
			logger.Err(err),
		)
		return 0, err
	}

	e.notifyCounter(ctx, userID, metric, newValue)
	return newValue, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// RecordLogin
// ─────────────────────────────────────────────────────────────────────────────

// RecordLogin runs the login-streak check: a login on the calendar day after
// the previous one extends the streak, a gap resets it to one, and repeated
// logins within the same day change nothing. The streak lives in the
// loginStreak counter; the last-login timestamp has no contention risk and is
// written with a Patch after the transaction commits.
func (e *Engine) RecordLogin(ctx context.Context, userID shared.UserID, now time.Time) (LoginResult, error) {
	if userID.IsEmpty() {
		return LoginResult{}, shared.NewDomainError("progress", "RecordLogin", shared.ErrEmptyValue, "user ID is required")
	}

	var result LoginResult

	_, err := e.ledger.Transaction(ctx, userID, func(current *UserProgress) (*UserProgress, error) {
		streak := current.Counters[shared.MetricLoginStreak]

		switch {
		case current.LastLoginAt.IsZero(), streak == 0:
			streak = 1
		case timeutil.SameDay(current.LastLoginAt, now):
			result = LoginResult{Streak: streak, Changed: false}
			return current, nil
		case timeutil.DaysBetween(current.LastLoginAt, now) == 1:
			streak++
		default:
			streak = 1
		}

		current.Counters[shared.MetricLoginStreak] = streak
		current.LastLoginAt = now
		result = LoginResult{Streak: streak, Changed: true}
		return current, nil
	})
	if err != nil {
		return LoginResult{}, err
	}

	if patchErr := e.ledger.Patch(ctx, userID, Patch{LastLoginAt: &now}); patchErr != nil {
		// Best-effort by contract.
		e.log.Warn("last-login patch failed",
			logger.String("user_id", userID.String()),
			logger.Err(patchErr),
		)
	}

	if result.Changed {
		e.notifyCounter(ctx, userID, shared.MetricLoginStreak, result.Streak)
	}
	return result, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Internals
// ─────────────────────────────────────────────────────────────────────────────

func (e *Engine) currentCounter(ctx context.Context, userID shared.UserID, metric shared.Metric) (int64, error) {
	current, err := e.ledger.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return current.Counter(metric), nil
}

// notifyCounter forwards a committed counter value to the observer. Observer
// failures are logged and swallowed: the counter is already committed, and
// unlock idempotency makes a later re-evaluation safe.
func (e *Engine) notifyCounter(ctx context.Context, userID shared.UserID, metric shared.Metric, newValue int64) {
	if e.observer == nil {
		return
	}
	if err := e.observer.CounterChanged(ctx, userID, metric, newValue); err != nil {
		e.log.Error("counter observer failed",
			logger.String("user_id", userID.String()),
			logger.String("metric", metric.String()),
			logger.Int64("value", newValue),
			logger.Err(err),
		)
	}
}

// publish emits an event fire-and-forget.
func (e *Engine) publish(event shared.Event) {
	if e.events == nil {
		return
	}
	if err := e.events.Publish(event); err != nil {
		e.log.Warn("event publish failed",
			logger.String("event_type", string(event.EventType())),
			logger.Err(err),
		)
	}
}
