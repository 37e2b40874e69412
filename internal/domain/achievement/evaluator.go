package achievement

import (
	"context"
	"time"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/progress"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
	"github.com/blackreaper-app/blackreaper-engine/pkg/logger"
	"github.com/blackreaper-app/blackreaper-engine/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT EVALUATOR
// Runs synchronously after every committed counter change, as part of the
// same logical reward-processing step. Correctness does not depend on
// operation ordering across tabs or devices: the ledger's write-if-absent
// unlock primitive is the sole at-most-once mechanism, and evaluation is
// idempotent on top of it.
// ══════════════════════════════════════════════════════════════════════════════

// Evaluator decides which achievements newly qualify for a counter value and
// unlocks each at most once. It implements progress.CounterObserver.
type Evaluator struct {
	catalog *Catalog
	ledger  progress.Ledger
	engine  *progress.Engine
	events  shared.EventPublisher
	grants  *retry.Retrier
	log     *logger.Logger
}

// NewEvaluator creates an evaluator. A nil catalog is the degraded mode after
// a failed catalog load: evaluation becomes a no-op and everything else keeps
// working.
func NewEvaluator(catalog *Catalog, ledger progress.Ledger, engine *progress.Engine, events shared.EventPublisher, log *logger.Logger) *Evaluator {
	if log == nil {
		log = logger.Default()
	}
	return &Evaluator{
		catalog: catalog,
		ledger:  ledger,
		engine:  engine,
		events:  events,
		grants:  retry.RewardGrantRetrier(),
		log:     log.With(logger.Component("achievement_evaluator")),
	}
}

// Enabled reports whether a catalog is loaded.
func (ev *Evaluator) Enabled() bool {
	return ev.catalog != nil && ev.catalog.Len() > 0
}

// CounterChanged implements progress.CounterObserver.
func (ev *Evaluator) CounterChanged(ctx context.Context, userID shared.UserID, metric shared.Metric, newValue int64) error {
	return ev.Evaluate(ctx, userID, metric, newValue)
}

// Evaluate unlocks every achievement on the given metric whose threshold the
// new counter value crosses and which is not already unlocked. Calling it
// twice with the same value is safe: the second pass finds the unlock record
// present and does nothing.
func (ev *Evaluator) Evaluate(ctx context.Context, userID shared.UserID, metric shared.Metric, newValue int64) error {
	if !ev.Enabled() {
		return nil
	}

	candidates := ev.catalog.ByMetric(metric)
	if len(candidates) == 0 {
		return nil
	}

	var firstErr error
	for _, def := range candidates {
		if !def.Qualifies(newValue) {
			// Candidates are sorted by threshold; nothing further qualifies.
			break
		}
		if err := ev.unlock(ctx, userID, def); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// unlock performs the at-most-once unlock and, if this call won the race,
// grants the rewards and emits the unlock event.
func (ev *Evaluator) unlock(ctx context.Context, userID shared.UserID, def Definition) error {
	inserted, err := ev.ledger.UnlockAchievement(ctx, userID, def.ID, time.Now().UTC())
	if err != nil {
		return shared.WrapError("achievement", "Evaluate", shared.ErrExternalService, "unlock write failed", err)
	}
	if !inserted {
		// Another evaluation already unlocked it. Never re-award.
		return nil
	}

	ev.log.Info("achievement unlocked",
		logger.UserID(userID.String()),
		logger.AchievementID(def.ID.String()),
		logger.Metric(def.Metric.String()),
	)

	// The unlock record is durable from here on. Reward grants retry
	// independently and are never allowed to undo it.
	ev.grantRewards(ctx, userID, def)

	ev.publish(shared.NewAchievementUnlockedEvent(
		userID, def.ID, def.Name, def.Metric, def.Threshold, def.RewardRC, def.RewardXP,
	))
	return nil
}

// grantRewards applies the RC and XP rewards for a fresh unlock. Contention
// is retried with backoff; a grant that still fails is logged and dropped
// rather than revoking the unlock.
func (ev *Evaluator) grantRewards(ctx context.Context, userID shared.UserID, def Definition) {
	if def.RewardRC > 0 {
		err := ev.grants.Do(ctx, func(ctx context.Context) error {
			_, applyErr := ev.engine.ApplyReward(ctx, userID, def.RewardRC, shared.SourceAchievement)
			if applyErr != nil && shared.IsContention(applyErr) {
				return retry.Retryable(applyErr)
			}
			return applyErr
		})
		if err != nil {
			ev.log.Error("achievement RC grant failed",
				logger.UserID(userID.String()),
				logger.AchievementID(def.ID.String()),
				logger.Err(err),
			)
		}
	}

	if def.RewardXP > 0 {
		err := ev.grants.Do(ctx, func(ctx context.Context) error {
			_, incErr := ev.engine.IncrementCounter(ctx, userID, shared.MetricXP, def.RewardXP)
			if incErr != nil && shared.IsContention(incErr) {
				return retry.Retryable(incErr)
			}
			return incErr
		})
		if err != nil {
			ev.log.Error("achievement XP grant failed",
				logger.UserID(userID.String()),
				logger.AchievementID(def.ID.String()),
				logger.Err(err),
			)
		}
	}
}

func (ev *Evaluator) publish(event shared.Event) {
	if ev.events == nil {
		return
	}
	if err := ev.events.Publish(event); err != nil {
		ev.log.Warn("event publish failed",
			logger.String("event_type", string(event.EventType())),
			logger.Err(err),
		)
	}
}
