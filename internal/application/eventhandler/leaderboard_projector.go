package eventhandler

import (
	"context"
	"fmt"
	"time"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
	"github.com/blackreaper-app/blackreaper-engine/internal/infrastructure/persistence/redis"
	"github.com/blackreaper-app/blackreaper-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD PROJECTOR
// Mirrors committed balances into the Redis ranking. The projection is
// display-only; a missed update self-heals on the user's next reward.
// ══════════════════════════════════════════════════════════════════════════════

// projectionTimeout bounds a single ZADD. Handlers run on bus workers and
// must not hang on a slow Redis.
const projectionTimeout = 2 * time.Second

// LeaderboardProjector keeps the RC ranking in sync with reward events.
type LeaderboardProjector struct {
	leaderboard *redis.LeaderboardCache
	log         *logger.Logger
}

// NewLeaderboardProjector creates a new LeaderboardProjector.
func NewLeaderboardProjector(leaderboard *redis.LeaderboardCache, log *logger.Logger) *LeaderboardProjector {
	if log == nil {
		log = logger.Default()
	}
	return &LeaderboardProjector{
		leaderboard: leaderboard,
		log:         log.With(logger.String("handler", "leaderboard_projector")),
	}
}

// Register subscribes the projector to reward events.
func (h *LeaderboardProjector) Register(bus shared.EventSubscriber) error {
	if err := bus.Subscribe(shared.EventRewardApplied, h.onRewardApplied); err != nil {
		return fmt.Errorf("leaderboard_projector: failed to subscribe: %w", err)
	}
	return nil
}

func (h *LeaderboardProjector) onRewardApplied(event shared.Event) error {
	e, ok := event.(shared.RewardAppliedEvent)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), projectionTimeout)
	defer cancel()

	if err := h.leaderboard.SetBalance(ctx, shared.UserID(e.UserID), e.NewBalance); err != nil {
		h.log.Warn("leaderboard projection failed",
			logger.String("user_id", e.UserID),
			logger.Int64("balance", e.NewBalance),
			logger.Err(err),
		)
		return err
	}
	return nil
}
