// Package jobs contains the scheduled maintenance jobs: leaderboard
// reconciliation and the daily activity digest.
package jobs

import (
	"context"
	"fmt"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
	"github.com/blackreaper-app/blackreaper-engine/pkg/logger"
)

// BalanceSource enumerates every user with a ledger record and their current
// RC balance. Both ledger implementations provide it.
type BalanceSource interface {
	Balances(ctx context.Context) (map[shared.UserID]int64, error)
}

// LeaderboardSink receives reconciled balances. Backed by the Redis sorted
// set in production.
type LeaderboardSink interface {
	SetBalance(ctx context.Context, userID shared.UserID, balance int64) error
}

// RebuildLeaderboard reconciles the leaderboard projection against the
// ledger. The projection is normally maintained from reward events; this job
// repairs entries lost to Redis restarts or missed events. The ledger stays
// the source of truth and is only read.
type RebuildLeaderboard struct {
	source BalanceSource
	sink   LeaderboardSink
	log    *logger.Logger
}

// NewRebuildLeaderboard creates the job.
func NewRebuildLeaderboard(source BalanceSource, sink LeaderboardSink, log *logger.Logger) *RebuildLeaderboard {
	if log == nil {
		log = logger.Default()
	}
	return &RebuildLeaderboard{
		source: source,
		sink:   sink,
		log:    log.With(logger.String("job", "rebuild_leaderboard")),
	}
}

// Name implements scheduler.Job.
func (j *RebuildLeaderboard) Name() string { return "rebuild_leaderboard" }

// Run implements scheduler.Job. Individual write failures are logged and
// skipped; the job fails only when the ledger itself cannot be read or the
// run is cancelled.
func (j *RebuildLeaderboard) Run(ctx context.Context) error {
	balances, err := j.source.Balances(ctx)
	if err != nil {
		return fmt.Errorf("rebuild_leaderboard: failed to read balances: %w", err)
	}

	var written, failed int
	for userID, balance := range balances {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := j.sink.SetBalance(ctx, userID, balance); err != nil {
			failed++
			j.log.Warn("failed to project balance",
				logger.String("user_id", userID.String()),
				logger.Err(err),
			)
			continue
		}
		written++
	}

	j.log.Info("leaderboard reconciled",
		logger.Int("written", written),
		logger.Int("failed", failed),
	)
	return nil
}
