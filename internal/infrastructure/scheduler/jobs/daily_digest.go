package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/activity"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/notification"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
	"github.com/blackreaper-app/blackreaper-engine/pkg/logger"
)

// sendTimeout bounds one digest delivery.
const sendTimeout = 10 * time.Second

// ActivitySource reads a user's feed entries for the digest window.
type ActivitySource interface {
	ListByUserSince(ctx context.Context, userID shared.UserID, since time.Time) ([]activity.Entry, error)
}

// DailyDigest sends each active user a summary of the current UTC day:
// RC earned, achievements unlocked, and battles fought. Users with no
// entries in the window are skipped. Delivery is best-effort per user.
type DailyDigest struct {
	users    BalanceSource
	feed     ActivitySource
	notifier notification.Notifier
	log      *logger.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewDailyDigest creates the job.
func NewDailyDigest(users BalanceSource, feed ActivitySource, notifier notification.Notifier, log *logger.Logger) *DailyDigest {
	if log == nil {
		log = logger.Default()
	}
	return &DailyDigest{
		users:    users,
		feed:     feed,
		notifier: notifier,
		log:      log.With(logger.String("job", "daily_digest")),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Name implements scheduler.Job.
func (j *DailyDigest) Name() string { return "daily_digest" }

// Run implements scheduler.Job.
func (j *DailyDigest) Run(ctx context.Context) error {
	users, err := j.users.Balances(ctx)
	if err != nil {
		return fmt.Errorf("daily_digest: failed to enumerate users: %w", err)
	}

	now := j.now()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var sent, skipped, failed int
	for userID := range users {
		if err := ctx.Err(); err != nil {
			return err
		}

		entries, err := j.feed.ListByUserSince(ctx, userID, since)
		if err != nil {
			failed++
			j.log.Warn("failed to read feed",
				logger.String("user_id", userID.String()),
				logger.Err(err),
			)
			continue
		}
		if len(entries) == 0 {
			skipped++
			continue
		}

		if err := j.send(ctx, userID, entries); err != nil {
			failed++
			j.log.Warn("failed to send digest",
				logger.String("user_id", userID.String()),
				logger.Err(err),
			)
			continue
		}
		sent++
	}

	j.log.Info("daily digest complete",
		logger.Int("sent", sent),
		logger.Int("skipped", skipped),
		logger.Int("failed", failed),
	)
	return nil
}

func (j *DailyDigest) send(ctx context.Context, userID shared.UserID, entries []activity.Entry) error {
	var (
		rcEarned     int64
		achievements int
		battles      int
	)
	for _, e := range entries {
		if e.DeltaRC > 0 {
			rcEarned += e.DeltaRC
		}
		switch e.Kind {
		case activity.KindAchievement:
			achievements++
		case activity.KindBattle:
			battles++
		}
	}

	n := notification.New(userID, notification.TypeDailyDigest,
		"Your day in RC cells",
		fmt.Sprintf("You earned %d RC cells across %d activities today.", rcEarned, len(entries)),
	).WithData(map[string]any{
		"rc_earned":             rcEarned,
		"entries":               len(entries),
		"achievements_unlocked": achievements,
		"battles_fought":        battles,
	})

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return j.notifier.Send(sendCtx, n)
}
