package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/activity"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/notification"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/progress"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
	"github.com/blackreaper-app/blackreaper-engine/internal/infrastructure/persistence/memory"
)

const (
	userA = shared.UserID("7ed99bd0-87b2-4dbb-a97b-596c3f29c49b")
	userB = shared.UserID("c56bd1a4-5b19-44a2-a4f6-d09d5e5ba14e")
)

func fundUser(t *testing.T, ledger *memory.Ledger, userID shared.UserID, balance int64) {
	t.Helper()
	_, err := ledger.Transaction(context.Background(), userID, func(current *progress.UserProgress) (*progress.UserProgress, error) {
		current.Balance = current.Balance.Apply(balance)
		return current, nil
	})
	require.NoError(t, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Rebuild leaderboard
// ─────────────────────────────────────────────────────────────────────────────

type recordingSink struct {
	scores map[shared.UserID]int64
	fail   map[shared.UserID]bool
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		scores: make(map[shared.UserID]int64),
		fail:   make(map[shared.UserID]bool),
	}
}

func (s *recordingSink) SetBalance(_ context.Context, userID shared.UserID, balance int64) error {
	if s.fail[userID] {
		return errors.New("sink unavailable")
	}
	s.scores[userID] = balance
	return nil
}

func TestRebuildLeaderboard_ProjectsAllBalances(t *testing.T) {
	ledger := memory.NewLedger()
	fundUser(t, ledger, userA, 1500)
	fundUser(t, ledger, userB, 300)

	sink := newRecordingSink()
	job := NewRebuildLeaderboard(ledger, sink, nil)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, map[shared.UserID]int64{userA: 1500, userB: 300}, sink.scores)
}

func TestRebuildLeaderboard_SkipsFailedWrites(t *testing.T) {
	ledger := memory.NewLedger()
	fundUser(t, ledger, userA, 1500)
	fundUser(t, ledger, userB, 300)

	sink := newRecordingSink()
	sink.fail[userA] = true
	job := NewRebuildLeaderboard(ledger, sink, nil)

	// One bad write must not fail the run or block the others.
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, map[shared.UserID]int64{userB: 300}, sink.scores)
}

func TestRebuildLeaderboard_EmptyLedger(t *testing.T) {
	job := NewRebuildLeaderboard(memory.NewLedger(), newRecordingSink(), nil)
	assert.NoError(t, job.Run(context.Background()))
}

// ─────────────────────────────────────────────────────────────────────────────
// Daily digest
// ─────────────────────────────────────────────────────────────────────────────

type recordingNotifier struct {
	sent []notification.Notification
}

func (n *recordingNotifier) Send(_ context.Context, msg notification.Notification) error {
	n.sent = append(n.sent, msg)
	return nil
}

func TestDailyDigest_SummarizesTodaysActivity(t *testing.T) {
	ledger := memory.NewLedger()
	fundUser(t, ledger, userA, 100)
	fundUser(t, ledger, userB, 100)

	now := time.Date(2026, 3, 1, 20, 30, 0, 0, time.UTC)
	feed := memory.NewActivityRepository()

	ctx := context.Background()
	entry, err := activity.NewEntry(userA, activity.KindReward, shared.SourceTask, "Earned 50 RC cells", 50, now.Add(-2*time.Hour))
	require.NoError(t, err)
	require.NoError(t, feed.Append(ctx, entry))
	entry, err = activity.NewEntry(userA, activity.KindBattle, shared.SourceBattle, "Won a battle", 35, now.Add(-time.Hour))
	require.NoError(t, err)
	require.NoError(t, feed.Append(ctx, entry))

	// Yesterday's entry must not count.
	entry, err = activity.NewEntry(userA, activity.KindReward, shared.SourceTask, "Earned 50 RC cells", 50, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.NoError(t, feed.Append(ctx, entry))

	notifier := &recordingNotifier{}
	job := NewDailyDigest(ledger, feed, notifier, nil)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(ctx))

	// userB had no activity today and is skipped.
	require.Len(t, notifier.sent, 1)
	msg := notifier.sent[0]
	assert.Equal(t, userA, msg.UserID)
	assert.Equal(t, notification.TypeDailyDigest, msg.Type)
	assert.Equal(t, int64(85), msg.Data["rc_earned"])
	assert.Equal(t, 2, msg.Data["entries"])
	assert.Equal(t, 1, msg.Data["battles_fought"])
	assert.Equal(t, 0, msg.Data["achievements_unlocked"])
}

func TestDailyDigest_NoUsersNoSends(t *testing.T) {
	notifier := &recordingNotifier{}
	job := NewDailyDigest(memory.NewLedger(), memory.NewActivityRepository(), notifier, nil)

	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, notifier.sent)
}
