package query_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackreaper-app/blackreaper-engine/internal/application/query"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/achievement"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/activity"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/battle"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/progress"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
	"github.com/blackreaper-app/blackreaper-engine/internal/infrastructure/persistence/memory"
)

const testUserID = "7ed99bd0-87b2-4dbb-a97b-596c3f29c49b"

func TestGetProgress_UnknownUserReadsZeroValue(t *testing.T) {
	handler := query.NewGetProgressHandler(memory.NewLedger(), nil)

	dto, err := handler.Handle(context.Background(), query.GetProgressQuery{UserID: testUserID})
	require.NoError(t, err)

	assert.Equal(t, testUserID, dto.UserID)
	assert.Equal(t, int64(0), dto.Balance)
	assert.Equal(t, 1, dto.Level)
	assert.Equal(t, "C", dto.Rank)
	assert.Empty(t, dto.Achievements)
}

func TestGetProgress_EnrichesUnlocksFromCatalog(t *testing.T) {
	ledger := memory.NewLedger()
	catalog, err := achievement.NewCatalog([]achievement.Definition{
		{ID: "task-10", Name: "First Steps", Description: "Complete 10 tasks", Icon: "fa-tasks",
			Category: "tasks", Metric: shared.MetricTasksCompleted, Threshold: 10},
	})
	require.NoError(t, err)

	ctx := context.Background()
	userID := shared.UserID(testUserID)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err = ledger.UnlockAchievement(ctx, userID, "task-10", at)
	require.NoError(t, err)
	_, err = ledger.UnlockAchievement(ctx, userID, "unknown-id", at.Add(time.Hour))
	require.NoError(t, err)

	handler := query.NewGetProgressHandler(ledger, catalog)
	dto, err := handler.Handle(ctx, query.GetProgressQuery{UserID: testUserID})
	require.NoError(t, err)

	require.Len(t, dto.Achievements, 2)
	// Oldest first; metadata filled when the catalog knows the ID.
	assert.Equal(t, "task-10", dto.Achievements[0].AchievementID)
	assert.Equal(t, "First Steps", dto.Achievements[0].Name)
	assert.Equal(t, "fa-tasks", dto.Achievements[0].Icon)
	assert.Equal(t, "unknown-id", dto.Achievements[1].AchievementID)
	assert.Empty(t, dto.Achievements[1].Name)
}

func TestGetProgress_Validation(t *testing.T) {
	handler := query.NewGetProgressHandler(memory.NewLedger(), nil)

	_, err := handler.Handle(context.Background(), query.GetProgressQuery{})
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	_, err = handler.Handle(context.Background(), query.GetProgressQuery{UserID: "nope"})
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestGetBattleHistory(t *testing.T) {
	records := memory.NewBattleRepository()
	ctx := context.Background()
	userID := shared.UserID(testUserID)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		record := battle.Record{
			UserID:       userID,
			OpponentID:   "opponent-001",
			OpponentName: "Novice Ghoul",
			Result:       battle.ResultWin,
			RCDelta:      int64(20 + i),
			FoughtAt:     base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, records.Append(ctx, record))
	}

	handler := query.NewGetBattleHistoryHandler(records)
	dto, err := handler.Handle(ctx, query.GetBattleHistoryQuery{UserID: testUserID, Limit: 2})
	require.NoError(t, err)

	assert.Equal(t, int64(3), dto.Total)
	require.Len(t, dto.Battles, 2)
	// Newest first.
	assert.Equal(t, int64(22), dto.Battles[0].RCDelta)
	assert.Equal(t, int64(21), dto.Battles[1].RCDelta)
}

func TestGetActivityFeed(t *testing.T) {
	feed := memory.NewActivityRepository()
	ctx := context.Background()
	userID := shared.UserID(testUserID)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	messages := []string{"Earned 50 RC cells from task", "Reached level 2", "Unlocked achievement: First Steps"}
	for i, msg := range messages {
		entry, err := activity.NewEntry(userID, activity.KindReward, shared.SourceTask, msg, 0, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		require.NoError(t, feed.Append(ctx, entry))
	}

	handler := query.NewGetActivityFeedHandler(feed)
	dto, err := handler.Handle(ctx, query.GetActivityFeedQuery{UserID: testUserID})
	require.NoError(t, err)

	require.Len(t, dto.Entries, 3)
	assert.Equal(t, messages[2], dto.Entries[0].Message)

	// Since bounds the feed.
	dto, err = handler.Handle(ctx, query.GetActivityFeedQuery{UserID: testUserID, Since: base.Add(time.Minute)})
	require.NoError(t, err)
	assert.Len(t, dto.Entries, 2)
}

func TestGetProgress_ReflectsLedgerState(t *testing.T) {
	ledger := memory.NewLedger()
	ctx := context.Background()
	userID := shared.UserID(testUserID)

	_, err := ledger.Transaction(ctx, userID, func(current *progress.UserProgress) (*progress.UserProgress, error) {
		current.Balance = current.Balance.Apply(5500)
		current.Counters[shared.MetricTasksCompleted] = 42
		return current, nil
	})
	require.NoError(t, err)

	handler := query.NewGetProgressHandler(ledger, nil)
	dto, err := handler.Handle(ctx, query.GetProgressQuery{UserID: testUserID})
	require.NoError(t, err)

	assert.Equal(t, int64(5500), dto.Balance)
	assert.Equal(t, 6, dto.Level)
	assert.Equal(t, "A", dto.Rank)
	assert.Equal(t, 50, dto.LevelPercent)
	assert.Equal(t, int64(42), dto.Counters["tasksCompleted"])
}
