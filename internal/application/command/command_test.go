package command_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackreaper-app/blackreaper-engine/internal/application/command"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/progress"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
	"github.com/blackreaper-app/blackreaper-engine/internal/infrastructure/persistence/memory"
)

const testUserID = "7ed99bd0-87b2-4dbb-a97b-596c3f29c49b"

func newTestEngine() *progress.Engine {
	return progress.NewEngine(memory.NewLedger(), nil, nil)
}

func TestCompleteTask(t *testing.T) {
	engine := newTestEngine()
	handler := command.NewCompleteTaskHandler(engine, command.DefaultTaskRewardRC, nil)
	ctx := context.Background()

	result, err := handler.Handle(ctx, command.CompleteTaskCommand{
		UserID: testUserID,
		TaskID: "task-1",
		Title:  "Write report",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(50), result.NewBalance)
	assert.Equal(t, 1, result.NewLevel)
	assert.False(t, result.LeveledUp)
	assert.Equal(t, int64(1), result.TasksCompleted)

	// Second completion stacks.
	result, err = handler.Handle(ctx, command.CompleteTaskCommand{UserID: testUserID, TaskID: "task-2"})
	require.NoError(t, err)
	assert.Equal(t, int64(100), result.NewBalance)
	assert.Equal(t, int64(2), result.TasksCompleted)
}

func TestCompleteTask_Validation(t *testing.T) {
	handler := command.NewCompleteTaskHandler(newTestEngine(), command.DefaultTaskRewardRC, nil)
	ctx := context.Background()

	_, err := handler.Handle(ctx, command.CompleteTaskCommand{TaskID: "task-1"})
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	_, err = handler.Handle(ctx, command.CompleteTaskCommand{UserID: testUserID})
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	_, err = handler.Handle(ctx, command.CompleteTaskCommand{UserID: "not-a-uuid", TaskID: "task-1"})
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestFinishPomodoro_WorkSession(t *testing.T) {
	engine := newTestEngine()
	handler := command.NewFinishPomodoroHandler(engine, nil)
	ctx := context.Background()

	result, err := handler.Handle(ctx, command.FinishPomodoroCommand{
		UserID:    testUserID,
		SessionID: "session-1",
		Kind:      command.SessionWork,
		Minutes:   25,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(25), result.RewardRC)
	assert.Equal(t, int64(25), result.NewBalance)
	assert.Equal(t, int64(1), result.Pomodoros)
}

func TestFinishPomodoro_CapsExtremeSessions(t *testing.T) {
	handler := command.NewFinishPomodoroHandler(newTestEngine(), nil)

	result, err := handler.Handle(context.Background(), command.FinishPomodoroCommand{
		UserID:  testUserID,
		Kind:    command.SessionWork,
		Minutes: 10_000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(command.MaxSessionMinutes), result.RewardRC)
}

func TestFinishPomodoro_BreakEarnsNothing(t *testing.T) {
	engine := newTestEngine()
	handler := command.NewFinishPomodoroHandler(engine, nil)
	ctx := context.Background()

	result, err := handler.Handle(ctx, command.FinishPomodoroCommand{
		UserID:  testUserID,
		Kind:    command.SessionBreak,
		Minutes: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.RewardRC)
	assert.Equal(t, int64(0), result.Pomodoros)

	record, err := engine.Ledger().Get(ctx, shared.UserID(testUserID))
	require.NoError(t, err)
	assert.Equal(t, int64(0), record.Balance.Int64())
	assert.Equal(t, int64(0), record.Counter(shared.MetricPomodoros))
}

func TestFinishPomodoro_ZeroMinuteWorkStillCounts(t *testing.T) {
	handler := command.NewFinishPomodoroHandler(newTestEngine(), nil)

	result, err := handler.Handle(context.Background(), command.FinishPomodoroCommand{
		UserID:  testUserID,
		Kind:    command.SessionWork,
		Minutes: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.RewardRC)
	assert.Equal(t, int64(1), result.Pomodoros)
}

func TestFinishPomodoro_Validation(t *testing.T) {
	handler := command.NewFinishPomodoroHandler(newTestEngine(), nil)
	ctx := context.Background()

	_, err := handler.Handle(ctx, command.FinishPomodoroCommand{UserID: testUserID, Kind: "nap"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = handler.Handle(ctx, command.FinishPomodoroCommand{UserID: testUserID, Kind: command.SessionWork, Minutes: -1})
	assert.ErrorIs(t, err, shared.ErrNegativeValue)
}

func TestRecordJournalEntry_CounterOnly(t *testing.T) {
	engine := newTestEngine()
	handler := command.NewRecordJournalEntryHandler(engine, nil)
	ctx := context.Background()

	result, err := handler.Handle(ctx, command.RecordJournalEntryCommand{
		UserID:  testUserID,
		EntryID: "entry-1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.JournalEntries)

	// Journal entries never grant RC directly.
	record, err := engine.Ledger().Get(ctx, shared.UserID(testUserID))
	require.NoError(t, err)
	assert.Equal(t, int64(0), record.Balance.Int64())
	assert.Equal(t, int64(1), record.Counter(shared.MetricJournalEntries))
}

func TestRecordLogin_DefaultsToNow(t *testing.T) {
	handler := command.NewRecordLoginHandler(newTestEngine(), nil)

	result, err := handler.Handle(context.Background(), command.RecordLoginCommand{UserID: testUserID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Streak)
	assert.True(t, result.Changed)
	assert.WithinDuration(t, time.Now().UTC(), result.RecordedAt, 5*time.Second)
}

func TestRecordLogin_SameDayRepeat(t *testing.T) {
	handler := command.NewRecordLoginHandler(newTestEngine(), nil)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	result, err := handler.Handle(ctx, command.RecordLoginCommand{UserID: testUserID, At: at})
	require.NoError(t, err)
	assert.True(t, result.Changed)

	result, err = handler.Handle(ctx, command.RecordLoginCommand{UserID: testUserID, At: at.Add(time.Hour)})
	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Equal(t, int64(1), result.Streak)
}
