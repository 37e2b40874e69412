package progress_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/progress"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
	"github.com/blackreaper-app/blackreaper-engine/internal/infrastructure/persistence/memory"
)

const testUser = shared.UserID("7ed99bd0-87b2-4dbb-a97b-596c3f29c49b")

// capturingBus records published events for assertions.
type capturingBus struct {
	mu     sync.Mutex
	events []shared.Event
}

func (b *capturingBus) Publish(event shared.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *capturingBus) ofType(t shared.EventType) []shared.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []shared.Event
	for _, e := range b.events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}

// recordingObserver captures forwarded counter values.
type recordingObserver struct {
	mu    sync.Mutex
	calls []observedCall
}

type observedCall struct {
	metric shared.Metric
	value  int64
}

func (o *recordingObserver) CounterChanged(ctx context.Context, userID shared.UserID, metric shared.Metric, newValue int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, observedCall{metric: metric, value: newValue})
	return nil
}

func newTestEngine() (*progress.Engine, *capturingBus) {
	bus := &capturingBus{}
	return progress.NewEngine(memory.NewLedger(), bus, nil), bus
}

func TestApplyReward_Grant(t *testing.T) {
	engine, bus := newTestEngine()
	ctx := context.Background()

	result, err := engine.ApplyReward(ctx, testUser, 50, shared.SourceTask)
	require.NoError(t, err)
	assert.Equal(t, int64(50), result.NewBalance.Int64())
	assert.Equal(t, 1, result.NewLevel.Int())
	assert.False(t, result.LeveledUp)

	rewards := bus.ofType(shared.EventRewardApplied)
	require.Len(t, rewards, 1)
	e := rewards[0].(shared.RewardAppliedEvent)
	assert.Equal(t, int64(50), e.Delta)
	assert.Equal(t, "task", e.Source)
}

func TestApplyReward_ClampsAtZero(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	_, err := engine.ApplyReward(ctx, testUser, 100, shared.SourceTask)
	require.NoError(t, err)

	result, err := engine.ApplyReward(ctx, testUser, -500, shared.SourceBattle)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.NewBalance.Int64())
	assert.False(t, result.LeveledUp)
}

func TestApplyReward_LevelUp(t *testing.T) {
	engine, bus := newTestEngine()
	ctx := context.Background()

	result, err := engine.ApplyReward(ctx, testUser, 1000, shared.SourcePomodoro)
	require.NoError(t, err)
	assert.True(t, result.LeveledUp)
	assert.Equal(t, 2, result.NewLevel.Int())

	levelUps := bus.ofType(shared.EventLevelUp)
	require.Len(t, levelUps, 1)
	e := levelUps[0].(shared.LevelUpEvent)
	assert.Equal(t, 1, e.OldLevel)
	assert.Equal(t, 2, e.NewLevel)
}

func TestApplyReward_ForwardsDerivedMetrics(t *testing.T) {
	engine, _ := newTestEngine()
	observer := &recordingObserver{}
	engine.SetObserver(observer)
	ctx := context.Background()

	_, err := engine.ApplyReward(ctx, testUser, 1000, shared.SourceTask)
	require.NoError(t, err)

	// A grant forwards the balance; a level-up additionally forwards the level.
	require.Len(t, observer.calls, 2)
	assert.Equal(t, shared.MetricRCBalance, observer.calls[0].metric)
	assert.Equal(t, int64(1000), observer.calls[0].value)
	assert.Equal(t, shared.MetricLevel, observer.calls[1].metric)
	assert.Equal(t, int64(2), observer.calls[1].value)

	// A pure spend forwards nothing.
	observer.calls = nil
	_, err = engine.ApplyReward(ctx, testUser, -100, shared.SourceBattle)
	require.NoError(t, err)
	assert.Empty(t, observer.calls)
}

func TestApplyReward_EmptyUser(t *testing.T) {
	engine, _ := newTestEngine()

	_, err := engine.ApplyReward(context.Background(), "", 50, shared.SourceTask)
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
}

func TestIncrementCounter(t *testing.T) {
	engine, _ := newTestEngine()
	observer := &recordingObserver{}
	engine.SetObserver(observer)
	ctx := context.Background()

	value, err := engine.IncrementCounter(ctx, testUser, shared.MetricTasksCompleted, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), value)

	value, err = engine.IncrementCounter(ctx, testUser, shared.MetricTasksCompleted, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), value)

	require.Len(t, observer.calls, 2)
	assert.Equal(t, observedCall{shared.MetricTasksCompleted, 1}, observer.calls[0])
	assert.Equal(t, observedCall{shared.MetricTasksCompleted, 3}, observer.calls[1])
}

func TestIncrementCounter_InvalidMetric(t *testing.T) {
	engine, _ := newTestEngine()
	observer := &recordingObserver{}
	engine.SetObserver(observer)
	ctx := context.Background()

	_, err := engine.IncrementCounter(ctx, testUser, shared.Metric("bogus"), 1)
	assert.ErrorIs(t, err, shared.ErrInvalidMetric)

	// Derived metrics are not incrementable either.
	_, err = engine.IncrementCounter(ctx, testUser, shared.MetricRCBalance, 1)
	assert.ErrorIs(t, err, shared.ErrInvalidMetric)

	// No counter was touched and nothing was forwarded.
	assert.Empty(t, observer.calls)
	record, err := engine.Ledger().Get(ctx, testUser)
	require.NoError(t, err)
	assert.Empty(t, record.Counters)
}

func TestIncrementCounter_ZeroAmountReadsCurrent(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	_, err := engine.IncrementCounter(ctx, testUser, shared.MetricPomodoros, 5)
	require.NoError(t, err)

	value, err := engine.IncrementCounter(ctx, testUser, shared.MetricPomodoros, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), value)
}

func TestRecordLogin_StreakLifecycle(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()
	day1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	// First ever login starts the streak at one.
	result, err := engine.RecordLogin(ctx, testUser, day1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Streak)
	assert.True(t, result.Changed)

	// Same-day repeat changes nothing.
	result, err = engine.RecordLogin(ctx, testUser, day1.Add(8*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Streak)
	assert.False(t, result.Changed)

	// Next calendar day extends the streak.
	result, err = engine.RecordLogin(ctx, testUser, day1.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Streak)
	assert.True(t, result.Changed)

	// A missed day resets to one.
	result, err = engine.RecordLogin(ctx, testUser, day1.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Streak)
	assert.True(t, result.Changed)
}

func TestRecordLogin_PersistsLastLogin(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	_, err := engine.RecordLogin(ctx, testUser, at)
	require.NoError(t, err)

	record, err := engine.Ledger().Get(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, at, record.LastLoginAt)
	assert.Equal(t, int64(1), record.Counter(shared.MetricLoginStreak))
}
