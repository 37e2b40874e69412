package achievement_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/achievement"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/progress"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
	"github.com/blackreaper-app/blackreaper-engine/internal/infrastructure/persistence/memory"
)

const testUser = shared.UserID("7ed99bd0-87b2-4dbb-a97b-596c3f29c49b")

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

func (b *capturingBus) unlocks() []shared.AchievementUnlockedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []shared.AchievementUnlockedEvent
	for _, e := range b.events {
		if unlock, ok := e.(shared.AchievementUnlockedEvent); ok {
			out = append(out, unlock)
		}
	}
	return out
}

func testCatalog(t *testing.T) *achievement.Catalog {
	t.Helper()
	catalog, err := achievement.NewCatalog([]achievement.Definition{
		{ID: "task-10", Name: "First Steps", Metric: shared.MetricTasksCompleted, Threshold: 10, RewardRC: 50, RewardXP: 20},
		{ID: "task-100", Name: "Worker", Metric: shared.MetricTasksCompleted, Threshold: 100, RewardRC: 200, RewardXP: 50},
		{ID: "rc-1000", Name: "Collector", Metric: shared.MetricRCBalance, Threshold: 1000, RewardXP: 50},
	})
	require.NoError(t, err)
	return catalog
}

func newTestEvaluator(t *testing.T, catalog *achievement.Catalog) (*achievement.Evaluator, *progress.Engine, progress.Ledger, *capturingBus) {
	t.Helper()
	ledger := memory.NewLedger()
	bus := &capturingBus{}
	engine := progress.NewEngine(ledger, bus, nil)
	evaluator := achievement.NewEvaluator(catalog, ledger, engine, bus, nil)
	engine.SetObserver(evaluator)
	return evaluator, engine, ledger, bus
}

func TestEvaluate_UnlocksAtThreshold(t *testing.T) {
	evaluator, _, ledger, bus := newTestEvaluator(t, testCatalog(t))
	ctx := context.Background()

	// Below threshold: nothing unlocks.
	require.NoError(t, evaluator.Evaluate(ctx, testUser, shared.MetricTasksCompleted, 9))
	unlocked, err := ledger.Unlocked(ctx, testUser)
	require.NoError(t, err)
	assert.Empty(t, unlocked)

	// Crossing the threshold unlocks exactly the qualifying definition.
	require.NoError(t, evaluator.Evaluate(ctx, testUser, shared.MetricTasksCompleted, 10))
	unlocked, err = ledger.Unlocked(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Contains(t, unlocked, shared.AchievementID("task-10"))

	events := bus.unlocks()
	require.Len(t, events, 1)
	assert.Equal(t, "task-10", events[0].AchievementID)
	assert.Equal(t, int64(50), events[0].RewardRC)
}

func TestEvaluate_AtMostOnce(t *testing.T) {
	evaluator, engine, ledger, bus := newTestEvaluator(t, testCatalog(t))
	ctx := context.Background()

	require.NoError(t, evaluator.Evaluate(ctx, testUser, shared.MetricTasksCompleted, 10))
	require.NoError(t, evaluator.Evaluate(ctx, testUser, shared.MetricTasksCompleted, 10))
	require.NoError(t, evaluator.Evaluate(ctx, testUser, shared.MetricTasksCompleted, 55))

	unlocked, err := ledger.Unlocked(ctx, testUser)
	require.NoError(t, err)
	assert.Len(t, unlocked, 1)
	assert.Len(t, bus.unlocks(), 1)

	// The RC reward was granted exactly once.
	record, err := engine.Ledger().Get(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, int64(50), record.Balance.Int64())
	assert.Equal(t, int64(20), record.Counter(shared.MetricXP))
}

func TestEvaluate_MultipleThresholdsInOnePass(t *testing.T) {
	evaluator, _, ledger, _ := newTestEvaluator(t, testCatalog(t))
	ctx := context.Background()

	// A backfilled counter can cross several thresholds at once.
	require.NoError(t, evaluator.Evaluate(ctx, testUser, shared.MetricTasksCompleted, 150))

	unlocked, err := ledger.Unlocked(ctx, testUser)
	require.NoError(t, err)
	assert.Len(t, unlocked, 2)
	assert.Contains(t, unlocked, shared.AchievementID("task-10"))
	assert.Contains(t, unlocked, shared.AchievementID("task-100"))
}

func TestEvaluate_NilCatalogIsNoop(t *testing.T) {
	evaluator, _, ledger, _ := newTestEvaluator(t, nil)
	assert.False(t, evaluator.Enabled())

	ctx := context.Background()
	require.NoError(t, evaluator.Evaluate(ctx, testUser, shared.MetricTasksCompleted, 1000))

	unlocked, err := ledger.Unlocked(ctx, testUser)
	require.NoError(t, err)
	assert.Empty(t, unlocked)
}

func TestCounterCascade_UnlocksThroughEngine(t *testing.T) {
	_, engine, ledger, bus := newTestEvaluator(t, testCatalog(t))
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := engine.IncrementCounter(ctx, testUser, shared.MetricTasksCompleted, 1)
		require.NoError(t, err)
	}

	unlocked, err := ledger.Unlocked(ctx, testUser)
	require.NoError(t, err)
	assert.Contains(t, unlocked, shared.AchievementID("task-10"))
	require.Len(t, bus.unlocks(), 1)

	// The unlock reward landed on the same ledger record.
	record, err := engine.Ledger().Get(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, int64(50), record.Balance.Int64())
}

func TestDerivedBalanceThreshold_UnlocksOnReward(t *testing.T) {
	_, engine, ledger, _ := newTestEvaluator(t, testCatalog(t))
	ctx := context.Background()

	_, err := engine.ApplyReward(ctx, testUser, 1200, shared.SourceTask)
	require.NoError(t, err)

	// The committed balance rode the observer path and crossed rc-1000.
	unlocked, err := ledger.Unlocked(ctx, testUser)
	require.NoError(t, err)
	assert.Contains(t, unlocked, shared.AchievementID("rc-1000"))
}

func TestCatalog_ByMetricSortedAscending(t *testing.T) {
	catalog := testCatalog(t)

	defs := catalog.ByMetric(shared.MetricTasksCompleted)
	require.Len(t, defs, 2)
	assert.Equal(t, int64(10), defs[0].Threshold)
	assert.Equal(t, int64(100), defs[1].Threshold)
}

func TestNewCatalog_RejectsInvalidDefinitions(t *testing.T) {
	_, err := achievement.NewCatalog([]achievement.Definition{
		{ID: "bad", Metric: shared.Metric("bogus"), Threshold: 1},
	})
	assert.Error(t, err)

	_, err = achievement.NewCatalog([]achievement.Definition{
		{ID: "dup", Metric: shared.MetricPomodoros, Threshold: 1},
		{ID: "dup", Metric: shared.MetricPomodoros, Threshold: 2},
	})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	_, err = achievement.NewCatalog([]achievement.Definition{
		{ID: "neg", Metric: shared.MetricPomodoros, Threshold: 0},
	})
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
}
