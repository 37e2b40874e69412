package messaging

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newSyncBus() *InMemoryEventBus {
	return NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode:     false,
		EnableMetrics: true,
	})
}

func rewardEvent() shared.Event {
	return shared.NewRewardAppliedEvent("user-1", 50, 50, 1, false, shared.SourceTask)
}

func TestInMemoryEventBus_DeliversToTypedSubscribers(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var got []shared.Event
	require.NoError(t, bus.Subscribe(shared.EventRewardApplied, func(e shared.Event) error {
		got = append(got, e)
		return nil
	}))

	require.NoError(t, bus.Publish(rewardEvent()))
	require.Len(t, got, 1)
	assert.Equal(t, shared.EventRewardApplied, got[0].EventType())
}

func TestInMemoryEventBus_TypedSubscriberIgnoresOtherTypes(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var calls int
	require.NoError(t, bus.Subscribe(shared.EventLevelUp, func(shared.Event) error {
		calls++
		return nil
	}))

	require.NoError(t, bus.Publish(rewardEvent()))
	assert.Zero(t, calls)
}

func TestInMemoryEventBus_SubscribeAllSeesEverything(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var types []shared.EventType
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		types = append(types, e.EventType())
		return nil
	}))

	require.NoError(t, bus.Publish(rewardEvent()))
	require.NoError(t, bus.Publish(shared.NewLevelUpEvent("user-1", 1, 2)))

	assert.Equal(t, []shared.EventType{shared.EventRewardApplied, shared.EventLevelUp}, types)
}

func TestInMemoryEventBus_HandlerErrorDoesNotFailPublish(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var secondCalled bool
	require.NoError(t, bus.Subscribe(shared.EventRewardApplied, func(shared.Event) error {
		return errors.New("projection broke")
	}))
	require.NoError(t, bus.Subscribe(shared.EventRewardApplied, func(shared.Event) error {
		secondCalled = true
		return nil
	}))

	require.NoError(t, bus.Publish(rewardEvent()))
	assert.True(t, secondCalled)
}

func TestInMemoryEventBus_RejectsNilArguments(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	assert.ErrorIs(t, bus.Subscribe(shared.EventRewardApplied, nil), ErrNilHandler)
	assert.ErrorIs(t, bus.SubscribeAll(nil), ErrNilHandler)
	assert.ErrorIs(t, bus.Publish(nil), ErrNilEvent)
}

func TestInMemoryEventBus_ClosedBusRejectsOperations(t *testing.T) {
	bus := newSyncBus()
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(rewardEvent()), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventRewardApplied, func(shared.Event) error { return nil }), ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(func(shared.Event) error { return nil }), ErrEventBusClosed)

	// Close is idempotent.
	assert.NoError(t, bus.Close())
}

func TestInMemoryEventBus_AsyncDeliveryCompletesBeforeClose(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 4,
	})

	const events = 25
	var delivered atomic.Int64
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		delivered.Add(1)
		return nil
	}))

	for i := 0; i < events; i++ {
		require.NoError(t, bus.Publish(rewardEvent()))
	}

	// Close waits for in-flight handlers.
	require.NoError(t, bus.Close())
	assert.Equal(t, int64(events), delivered.Load())
}

func TestInMemoryEventBus_ConcurrentPublish(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 8,
	})

	var delivered atomic.Int64
	require.NoError(t, bus.Subscribe(shared.EventRewardApplied, func(shared.Event) error {
		delivered.Add(1)
		return nil
	}))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = bus.Publish(rewardEvent())
			}
		}()
	}
	wg.Wait()

	require.NoError(t, bus.Close())
	assert.Equal(t, int64(100), delivered.Load())
}

func TestInMemoryEventBus_Metrics(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	require.NoError(t, bus.Subscribe(shared.EventRewardApplied, func(shared.Event) error {
		time.Sleep(time.Millisecond)
		return nil
	}))
	require.NoError(t, bus.Publish(rewardEvent()))
	require.NoError(t, bus.Publish(rewardEvent()))

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(2), snap.TotalPublished)
	assert.Equal(t, int64(2), snap.TotalHandlerExecs)
	assert.Equal(t, 1.0, snap.HandlerSuccessRate)
	assert.Greater(t, snap.AverageHandlerDuration, time.Duration(0))
}
