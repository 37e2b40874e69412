package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type funcJob struct {
	name string
	run  func(ctx context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Run(ctx context.Context) error { return j.run(ctx) }

func TestIntervalSchedule(t *testing.T) {
	s := Every(5 * time.Minute)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, base.Add(5*time.Minute), s.Next(base))
	assert.Equal(t, "@every 5m0s", s.String())
}

func TestDailySchedule(t *testing.T) {
	s := DailyAt(21, 0)

	morning := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 1, 21, 0, 0, 0, time.UTC), s.Next(morning))

	// At or past the slot rolls to tomorrow.
	atSlot := time.Date(2026, 3, 1, 21, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 2, 21, 0, 0, 0, time.UTC), s.Next(atSlot))

	evening := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 2, 21, 0, 0, 0, time.UTC), s.Next(evening))
}

func TestScheduler_RegisterValidation(t *testing.T) {
	s := New(nil)

	assert.ErrorIs(t, s.Register(nil, Every(time.Minute)), ErrNilJob)
	assert.ErrorIs(t, s.Register(funcJob{name: "x", run: func(context.Context) error { return nil }}, nil), ErrNilSchedule)

	job := funcJob{name: "dup", run: func(context.Context) error { return nil }}
	require.NoError(t, s.Register(job, Every(time.Minute)))
	assert.ErrorIs(t, s.Register(job, Every(time.Minute)), ErrJobAlreadyExists)
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(nil)

	var runs atomic.Int64
	job := funcJob{name: "counter", run: func(context.Context) error {
		runs.Add(1)
		return nil
	}}
	require.NoError(t, s.Register(job, Every(time.Hour)))

	require.NoError(t, s.RunNow(context.Background(), "counter"))
	assert.Equal(t, int64(1), runs.Load())

	result, ok := s.LastRun("counter")
	require.True(t, ok)
	assert.True(t, result.Success)
	assert.Equal(t, "counter", result.JobName)

	assert.ErrorIs(t, s.RunNow(context.Background(), "missing"), ErrJobNotFound)
}

func TestScheduler_RunNowRecordsFailure(t *testing.T) {
	s := New(nil)

	boom := errors.New("boom")
	job := funcJob{name: "failing", run: func(context.Context) error { return boom }}
	require.NoError(t, s.Register(job, Every(time.Hour)))

	assert.ErrorIs(t, s.RunNow(context.Background(), "failing"), boom)

	result, ok := s.LastRun("failing")
	require.True(t, ok)
	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Error, boom)
}

func TestScheduler_RecoversFromPanic(t *testing.T) {
	s := New(nil)

	job := funcJob{name: "panicky", run: func(context.Context) error { panic("kaboom") }}
	require.NoError(t, s.Register(job, Every(time.Hour)))

	err := s.RunNow(context.Background(), "panicky")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	result, ok := s.LastRun("panicky")
	require.True(t, ok)
	assert.False(t, result.Success)
}

func TestScheduler_RunsDueJobs(t *testing.T) {
	s := New(nil)

	ran := make(chan struct{}, 10)
	job := funcJob{name: "ticker", run: func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}}
	// The loop ticks once a second, so a sub-second interval means the job
	// is due on the first tick.
	require.NoError(t, s.Register(job, Every(100*time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyRunning)

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("job never ran")
	}

	require.NoError(t, s.Stop())
	assert.ErrorIs(t, s.Stop(), ErrNotRunning)
}
