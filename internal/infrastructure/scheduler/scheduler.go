// Package scheduler runs background maintenance jobs for the progression
// engine: reconciling the leaderboard projection against the ledger and
// sending daily activity digests. Jobs are display/notification maintenance
// only and never write into the ledger.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blackreaper-app/blackreaper-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrNilJob is returned when a nil job is registered.
	ErrNilJob = errors.New("scheduler: job cannot be nil")

	// ErrNilSchedule is returned when a nil schedule is registered.
	ErrNilSchedule = errors.New("scheduler: schedule cannot be nil")

	// ErrJobAlreadyExists is returned when a job name is registered twice.
	ErrJobAlreadyExists = errors.New("scheduler: job already registered")

	// ErrJobNotFound is returned when a job name is not registered.
	ErrJobNotFound = errors.New("scheduler: job not found")

	// ErrAlreadyRunning is returned when Start is called twice.
	ErrAlreadyRunning = errors.New("scheduler: already running")

	// ErrNotRunning is returned when Stop is called on a stopped scheduler.
	ErrNotRunning = errors.New("scheduler: not running")
)

// ══════════════════════════════════════════════════════════════════════════════
// JOB INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Job is one unit of scheduled background work.
type Job interface {
	// Name returns the unique name of the job.
	Name() string

	// Run executes the job. The context is cancelled when the scheduler
	// stops.
	Run(ctx context.Context) error
}

// Schedule decides when a job runs.
type Schedule interface {
	// Next returns the first run time strictly after t.
	Next(t time.Time) time.Time

	// String returns a human-readable representation of the schedule.
	String() string
}

// JobResult records one job execution.
type JobResult struct {
	JobName     string
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Success     bool
	Error       error
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

// Scheduler runs registered jobs on their schedules. Jobs run concurrently
// with each other but never with themselves: a job still executing when its
// next slot arrives skips that slot.
type Scheduler struct {
	mu sync.Mutex

	log      *logger.Logger
	jobs     map[string]*scheduledJob
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lastRuns map[string]JobResult
}

type scheduledJob struct {
	job      Job
	schedule Schedule
	nextRun  time.Time
	inFlight bool
	runs     int64
	failures int64
}

// New creates an empty scheduler.
func New(log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Default()
	}
	return &Scheduler{
		log:      log.With(logger.Component("scheduler")),
		jobs:     make(map[string]*scheduledJob),
		lastRuns: make(map[string]JobResult),
	}
}

// Register adds a job. Registration after Start is allowed; the job joins
// the loop at its first due time.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	if job == nil {
		return ErrNilJob
	}
	if schedule == nil {
		return ErrNilSchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}

	next := schedule.Next(time.Now().UTC())
	s.jobs[name] = &scheduledJob{
		job:      job,
		schedule: schedule,
		nextRun:  next,
	}

	s.log.Info("job registered",
		logger.String("job", name),
		logger.String("schedule", schedule.String()),
		logger.Time("next_run", next),
	)
	return nil
}

// Start begins the scheduling loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	jobCount := len(s.jobs)
	s.mu.Unlock()

	s.log.Info("scheduler started", logger.Int("jobs", jobCount))

	s.wg.Add(1)
	go s.loop(ctx)
	return nil
}

// Stop cancels the loop and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("scheduler stopped")
	return nil
}

// RunNow executes a registered job immediately, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, jobName string) error {
	s.mu.Lock()
	sj, exists := s.jobs[jobName]
	s.mu.Unlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}
	return s.execute(ctx, sj)
}

// LastRun returns the most recent result for a job, if it has run.
func (s *Scheduler) LastRun(jobName string) (JobResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, ok := s.lastRuns[jobName]
	return result, ok
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.dispatchDue(ctx, now.UTC())
		}
	}
}

func (s *Scheduler) dispatchDue(ctx context.Context, now time.Time) {
	s.mu.Lock()
	due := make([]*scheduledJob, 0)
	for _, sj := range s.jobs {
		if sj.inFlight || now.Before(sj.nextRun) {
			continue
		}
		sj.inFlight = true
		sj.nextRun = sj.schedule.Next(now)
		due = append(due, sj)
	}
	s.mu.Unlock()

	for _, sj := range due {
		s.wg.Add(1)
		go func(sj *scheduledJob) {
			defer s.wg.Done()
			_ = s.execute(ctx, sj)
			s.mu.Lock()
			sj.inFlight = false
			s.mu.Unlock()
		}(sj)
	}
}

// execute runs one job with panic recovery and records the result.
func (s *Scheduler) execute(ctx context.Context, sj *scheduledJob) (err error) {
	name := sj.job.Name()
	started := time.Now().UTC()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scheduler: job %s panicked: %v", name, r)
		}

		completed := time.Now().UTC()
		result := JobResult{
			JobName:     name,
			StartedAt:   started,
			CompletedAt: completed,
			Duration:    completed.Sub(started),
			Success:     err == nil,
			Error:       err,
		}

		s.mu.Lock()
		s.lastRuns[name] = result
		sj.runs++
		if err != nil {
			sj.failures++
		}
		s.mu.Unlock()

		if err != nil {
			s.log.Error("job failed",
				logger.String("job", name),
				logger.Duration("duration", result.Duration),
				logger.Err(err),
			)
		} else {
			s.log.Info("job completed",
				logger.String("job", name),
				logger.Duration("duration", result.Duration),
			)
		}
	}()

	err = sj.job.Run(ctx)
	return err
}
