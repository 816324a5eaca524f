package jobs

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Job is a recurring task. Next returns the first run time strictly after now.
type Job struct {
	Name string
	Next func(now time.Time) time.Time
	Run  func(ctx context.Context) error
}

// Scheduler runs jobs on their own timers until stopped. A failing run is
// logged and the job is rescheduled.
type Scheduler struct {
	jobs    []Job
	log     zerolog.Logger
	now     func() time.Time
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool

	// Metrics
	runs      atomic.Int64
	failures  atomic.Int64
	startTime time.Time
}

// NewScheduler creates a scheduler for jobs
func NewScheduler(log zerolog.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{
		jobs:   jobs,
		log:    log.With().Str("component", "scheduler").Logger(),
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
}

// Start launches one loop per job
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("scheduler already running")
	}
	s.startTime = s.now()

	for _, job := range s.jobs {
		s.log.Info().Str("job", job.Name).Time("next_run", job.Next(s.startTime)).Msg("job scheduled")
		s.wg.Add(1)
		go s.loop(ctx, job)
	}
	return nil
}

// Stop gracefully stops every job loop, waiting for in-flight runs
func (s *Scheduler) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	close(s.stopCh)
	s.wg.Wait()

	s.log.Info().
		Int64("runs", s.runs.Load()).
		Int64("failures", s.failures.Load()).
		Dur("uptime", s.now().Sub(s.startTime).Round(time.Second)).
		Msg("scheduler stopped")
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

// GetMetrics returns current scheduler metrics
func (s *Scheduler) GetMetrics() map[string]interface{} {
	return map[string]interface{}{
		"running":  s.running.Load(),
		"jobs":     len(s.jobs),
		"runs":     s.runs.Load(),
		"failures": s.failures.Load(),
	}
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()

	for {
		wait := job.Next(s.now()).Sub(s.now())
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.stopCh:
			timer.Stop()
			return
		case <-timer.C:
			s.runOnce(ctx, job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			s.failures.Add(1)
			s.log.Error().Str("job", job.Name).Interface("panic", r).Msg("job panic recovered")
		}
	}()

	start := s.now()
	s.runs.Add(1)
	if err := job.Run(ctx); err != nil {
		s.failures.Add(1)
		s.log.Error().Err(err).Str("job", job.Name).Msg("job failed")
		return
	}
	s.log.Info().Str("job", job.Name).Dur("took", s.now().Sub(start)).Msg("job finished")
}

// Daily fires at local midnight in loc.
func Daily(loc *time.Location) func(time.Time) time.Time {
	return func(now time.Time) time.Time {
		local := now.In(loc)
		return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	}
}

// Monthly fires at local midnight on the first day of each month in loc.
func Monthly(loc *time.Location) func(time.Time) time.Time {
	return func(now time.Time) time.Time {
		local := now.In(loc)
		return time.Date(local.Year(), local.Month()+1, 1, 0, 0, 0, 0, loc)
	}
}

// Every fires at a fixed interval; useful for local runs.
func Every(d time.Duration) func(time.Time) time.Time {
	return func(now time.Time) time.Time {
		return now.Add(d)
	}
}
