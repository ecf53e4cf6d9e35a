package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a unit of background work run on a schedule
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// RunRecorder receives the outcome of every job run
type RunRecorder interface {
	RecordJobRun(job string, duration time.Duration, success bool)
}

// Scheduler runs jobs on cron schedules. A job still running when its next
// tick arrives is skipped for that tick.
type Scheduler struct {
	c        *cron.Cron
	parser   cron.Parser
	recorder RunRecorder
	timeout  time.Duration
	running  bool
	mu       sync.Mutex
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	Location *time.Location // default UTC
	Timeout  time.Duration  // per-run timeout (default 2 minutes)
	Recorder RunRecorder    // optional
}

// NewScheduler creates a scheduler. Schedules accept five-field cron
// expressions and descriptors such as "@every 15m" or "@hourly".
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Scheduler{
		c: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(cfg.Location),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		parser:   parser,
		recorder: cfg.Recorder,
		timeout:  cfg.Timeout,
	}
}

// Add registers a job under a schedule
func (s *Scheduler) Add(schedule string, job Job) error {
	if _, err := s.parser.Parse(schedule); err != nil {
		return fmt.Errorf("job %s: invalid schedule %q: %w", job.Name(), schedule, err)
	}
	if _, err := s.c.AddFunc(schedule, func() { s.RunNow(context.Background(), job) }); err != nil {
		return fmt.Errorf("job %s: %w", job.Name(), err)
	}
	slog.Info("job scheduled", slog.String("job", job.Name()), slog.String("schedule", schedule))
	return nil
}

// Start begins running scheduled jobs
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.c.Start()
}

// Stop stops scheduling and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	select {
	case <-s.c.Stop().Done():
	case <-ctx.Done():
		slog.Warn("scheduler stopped before running jobs finished")
	}
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunNow runs a job once with the scheduler's timeout, logging and recording
// the outcome. Panics are recovered and count as failures.
func (s *Scheduler) RunNow(ctx context.Context, job Job) (err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
			slog.Error("job panicked",
				slog.String("job", job.Name()),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())),
			)
		}

		elapsed := time.Since(start)
		if s.recorder != nil {
			s.recorder.RecordJobRun(job.Name(), elapsed, err == nil)
		}
		if err != nil {
			slog.Error("job failed",
				slog.String("job", job.Name()),
				slog.Duration("duration", elapsed),
				slog.String("error", err.Error()),
			)
		}
	}()

	return job.Run(ctx)
}
