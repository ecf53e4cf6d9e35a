package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	n     int
	err   error
	calls int
}

func (f *fakeCompleter) CompletePastEvents(ctx context.Context) (int, error) {
	f.calls++
	return f.n, f.err
}

type runRecord struct {
	job     string
	success bool
}

type fakeRecorder struct {
	mu   sync.Mutex
	runs []runRecord
}

func (f *fakeRecorder) RecordJobRun(job string, duration time.Duration, success bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, runRecord{job: job, success: success})
}

func (f *fakeRecorder) snapshot() []runRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]runRecord(nil), f.runs...)
}

type jobFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func (j jobFunc) Name() string                  { return j.name }
func (j jobFunc) Run(ctx context.Context) error { return j.fn(ctx) }

// ============================================================================
// EventCompletionJob Tests
// ============================================================================

func TestEventCompletionJob_Run_CallsService(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{n: 3}
	job := NewEventCompletionJob(completer)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, completer.calls)
	assert.Equal(t, "event_completion", job.Name())
}

func TestEventCompletionJob_Run_PropagatesError(t *testing.T) {
	t.Parallel()

	job := NewEventCompletionJob(&fakeCompleter{err: errors.New("db down")})
	assert.EqualError(t, job.Run(context.Background()), "db down")
}

// ============================================================================
// Scheduler Tests
// ============================================================================

func TestScheduler_RunNow_RecordsOutcome(t *testing.T) {
	t.Parallel()

	recorder := &fakeRecorder{}
	s := NewScheduler(SchedulerConfig{Recorder: recorder})

	require.NoError(t, s.RunNow(context.Background(), NewEventCompletionJob(&fakeCompleter{n: 1})))
	require.Error(t, s.RunNow(context.Background(), NewEventCompletionJob(&fakeCompleter{err: errors.New("boom")})))

	assert.Equal(t, []runRecord{
		{job: "event_completion", success: true},
		{job: "event_completion", success: false},
	}, recorder.snapshot())
}

func TestScheduler_RunNow_RecoversPanic(t *testing.T) {
	t.Parallel()

	recorder := &fakeRecorder{}
	s := NewScheduler(SchedulerConfig{Recorder: recorder})

	err := s.RunNow(context.Background(), jobFunc{name: "explode", fn: func(context.Context) error {
		panic("nil map")
	}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil map")
	assert.Equal(t, []runRecord{{job: "explode", success: false}}, recorder.snapshot())
}

func TestScheduler_RunNow_AppliesTimeout(t *testing.T) {
	t.Parallel()

	s := NewScheduler(SchedulerConfig{Timeout: 10 * time.Millisecond})

	err := s.RunNow(context.Background(), jobFunc{name: "slow", fn: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScheduler_Add_InvalidSchedule(t *testing.T) {
	t.Parallel()

	s := NewScheduler(SchedulerConfig{})

	err := s.Add("every fifteen minutes", NewEventCompletionJob(&fakeCompleter{}))
	assert.Error(t, err)
	assert.NoError(t, s.Add("@every 15m", NewEventCompletionJob(&fakeCompleter{})))
	assert.NoError(t, s.Add("*/5 * * * *", NewEventCompletionJob(&fakeCompleter{})))
}

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()

	s := NewScheduler(SchedulerConfig{})
	assert.False(t, s.IsRunning())

	s.Start()
	s.Start()
	assert.True(t, s.IsRunning())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	assert.False(t, s.IsRunning())
	s.Stop(ctx)
}
