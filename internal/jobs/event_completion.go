package jobs

import (
	"context"
	"log/slog"
)

// EventCompleter marks past events completed and reports how many changed
type EventCompleter interface {
	CompletePastEvents(ctx context.Context) (int, error)
}

// EventCompletionJob moves scheduled events whose end (or start, when no end
// is set) has passed to completed
type EventCompletionJob struct {
	events EventCompleter
}

// NewEventCompletionJob creates the event completion job
func NewEventCompletionJob(events EventCompleter) *EventCompletionJob {
	return &EventCompletionJob{events: events}
}

// Name implements Job
func (j *EventCompletionJob) Name() string {
	return "event_completion"
}

// Run implements Job
func (j *EventCompletionJob) Run(ctx context.Context) error {
	n, err := j.events.CompletePastEvents(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("events completed", slog.Int("count", n))
	}
	return nil
}
