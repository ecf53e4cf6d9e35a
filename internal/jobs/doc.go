// Package jobs runs periodic maintenance outside the request path.
//
// The Scheduler wraps robfig/cron. Each Job gets its own timeout context and a
// run that is still in progress when the next tick fires is skipped:
//
//	scheduler := jobs.NewScheduler(jobs.SchedulerConfig{Timeout: 2 * time.Minute})
//	_ = scheduler.Add(cfg.Jobs.EventCompletionSchedule, jobs.NewEventCompletionJob(events))
//	scheduler.Start()
//	defer scheduler.Stop(ctx)
//
// A failing run is logged and counted; it is not retried before the next tick.
package jobs
