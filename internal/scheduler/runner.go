package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// Job is one unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Runner struct {
	schedule *Schedule
	locker   Locker
	lockTTL  time.Duration
	job      Job
	logger   *slog.Logger
	now      func() time.Time
}

func NewRunner(schedule *Schedule, locker Locker, lockTTL time.Duration, job Job, logger *slog.Logger) *Runner {
	if lockTTL <= 0 {
		lockTTL = time.Hour
	}
	return &Runner{
		schedule: schedule,
		locker:   locker,
		lockTTL:  lockTTL,
		job:      job,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run waits for each occurrence of the schedule and fires the job until ctx
// is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("scheduler started", "job", r.job.Name(), "rule", r.schedule.String())

	for {
		next := r.schedule.Next(r.now())
		if next.IsZero() {
			r.logger.Info("schedule exhausted", "job", r.job.Name())
			return nil
		}
		r.logger.Info("next run scheduled", "job", r.job.Name(), "at", next)

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			r.logger.Info("scheduler stopped", "job", r.job.Name())
			return ctx.Err()
		case <-timer.C:
		}

		r.Fire(ctx, next)
	}
}

// Fire runs the job for one occurrence if this process wins its lock.
// Job errors and panics are logged, never returned.
func (r *Runner) Fire(ctx context.Context, occurrence time.Time) bool {
	key := fmt.Sprintf("%s:%d", r.job.Name(), occurrence.Unix())
	acquired, err := r.locker.Acquire(ctx, key, r.lockTTL)
	if err != nil {
		r.logger.Error("failed to acquire run lock", "job", r.job.Name(), "key", key, "error", err)
		return false
	}
	if !acquired {
		r.logger.Info("occurrence already claimed", "job", r.job.Name(), "key", key)
		return false
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("scheduled job panicked",
				"job", r.job.Name(),
				"error", rec,
				"stack", string(debug.Stack()))
		}
	}()

	start := time.Now()
	if err := r.job.Run(ctx); err != nil {
		r.logger.Error("scheduled job failed", "job", r.job.Name(), "error", err)
		return true
	}
	r.logger.Info("scheduled job finished", "job", r.job.Name(), "duration_ms", time.Since(start).Milliseconds())
	return true
}
