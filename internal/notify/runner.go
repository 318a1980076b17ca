package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Runner runs a DigestJob on a cron schedule in UTC.
type Runner struct {
	scheduler *gocron.Scheduler
	logger    *slog.Logger
	cancel    context.CancelFunc
}

// NewRunner schedules job with a standard 5-field cron expression.
// Runs never overlap; a run still in progress when the next one is due is skipped.
func NewRunner(ctx context.Context, job *DigestJob, cronExpr string, logger *slog.Logger) (*Runner, error) {
	ctx, cancel := context.WithCancel(ctx)

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if _, err := s.Cron(cronExpr).Do(func() {
		if _, err := job.Run(ctx); err != nil {
			logger.Error("review digest job failed", slog.Any("error", err))
		}
	}); err != nil {
		cancel()
		return nil, fmt.Errorf("schedule digest job %q: %w", cronExpr, err)
	}

	return &Runner{
		scheduler: s,
		logger:    logger,
		cancel:    cancel,
	}, nil
}

// Start begins running the schedule without blocking.
func (r *Runner) Start() {
	r.scheduler.StartAsync()
	for _, job := range r.scheduler.Jobs() {
		r.logger.Info("review digest job scheduled", slog.Time("next_run", job.NextRun()))
	}
}

// RunNow triggers the job immediately, outside the schedule. It has no effect before Start.
func (r *Runner) RunNow() {
	r.scheduler.RunAll()
}

// Stop cancels a running job and stops the schedule. It matches the shutdown hook signature.
func (r *Runner) Stop(context.Context) error {
	r.cancel()
	r.scheduler.Stop()
	return nil
}
