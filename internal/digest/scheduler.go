package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"expenses/internal/log"
)

// Scheduler runs a job on a standard five-field cron spec.
type Scheduler struct {
	cron    *cron.Cron
	logger  *log.Logger
	timeout time.Duration
}

// NewScheduler registers job under spec. Overlapping runs are skipped and
// panics are recovered so one bad run cannot stop the schedule.
func NewScheduler(spec string, job func(context.Context) error, timeout time.Duration, logger *log.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentDigest)

	s := &Scheduler{logger: logger, timeout: timeout}
	s.cron = cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))

	if _, err := s.cron.AddFunc(spec, func() { s.run(job) }); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) run(job func(context.Context) error) {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	if err := job(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Scheduled job failed", log.FieldError, err)
		return
	}
	s.logger.InfoContext(ctx, "Scheduled job completed", log.FieldDuration, time.Since(start).Milliseconds())
}

// Next reports the next activation time, zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Run starts the schedule and blocks until ctx is done, then waits for a
// running job to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	s.logger.InfoContext(ctx, "Digest scheduler started", "next", s.Next())
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("Digest scheduler stopped")
}
