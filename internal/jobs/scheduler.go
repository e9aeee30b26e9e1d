// Package jobs runs periodic background tasks on a cron schedule.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron"

	"github.com/aidar/teamflow/internal/metrics"
)

// defaultJobTimeout bounds a single job run
const defaultJobTimeout = 30 * time.Second

// Job is one unit of periodic work
type Job func(ctx context.Context) error

// Scheduler wraps a cron runner and records every run
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration
}

// NewScheduler creates a stopped scheduler
func NewScheduler(logger *slog.Logger, m *metrics.Metrics) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		logger:  logger,
		metrics: m,
		timeout: defaultJobTimeout,
	}
}

// Register schedules job under name with a cron spec such as "@every 1m"
func (s *Scheduler) Register(name, spec string, job Job) error {
	return s.cron.AddFunc(spec, func() {
		s.run(name, job)
	})
}

func (s *Scheduler) run(name string, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	err := job(ctx)
	s.metrics.JobRun(name, time.Since(start), err)

	if err != nil {
		s.logger.Error("job failed", slog.String("job", name), slog.String("error", err.Error()))
		return
	}
	s.logger.Debug("job finished", slog.String("job", name), slog.Duration("duration", time.Since(start)))
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling new runs
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
