package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/docbake/internal/logfields"
)

// Scheduler wraps a gocron scheduler running the periodic full resync.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(logger *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{scheduler: s, logger: logger}, nil
}

// ScheduleResync runs fn every interval. Overlapping runs are skipped.
// Returns the job ID for later management.
func (s *Scheduler) ScheduleResync(interval time.Duration, fn func()) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.executeResync, fn),
		gocron.WithName("asset-resync"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create resync job: %w", err)
	}
	return job.ID().String(), nil
}

func (s *Scheduler) executeResync(fn func()) {
	start := time.Now()
	s.logger.Info("Executing scheduled resync", logfields.Stage("resync"))
	fn()
	s.logger.Debug("Scheduled resync done",
		logfields.Stage("resync"),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
}

// Start begins the scheduler.
func (s *Scheduler) Start(_ context.Context) {
	s.logger.Debug("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler, waiting for a running job.
func (s *Scheduler) Stop(_ context.Context) error {
	s.logger.Debug("Stopping scheduler")
	return s.scheduler.Shutdown()
}
