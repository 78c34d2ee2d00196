package watch

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler runs periodic full rebuilds in daemon mode.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// NewScheduler creates an idle scheduler.
func NewScheduler(logger *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{scheduler: s, logger: logger}, nil
}

// ScheduleRebuild registers rebuild to run every interval. The interval
// string uses Go duration syntax ("30m", "1h").
func (s *Scheduler) ScheduleRebuild(every string, rebuild func()) error {
	interval, err := time.ParseDuration(every)
	if err != nil {
		return fmt.Errorf("parse rebuild interval %q: %w", every, err)
	}

	_, err = s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(rebuild),
		gocron.WithName("scheduled-rebuild"),
	)
	if err != nil {
		return fmt.Errorf("schedule rebuild: %w", err)
	}

	s.logger.Info("scheduled periodic rebuild", "every", interval)
	return nil
}

// Start begins executing scheduled jobs.
func (s *Scheduler) Start() { s.scheduler.Start() }

// Stop shuts the scheduler down, waiting for running jobs.
func (s *Scheduler) Stop() error { return s.scheduler.Shutdown() }
