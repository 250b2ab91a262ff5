package rates

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule refreshes every pair every five minutes.
const DefaultSchedule = "@every 5m"

// Scheduler runs the background refresh sweep.
type Scheduler struct {
	cron     *cron.Cron
	cache    *Cache
	schedule string
	timeout  time.Duration
	logger   *slog.Logger
}

func NewScheduler(cache *Cache, schedule string, timeout time.Duration, logger *slog.Logger) *Scheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))

	return &Scheduler{
		cron:     c,
		cache:    cache,
		schedule: schedule,
		timeout:  timeout,
		logger:   logger,
	}
}

// Start registers the sweep and starts the cron scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		s.logger.Error("failed to schedule rate sweep", "error", err)
		return err
	}
	s.logger.Info("scheduled rate sweep", "schedule", s.schedule)
	s.cron.Start()
	return nil
}

func (s *Scheduler) sweep() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	s.cache.RefreshAll(ctx)
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
