package scheduler

import (
	"context"
	"log/slog"
	"time"

	"yt_exporter/internal/domain"
)

// Runner exports one channel.
type Runner interface {
	Run(ctx context.Context, channelName string) (*domain.RunStats, error)
}

// Scheduler re-exports a channel on a fixed interval.
type Scheduler struct {
	runner      Runner
	channelName string
	interval    time.Duration
	timeout     time.Duration
	logger      *slog.Logger
}

func NewScheduler(runner Runner, channelName string, interval, timeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:      runner,
		channelName: channelName,
		interval:    interval,
		timeout:     timeout,
		logger:      logger,
	}
}

// Start runs an export immediately and then on every tick until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started",
		"channel_name", s.channelName,
		"interval", s.interval,
	)

	s.runExport(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runExport(ctx)
		}
	}
}

func (s *Scheduler) runExport(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.runner.Run(runCtx, s.channelName); err != nil {
		s.logger.Error("export failed", "channel_name", s.channelName, "error", err)
	}
}
