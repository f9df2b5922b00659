package notification

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Runner executes one automatic notification pass.
type Runner interface {
	RunAutomaticPass(ctx context.Context) ([]*LogEntry, error)
}

// Scheduler owns the periodic re-check. It runs one pass immediately, then
// one per interval, and stops when its context is cancelled. A tick that
// lands while a pass is still running is skipped.
type Scheduler struct {
	runner   Runner
	interval time.Duration
}

func NewScheduler(runner Runner, interval time.Duration) *Scheduler {
	return &Scheduler{runner: runner, interval: interval}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.runOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	entries, err := s.runner.RunAutomaticPass(ctx)

	switch {
	case errors.Is(err, ErrPassInFlight):
		slog.Debug("notification pass still running, tick skipped")
	case err != nil:
		slog.Error("notification pass failed", "error", err)
	case len(entries) > 0:
		slog.Info("notification pass completed", "entries", len(entries))
	}
}
