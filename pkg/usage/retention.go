package usage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"storymaster/arbiter/pkg/config"
)

// Scheduler prunes the usage ledger on a cron schedule.
type Scheduler struct {
	ledger *Ledger
	cfg    config.UsageConfig
	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a retention scheduler for the ledger.
func NewScheduler(ledger *Ledger, cfg config.UsageConfig, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		ledger: ledger,
		cfg:    cfg,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start begins scheduled pruning. With RetentionDays of zero or an empty
// schedule the scheduler does nothing. Common cron expressions:
//
//	"0 3 * * *"   daily at 3 AM
//	"0 */6 * * *" every 6 hours
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.RetentionDays <= 0 || s.cfg.RetentionSchedule == "" {
		s.logger.Info("usage retention not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.cfg.RetentionSchedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.cfg.RetentionSchedule, err)
	}

	if _, err := s.cron.AddFunc(s.cfg.RetentionSchedule, func() {
		s.runPruning(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule usage pruning: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("usage retention scheduler started",
		"schedule", s.cfg.RetentionSchedule,
		"retention_days", s.cfg.RetentionDays,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// runPruning executes one pruning cycle.
func (s *Scheduler) runPruning(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -s.cfg.RetentionDays)

	deleted, err := s.ledger.PruneBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("scheduled usage pruning failed", "error", err)
		return
	}

	if deleted > 0 {
		s.logger.Info("scheduled usage pruning completed", "deleted", deleted)
	} else {
		s.logger.Debug("scheduled usage pruning completed, nothing to delete")
	}
}

// Stop stops the scheduler and waits for any running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("usage retention scheduler stopped")
	}
}

// IsRunning reports whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
