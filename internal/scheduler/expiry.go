// Package scheduler runs the background sweeps: staged checkouts that
// were never approved are transitioned to expired so later approval
// attempts answer with the expiry status instead of charging.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"installment-platform/config"
	"installment-platform/internal/core/ports"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// ExpirySweeper periodically marks stale pending transactions expired.
type ExpirySweeper struct {
	pendingRepo ports.PendingTransactionRepository
	interval    time.Duration
	ttl         time.Duration
	scheduler   gocron.Scheduler
	log         zerolog.Logger
}

// NewExpirySweeper creates the sweeper from config.
func NewExpirySweeper(pendingRepo ports.PendingTransactionRepository, cfg config.SchedulerConfig, log zerolog.Logger) (*ExpirySweeper, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}
	return &ExpirySweeper{
		pendingRepo: pendingRepo,
		interval:    cfg.ExpiryInterval,
		ttl:         cfg.PendingTTL,
		scheduler:   scheduler,
		log:         log,
	}, nil
}

// Start schedules the sweep and begins running it.
func (s *ExpirySweeper) Start(ctx context.Context) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.Sweep(ctx) }),
	)
	if err != nil {
		return fmt.Errorf("scheduling expiry sweep: %w", err)
	}
	s.scheduler.Start()
	s.log.Info().
		Dur("interval", s.interval).
		Dur("pending_ttl", s.ttl).
		Msg("expiry sweeper started")
	return nil
}

// Stop shuts the scheduler down, waiting for a running sweep.
func (s *ExpirySweeper) Stop() error {
	return s.scheduler.Shutdown()
}

// Sweep runs one pass. Exposed for tests and manual triggering.
func (s *ExpirySweeper) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.ttl)
	swept, err := s.pendingRepo.MarkExpired(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("expiry sweep failed")
		return
	}
	if swept > 0 {
		s.log.Info().Int64("count", swept).Time("cutoff", cutoff).Msg("pending transactions expired")
	}
}
