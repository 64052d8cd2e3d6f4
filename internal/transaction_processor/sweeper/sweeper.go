// Package sweeper surfaces transactions stuck in PENDING. An infrastructure
// failure mid-execution leaves a record PENDING with an unknown outcome;
// blindly re-executing could double-apply balance deltas, so the sweeper
// only publishes such records to the reconciliation topic for operator-level
// handling and never mutates them.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kkariyawasam/ledger-engine/internal/config"
	"github.com/kkariyawasam/ledger-engine/internal/domain/txn"
	"github.com/kkariyawasam/ledger-engine/internal/platform/messaging/producers"
)

// Sweeper periodically scans for stale PENDING transactions
type Sweeper struct {
	records    txn.Repository
	publisher  producers.MessagePublisher
	logger     *slog.Logger
	interval   time.Duration
	batchSize  int
	pendingAge time.Duration
}

func NewSweeper(
	cfg *config.SweeperConfig,
	records txn.Repository,
	publisher producers.MessagePublisher,
	logger *slog.Logger,
) *Sweeper {
	return &Sweeper{
		records:    records,
		publisher:  publisher,
		logger:     logger,
		interval:   cfg.PollingInterval,
		batchSize:  cfg.BatchSize,
		pendingAge: cfg.PendingAge,
	}
}

// Start begins sweeping until the context is canceled
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Starting pending-transaction sweeper",
		"interval", s.interval.String(),
		"batch_size", s.batchSize,
		"pending_age", s.pendingAge.String(),
	)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sweeper stopping due to context cancellation")
			return
		case <-ticker.C:
			if err := s.sweepOnce(ctx); err != nil {
				s.logger.Error("Error during pending-transaction sweep", "error", err)
			}
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) error {
	cutoff := time.Now().Add(-s.pendingAge)
	stale, err := s.records.FindPendingBefore(ctx, cutoff, s.batchSize)
	if err != nil {
		return fmt.Errorf("failed to find stale pending transactions: %w", err)
	}

	if len(stale) == 0 {
		s.logger.Debug("No stale pending transactions found")
		return nil
	}

	s.logger.Warn("Found stale pending transactions", "count", len(stale), "cutoff", cutoff)

	for _, t := range stale {
		if err := s.publisher.Publish(ctx, t.ID, t); err != nil {
			s.logger.Error("Failed to surface stale pending transaction",
				"txn_id", t.ID,
				"error", err,
			)
			continue
		}
		s.logger.Info("Surfaced stale pending transaction",
			"txn_id", t.ID,
			"created_at", t.CreatedAt,
		)
	}
	return nil
}
