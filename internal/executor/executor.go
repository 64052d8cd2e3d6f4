// Package executor applies persisted, pending transactions to account
// balances and resolves their terminal status inside a single atomic unit of
// work. Domain failures (missing account, balance floor) are never returned
// as errors: they roll the balance deltas back and come back to the caller
// as a FAILED transaction with a typed reason. Only infrastructure failures
// propagate as errors, leaving the record PENDING for operator-level
// reconciliation.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kkariyawasam/ledger-engine/internal/domain/account"
	"github.com/kkariyawasam/ledger-engine/internal/domain/txn"
)

// UnitOfWork scopes a group of store operations into one atomic commit. The
// callback receives a context bound to the scope; every store call made with
// it either commits as a whole or leaves no trace. Run returns the callback
// error unchanged after aborting the scope.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// Executor orchestrates entry application, status transition, and rollback
// for one transaction at a time. Concurrent transactions each get their own
// unit of work; serialization of increments against the same account is the
// balance store's job, not the executor's.
type Executor struct {
	accounts account.Repository
	records  txn.Repository
	uow      UnitOfWork
	logger   *slog.Logger
}

// New creates an Executor backed by the given stores and unit-of-work runner
func New(logger *slog.Logger, accounts account.Repository, records txn.Repository, uow UnitOfWork) *Executor {
	return &Executor{
		accounts: accounts,
		records:  records,
		uow:      uow,
		logger:   logger,
	}
}

// domainFailure carries an expected, data-driven failure out of the unit of
// work so the scope aborts and the reason can be persisted afterwards.
type domainFailure struct {
	reason     txn.ErrorReason
	entryIndex int
}

func (f *domainFailure) Error() string {
	return fmt.Sprintf("entry %d failed: %s", f.entryIndex, f.reason)
}

// Execute applies the transaction's entries to account balances in entry
// order and transitions the record to SUCCESS or FAILED exactly once. The
// transaction must already be durably recorded in PENDING status. Executing
// an already-terminal transaction returns the stored record without
// re-applying any delta.
func (e *Executor) Execute(ctx context.Context, t *txn.Txn) (*txn.Txn, error) {
	if t == nil {
		return nil, txn.ErrMissingID
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transaction: %w", err)
	}

	current, err := e.records.GetByID(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction %s: %w", t.ID, err)
	}
	if current.Status.Terminal() {
		e.logger.Info("Transaction already finalized, skipping execution",
			"txn_id", t.ID,
			"status", string(current.Status),
		)
		return current, nil
	}

	var applied *txn.Txn
	runErr := e.uow.Run(ctx, func(uowCtx context.Context) error {
		for i, entry := range t.Entries {
			matched, incErr := e.accounts.IncrementBalance(uowCtx, entry.AccountNum, entry.Amount)
			if incErr != nil {
				if errors.Is(incErr, account.ErrBalanceConstraint{}) {
					e.logger.Warn("Balance floor rejected entry",
						"txn_id", t.ID,
						"account_num", entry.AccountNum,
						"amount", entry.Amount,
					)
					return &domainFailure{reason: txn.ReasonInsufficientBalance, entryIndex: i}
				}
				return fmt.Errorf("failed to increment balance of %s: %w", entry.AccountNum, incErr)
			}
			if matched == 0 {
				e.logger.Warn("Entry targets unknown account",
					"txn_id", t.ID,
					"account_num", entry.AccountNum,
				)
				return &domainFailure{reason: txn.ReasonAccountNotFound, entryIndex: i}
			}
		}

		updated, updErr := e.records.UpdateStatus(uowCtx, t.ID, txn.StatusSuccess, txn.ReasonNone)
		if updErr != nil {
			return fmt.Errorf("failed to mark transaction %s successful: %w", t.ID, updErr)
		}
		applied = updated
		return nil
	})

	if runErr == nil {
		e.logger.Info("Transaction executed",
			"txn_id", t.ID,
			"entries", len(t.Entries),
		)
		return applied, nil
	}

	var failure *domainFailure
	if errors.As(runErr, &failure) {
		// The balance deltas were discarded with the aborted unit of work.
		// The failure record is written outside that scope so it survives
		// the rollback.
		failed, updErr := e.records.UpdateStatus(ctx, t.ID, txn.StatusFailed, failure.reason)
		if updErr != nil {
			return nil, fmt.Errorf("failed to record failure of transaction %s: %w", t.ID, updErr)
		}
		e.logger.Info("Transaction failed",
			"txn_id", t.ID,
			"reason", string(failure.reason),
			"entry_index", failure.entryIndex,
		)
		return failed, nil
	}

	// Infrastructure failure: the record stays PENDING and the outcome is
	// ambiguous. The caller must surface it as retryable-unknown instead of
	// blindly retrying.
	return nil, fmt.Errorf("failed to execute transaction %s: %w", t.ID, runErr)
}
