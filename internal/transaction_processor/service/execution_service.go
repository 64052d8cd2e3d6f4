package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kkariyawasam/ledger-engine/internal/domain/txn"
)

type ExecutionServiceImpl struct {
	records  txn.Repository
	executor TxnExecutor
	logger   *slog.Logger
}

func NewExecutionService(logger *slog.Logger, records txn.Repository, executor TxnExecutor) ExecutionService {
	return &ExecutionServiceImpl{
		records:  records,
		executor: executor,
		logger:   logger,
	}
}

// ExecuteRequest builds the transaction described by the request, records it
// as PENDING, and runs it through the executor. A request whose transaction
// id was already recorded is not re-applied: a terminal record is returned
// as-is and a pending one is handed back to the executor, whose own terminal
// guard keeps the operation safe to redeliver.
func (s *ExecutionServiceImpl) ExecuteRequest(ctx context.Context, request *txn.Request) (*txn.Txn, error) {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	t, err := request.BuildTxn()
	if err != nil {
		return nil, fmt.Errorf("invalid transaction request: %w", err)
	}

	logger.Info("Executing transaction request",
		"txn_id", t.ID,
		"kind", string(request.Kind),
		"account_num", request.AccountNum,
		"amount", request.Amount,
	)

	saved, err := s.records.Save(ctx, t)
	if err != nil {
		if !errors.Is(err, txn.ErrDuplicateTxn{}) {
			return nil, fmt.Errorf("failed to record transaction %s: %w", t.ID, err)
		}

		existing, getErr := s.records.GetByID(ctx, t.ID)
		if getErr != nil {
			return nil, fmt.Errorf("failed to load duplicate transaction %s: %w", t.ID, getErr)
		}
		if existing.Status.Terminal() {
			logger.Info("Transaction already executed, skipping",
				"txn_id", existing.ID,
				"status", string(existing.Status),
			)
			return existing, nil
		}
		saved = existing
	}

	result, err := s.executor.Execute(ctx, saved)
	if err != nil {
		return nil, err
	}

	logger.Info("Transaction request executed",
		"txn_id", result.ID,
		"status", string(result.Status),
		"error_reason", string(result.ErrorReason),
	)
	return result, nil
}
