package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kkariyawasam/ledger-engine/internal/domain/txn"
	"github.com/kkariyawasam/ledger-engine/internal/platform/messaging/producers"
)

// TransactionServiceImpl implements the TransactionService interface
type TransactionServiceImpl struct {
	records  txn.Repository
	executor TxnExecutor
	producer producers.MessagePublisher
	logger   *slog.Logger
}

// NewTransactionService creates a new transaction service
func NewTransactionService(logger *slog.Logger, records txn.Repository, executor TxnExecutor, producer producers.MessagePublisher) TransactionService {
	return &TransactionServiceImpl{
		records:  records,
		executor: executor,
		producer: producer,
		logger:   logger,
	}
}

// Debit records and synchronously executes a debit of amount against the account
func (s *TransactionServiceImpl) Debit(ctx context.Context, accountNum string, amount int64) (*txn.Txn, error) {
	t, err := txn.NewDebit(accountNum, amount)
	if err != nil {
		return nil, err
	}
	return s.recordAndExecute(ctx, t)
}

// Credit records and synchronously executes a credit of amount to the account
func (s *TransactionServiceImpl) Credit(ctx context.Context, accountNum string, amount int64) (*txn.Txn, error) {
	t, err := txn.NewCredit(accountNum, amount)
	if err != nil {
		return nil, err
	}
	return s.recordAndExecute(ctx, t)
}

// Transfer records and synchronously executes a two-entry transfer
func (s *TransactionServiceImpl) Transfer(ctx context.Context, from, to string, amount int64) (*txn.Txn, error) {
	t, err := txn.NewTransfer(from, to, amount)
	if err != nil {
		return nil, err
	}
	return s.recordAndExecute(ctx, t)
}

// recordAndExecute persists the PENDING record and hands it to the executor.
// The terminal transaction comes back with status and error reason resolved;
// an error means an infrastructure failure with the record left PENDING.
func (s *TransactionServiceImpl) recordAndExecute(ctx context.Context, t *txn.Txn) (*txn.Txn, error) {
	saved, err := s.records.Save(ctx, t)
	if err != nil {
		s.logger.Error("Failed to record transaction",
			"txn_id", t.ID,
			"error", err,
		)
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	result, err := s.executor.Execute(ctx, saved)
	if err != nil {
		s.logger.Error("Transaction execution failed",
			"txn_id", saved.ID,
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Transaction executed",
		"txn_id", result.ID,
		"status", string(result.Status),
		"error_reason", string(result.ErrorReason),
	)
	return result, nil
}

// SubmitAsync publishes the request for asynchronous execution, assigning a
// transaction id when the caller did not provide one
func (s *TransactionServiceImpl) SubmitAsync(ctx context.Context, request *txn.Request) (string, error) {
	if request.TxnID == "" {
		request.TxnID = uuid.New().String()
	}
	if request.Timestamp.IsZero() {
		request.Timestamp = time.Now()
	}

	// Reject malformed requests before they reach the pipeline.
	if _, err := request.BuildTxn(); err != nil {
		return "", err
	}

	if err := s.producer.Publish(ctx, request.TxnID, request); err != nil {
		s.logger.Error("Failed to publish transaction request",
			"txn_id", request.TxnID,
			"kind", string(request.Kind),
			"error", err,
		)
		return "", err
	}

	s.logger.Info("Transaction request published",
		"txn_id", request.TxnID,
		"kind", string(request.Kind),
		"account_num", request.AccountNum,
		"amount", request.Amount,
	)
	return request.TxnID, nil
}

// GetTransactionByID retrieves a transaction by its id. Returns nil if not found
func (s *TransactionServiceImpl) GetTransactionByID(ctx context.Context, id string) (*txn.Txn, error) {
	res, err := s.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, txn.ErrTxnNotFound{}) {
			s.logger.Info("Transaction not found", "txn_id", id)
			return nil, nil
		}
		s.logger.Error("Failed to get transaction", "txn_id", id, "error", err)
		return nil, err
	}
	return res, nil
}

// GetTransactionsByAccount retrieves a paginated transaction history for an account
func (s *TransactionServiceImpl) GetTransactionsByAccount(ctx context.Context, accountNum string, page, perPage int) ([]*txn.Txn, int64, error) {
	offset := (page - 1) * perPage

	txns, err := s.records.GetByAccount(ctx, accountNum, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.records.CountByAccount(ctx, accountNum)
	if err != nil {
		return nil, 0, err
	}

	return txns, total, nil
}
