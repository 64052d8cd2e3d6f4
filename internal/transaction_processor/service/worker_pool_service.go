package service

import (
	"context"
	"log/slog"

	"github.com/panjf2000/ants/v2"

	"github.com/kkariyawasam/ledger-engine/internal/domain/txn"
)

// WorkerPoolExecutionService bounds the number of concurrently executing
// transactions. Each submission still blocks its caller until the result is
// available, so consumer offset handling stays correct.
type WorkerPoolExecutionService struct {
	baseService ExecutionService
	pool        *ants.Pool
	logger      *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

type executionResult struct {
	txn *txn.Txn
	err error
}

func NewWorkerPoolExecutionService(
	baseService ExecutionService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolExecutionService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolExecutionService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

// ExecuteRequest submits the request to the worker pool and waits for its result
func (s *WorkerPoolExecutionService) ExecuteRequest(ctx context.Context, request *txn.Request) (*txn.Txn, error) {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Debug("Submitting transaction request to worker pool",
		"txn_id", request.TxnID,
		"account_num", request.AccountNum,
	)

	resultChan := make(chan executionResult, 1)

	// Copy the request to avoid data races with the caller
	requestCopy := *request

	err := s.pool.Submit(func() {
		result, execErr := s.baseService.ExecuteRequest(ctx, &requestCopy)
		resultChan <- executionResult{txn: result, err: execErr}
		close(resultChan)
	})
	if err != nil {
		logger.Error("Failed to submit transaction request to worker pool",
			"txn_id", request.TxnID,
			"error", err,
		)
		return nil, err
	}

	res := <-resultChan
	return res.txn, res.err
}

// Shutdown gracefully shuts down the worker pool
func (s *WorkerPoolExecutionService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool
func (s *WorkerPoolExecutionService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool
func (s *WorkerPoolExecutionService) Capacity() int {
	return s.pool.Cap()
}
