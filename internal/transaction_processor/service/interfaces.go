package service

import (
	"context"

	"github.com/kkariyawasam/ledger-engine/internal/domain/txn"
)

// ExecutionService executes asynchronous transaction requests through the
// transaction core. The returned transaction is terminal unless the error is
// non-nil, in which case the outcome is unknown and the message must be
// redelivered.
type ExecutionService interface {
	ExecuteRequest(ctx context.Context, request *txn.Request) (*txn.Txn, error)
}

// TxnExecutor applies a persisted pending transaction and resolves its
// terminal status
type TxnExecutor interface {
	Execute(ctx context.Context, t *txn.Txn) (*txn.Txn, error)
}
