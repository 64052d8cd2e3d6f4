package service

import (
	"context"

	"github.com/kkariyawasam/ledger-engine/internal/domain/account"
	"github.com/kkariyawasam/ledger-engine/internal/domain/txn"
)

// AccountService defines the interface for account operations
type AccountService interface {
	// CreateAccount creates a new account with the given number and opening balance
	// Returns ErrDuplicateAccount if the account number is taken
	CreateAccount(ctx context.Context, accountNum string, initialBalance int64) (*account.Account, error)

	// GetAccount retrieves an account by its account number
	// Returns ErrAccountNotFound if the account doesn't exist
	GetAccount(ctx context.Context, accountNum string) (*account.Account, error)
}

// TransactionService defines the interface for transaction operations
type TransactionService interface {
	// Debit records and executes a single-entry debit, returning the terminal transaction
	Debit(ctx context.Context, accountNum string, amount int64) (*txn.Txn, error)

	// Credit records and executes a single-entry credit, returning the terminal transaction
	Credit(ctx context.Context, accountNum string, amount int64) (*txn.Txn, error)

	// Transfer records and executes a paired debit/credit between two
	// accounts, returning the terminal transaction
	Transfer(ctx context.Context, from, to string, amount int64) (*txn.Txn, error)

	// SubmitAsync publishes a transaction request for asynchronous
	// execution and returns the assigned transaction id
	SubmitAsync(ctx context.Context, request *txn.Request) (string, error)

	// GetTransactionByID retrieves a transaction by its id
	// Returns nil if the transaction is not found
	GetTransactionByID(ctx context.Context, id string) (*txn.Txn, error)

	// GetTransactionsByAccount retrieves a paginated list of transactions
	// touching an account. Returns entries, total count, and any error.
	GetTransactionsByAccount(ctx context.Context, accountNum string, page, perPage int) ([]*txn.Txn, int64, error)
}

// TxnExecutor applies a persisted pending transaction and resolves its
// terminal status
type TxnExecutor interface {
	Execute(ctx context.Context, t *txn.Txn) (*txn.Txn, error)
}
