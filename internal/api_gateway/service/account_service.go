package service

import (
	"context"

	"github.com/kkariyawasam/ledger-engine/internal/domain/account"
)

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	accountRepo account.Repository
}

// NewAccountService creates a new account service
func NewAccountService(accountRepo account.Repository) AccountService {
	return &AccountServiceImpl{
		accountRepo: accountRepo,
	}
}

// CreateAccount creates a new account. The unique index on the account
// number makes duplicate detection the store's job.
func (s *AccountServiceImpl) CreateAccount(ctx context.Context, accountNum string, initialBalance int64) (*account.Account, error) {
	acc, err := account.NewAccount(accountNum, initialBalance)
	if err != nil {
		return nil, err
	}

	if err := s.accountRepo.Create(ctx, acc); err != nil {
		return nil, err
	}

	return acc, nil
}

// GetAccount retrieves an account by number, returns ErrAccountNotFound if missing
func (s *AccountServiceImpl) GetAccount(ctx context.Context, accountNum string) (*account.Account, error) {
	return s.accountRepo.GetByNumber(ctx, accountNum)
}
