package account

import (
	"context"
)

// Repository defines account balance persistence operations
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByNumber(ctx context.Context, accountNum string) (*Account, error)

	// IncrementBalance atomically adds delta to the named account's balance
	// if the account exists and the resulting balance satisfies the
	// store-enforced balance floor. It returns the number of accounts
	// matched and updated (0 or 1). A floor violation is reported as
	// ErrBalanceConstraint, never as a partial write.
	IncrementBalance(ctx context.Context, accountNum string, delta int64) (int64, error)
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	AccountNum string
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.AccountNum
}

// Is implements errors.Is; a zero-value target matches any account number
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	if t.AccountNum == "" {
		return true
	}
	return e.AccountNum == t.AccountNum
}

// ErrDuplicateAccount indicates account number uniqueness violation
type ErrDuplicateAccount struct {
	AccountNum string
}

func (e ErrDuplicateAccount) Error() string {
	return "account already exists: " + e.AccountNum
}

// Is implements errors.Is; a zero-value target matches any account number
func (e ErrDuplicateAccount) Is(target error) bool {
	t, ok := target.(ErrDuplicateAccount)
	if !ok {
		return false
	}
	if t.AccountNum == "" {
		return true
	}
	return e.AccountNum == t.AccountNum
}

// ErrBalanceConstraint indicates the store rejected an increment because the
// resulting balance would violate the enforced balance floor
type ErrBalanceConstraint struct {
	AccountNum string
}

func (e ErrBalanceConstraint) Error() string {
	return "balance constraint violated for account: " + e.AccountNum
}

// Is implements errors.Is; a zero-value target matches any account number
func (e ErrBalanceConstraint) Is(target error) bool {
	t, ok := target.(ErrBalanceConstraint)
	if !ok {
		return false
	}
	if t.AccountNum == "" {
		return true
	}
	return e.AccountNum == t.AccountNum
}
