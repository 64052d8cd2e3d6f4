package account

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrEmptyAccountNum = errors.New("account number cannot be empty")
	ErrNegativeBalance = errors.New("initial balance cannot be negative")
)

// Account represents a ledger account. Balances are mutated exclusively
// through the repository's atomic conditional increment, never by loading
// and re-saving the document.
type Account struct {
	AccountNum string    `json:"account_num" bson:"account_num"`
	Balance    int64     `json:"balance" bson:"balance"` // Stored in cents/minor units
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

// NewAccount creates a new account with the given account number and opening balance
func NewAccount(accountNum string, initialBalance int64) (*Account, error) {
	if accountNum == "" {
		return nil, ErrEmptyAccountNum
	}
	if initialBalance < 0 {
		return nil, ErrNegativeBalance
	}

	now := time.Now()
	return &Account{
		AccountNum: accountNum,
		Balance:    initialBalance,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
