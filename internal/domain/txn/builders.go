package txn

import (
	"time"

	"github.com/google/uuid"
)

// NewDebit builds a single-entry transaction that decreases the account's
// balance by amount. The amount must be positive.
func NewDebit(accountNum string, amount int64) (*Txn, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return newTxn(Entry{AccountNum: accountNum, Amount: -amount})
}

// NewCredit builds a single-entry transaction that increases the account's
// balance by amount. The amount must be positive.
func NewCredit(accountNum string, amount int64) (*Txn, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return newTxn(Entry{AccountNum: accountNum, Amount: amount})
}

// NewTransfer builds a two-entry transaction moving amount from one account
// to another: a debit on from followed by a credit on to. The amount must be
// positive.
func NewTransfer(from, to string, amount int64) (*Txn, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return newTxn(
		Entry{AccountNum: from, Amount: -amount},
		Entry{AccountNum: to, Amount: amount},
	)
}

func newTxn(entries ...Entry) (*Txn, error) {
	t := &Txn{
		ID:        uuid.New().String(),
		Entries:   entries,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
