package txn

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrEmptyAccountNum = errors.New("entry account number cannot be empty")
	ErrZeroAmount      = errors.New("entry amount cannot be zero")
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrNoEntries       = errors.New("transaction has no entries")
	ErrMissingID       = errors.New("transaction has no identifier")
)

// Status defines transaction lifecycle states. PENDING is the initial state;
// SUCCESS and FAILED are terminal and a transaction transitions exactly once.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Terminal reports whether the status admits no further transitions
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// ErrorReason defines transaction failure categories, set only on FAILED transactions
type ErrorReason string

const (
	ReasonNone                ErrorReason = ""
	ReasonAccountNotFound     ErrorReason = "ACCOUNT_NOT_FOUND"
	ReasonInsufficientBalance ErrorReason = "INSUFFICIENT_BALANCE"
	ReasonDuplicateAccount    ErrorReason = "DUPLICATE_ACCOUNT"
)

// Entry is a single signed balance delta against one account. A positive
// amount credits the account, a negative amount debits it.
type Entry struct {
	AccountNum string `json:"account_num" bson:"account_num"`
	Amount     int64  `json:"amount" bson:"amount"` // Stored in cents/minor units
}

// Validate checks the entry invariants: non-empty account, non-zero amount
func (e Entry) Validate() error {
	if e.AccountNum == "" {
		return ErrEmptyAccountNum
	}
	if e.Amount == 0 {
		return ErrZeroAmount
	}
	return nil
}

// Txn is a multi-entry transaction. Entries are applied in order; the sum of
// amounts need not be zero (single-leg debits and credits are valid).
type Txn struct {
	ID          string      `json:"id" bson:"_id"`
	Entries     []Entry     `json:"entries" bson:"entries"`
	Status      Status      `json:"status" bson:"status"`
	ErrorReason ErrorReason `json:"error_reason,omitempty" bson:"error_reason,omitempty"`
	CreatedAt   time.Time   `json:"created_at" bson:"created_at"`
	ProcessedAt *time.Time  `json:"processed_at,omitempty" bson:"processed_at,omitempty"`
}

// Validate checks that the transaction is executable: it has an identifier,
// at least one entry, and every entry satisfies the entry invariants.
func (t *Txn) Validate() error {
	if t.ID == "" {
		return ErrMissingID
	}
	if len(t.Entries) == 0 {
		return ErrNoEntries
	}
	for _, entry := range t.Entries {
		if err := entry.Validate(); err != nil {
			return err
		}
	}
	return nil
}
