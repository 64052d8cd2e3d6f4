package txn

import (
	"context"
	"time"
)

// Repository manages transaction record persistence
type Repository interface {
	// Save persists a new transaction record, assigning an identifier when
	// empty and normalizing an unset status to PENDING. Returns
	// ErrDuplicateTxn if the identifier collides with an existing record.
	Save(ctx context.Context, t *Txn) (*Txn, error)

	GetByID(ctx context.Context, id string) (*Txn, error)

	// UpdateStatus atomically sets status and optional error reason on a
	// PENDING record and returns the updated record. Returns ErrTxnNotFound
	// if no record has the identifier and ErrAlreadyFinalized if the record
	// exists but is already terminal.
	UpdateStatus(ctx context.Context, id string, status Status, reason ErrorReason) (*Txn, error)

	GetByAccount(ctx context.Context, accountNum string, limit, offset int) ([]*Txn, error)
	CountByAccount(ctx context.Context, accountNum string) (int64, error)

	// FindPendingBefore returns up to limit transactions still PENDING that
	// were created before the cutoff, oldest first.
	FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*Txn, error)
}

// ErrTxnNotFound indicates missing transaction record
type ErrTxnNotFound struct {
	ID string
}

func (e ErrTxnNotFound) Error() string {
	return "transaction not found: " + e.ID
}

// Is implements errors.Is; a zero-value target matches any identifier
func (e ErrTxnNotFound) Is(target error) bool {
	t, ok := target.(ErrTxnNotFound)
	if !ok {
		return false
	}
	if t.ID == "" {
		return true
	}
	return e.ID == t.ID
}

// ErrDuplicateTxn indicates transaction identifier uniqueness violation
type ErrDuplicateTxn struct {
	ID string
}

func (e ErrDuplicateTxn) Error() string {
	return "duplicate transaction: " + e.ID
}

// Is implements errors.Is; a zero-value target matches any identifier
func (e ErrDuplicateTxn) Is(target error) bool {
	t, ok := target.(ErrDuplicateTxn)
	if !ok {
		return false
	}
	if t.ID == "" {
		return true
	}
	return e.ID == t.ID
}

// ErrAlreadyFinalized indicates an attempted status transition on a record
// that already reached a terminal state
type ErrAlreadyFinalized struct {
	ID string
}

func (e ErrAlreadyFinalized) Error() string {
	return "transaction already finalized: " + e.ID
}

// Is implements errors.Is; a zero-value target matches any identifier
func (e ErrAlreadyFinalized) Is(target error) bool {
	t, ok := target.(ErrAlreadyFinalized)
	if !ok {
		return false
	}
	if t.ID == "" {
		return true
	}
	return e.ID == t.ID
}
