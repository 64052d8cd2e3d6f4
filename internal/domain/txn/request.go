package txn

import (
	"errors"
	"time"
)

var ErrInvalidRequestKind = errors.New("invalid transaction request kind")

// RequestKind defines the elementary operations a request can ask for
type RequestKind string

const (
	KindDebit    RequestKind = "DEBIT"
	KindCredit   RequestKind = "CREDIT"
	KindTransfer RequestKind = "TRANSFER"
)

// Request defines a message submitted for asynchronous execution. Amounts
// are positive; the kind determines the entry signs.
type Request struct {
	TxnID         string      `json:"txn_id"`
	Kind          RequestKind `json:"kind"`
	AccountNum    string      `json:"account_num"`
	ToAccountNum  string      `json:"to_account_num,omitempty"`
	Amount        int64       `json:"amount"` // Stored in cents/minor units
	CorrelationID string      `json:"correlation_id,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
}

// BuildTxn constructs the transaction described by the request through the
// entry builders, keeping the caller-assigned identifier when present.
func (r *Request) BuildTxn() (*Txn, error) {
	var (
		t   *Txn
		err error
	)

	switch r.Kind {
	case KindDebit:
		t, err = NewDebit(r.AccountNum, r.Amount)
	case KindCredit:
		t, err = NewCredit(r.AccountNum, r.Amount)
	case KindTransfer:
		t, err = NewTransfer(r.AccountNum, r.ToAccountNum, r.Amount)
	default:
		return nil, ErrInvalidRequestKind
	}
	if err != nil {
		return nil, err
	}

	if r.TxnID != "" {
		t.ID = r.TxnID
	}
	return t, nil
}
