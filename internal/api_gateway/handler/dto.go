package handler

import (
	"time"

	"github.com/kkariyawasam/ledger-engine/internal/domain/account"
	"github.com/kkariyawasam/ledger-engine/internal/domain/txn"
)

// CreateAccountRequest represents a request to create a new account
type CreateAccountRequest struct {
	AccountNum     string `json:"account_num" binding:"required"`
	InitialBalance int64  `json:"initial_balance" binding:"min=0"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	AccountNum string `json:"account_num"`
	Balance    int64  `json:"balance"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// AmountRequest represents a single-account debit or credit request
type AmountRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// TransferRequest represents a transfer from the path account to another
type TransferRequest struct {
	To     string `json:"to" binding:"required"`
	Amount int64  `json:"amount" binding:"required,gt=0"`
}

// SubmitTransactionRequest represents a request to submit a transaction
// for asynchronous execution
type SubmitTransactionRequest struct {
	Kind       string `json:"kind" binding:"required,oneof=DEBIT CREDIT TRANSFER"`
	AccountNum string `json:"account_num" binding:"required"`
	ToAccount  string `json:"to_account,omitempty"`
	Amount     int64  `json:"amount" binding:"required,gt=0"`
}

// EntryResponse represents a single transaction entry in API responses
type EntryResponse struct {
	AccountNum string `json:"account_num"`
	Amount     int64  `json:"amount"`
}

// TxnResponse represents a transaction in API responses
type TxnResponse struct {
	TxnID       string          `json:"txn_id"`
	Entries     []EntryResponse `json:"entries"`
	Status      string          `json:"status"`
	ErrorReason string          `json:"error_reason,omitempty"`
	CreatedAt   string          `json:"created_at"`
	ProcessedAt string          `json:"processed_at,omitempty"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

// mapAccountToResponse maps an account to its response DTO
func mapAccountToResponse(a *account.Account) AccountResponse {
	return AccountResponse{
		AccountNum: a.AccountNum,
		Balance:    a.Balance,
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  a.UpdatedAt.Format(time.RFC3339),
	}
}

// mapTxnToResponse maps a transaction to its response DTO
func mapTxnToResponse(t *txn.Txn) TxnResponse {
	entries := make([]EntryResponse, 0, len(t.Entries))
	for _, e := range t.Entries {
		entries = append(entries, EntryResponse{
			AccountNum: e.AccountNum,
			Amount:     e.Amount,
		})
	}

	response := TxnResponse{
		TxnID:       t.ID,
		Entries:     entries,
		Status:      string(t.Status),
		ErrorReason: string(t.ErrorReason),
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}

	if t.ProcessedAt != nil {
		response.ProcessedAt = t.ProcessedAt.Format(time.RFC3339)
	}

	return response
}
