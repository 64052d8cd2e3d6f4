package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kkariyawasam/ledger-engine/internal/api_gateway/middleware"
	"github.com/kkariyawasam/ledger-engine/internal/api_gateway/service"
	"github.com/kkariyawasam/ledger-engine/internal/domain/txn"
)

// TransactionHandler handles HTTP requests for transaction operations
type TransactionHandler struct {
	transactionService service.TransactionService
	logger             *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, transactionService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logger,
	}
}

// Debit executes a debit against the path account and waits for the outcome
func (h *TransactionHandler) Debit(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "", "Invalid request body: "+err.Error())
		return
	}

	result, err := h.transactionService.Debit(c.Request.Context(), c.Param("number"), req.Amount)
	h.respondExecuted(c, result, err)
}

// Credit executes a credit to the path account and waits for the outcome
func (h *TransactionHandler) Credit(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "", "Invalid request body: "+err.Error())
		return
	}

	result, err := h.transactionService.Credit(c.Request.Context(), c.Param("number"), req.Amount)
	h.respondExecuted(c, result, err)
}

// Transfer executes a transfer from the path account to the target account
// and waits for the outcome
func (h *TransactionHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "", "Invalid request body: "+err.Error())
		return
	}

	result, err := h.transactionService.Transfer(c.Request.Context(), c.Param("number"), req.To, req.Amount)
	h.respondExecuted(c, result, err)
}

// respondExecuted maps a synchronously executed transaction to an HTTP
// response. Transactions that failed a business rule come back as FAILED
// records, not errors, and keep their own status codes.
func (h *TransactionHandler) respondExecuted(c *gin.Context, result *txn.Txn, err error) {
	if err != nil {
		h.logger.Error("Failed to execute transaction", "error", err)
		RespondInternalError(c)
		return
	}

	if result.Status != txn.StatusFailed {
		RespondOK(c, mapTxnToResponse(result))
		return
	}

	response := mapTxnToResponse(result)
	switch result.ErrorReason {
	case txn.ReasonInsufficientBalance:
		RespondWithData(c, http.StatusUnprocessableEntity, response)
	case txn.ReasonAccountNotFound, txn.ReasonDuplicateAccount:
		RespondWithData(c, http.StatusBadRequest, response)
	default:
		RespondWithData(c, http.StatusBadRequest, response)
	}
}

// Submit accepts a transaction for asynchronous execution
func (h *TransactionHandler) Submit(c *gin.Context) {
	var req SubmitTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "", "Invalid request body: "+err.Error())
		return
	}

	request := &txn.Request{
		Kind:          txn.RequestKind(req.Kind),
		AccountNum:    req.AccountNum,
		ToAccountNum:  req.ToAccount,
		Amount:        req.Amount,
		CorrelationID: middleware.GetCorrelationID(c),
		Timestamp:     time.Now(),
	}

	txnID, err := h.transactionService.SubmitAsync(c.Request.Context(), request)
	if err != nil {
		if errors.Is(err, txn.ErrInvalidRequestKind) || errors.Is(err, txn.ErrInvalidAmount) || errors.Is(err, txn.ErrEmptyAccountNum) {
			h.logger.Error("Invalid transaction request", "kind", req.Kind, "error", err)
			RespondBadRequest(c, "", err.Error())
			return
		}
		h.logger.Error("Failed to submit transaction", "error", err)
		RespondInternalError(c)
		return
	}

	RespondAccepted(c, gin.H{
		"txn_id": txnID,
		"status": string(txn.StatusPending),
	})
}

// GetByID retrieves transaction details by id, returns 404 if not found
func (h *TransactionHandler) GetByID(c *gin.Context) {
	id := c.Param("id")

	result, err := h.transactionService.GetTransactionByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get transaction", "txn_id", id, "error", err)
		RespondInternalError(c)
		return
	}

	if result == nil {
		RespondNotFound(c, "Transaction not found")
		return
	}

	RespondOK(c, mapTxnToResponse(result))
}

// GetByAccount retrieves paginated transaction history for an account
func (h *TransactionHandler) GetByAccount(c *gin.Context) {
	accountNum := c.Param("number")

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "", "Invalid pagination parameters")
		return
	}

	txns, total, err := h.transactionService.GetTransactionsByAccount(
		c.Request.Context(),
		accountNum,
		pagination.Page,
		pagination.PerPage,
	)
	if err != nil {
		h.logger.Error("Failed to get transactions", "account_num", accountNum, "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]TxnResponse, 0, len(txns))
	for _, t := range txns {
		responses = append(responses, mapTxnToResponse(t))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, pagination.Page, pagination.PerPage, int(total))
}
