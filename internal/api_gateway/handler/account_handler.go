package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/kkariyawasam/ledger-engine/internal/api_gateway/service"
	"github.com/kkariyawasam/ledger-engine/internal/domain/account"
)

// AccountHandler handles HTTP requests for account operations
type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// Create creates a new account with an optional opening balance
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "", "Invalid request body: "+err.Error())
		return
	}

	created, err := h.accountService.CreateAccount(c.Request.Context(), req.AccountNum, req.InitialBalance)
	if err != nil {
		if errors.Is(err, account.ErrDuplicateAccount{}) {
			h.logger.Info("Account already exists", "account_num", req.AccountNum)
			RespondBadRequest(c, "DUPLICATE_ACCOUNT", "Account already exists")
			return
		}
		h.logger.Error("Failed to create account", "account_num", req.AccountNum, "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapAccountToResponse(created))
}

// GetByNumber retrieves account details by account number, returns 404 if not found
func (h *AccountHandler) GetByNumber(c *gin.Context) {
	accountNum := c.Param("number")

	acc, err := h.accountService.GetAccount(c.Request.Context(), accountNum)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to get account", "account_num", accountNum, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}
