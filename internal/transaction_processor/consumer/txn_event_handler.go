package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kkariyawasam/ledger-engine/internal/domain/txn"
	"github.com/kkariyawasam/ledger-engine/internal/platform/messaging/producers"
	"github.com/kkariyawasam/ledger-engine/internal/transaction_processor/service"
)

// TxnEventHandler handles incoming transaction request messages from Kafka
type TxnEventHandler struct {
	executionService service.ExecutionService
	dlqProducer      producers.DeadLetterPublisher
	logger           *slog.Logger
}

// NewTxnEventHandler creates a new handler. dlqProducer may be nil when the
// dead letter queue is disabled.
func NewTxnEventHandler(
	logger *slog.Logger,
	executionService service.ExecutionService,
	dlqProducer producers.DeadLetterPublisher,
) *TxnEventHandler {
	return &TxnEventHandler{
		executionService: executionService,
		dlqProducer:      dlqProducer,
		logger:           logger,
	}
}

// HandleMessage processes one Kafka message. Unparseable and structurally
// invalid requests are poison: they go to the DLQ and the offset is
// committed. Infrastructure failures return an error so the message is
// redelivered.
func (h *TxnEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request txn.Request
	if err := json.Unmarshal(value, &request); err != nil {
		return h.deadLetter(ctx, key, value, fmt.Sprintf("failed to unmarshal transaction request: %s", err), err)
	}

	logger := h.logger
	if request.CorrelationID != "" {
		logger = h.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received transaction request",
		"txn_id", request.TxnID,
		"kind", string(request.Kind),
		"account_num", request.AccountNum,
		"amount", request.Amount,
	)

	result, err := h.executionService.ExecuteRequest(ctx, &request)
	if err != nil {
		// Builder validation failures cannot succeed on redelivery.
		if errors.Is(err, txn.ErrInvalidRequestKind) || errors.Is(err, txn.ErrInvalidAmount) || errors.Is(err, txn.ErrEmptyAccountNum) {
			return h.deadLetter(ctx, key, value, fmt.Sprintf("invalid transaction request: %s", err), err)
		}
		logger.Error("Failed to execute transaction request",
			"txn_id", request.TxnID,
			"error", err,
		)
		return fmt.Errorf("executing transaction request %s failed: %w", request.TxnID, err)
	}

	logger.Info("Transaction request handled",
		"txn_id", result.ID,
		"status", string(result.Status),
	)
	return nil // Success, commit offset
}

func (h *TxnEventHandler) deadLetter(ctx context.Context, key []byte, value []byte, reason string, cause error) error {
	h.logger.Error("Poison transaction request",
		"message_key", string(key),
		"reason", reason,
	)

	if h.dlqProducer != nil {
		if dlqErr := h.dlqProducer.PublishToDLQ(ctx, string(key), value, reason); dlqErr != nil {
			h.logger.Error("Failed to publish message to DLQ",
				"dlq_error", dlqErr,
				"original_error", cause,
				"message_key", string(key),
			)
		} else {
			// Message handled, commit offset
			return nil
		}
	}
	// No DLQ available: leave the offset uncommitted for redelivery
	return fmt.Errorf("unprocessable message not dead-lettered: %w", cause)
}
