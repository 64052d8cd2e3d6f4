package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kkariyawasam/ledger-engine/internal/domain/txn"
)

const (
	// TxnCollectionName is the name of the transactions collection in MongoDB
	TxnCollectionName = "transactions"
)

// TxnRepository implements the txn.Repository interface for MongoDB
type TxnRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewTxnRepository creates a new MongoDB transaction record repository
func NewTxnRepository(logger *slog.Logger, db *mongo.Database) txn.Repository {
	return &TxnRepository{
		db:     db,
		logger: logger,
	}
}

// Save persists a new transaction record. An empty identifier is assigned a
// fresh UUID and an unset status is normalized to PENDING. Returns
// ErrDuplicateTxn if the identifier collides.
func (r *TxnRepository) Save(ctx context.Context, t *txn.Txn) (*txn.Txn, error) {
	collection := r.db.Collection(TxnCollectionName)

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = txn.StatusPending
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	_, err := collection.InsertOne(ctx, t)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, txn.ErrDuplicateTxn{ID: t.ID}
		}
		r.logger.Error("Failed to save transaction",
			"txn_id", t.ID,
			"error", err)
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	return t, nil
}

// GetByID retrieves a transaction record by its identifier.
// Returns ErrTxnNotFound if no record exists.
func (r *TxnRepository) GetByID(ctx context.Context, id string) (*txn.Txn, error) {
	collection := r.db.Collection(TxnCollectionName)

	filter := bson.M{"_id": id}
	var t txn.Txn
	err := collection.FindOne(ctx, filter).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, txn.ErrTxnNotFound{ID: id}
		}
		r.logger.Error("Failed to get transaction",
			"txn_id", id,
			"error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &t, nil
}

// UpdateStatus transitions a PENDING record to the given status with a
// single findAndModify and returns the updated record. The pending-only
// filter makes the terminal transition happen at most once: a record that
// already reached SUCCESS or FAILED yields ErrAlreadyFinalized.
func (r *TxnRepository) UpdateStatus(ctx context.Context, id string, status txn.Status, reason txn.ErrorReason) (*txn.Txn, error) {
	collection := r.db.Collection(TxnCollectionName)

	filter := bson.M{"_id": id, "status": txn.StatusPending}
	set := bson.M{
		"status":       status,
		"processed_at": time.Now(),
	}
	if reason != txn.ReasonNone {
		set["error_reason"] = reason
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated txn.Txn
	err := collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Distinguish a missing record from one already finalized.
			if _, getErr := r.GetByID(ctx, id); getErr == nil {
				return nil, txn.ErrAlreadyFinalized{ID: id}
			}
			return nil, txn.ErrTxnNotFound{ID: id}
		}
		r.logger.Error("Failed to update transaction status",
			"txn_id", id,
			"status", string(status),
			"error", err)
		return nil, fmt.Errorf("failed to update transaction status: %w", err)
	}

	return &updated, nil
}

// GetByAccount retrieves paginated transaction records touching an account.
// Results are sorted by creation time in descending order (newest first).
func (r *TxnRepository) GetByAccount(ctx context.Context, accountNum string, limit, offset int) ([]*txn.Txn, error) {
	collection := r.db.Collection(TxnCollectionName)

	filter := bson.M{"entries.account_num": accountNum}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get transactions by account",
			"account_num", accountNum,
			"error", err)
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var txns []*txn.Txn
	if err := cursor.All(ctx, &txns); err != nil {
		r.logger.Error("Failed to decode transactions",
			"account_num", accountNum,
			"error", err)
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}

	return txns, nil
}

// CountByAccount counts the transaction records touching an account
func (r *TxnRepository) CountByAccount(ctx context.Context, accountNum string) (int64, error) {
	collection := r.db.Collection(TxnCollectionName)

	filter := bson.M{"entries.account_num": accountNum}
	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count transactions",
			"account_num", accountNum,
			"error", err)
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	return count, nil
}

// FindPendingBefore retrieves up to limit records still PENDING created
// before the cutoff, oldest first, for reconciliation sweeps.
func (r *TxnRepository) FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*txn.Txn, error) {
	collection := r.db.Collection(TxnCollectionName)

	filter := bson.M{
		"status":     txn.StatusPending,
		"created_at": bson.M{"$lt": cutoff},
	}
	opts := options.Find().
		SetSort(bson.M{"created_at": 1}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to find pending transactions",
			"cutoff", cutoff,
			"error", err)
		return nil, fmt.Errorf("failed to find pending transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var txns []*txn.Txn
	if err := cursor.All(ctx, &txns); err != nil {
		r.logger.Error("Failed to decode pending transactions",
			"cutoff", cutoff,
			"error", err)
		return nil, fmt.Errorf("failed to decode pending transactions: %w", err)
	}

	return txns, nil
}
