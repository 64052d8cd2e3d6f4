package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kkariyawasam/ledger-engine/internal/domain/account"
)

const (
	// AccountCollectionName is the name of the accounts collection in MongoDB
	AccountCollectionName = "accounts"

	// documentValidationFailure is the MongoDB server error code returned
	// when a write violates the collection's $jsonSchema validator, which
	// enforces the non-negative balance floor.
	documentValidationFailure = 121
)

// AccountRepository implements the account.Repository interface for MongoDB
type AccountRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewAccountRepository creates a new MongoDB account repository
func NewAccountRepository(logger *slog.Logger, db *mongo.Database) account.Repository {
	return &AccountRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new account document.
// Returns ErrDuplicateAccount if the account number is already taken.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	collection := r.db.Collection(AccountCollectionName)

	_, err := collection.InsertOne(ctx, acc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return account.ErrDuplicateAccount{AccountNum: acc.AccountNum}
		}
		r.logger.Error("Failed to create account",
			"account_num", acc.AccountNum,
			"error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByNumber retrieves an account by its account number.
// Returns ErrAccountNotFound if no account exists with that number.
func (r *AccountRepository) GetByNumber(ctx context.Context, accountNum string) (*account.Account, error) {
	collection := r.db.Collection(AccountCollectionName)

	filter := bson.M{"account_num": accountNum}
	var acc account.Account
	err := collection.FindOne(ctx, filter).Decode(&acc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, account.ErrAccountNotFound{AccountNum: accountNum}
		}
		r.logger.Error("Failed to get account",
			"account_num", accountNum,
			"error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &acc, nil
}

// IncrementBalance adds delta to the account's balance with a single atomic
// $inc and reports how many documents matched. The collection validator
// rejects an increment that would take the balance below zero; that
// rejection is mapped to ErrBalanceConstraint.
func (r *AccountRepository) IncrementBalance(ctx context.Context, accountNum string, delta int64) (int64, error) {
	collection := r.db.Collection(AccountCollectionName)

	filter := bson.M{"account_num": accountNum}
	update := bson.M{
		"$inc": bson.M{"balance": delta},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		var srvErr mongo.ServerError
		if errors.As(err, &srvErr) && srvErr.HasErrorCode(documentValidationFailure) {
			return 0, account.ErrBalanceConstraint{AccountNum: accountNum}
		}
		r.logger.Error("Failed to increment account balance",
			"account_num", accountNum,
			"delta", delta,
			"error", err)
		return 0, fmt.Errorf("failed to increment balance: %w", err)
	}

	return result.MatchedCount, nil
}
