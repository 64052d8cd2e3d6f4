package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// MongoUnitOfWork runs a callback inside one MongoDB session transaction
// with snapshot read concern and majority write concern: no other operation
// observes a partially-applied set of writes, and a commit is acknowledged
// only after a majority of replica set members have it. An error from the
// callback aborts the transaction and is returned unchanged.
type MongoUnitOfWork struct {
	client *mongo.Client
	logger *slog.Logger
}

// NewMongoUnitOfWork creates a unit-of-work runner on the given client
func NewMongoUnitOfWork(logger *slog.Logger, client *mongo.Client) *MongoUnitOfWork {
	return &MongoUnitOfWork{
		client: client,
		logger: logger,
	}
}

// Run acquires a session, executes fn within its transaction, and releases
// the session on every exit path. Store operations inside fn must use the
// context it receives, which carries the session.
func (u *MongoUnitOfWork) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := u.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start mongo session: %w", err)
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	}, txnOpts)
	if err != nil {
		u.logger.Debug("Unit of work aborted", "error", err)
	}
	return err
}
