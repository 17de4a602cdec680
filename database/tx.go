package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// TxRunner runs a unit of work so that all of its writes apply together or not at all.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	// Atomic reports whether writes inside fn are rolled back when fn fails.
	Atomic() bool
}

// MongoTxRunner runs work inside a MongoDB multi-document transaction. Transactions need a
// replica set; with enabled=false the work runs directly and earlier writes stay committed
// when a later one fails.
type MongoTxRunner struct {
	client  *mongo.Client
	enabled bool
}

func NewMongoTxRunner(client *mongo.Client, enabled bool) *MongoTxRunner {
	return &MongoTxRunner{client: client, enabled: enabled}
}

func (r *MongoTxRunner) Atomic() bool { return r.enabled }

func (r *MongoTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !r.enabled {
		return fn(ctx)
	}

	sess, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	err = mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := fn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	})
	if isTransient(err) {
		return fmt.Errorf("%w: %v", ErrVersionConflict, err)
	}
	return err
}

// isTransient reports whether the server aborted the transaction because of a write
// conflict with another transaction. Such work is safe to retry from the start.
func isTransient(err error) bool {
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.HasErrorLabel("TransientTransactionError")
	}
	return false
}
