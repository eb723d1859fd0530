package database

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// TxRunner runs a group of store mutations as one logical operation.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Sequential runs fn directly. Mutations inside it are not atomic: a failure
// halfway leaves earlier writes in place.
type Sequential struct{}

func (Sequential) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// MongoTx runs fn inside a multi-document transaction. It requires a replica
// set or sharded deployment.
type MongoTx struct {
	Client *mongo.Client
}

func (t MongoTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.Client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// NewTxRunner picks the transactional runner only when enabled.
func NewTxRunner(db *Database, transactional bool) TxRunner {
	if transactional && db != nil && db.Client != nil {
		return MongoTx{Client: db.Client}
	}
	return Sequential{}
}
