package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestSequentialRunsFnOnce(t *testing.T) {
	calls := 0
	err := Sequential{}.RunInTx(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestSequentialPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	err := Sequential{}.RunInTx(context.Background(), func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestNewTxRunner(t *testing.T) {
	assert.IsType(t, Sequential{}, NewTxRunner(nil, true))
	assert.IsType(t, Sequential{}, NewTxRunner(&Database{Client: &mongo.Client{}}, false))
	assert.IsType(t, MongoTx{}, NewTxRunner(&Database{Client: &mongo.Client{}}, true))
}
