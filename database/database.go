package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	connectAttempts = 3
	retryDelay      = 2 * time.Second
)

// Database bundles the client with the collections the post service touches.
type Database struct {
	Client   *mongo.Client
	Users    *mongo.Collection
	Posts    *mongo.Collection
	Comments *mongo.Collection
}

// New wires collection handles from an already connected client.
func New(client *mongo.Client, name string) *Database {
	db := client.Database(name)
	return &Database{
		Client:   client,
		Users:    db.Collection("users"),
		Posts:    db.Collection("posts"),
		Comments: db.Collection("comments"),
	}
}

// Connect dials MongoDB, retrying a few times before giving up, and pings it.
func Connect(ctx context.Context, uri, name string) (*Database, error) {
	var lastErr error
	for i := 1; i <= connectAttempts; i++ {
		client, err := dial(ctx, uri)
		if err == nil {
			slog.Info("connected to MongoDB", "database", name)
			return New(client, name), nil
		}
		lastErr = err
		slog.Warn("MongoDB connection attempt failed", "attempt", i, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, fmt.Errorf("connect to MongoDB: %w", lastErr)
}

func dial(ctx context.Context, uri string) (*mongo.Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(dialCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(dialCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// Disconnect closes the client, bounded by a timeout.
func (d *Database) Disconnect() error {
	if d == nil || d.Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := d.Client.Disconnect(ctx); err != nil {
		return err
	}
	slog.Info("disconnected from MongoDB")
	return nil
}
