// Package db manages MongoDB connections and collections.
package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Client wraps mongo.Client and exposes the collections used by the engine.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects to MongoDB, verifies the connection with a ping and returns a
// Client scoped to the given database.
func New(ctx context.Context, mongoURI, database string) (*Client, error) {
	opts := options.Client().
		ApplyURI(mongoURI).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Client{
		client: client,
		db:     client.Database(database),
	}, nil
}

// ListsCollection returns the shared_lists collection.
func (c *Client) ListsCollection() *mongo.Collection {
	return c.db.Collection("shared_lists")
}

// RequestsCollection returns the list_requests collection.
func (c *Client) RequestsCollection() *mongo.Collection {
	return c.db.Collection("list_requests")
}

// Close disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// CreateIndexes creates the indexes both collections rely on.
func (c *Client) CreateIndexes(ctx context.Context) error {
	// shared_lists is queried by array membership ("which lists am I a
	// member of"); a multikey index on members covers that.
	listsIndex := mongo.IndexModel{
		Keys: map[string]int{"members": 1},
	}
	if _, err := c.ListsCollection().Indexes().CreateOne(ctx, listsIndex); err != nil {
		return fmt.Errorf("failed to create shared_lists index: %w", err)
	}

	// list_requests is queried by (receiver, status) for the pending inbox,
	// newest first.
	requestIndexes := []mongo.IndexModel{
		{Keys: map[string]int{"receiver": 1, "status": 1}},
		{Keys: map[string]int{"created_at": -1}},
	}
	if _, err := c.RequestsCollection().Indexes().CreateMany(ctx, requestIndexes); err != nil {
		return fmt.Errorf("failed to create list_requests indexes: %w", err)
	}

	return nil
}
