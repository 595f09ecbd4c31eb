// Package mongo is the document store backed by MongoDB.
package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection       = "users"
	listingsCollection    = "listings"
	bookingsCollection    = "bookings"
	outboxCollection      = "app_outbox"
	idempotencyCollection = "app_idempotency"
)

type Client struct {
	DB *mongo.Database
}

func New(ctx context.Context, uri, database string) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	opts := options.Client().ApplyURI(uri).SetRetryWrites(true)
	m, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := m.Ping(ctx, nil); err != nil {
		_ = m.Disconnect(context.Background())
		return nil, err
	}
	return &Client{DB: m.Database(database)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, nil)
}

func (c *Client) Close(ctx context.Context) error {
	return c.DB.Client().Disconnect(ctx)
}

// EnsureIndexes creates the indexes the repositories query through.
// idempotencyTTL bounds how long replay records are kept.
func (c *Client) EnsureIndexes(ctx context.Context, idempotencyTTL time.Duration) error {
	plan := map[string][]mongo.IndexModel{
		listingsCollection: {
			{Keys: bson.D{{Key: "country", Value: 1}, {Key: "admin", Value: 1}, {Key: "city", Value: 1}}, Options: options.Index().SetCollation(caseInsensitive)},
			{Keys: bson.D{{Key: "price", Value: 1}}},
		},
		outboxCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "next_attempt_at", Value: 1}}},
		},
		idempotencyCollection: {
			{Keys: bson.D{{Key: "created_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(int32(ttlOrDefault(idempotencyTTL).Seconds()))},
		},
	}
	for name, models := range plan {
		if _, err := c.DB.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 24 * time.Hour
	}
	return ttl
}

// caseInsensitive makes location filters match regardless of letter case.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}
