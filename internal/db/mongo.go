package db

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"sublet/rentals/internal/logger"
)

// Collection names shared by the services and the index bootstrap.
const (
	RequestsCollection     = "requests"
	ChatMessagesCollection = "chat_messages"
	ListingsCollection     = "listings"
	FavoritesCollection    = "favorites"
	AreasCollection        = "areas"
)

// ConnectDB connects to MongoDB, retrying the initial ping with exponential backoff
// for up to maxWait.
func ConnectDB(uri, dbName string, maxWait time.Duration, log *zap.SugaredLogger) (*mongo.Client, *mongo.Database, error) {
	log = logger.OrNop(log)
	clientOptions := options.Client().ApplyURI(uri)

	var client *mongo.Client
	connect := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		c, err := mongo.Connect(ctx, clientOptions)
		if err != nil {
			return fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		if err := c.Ping(ctx, readpref.Primary()); err != nil {
			_ = c.Disconnect(context.Background())
			return fmt.Errorf("failed to ping MongoDB: %w", err)
		}
		client = c
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxWait
	notify := func(err error, wait time.Duration) {
		log.Warnw("MongoDB not ready, retrying", "error", err, "wait", wait)
	}
	if err := backoff.RetryNotify(connect, b, notify); err != nil {
		return nil, nil, err
	}

	log.Infow("Connected to MongoDB", "db", dbName)
	return client, client.Database(dbName), nil
}

// DisconnectDB closes the MongoDB client connection.
func DisconnectDB(client *mongo.Client) error {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect MongoDB: %w", err)
	}
	return nil
}

// EnsureIndexes creates the indexes the services rely on. It is idempotent.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		RequestsCollection: {
			{Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "renter_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
			// One active request per (listing, renter).
			{
				Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "renter_id", Value: 1}},
				Options: options.Index().
					SetName("active_request_per_renter").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": bson.M{"$in": bson.A{"PENDING", "ACCEPTED"}}}),
			},
			{Keys: bson.D{{Key: "chat_id", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
		ChatMessagesCollection: {
			{Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "sent_at", Value: 1}}},
		},
		FavoritesCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "listing_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		AreasCollection: {
			{Keys: bson.D{{Key: "city", Value: 1}, {Key: "name", Value: 1}}},
		},
		ListingsCollection: {
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		},
	}

	for coll, models := range indexes {
		if _, err := database.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
