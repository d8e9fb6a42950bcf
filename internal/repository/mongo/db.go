package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// Collection names shared by the server repositories and the client store.
const (
	checkInCollectionName      = "checkins"
	threadCollectionName       = "threads"
	messageCollectionName      = "messages"
	alertCollectionName        = "alerts"
	availabilityCollectionName = "availability"
	linkCodeCollectionName     = "link_codes"
)

// ConnectDB establishes a connection to MongoDB using the provided URI.
// Change streams need a replica set, so local setups should pass ?replicaSet=.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Ping the primary node to verify the connection.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection. Failures are
// logged, not fatal.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) {
	EnsureUserIndexes(ctx, db.Collection(userCollectionName), logger)
	EnsureCheckInIndexes(ctx, db.Collection(checkInCollectionName), logger)
	EnsureThreadIndexes(ctx, db.Collection(threadCollectionName), logger)
	EnsureMessageIndexes(ctx, db.Collection(messageCollectionName), logger)
	EnsureAlertIndexes(ctx, db.Collection(alertCollectionName), logger)
	EnsureAvailabilityIndexes(ctx, db.Collection(availabilityCollectionName), logger)
	EnsureLinkCodeIndexes(ctx, db.Collection(linkCodeCollectionName), logger)
}

func createIndexes(ctx context.Context, collection *mongo.Collection, indexes []mongo.IndexModel, logger *zap.Logger) {
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Warn("failed to create indexes",
			zap.String("collection", collection.Name()),
			zap.Error(err))
	}
}
