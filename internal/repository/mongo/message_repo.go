package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"onpointe/prevention/internal/domain"
	"onpointe/prevention/internal/repository"
)

// mongoMessageRepository implements repository.MessageRepository
type mongoMessageRepository struct {
	collection *mongo.Collection
}

// NewMongoMessageRepository creates a message repository backed by MongoDB.
func NewMongoMessageRepository(db *mongo.Database) repository.MessageRepository {
	return &mongoMessageRepository{
		collection: db.Collection(messageCollectionName),
	}
}

// Create inserts a message. CreatedAt is assigned here, never by the sender.
func (r *mongoMessageRepository) Create(ctx context.Context, msg *domain.Message) (string, error) {
	if msg.ThreadID == "" || msg.SenderUID == "" || msg.Text == "" {
		return "", errors.New("message requires threadId, senderUid and text")
	}
	msg.ID = primitive.NewObjectID().Hex()
	msg.CreatedAt = time.Now().UTC()

	if _, err := r.collection.InsertOne(ctx, msg); err != nil {
		return "", err
	}
	return msg.ID, nil
}

// GetRecent retrieves the newest limit messages, oldest first.
func (r *mongoMessageRepository) GetRecent(ctx context.Context, threadID string, limit int) ([]domain.Message, error) {
	return recentMessages(ctx, r.collection, threadID, limit)
}

func recentMessages(ctx context.Context, collection *mongo.Collection, threadID string, limit int) ([]domain.Message, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, bson.M{"threadId": threadID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []domain.Message
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	// Newest limit were fetched; flip back to ascending.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// EnsureMessageIndexes creates necessary indexes for the messages collection.
func EnsureMessageIndexes(ctx context.Context, collection *mongo.Collection, logger *zap.Logger) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "threadId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	}
	createIndexes(ctx, collection, indexes, logger)
}
