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

// mongoThreadRepository implements repository.ThreadRepository
type mongoThreadRepository struct {
	collection *mongo.Collection
}

// NewMongoThreadRepository creates a thread repository backed by MongoDB.
func NewMongoThreadRepository(db *mongo.Database) repository.ThreadRepository {
	return &mongoThreadRepository{
		collection: db.Collection(threadCollectionName),
	}
}

// Create inserts the thread for a (dancer, PT) pair, or returns the id of
// the pair's existing thread.
func (r *mongoThreadRepository) Create(ctx context.Context, thread *domain.Thread) (string, error) {
	if thread.DancerID == "" || thread.PTID == "" {
		return "", errors.New("thread requires dancerId and ptId")
	}

	now := time.Now().UTC()
	filter := bson.M{"dancerId": thread.DancerID, "ptId": thread.PTID}
	// The filter's equality fields are copied into an inserted document.
	update := bson.M{"$setOnInsert": bson.M{
		"_id":             primitive.NewObjectID().Hex(),
		"lastMessageText": "",
		"lastMessageAt":   now,
		"createdAt":       now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored domain.Thread
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return "", err
	}
	*thread = stored
	return stored.ID, nil
}

// GetByID retrieves a thread by id.
func (r *mongoThreadRepository) GetByID(ctx context.Context, id string) (*domain.Thread, error) {
	var thread domain.Thread
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&thread)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &thread, nil
}

// GetByParticipant retrieves the threads uid takes part in, most recently
// active first.
func (r *mongoThreadRepository) GetByParticipant(ctx context.Context, uid string) ([]domain.Thread, error) {
	filter := bson.M{"$or": bson.A{bson.M{"dancerId": uid}, bson.M{"ptId": uid}}}
	findOptions := options.Find().SetSort(bson.D{{Key: "lastMessageAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	threads := []domain.Thread{}
	if err = cursor.All(ctx, &threads); err != nil {
		return nil, err
	}
	return threads, nil
}

// RecordMessage updates the last-message preview and bumps the recipient's
// unread counter.
func (r *mongoThreadRepository) RecordMessage(ctx context.Context, threadID, recipientUID, text string, at time.Time) error {
	update := bson.M{
		"$set": bson.M{"lastMessageText": text, "lastMessageAt": at},
		"$inc": bson.M{"unread." + recipientUID: 1},
	}
	result, err := r.collection.UpdateByID(ctx, threadID, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// MarkRead resets uid's unread counter.
func (r *mongoThreadRepository) MarkRead(ctx context.Context, threadID, uid string) error {
	result, err := r.collection.UpdateByID(ctx, threadID, bson.M{"$set": bson.M{"unread." + uid: 0}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureThreadIndexes creates necessary indexes for the threads collection.
func EnsureThreadIndexes(ctx context.Context, collection *mongo.Collection, logger *zap.Logger) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "dancerId", Value: 1}, {Key: "ptId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "ptId", Value: 1}, {Key: "lastMessageAt", Value: -1}},
		},
	}
	createIndexes(ctx, collection, indexes, logger)
}
