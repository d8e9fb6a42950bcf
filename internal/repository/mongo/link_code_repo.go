package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"onpointe/prevention/internal/domain"
	"onpointe/prevention/internal/repository"
)

// mongoLinkCodeRepository implements repository.LinkCodeRepository
type mongoLinkCodeRepository struct {
	collection *mongo.Collection
}

// NewMongoLinkCodeRepository creates a link code repository backed by MongoDB.
func NewMongoLinkCodeRepository(db *mongo.Database) repository.LinkCodeRepository {
	return &mongoLinkCodeRepository{
		collection: db.Collection(linkCodeCollectionName),
	}
}

// Create stores a code. Codes are the document id, so a collision is ErrConflict.
func (r *mongoLinkCodeRepository) Create(ctx context.Context, code *domain.LinkCode) error {
	code.CreatedAt = time.Now().UTC()
	if _, err := r.collection.InsertOne(ctx, code); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrConflict
		}
		return err
	}
	return nil
}

// Consume atomically removes an unexpired code and returns it.
func (r *mongoLinkCodeRepository) Consume(ctx context.Context, code string, now time.Time) (*domain.LinkCode, error) {
	filter := bson.M{"_id": code, "expiresAt": bson.M{"$gt": now}}

	var stored domain.LinkCode
	err := r.collection.FindOneAndDelete(ctx, filter).Decode(&stored)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &stored, nil
}

// EnsureLinkCodeIndexes lets MongoDB drop expired codes on its own.
func EnsureLinkCodeIndexes(ctx context.Context, collection *mongo.Collection, logger *zap.Logger) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
	createIndexes(ctx, collection, indexes, logger)
}
