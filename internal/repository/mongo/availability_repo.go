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

// mongoAvailabilityRepository implements repository.AvailabilityRepository
type mongoAvailabilityRepository struct {
	collection *mongo.Collection
}

// NewMongoAvailabilityRepository creates an availability repository backed by MongoDB.
func NewMongoAvailabilityRepository(db *mongo.Database) repository.AvailabilityRepository {
	return &mongoAvailabilityRepository{
		collection: db.Collection(availabilityCollectionName),
	}
}

// Create inserts a new slot.
func (r *mongoAvailabilityRepository) Create(ctx context.Context, slot *domain.AvailabilitySlot) (string, error) {
	if slot.PTID == "" {
		return "", errors.New("slot requires ptId")
	}
	slot.ID = primitive.NewObjectID().Hex()
	slot.CreatedAt = time.Now().UTC()

	if _, err := r.collection.InsertOne(ctx, slot); err != nil {
		return "", err
	}
	return slot.ID, nil
}

// Delete removes a slot owned by ptID.
func (r *mongoAvailabilityRepository) Delete(ctx context.Context, id, ptID string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "ptId": ptID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetUpcoming retrieves the PT's slots on or after fromDate in (date, start) order.
func (r *mongoAvailabilityRepository) GetUpcoming(ctx context.Context, ptID, fromDate string) ([]domain.AvailabilitySlot, error) {
	filter := bson.M{"ptId": ptID, "date": bson.M{"$gte": fromDate}}
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "start", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	slots := []domain.AvailabilitySlot{}
	if err = cursor.All(ctx, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// EnsureAvailabilityIndexes creates necessary indexes for the availability collection.
func EnsureAvailabilityIndexes(ctx context.Context, collection *mongo.Collection, logger *zap.Logger) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "ptId", Value: 1}, {Key: "date", Value: 1}, {Key: "start", Value: 1}},
		},
	}
	createIndexes(ctx, collection, indexes, logger)
}
