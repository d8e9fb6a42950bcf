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

// mongoAlertRepository implements repository.AlertRepository
type mongoAlertRepository struct {
	collection *mongo.Collection
}

// NewMongoAlertRepository creates an alert repository backed by MongoDB.
func NewMongoAlertRepository(db *mongo.Database) repository.AlertRepository {
	return &mongoAlertRepository{
		collection: db.Collection(alertCollectionName),
	}
}

// alertID keys an alert by the PT, dancer and check-in date it was raised for.
func alertID(ptID, dancerID, date string) string {
	return ptID + "_" + dancerID + "_" + date
}

// Upsert creates the alert or refreshes severity, reasons and snapshot of
// an existing one. Reviewed and createdAt are only written on insert.
func (r *mongoAlertRepository) Upsert(ctx context.Context, alert *domain.Alert) error {
	if alert.PTID == "" || alert.DancerUID == "" || alert.Snapshot == nil || alert.Snapshot.Date == "" {
		return errors.New("alert requires ptId, dancerUid and a snapshot date")
	}
	alert.ID = alertID(alert.PTID, alert.DancerUID, alert.Snapshot.Date)
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}

	update := bson.M{
		"$set": bson.M{
			"ptId":      alert.PTID,
			"dancerUid": alert.DancerUID,
			"severity":  alert.Severity,
			"reasons":   alert.Reasons,
			"snapshot":  alert.Snapshot,
		},
		"$setOnInsert": bson.M{
			"reviewed":  false,
			"createdAt": alert.CreatedAt,
		},
	}
	_, err := r.collection.UpdateByID(ctx, alert.ID, update, options.Update().SetUpsert(true))
	return err
}

// GetByID retrieves an alert by id.
func (r *mongoAlertRepository) GetByID(ctx context.Context, id string) (*domain.Alert, error) {
	var alert domain.Alert
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&alert)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &alert, nil
}

// GetRecent retrieves the PT's newest limit alerts, newest first.
func (r *mongoAlertRepository) GetRecent(ctx context.Context, ptID string, limit int) ([]domain.Alert, error) {
	return recentAlerts(ctx, r.collection, ptID, limit)
}

func recentAlerts(ctx context.Context, collection *mongo.Collection, ptID string, limit int) ([]domain.Alert, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, bson.M{"ptId": ptID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	alerts := []domain.Alert{}
	if err = cursor.All(ctx, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// MarkReviewed flips reviewed to true. Already reviewed alerts match too,
// so the call is idempotent.
func (r *mongoAlertRepository) MarkReviewed(ctx context.Context, id, ptID string, at time.Time) error {
	filter := bson.M{"_id": id, "ptId": ptID}
	update := bson.M{"$set": bson.M{"reviewed": true, "reviewedAt": at}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "ptId": ptID, "reviewed": false}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, filter)
		if err != nil {
			return err
		}
		if count == 0 {
			return repository.ErrNotFound
		}
	}
	return nil
}

// EnsureAlertIndexes creates necessary indexes for the alerts collection.
func EnsureAlertIndexes(ctx context.Context, collection *mongo.Collection, logger *zap.Logger) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "ptId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "dancerUid", Value: 1}},
		},
	}
	createIndexes(ctx, collection, indexes, logger)
}
