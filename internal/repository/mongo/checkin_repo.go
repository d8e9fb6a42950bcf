package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"onpointe/prevention/internal/domain"
	"onpointe/prevention/internal/repository"
)

// mongoCheckInRepository implements repository.CheckInRepository
type mongoCheckInRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewMongoCheckInRepository creates a check-in repository backed by MongoDB.
func NewMongoCheckInRepository(db *mongo.Database, logger *zap.Logger) repository.CheckInRepository {
	return &mongoCheckInRepository{
		collection: db.Collection(checkInCollectionName),
		logger:     logger,
	}
}

// checkInID is the natural key of a check-in document.
func checkInID(dancerID, date string) string {
	return dancerID + "_" + date
}

// Upsert writes the user-entered fields of entry, keyed by (dancer, date).
// A stored risk is left for the evaluator to refresh.
func (r *mongoCheckInRepository) Upsert(ctx context.Context, entry *domain.CheckIn) error {
	if entry.DancerID == "" || entry.Date == "" {
		return errors.New("check-in requires dancerId and date")
	}
	return upsertCheckIn(ctx, r.collection, entry)
}

func upsertCheckIn(ctx context.Context, collection *mongo.Collection, entry *domain.CheckIn) error {
	entry.ID = checkInID(entry.DancerID, entry.Date)
	entry.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"dancerId":  entry.DancerID,
		"date":      entry.Date,
		"minutes":   entry.Minutes,
		"rpe":       entry.RPE,
		"fatigue":   entry.Fatigue,
		"sore":      entry.Sore,
		"sleep":     entry.Sleep,
		"notes":     entry.Notes,
		"updatedAt": entry.UpdatedAt,
	}}
	_, err := collection.UpdateByID(ctx, entry.ID, update, options.Update().SetUpsert(true))
	return err
}

// Get retrieves one check-in.
func (r *mongoCheckInRepository) Get(ctx context.Context, dancerID, date string) (*domain.CheckIn, error) {
	var entry domain.CheckIn
	err := r.collection.FindOne(ctx, bson.M{"_id": checkInID(dancerID, date)}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// GetRecent retrieves the newest limit check-ins, newest date first.
func (r *mongoCheckInRepository) GetRecent(ctx context.Context, dancerID string, limit int) ([]domain.CheckIn, error) {
	return recentCheckIns(ctx, r.collection, dancerID, limit)
}

func recentCheckIns(ctx context.Context, collection *mongo.Collection, dancerID string, limit int) ([]domain.CheckIn, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, bson.M{"dancerId": dancerID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []domain.CheckIn{}
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetRange retrieves check-ins with fromDate <= date <= toDate, oldest first.
func (r *mongoCheckInRepository) GetRange(ctx context.Context, dancerID, fromDate, toDate string) ([]domain.CheckIn, error) {
	filter := bson.M{
		"dancerId": dancerID,
		"date":     bson.M{"$gte": fromDate, "$lte": toDate},
	}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []domain.CheckIn
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SetRisk stores the evaluator's result on the check-in.
func (r *mongoCheckInRepository) SetRisk(ctx context.Context, dancerID, date string, risk domain.Risk) error {
	result, err := r.collection.UpdateByID(ctx, checkInID(dancerID, date), bson.M{"$set": bson.M{"risk": risk}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Watch follows the collection's change stream. Updates that only touch
// the risk field are skipped so the evaluator does not feed itself.
func (r *mongoCheckInRepository) Watch(ctx context.Context, onChange func(dancerID, date string)) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"operationType": bson.M{"$in": bson.A{"insert", "update", "replace"}}}}},
	}
	stream, err := r.collection.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return err
	}
	defer stream.Close(context.Background())

	for stream.Next(ctx) {
		var event struct {
			OperationType     string         `bson:"operationType"`
			FullDocument      domain.CheckIn `bson:"fullDocument"`
			UpdateDescription struct {
				UpdatedFields bson.M `bson:"updatedFields"`
			} `bson:"updateDescription"`
		}
		if err := stream.Decode(&event); err != nil {
			r.logger.Warn("undecodable check-in change", zap.Error(err))
			continue
		}
		if event.OperationType == "update" && onlyRiskChanged(event.UpdateDescription.UpdatedFields) {
			continue
		}
		if event.FullDocument.DancerID == "" || event.FullDocument.Date == "" {
			continue
		}
		onChange(event.FullDocument.DancerID, event.FullDocument.Date)
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func onlyRiskChanged(fields bson.M) bool {
	if len(fields) == 0 {
		return false
	}
	for key := range fields {
		if key != "risk" && !strings.HasPrefix(key, "risk.") {
			return false
		}
	}
	return true
}

// EnsureCheckInIndexes creates necessary indexes for the checkins collection.
func EnsureCheckInIndexes(ctx context.Context, collection *mongo.Collection, logger *zap.Logger) {
	indexes := []mongo.IndexModel{
		{
			// One check-in per dancer per day
			Keys:    bson.D{{Key: "dancerId", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index().SetUnique(true),
		},
	}
	createIndexes(ctx, collection, indexes, logger)
}
