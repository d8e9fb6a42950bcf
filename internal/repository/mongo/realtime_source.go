package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"onpointe/prevention/internal/domain"
	"onpointe/prevention/internal/realtime"
)

// RealtimeSource delivers live snapshots of thread messages and PT alerts.
// Each subscription opens a change stream, sends the current snapshot and
// re-queries after every matching change. Transport errors end the
// subscription quietly; the view keeps its last snapshot.
type RealtimeSource struct {
	messages *mongo.Collection
	alerts   *mongo.Collection
	logger   *zap.Logger
}

// NewRealtimeSource creates a source over db.
func NewRealtimeSource(db *mongo.Database, logger *zap.Logger) *RealtimeSource {
	return &RealtimeSource{
		messages: db.Collection(messageCollectionName),
		alerts:   db.Collection(alertCollectionName),
		logger:   logger,
	}
}

// SubscribeMessages streams the thread's newest limit messages, oldest first.
func (s *RealtimeSource) SubscribeMessages(threadID string, limit int, onSnapshot func([]domain.Message)) realtime.Cancel {
	match := bson.M{
		"operationType":         "insert",
		"fullDocument.threadId": threadID,
	}
	return s.follow(s.messages, match, zap.String("threadId", threadID), func(ctx context.Context) error {
		msgs, err := recentMessages(ctx, s.messages, threadID, limit)
		if err != nil {
			return err
		}
		onSnapshot(msgs)
		return nil
	})
}

// SubscribeAlerts streams the PT's newest limit alerts, newest first.
func (s *RealtimeSource) SubscribeAlerts(ptUID string, limit int, onSnapshot func([]domain.Alert)) realtime.Cancel {
	match := bson.M{
		"operationType":     bson.M{"$in": bson.A{"insert", "update", "replace"}},
		"fullDocument.ptId": ptUID,
	}
	return s.follow(s.alerts, match, zap.String("ptUid", ptUID), func(ctx context.Context) error {
		alerts, err := recentAlerts(ctx, s.alerts, ptUID, limit)
		if err != nil {
			return err
		}
		onSnapshot(alerts)
		return nil
	})
}

// follow runs one subscription until it is cancelled or the stream fails.
// The stream is opened before the first query so no change is missed.
func (s *RealtimeSource) follow(collection *mongo.Collection, match bson.M, key zap.Field, snapshot func(context.Context) error) realtime.Cancel {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		pipeline := mongo.Pipeline{{{Key: "$match", Value: match}}}
		stream, err := collection.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
		if err != nil {
			s.logger.Warn("change stream unavailable", key, zap.Error(err))
			return
		}
		defer stream.Close(context.Background())

		if err := snapshot(ctx); err != nil {
			s.logger.Warn("initial snapshot failed", key, zap.Error(err))
			return
		}
		for stream.Next(ctx) {
			if err := snapshot(ctx); err != nil {
				if ctx.Err() == nil {
					s.logger.Warn("snapshot failed", key, zap.Error(err))
				}
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			s.logger.Warn("change stream ended", key, zap.Error(err))
		}
	}()

	return realtime.Cancel(cancel)
}
