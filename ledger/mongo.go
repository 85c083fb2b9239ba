package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const opTimeout = 5 * time.Second

// MongoStore keeps records in a MongoDB collection, one document per expense.
type MongoStore struct {
	collection   *mongo.Collection
	pollInterval time.Duration
	logger       *logrus.Logger
}

func NewMongoStore(db *mongo.Database, collectionName string, pollInterval time.Duration, logger *logrus.Logger) *MongoStore {
	return &MongoStore{
		collection:   db.Collection(collectionName),
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// EnsureIndexes creates the indexes used by snapshot listing and import dedup.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "source_id", Value: 1}}, Options: options.Index().SetSparse(true)},
	})
	if err != nil {
		return fmt.Errorf("create expense indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Add(ctx context.Context, userID string, r Record) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	r.ID = primitive.NewObjectID().Hex()
	r.UserID = userID
	r.CreatedAt = time.Now().UTC()
	if _, err := s.collection.InsertOne(ctx, r); err != nil {
		return "", fmt.Errorf("insert expense: %w", err)
	}
	return r.ID, nil
}

func (s *MongoStore) Update(ctx context.Context, userID, id string, p Patch) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"title": p.Title, "amount": float64(p.Amount)}},
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, userID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, userID string) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := s.collection.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find expenses: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]Record, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode expenses: %w", err)
	}
	return records, nil
}

func (s *MongoStore) HasSource(ctx context.Context, userID, sourceID string) (bool, error) {
	if sourceID == "" {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	n, err := s.collection.CountDocuments(ctx,
		bson.M{"user_id": userID, "source_id": sourceID},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, fmt.Errorf("count imported expenses: %w", err)
	}
	return n > 0, nil
}

// Subscribe follows a change stream on the collection and re-lists the user's
// snapshot on every relevant event. Deployments without change streams (standalone
// servers) fall back to polling.
func (s *MongoStore) Subscribe(ctx context.Context, userID string, fn func([]Record)) error {
	records, err := s.List(ctx, userID)
	if err != nil {
		return err
	}
	fn(records)

	// Delete events carry no document, so they always trigger a re-list.
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "fullDocument.user_id", Value: userID}},
			bson.D{{Key: "operationType", Value: "delete"}},
		}}}}},
	}
	stream, err := s.collection.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"module":  "ledger",
			"user_id": userID,
			"error":   err.Error(),
		}).Warn("change stream unavailable, polling for snapshots")
		return s.poll(ctx, userID, fingerprint(records), fn)
	}
	defer stream.Close(context.Background())

	for stream.Next(ctx) {
		records, err := s.List(ctx, userID)
		if err != nil {
			return err
		}
		fn(records)
	}
	if ctx.Err() != nil {
		return nil
	}
	return stream.Err()
}

func (s *MongoStore) poll(ctx context.Context, userID, last string, fn func([]Record)) error {
	interval := s.pollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			records, err := s.List(ctx, userID)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			if fp := fingerprint(records); fp != last {
				last = fp
				fn(records)
			}
		}
	}
}
