package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo collection layout.
const (
	defaultDatabase   = "graphsplit"
	defaultCollection = "runs"
	connectTimeout    = 10 * time.Second
)

// MongoStore persists records in a MongoDB collection, keyed by run_id.
type MongoStore struct {
	client *mongo.Client
	runs   *mongo.Collection
}

// NewMongoStore connects to MongoDB at url and verifies the connection with
// a ping. The url uses the standard mongodb:// or mongodb+srv:// scheme.
func NewMongoStore(ctx context.Context, url string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	runs := client.Database(defaultDatabase).Collection(defaultCollection)

	// Unique index on run_id so Save can upsert by it.
	_, err = runs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "run_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &MongoStore{client: client, runs: runs}, nil
}

// Save persists a record, replacing any existing record with the same run ID.
func (s *MongoStore) Save(ctx context.Context, rec *Record) error {
	filter := bson.M{"run_id": rec.RunID}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.runs.ReplaceOne(ctx, filter, rec, opts); err != nil {
		return fmt.Errorf("save run %s: %w", rec.RunID, err)
	}
	return nil
}

// Get retrieves a record by run ID.
func (s *MongoStore) Get(ctx context.Context, runID string) (*Record, error) {
	var rec Record
	err := s.runs.FindOne(ctx, bson.M{"run_id": runID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return &rec, nil
}

// Delete removes a record.
func (s *MongoStore) Delete(ctx context.Context, runID string) error {
	if _, err := s.runs.DeleteOne(ctx, bson.M{"run_id": runID}); err != nil {
		return fmt.Errorf("delete run %s: %w", runID, err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
