package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store interface {
	Get(ctx context.Context, userID string) (Settings, error)
	Put(ctx context.Context, s Settings) error
}

type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(db *mongo.Database, collectionName string) *MongoStore {
	return &MongoStore{collection: db.Collection(collectionName)}
}

func (m *MongoStore) Get(ctx context.Context, userID string) (Settings, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var s Settings
	err := m.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Settings{}, ErrNotFound
	} else if err != nil {
		return Settings{}, fmt.Errorf("find settings: %w", err)
	}
	return s, nil
}

func (m *MongoStore) Put(ctx context.Context, s Settings) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := m.collection.ReplaceOne(ctx, bson.M{"_id": s.UserID}, s, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Settings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string]Settings{}}
}

func (m *MemoryStore) Get(_ context.Context, userID string) (Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.items[userID]
	if !ok {
		return Settings{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) Put(_ context.Context, s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[s.UserID] = s
	return nil
}
