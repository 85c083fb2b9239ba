package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store interface {
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	// Create inserts u; it fails with ErrEmailTaken when the email is in use.
	Create(ctx context.Context, u User) error
	UpdateProfile(ctx context.Context, id string, p Profile) error
	SetPasswordHash(ctx context.Context, id, hash string) error
	SetPhoto(ctx context.Context, id, url string) error
}

// NormalizeEmail lower-cases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(db *mongo.Database, collectionName string) *MongoStore {
	return &MongoStore{collection: db.Collection(collectionName)}
}

func (m *MongoStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (m *MongoStore) findOne(ctx context.Context, filter bson.M) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var u User
	err := m.collection.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, ErrNotFound
	} else if err != nil {
		return User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (m *MongoStore) FindByEmail(ctx context.Context, email string) (User, error) {
	return m.findOne(ctx, bson.M{"email": NormalizeEmail(email)})
}

func (m *MongoStore) FindByID(ctx context.Context, id string) (User, error) {
	return m.findOne(ctx, bson.M{"_id": id})
}

func (m *MongoStore) Create(ctx context.Context, u User) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	u.Email = NormalizeEmail(u.Email)
	if _, err := m.collection.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (m *MongoStore) update(ctx context.Context, id string, set bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoStore) UpdateProfile(ctx context.Context, id string, p Profile) error {
	return m.update(ctx, id, bson.M{
		"name":   p.Name,
		"phone":  p.Phone,
		"gender": p.Gender,
		"dob":    p.DOB,
		"bio":    p.Bio,
	})
}

func (m *MongoStore) SetPasswordHash(ctx context.Context, id, hash string) error {
	return m.update(ctx, id, bson.M{"password_hash": hash})
}

func (m *MongoStore) SetPhoto(ctx context.Context, id, url string) error {
	return m.update(ctx, id, bson.M{"photo": url})
}

type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string]User{}}
}

func (m *MemoryStore) FindByEmail(_ context.Context, email string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email = NormalizeEmail(email)
	for _, u := range m.items {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (m *MemoryStore) FindByID(_ context.Context, id string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.items[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *MemoryStore) Create(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Email = NormalizeEmail(u.Email)
	for _, existing := range m.items {
		if existing.Email == u.Email {
			return ErrEmailTaken
		}
	}
	m.items[u.ID] = u
	return nil
}

func (m *MemoryStore) modify(id string, fn func(*User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	fn(&u)
	m.items[id] = u
	return nil
}

func (m *MemoryStore) UpdateProfile(_ context.Context, id string, p Profile) error {
	return m.modify(id, func(u *User) {
		u.Name, u.Phone, u.Gender, u.DOB, u.Bio = p.Name, p.Phone, p.Gender, p.DOB, p.Bio
	})
}

func (m *MemoryStore) SetPasswordHash(_ context.Context, id, hash string) error {
	return m.modify(id, func(u *User) { u.PasswordHash = hash })
}

func (m *MemoryStore) SetPhoto(_ context.Context, id, url string) error {
	return m.modify(id, func(u *User) { u.Photo = url })
}
