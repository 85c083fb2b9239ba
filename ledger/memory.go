package ledger

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore keeps records in process. It backs tests and local development.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string][]Record
	subs  map[string]map[chan struct{}]struct{}
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: map[string][]Record{},
		subs:  map[string]map[chan struct{}]struct{}{},
		now:   time.Now,
	}
}

// Add appends the record. Insertion order breaks createdAt ties.
func (s *MemoryStore) Add(_ context.Context, userID string, r Record) (string, error) {
	s.mu.Lock()
	r.ID = primitive.NewObjectID().Hex()
	r.UserID = userID
	r.CreatedAt = s.now().UTC()
	s.items[userID] = append(s.items[userID], r)
	s.mu.Unlock()

	s.notify(userID)
	return r.ID, nil
}

func (s *MemoryStore) Update(_ context.Context, userID, id string, p Patch) error {
	s.mu.Lock()
	found := false
	for i, r := range s.items[userID] {
		if r.ID == id {
			s.items[userID][i].Title = p.Title
			s.items[userID][i].Amount = p.Amount
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return ErrNotFound
	}
	s.notify(userID)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID, id string) error {
	s.mu.Lock()
	items := s.items[userID]
	found := false
	for i, r := range items {
		if r.ID == id {
			s.items[userID] = append(items[:i:i], items[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return ErrNotFound
	}
	s.notify(userID)
	return nil
}

func (s *MemoryStore) List(_ context.Context, userID string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(userID), nil
}

func (s *MemoryStore) HasSource(_ context.Context, userID, sourceID string) (bool, error) {
	if sourceID == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.items[userID] {
		if r.SourceID == sourceID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, userID string, fn func([]Record)) error {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	if s.subs[userID] == nil {
		s.subs[userID] = map[chan struct{}]struct{}{}
	}
	s.subs[userID][ch] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.subs[userID], ch)
		s.mu.Unlock()
	}()

	records, _ := s.List(ctx, userID)
	fn(records)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ch:
			records, _ := s.List(ctx, userID)
			fn(records)
		}
	}
}

func (s *MemoryStore) snapshotLocked(userID string) []Record {
	items := s.items[userID]
	out := make([]Record, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		out = append(out, items[i])
	}
	return out
}

// notify wakes every subscriber of userID. Pending wake-ups coalesce.
func (s *MemoryStore) notify(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs[userID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
