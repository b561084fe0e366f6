package anchord

import (
	"context"
	"sync"
	"time"
)

// Pose is a world position in meters.
type Pose struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Anchor is a stored server-side anchor record.
type Anchor struct {
	ID        string    `json:"id"`
	Pose      Pose      `json:"pose"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists anchors. Implementations must be safe for concurrent use.
type Store interface {
	Put(ctx context.Context, a Anchor) error
	// Get returns the anchor and whether it exists.
	Get(ctx context.Context, id string) (Anchor, bool, error)
	// Delete removes the anchor, reporting whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
}

// MemoryStore keeps anchors in process memory. The default for development.
type MemoryStore struct {
	mu      sync.RWMutex
	anchors map[string]Anchor
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{anchors: make(map[string]Anchor)}
}

func (s *MemoryStore) Put(ctx context.Context, a Anchor) error {
	s.mu.Lock()
	s.anchors[a.ID] = a
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Anchor, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.anchors[id]
	return a, ok, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.anchors[id]; !ok {
		return false, nil
	}
	delete(s.anchors, id)
	return true, nil
}

// Len returns the number of stored anchors.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.anchors)
}
