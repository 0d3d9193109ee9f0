package memory

import (
	"context"
	"sync"
	"time"

	"github.com/roundtable-ai/roundtable/internal/types"
)

// InMemoryStore implements Store with nested maps, keyed project then key.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[types.ID]map[string]*Record
}

// NewInMemoryStore creates an empty in-memory memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[types.ID]map[string]*Record),
	}
}

// Get returns the record for (projectID, key), expired or not.
func (s *InMemoryStore) Get(ctx context.Context, projectID types.ID, key string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[projectID][key]
	if !ok {
		return nil, NewNotFoundError(key)
	}
	clone := *r
	return &clone, nil
}

// List returns all non-expired records for a project.
func (s *InMemoryStore) List(ctx context.Context, projectID types.ID) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now().UTC()
	var out []*Record
	for _, r := range s.records[projectID] {
		if r.IsExpired(now) {
			continue
		}
		clone := *r
		out = append(out, &clone)
	}
	return out, nil
}

// ListByType returns non-expired records of one type.
func (s *InMemoryStore) ListByType(ctx context.Context, projectID types.ID, t Type) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now().UTC()
	var out []*Record
	for _, r := range s.records[projectID] {
		if r.Type != t || r.IsExpired(now) {
			continue
		}
		clone := *r
		out = append(out, &clone)
	}
	return out, nil
}

// Save upserts a record by (projectID, key).
func (s *InMemoryStore) Save(ctx context.Context, r *Record) error {
	if err := r.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records[r.ProjectID] == nil {
		s.records[r.ProjectID] = make(map[string]*Record)
	}

	clone := *r
	clone.UpdatedAt = time.Now().UTC()
	s.records[r.ProjectID][r.Key] = &clone

	return nil
}

// Delete removes the record for (projectID, key). No-op for absent keys.
func (s *InMemoryStore) Delete(ctx context.Context, projectID types.ID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records[projectID], key)
	return nil
}
