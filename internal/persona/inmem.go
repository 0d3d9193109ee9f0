package persona

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/roundtable-ai/roundtable/internal/types"
)

// InMemoryStore implements Store with a map. Used in tests and as the
// reference implementation for store semantics.
type InMemoryStore struct {
	mu       sync.RWMutex
	personas map[types.ID]*Persona
}

// NewInMemoryStore creates an empty in-memory persona store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		personas: make(map[types.ID]*Persona),
	}
}

// Get returns the persona by id.
func (s *InMemoryStore) Get(ctx context.Context, id types.ID) (*Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.personas[id]
	if !ok {
		return nil, NewNotFoundError(id)
	}
	clone := *p
	return &clone, nil
}

// ListActive returns all active personas for a project, in creation order.
func (s *InMemoryStore) ListActive(ctx context.Context, projectID types.ID) ([]*Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var personas []*Persona
	for _, p := range s.personas {
		if p.ProjectID == projectID && p.Active {
			clone := *p
			personas = append(personas, &clone)
		}
	}

	sort.Slice(personas, func(i, j int) bool {
		if personas[i].CreatedAt.Equal(personas[j].CreatedAt) {
			return personas[i].ID < personas[j].ID
		}
		return personas[i].CreatedAt.Before(personas[j].CreatedAt)
	})

	return personas, nil
}

// Save upserts a persona by id.
func (s *InMemoryStore) Save(ctx context.Context, p *Persona) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *p
	clone.UpdatedAt = time.Now().UTC()
	s.personas[p.ID] = &clone

	return nil
}

// Deactivate clears the active flag.
func (s *InMemoryStore) Deactivate(ctx context.Context, id types.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.personas[id]
	if !ok {
		return NewNotFoundError(id)
	}

	p.Active = false
	p.UpdatedAt = time.Now().UTC()
	return nil
}
