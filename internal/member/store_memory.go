package member

import (
	"context"
	"sync"

	"steeple/pkg/email"
	"steeple/pkg/platform/sentinel"
)

// InMemoryStore is a map-backed member registry for tests and single-node
// development runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]Member
}

// NewInMemoryStore creates an empty in-memory member registry.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byEmail: make(map[string]Member)}
}

// Seed inserts a member, replacing any previous entry with the same email.
func (s *InMemoryStore) Seed(m Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byEmail[email.Normalize(m.Email)] = m
}

func (s *InMemoryStore) FindByEmail(_ context.Context, address string) (*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byEmail[email.Normalize(address)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := m
	return &out, nil
}
