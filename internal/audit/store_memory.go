package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps events in a slice. Used in unit tests and when the
// server runs without Postgres.
type InMemoryStore struct {
	mu     sync.Mutex
	events []Event
	nextID int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event.ID = s.nextID
	s.nextID++
	s.events = append(s.events, event)
	return nil
}

// List returns the most recent events first.
func (s *InMemoryStore) List(_ context.Context, limit int) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.events) {
		limit = len(s.events)
	}
	out := make([]Event, 0, limit)
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}
