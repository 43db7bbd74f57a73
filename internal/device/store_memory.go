package device

import (
	"context"
	"sync"
	"time"
)

type memoryClaim struct {
	email     string
	expiresAt time.Time
}

// InMemoryStore keeps device claims in a map with lazy expiry. Suitable for
// single-instance deployments and tests; multi-instance deployments need the
// Redis store so all instances see the same claims.
type InMemoryStore struct {
	mu     sync.Mutex
	claims map[string]memoryClaim
	now    func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		claims: make(map[string]memoryClaim),
		now:    time.Now,
	}
}

func (s *InMemoryStore) Claim(_ context.Context, key, email string, ttl time.Duration) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if existing, ok := s.claims[key]; ok && now.Before(existing.expiresAt) {
		return existing.email, false, nil
	}
	s.claims[key] = memoryClaim{email: email, expiresAt: now.Add(ttl)}
	return email, true, nil
}

func (s *InMemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, key)
	return nil
}
