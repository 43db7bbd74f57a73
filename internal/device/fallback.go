package device

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// FallbackStore wraps a primary usage store (Redis) with an in-memory
// fallback behind a simple circuit breaker. When Redis is down the guard
// keeps enforcing per-instance rather than failing every mark request; the
// window where two instances could both accept the same device is accepted
// as the cost of staying up.
type FallbackStore struct {
	primary  UsageStore
	fallback UsageStore
	logger   *slog.Logger

	mu        sync.Mutex
	failures  int
	openUntil time.Time

	threshold int
	cooldown  time.Duration
}

func NewFallbackStore(primary, fallback UsageStore, logger *slog.Logger) *FallbackStore {
	return &FallbackStore{
		primary:   primary,
		fallback:  fallback,
		logger:    logger,
		threshold: 3,
		cooldown:  30 * time.Second,
	}
}

func (s *FallbackStore) Claim(ctx context.Context, key, email string, ttl time.Duration) (string, bool, error) {
	if s.open() {
		return s.fallback.Claim(ctx, key, email, ttl)
	}

	holder, claimed, err := s.primary.Claim(ctx, key, email, ttl)
	if err != nil {
		s.recordFailure(ctx, err)
		return s.fallback.Claim(ctx, key, email, ttl)
	}
	s.recordSuccess()
	return holder, claimed, nil
}

func (s *FallbackStore) Release(ctx context.Context, key string) error {
	// Best effort on both sides so a claim made during an outage does not
	// linger in the fallback after the primary recovers.
	var primaryErr error
	if !s.open() {
		if primaryErr = s.primary.Release(ctx, key); primaryErr != nil {
			s.recordFailure(ctx, primaryErr)
		} else {
			s.recordSuccess()
		}
	}
	if err := s.fallback.Release(ctx, key); err != nil {
		return err
	}
	return primaryErr
}

func (s *FallbackStore) open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Now().Before(s.openUntil)
}

func (s *FallbackStore) recordFailure(ctx context.Context, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures++
	if s.failures >= s.threshold {
		s.openUntil = time.Now().Add(s.cooldown)
		s.failures = 0
		s.logger.WarnContext(ctx, "device usage store circuit opened",
			"cooldown", s.cooldown.String(),
			"error", err,
		)
	}
}

func (s *FallbackStore) recordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = 0
}
