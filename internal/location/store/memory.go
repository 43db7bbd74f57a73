package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"steeple/internal/location/models"
	"steeple/pkg/domain"
	"steeple/pkg/platform/sentinel"
)

// InMemory keeps locations and activations behind a single mutex. One lock
// covers both maps so activation swaps are atomic with respect to readers,
// mirroring the transactional guarantee of the Postgres store.
type InMemory struct {
	mu          sync.RWMutex
	locations   map[domain.LocationID]models.Location
	activations map[domain.ServiceType]domain.LocationID
}

// NewInMemory creates an empty in-memory location store.
func NewInMemory() *InMemory {
	return &InMemory{
		locations:   make(map[domain.LocationID]models.Location),
		activations: make(map[domain.ServiceType]domain.LocationID),
	}
}

func (s *InMemory) Create(_ context.Context, loc *models.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.locations {
		if strings.EqualFold(existing.Name, loc.Name) {
			return sentinel.ErrConflict
		}
	}
	s.locations[loc.ID] = *loc
	return nil
}

func (s *InMemory) Update(_ context.Context, loc *models.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locations[loc.ID]; !ok {
		return sentinel.ErrNotFound
	}
	for id, existing := range s.locations {
		if id != loc.ID && strings.EqualFold(existing.Name, loc.Name) {
			return sentinel.ErrConflict
		}
	}
	s.locations[loc.ID] = *loc
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.LocationID) (*models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, ok := s.locations[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := loc
	return &out, nil
}

func (s *InMemory) List(_ context.Context) ([]models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Location, 0, len(s.locations))
	for _, loc := range s.locations {
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, id domain.LocationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locations[id]; !ok {
		return sentinel.ErrNotFound
	}
	for _, active := range s.activations {
		if active == id {
			return sentinel.ErrInvalidState
		}
	}
	delete(s.locations, id)
	return nil
}

func (s *InMemory) Activate(_ context.Context, id domain.LocationID, services []domain.ServiceType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locations[id]; !ok {
		return sentinel.ErrNotFound
	}
	for _, service := range services {
		s.activations[service] = id
	}
	return nil
}

func (s *InMemory) Deactivate(_ context.Context, services []domain.ServiceType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, service := range services {
		delete(s.activations, service)
	}
	return nil
}

func (s *InMemory) ActiveFor(_ context.Context, service domain.ServiceType) (*models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.activations[service]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	loc, ok := s.locations[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := loc
	return &out, nil
}

func (s *InMemory) Activations(_ context.Context) (map[domain.ServiceType]domain.LocationID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.ServiceType]domain.LocationID, len(s.activations))
	for k, v := range s.activations {
		out[k] = v
	}
	return out, nil
}
