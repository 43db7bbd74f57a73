package store

import (
	"context"
	"sort"
	"sync"

	"steeple/internal/attendance/models"
	"steeple/pkg/domain"
	"steeple/pkg/platform/sentinel"
)

type dayKey struct {
	member  domain.MemberID
	service domain.ServiceType
	day     string
}

// InMemory keeps records in insertion order with a uniqueness index over
// (member, service, day), mirroring what the Postgres unique index enforces.
type InMemory struct {
	mu      sync.RWMutex
	records []models.Record
	byDay   map[dayKey]int
}

func NewInMemory() *InMemory {
	return &InMemory{byDay: make(map[dayKey]int)}
}

func (s *InMemory) Insert(_ context.Context, rec *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := dayKey{member: rec.MemberID, service: rec.ServiceType, day: rec.AttendedOn}
	if _, ok := s.byDay[key]; ok {
		return sentinel.ErrConflict
	}
	s.byDay[key] = len(s.records)
	s.records = append(s.records, *rec)
	return nil
}

func (s *InMemory) FindForDay(_ context.Context, memberID domain.MemberID, service domain.ServiceType, day string) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byDay[dayKey{member: memberID, service: service, day: day}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	rec := s.records[idx]
	return &rec, nil
}

func (s *InMemory) ListByMember(_ context.Context, memberID domain.MemberID, limit int) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Record
	for _, rec := range s.records {
		if rec.MemberID == memberID {
			out = append(out, rec)
		}
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemory) List(_ context.Context, filter models.ListFilter) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.filtered(filter)
	sortNewestFirst(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *InMemory) CountByService(_ context.Context, filter models.ListFilter) (map[domain.ServiceType]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.ServiceType]int)
	for _, rec := range s.filtered(filter) {
		counts[rec.ServiceType]++
	}
	return counts, nil
}

func (s *InMemory) filtered(filter models.ListFilter) []models.Record {
	var out []models.Record
	for _, rec := range s.records {
		if filter.Day != "" && rec.AttendedOn != filter.Day {
			continue
		}
		// ISO dates compare correctly as strings.
		if filter.Day == "" && filter.From != "" && rec.AttendedOn < filter.From {
			continue
		}
		if filter.Day == "" && filter.To != "" && rec.AttendedOn > filter.To {
			continue
		}
		if filter.Service != nil && rec.ServiceType != *filter.Service {
			continue
		}
		if filter.Member != nil && rec.MemberID != *filter.Member {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func sortNewestFirst(recs []models.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].RecordedAt.After(recs[j].RecordedAt)
	})
}
