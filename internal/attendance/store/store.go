package store

import (
	"context"

	"steeple/internal/attendance/models"
	"steeple/pkg/domain"
)

// Store persists attendance records.
//
// Insert returns sentinel.ErrConflict when a record for the same member,
// service and calendar day already exists; the unique index is the final
// arbiter when two requests race past the duplicate check.
type Store interface {
	Insert(ctx context.Context, rec *models.Record) error

	// FindForDay returns the member's record for a service on a calendar
	// day, or sentinel.ErrNotFound.
	FindForDay(ctx context.Context, memberID domain.MemberID, service domain.ServiceType, day string) (*models.Record, error)

	// ListByMember returns the member's records, most recent first.
	ListByMember(ctx context.Context, memberID domain.MemberID, limit int) ([]models.Record, error)

	// List returns records matching the filter, most recent first.
	List(ctx context.Context, filter models.ListFilter) ([]models.Record, error)

	// CountByService returns per-service totals for records matching the
	// filter (Limit is ignored).
	CountByService(ctx context.Context, filter models.ListFilter) (map[domain.ServiceType]int, error)
}
