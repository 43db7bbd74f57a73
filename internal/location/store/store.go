// Package store persists church locations and the per-service activation
// mapping. Implementations return pkg/platform/sentinel errors; the service
// layer translates them into domain errors.
package store

import (
	"context"

	"steeple/internal/location/models"
	"steeple/pkg/domain"
)

// Store is the persistence contract for the location registry.
type Store interface {
	// Create inserts a new location. Returns sentinel.ErrConflict when the
	// name is already taken.
	Create(ctx context.Context, loc *models.Location) error

	// Update overwrites the mutable fields of an existing location.
	// Returns sentinel.ErrNotFound when the id does not exist.
	Update(ctx context.Context, loc *models.Location) error

	// FindByID returns a location or sentinel.ErrNotFound.
	FindByID(ctx context.Context, id domain.LocationID) (*models.Location, error)

	// List returns all saved locations, newest first.
	List(ctx context.Context) ([]models.Location, error)

	// Delete removes a location. Returns sentinel.ErrNotFound when missing
	// and sentinel.ErrInvalidState while any activation still points at it.
	Delete(ctx context.Context, id domain.LocationID) error

	// Activate points every listed service type at the given location,
	// atomically replacing whatever location each service pointed at before.
	// No reader may observe two locations active for one service.
	// Returns sentinel.ErrNotFound when the id does not exist.
	Activate(ctx context.Context, id domain.LocationID, services []domain.ServiceType) error

	// Deactivate clears the activation for every listed service type.
	// Clearing a service with no active location is a no-op.
	Deactivate(ctx context.Context, services []domain.ServiceType) error

	// ActiveFor returns the location a service currently points at, or
	// sentinel.ErrNotFound when the service has no active location.
	ActiveFor(ctx context.Context, service domain.ServiceType) (*models.Location, error)

	// Activations returns the current service-to-location mapping.
	Activations(ctx context.Context) (map[domain.ServiceType]domain.LocationID, error)
}
