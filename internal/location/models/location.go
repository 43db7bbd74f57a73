// Package models holds the church-location entities shared by the location
// store, service, and handlers.
package models

import (
	"time"

	"steeple/pkg/domain"
)

// DefaultRadiusMeters is applied when a location is created without an
// explicit geofence radius.
const DefaultRadiusMeters = 100

// Location is a saved church location. Which services it is active for is
// not a property of the row itself: activations live in a separate
// service-to-location mapping keyed by service type, which is what makes
// "at most one active location per service" structurally enforceable.
type Location struct {
	ID           domain.LocationID
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters int
	Address      string
	Description  string
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// View pairs a location with the services it is currently active for, in
// AllServiceTypes order. Handlers derive the legacy per-service booleans
// from ActiveFor.
type View struct {
	Location
	ActiveFor []domain.ServiceType
}

// ActiveForService reports whether the view covers the given service.
func (v View) ActiveForService(st domain.ServiceType) bool {
	for _, s := range v.ActiveFor {
		if s == st {
			return true
		}
	}
	return false
}

// UpdateParams carries the optional fields of a partial update. Nil means
// "leave unchanged".
type UpdateParams struct {
	Name         *string
	Latitude     *float64
	Longitude    *float64
	RadiusMeters *int
	Address      *string
	Description  *string
}
