package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"steeple/internal/audit"
	"steeple/internal/location/models"
	"steeple/internal/location/store"
	"steeple/pkg/domain"
	dErrors "steeple/pkg/domain-errors"
	"steeple/pkg/platform/sentinel"
	"steeple/pkg/requestcontext"
)

// Service owns the location registry: CRUD over church locations plus the
// per-service activation mapping that decides where each service is held.
type Service struct {
	store    store.Store
	recorder *audit.Recorder
	logger   *slog.Logger
}

func New(st store.Store, recorder *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{store: st, recorder: recorder, logger: logger}
}

// CreateParams carries the fields accepted when registering a location.
// RadiusMeters of zero falls back to the default.
type CreateParams struct {
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters int
	Address      string
	Description  string
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*models.Location, error) {
	params.Name = strings.TrimSpace(params.Name)
	if err := validateGeometry(params.Name, params.Latitude, params.Longitude, params.RadiusMeters); err != nil {
		return nil, err
	}
	if params.RadiusMeters == 0 {
		params.RadiusMeters = models.DefaultRadiusMeters
	}

	now := requestcontext.Now(ctx)
	loc := &models.Location{
		ID:           domain.NewLocationID(),
		Name:         params.Name,
		Latitude:     params.Latitude,
		Longitude:    params.Longitude,
		RadiusMeters: params.RadiusMeters,
		Address:      strings.TrimSpace(params.Address),
		Description:  strings.TrimSpace(params.Description),
		CreatedBy:    requestcontext.AdminID(ctx),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, loc); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a location with this name already exists").
				Add("name", params.Name)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create location")
	}

	s.logger.InfoContext(ctx, "location created", "location_id", loc.ID.String(), "name", loc.Name)
	s.record(ctx, audit.KindLocationCreated, loc.ID.String(), map[string]any{"name": loc.Name})
	return loc, nil
}

func (s *Service) Update(ctx context.Context, id domain.LocationID, params models.UpdateParams) (*models.Location, error) {
	loc, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "location not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load location")
	}

	if params.Name != nil {
		loc.Name = strings.TrimSpace(*params.Name)
	}
	if params.Latitude != nil {
		loc.Latitude = *params.Latitude
	}
	if params.Longitude != nil {
		loc.Longitude = *params.Longitude
	}
	if params.RadiusMeters != nil {
		loc.RadiusMeters = *params.RadiusMeters
	}
	if params.Address != nil {
		loc.Address = strings.TrimSpace(*params.Address)
	}
	if params.Description != nil {
		loc.Description = strings.TrimSpace(*params.Description)
	}
	if err := validateGeometry(loc.Name, loc.Latitude, loc.Longitude, loc.RadiusMeters); err != nil {
		return nil, err
	}
	if loc.RadiusMeters == 0 {
		loc.RadiusMeters = models.DefaultRadiusMeters
	}
	loc.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, loc); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "location not found")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "a location with this name already exists").
				Add("name", loc.Name)
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update location")
		}
	}

	s.logger.InfoContext(ctx, "location updated", "location_id", id.String())
	s.record(ctx, audit.KindLocationUpdated, id.String(), map[string]any{"name": loc.Name})
	return loc, nil
}

// Delete removes a location. Locations still activated for a service are
// protected; deactivate them first.
func (s *Service) Delete(ctx context.Context, id domain.LocationID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "location not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			return dErrors.New(dErrors.CodeInvariantViolation,
				"location is active for one or more services and cannot be deleted")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete location")
		}
	}
	s.logger.InfoContext(ctx, "location deleted", "location_id", id.String())
	s.record(ctx, audit.KindLocationDeleted, id.String(), nil)
	return nil
}

func (s *Service) Get(ctx context.Context, id domain.LocationID) (*models.View, error) {
	loc, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "location not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load location")
	}
	activations, err := s.store.Activations(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load activations")
	}
	view := buildView(*loc, activations)
	return &view, nil
}

// List returns every registered location, newest first, each annotated with
// the services it is currently active for.
func (s *Service) List(ctx context.Context) ([]models.View, error) {
	locs, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list locations")
	}
	activations, err := s.store.Activations(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load activations")
	}
	views := make([]models.View, 0, len(locs))
	for _, loc := range locs {
		views = append(views, buildView(loc, activations))
	}
	return views, nil
}

// Activate points the listed services at the given location, replacing
// whatever location each service pointed at before.
func (s *Service) Activate(ctx context.Context, id domain.LocationID, services []domain.ServiceType) (*models.View, error) {
	if len(services) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "at least one service type is required")
	}
	if err := s.store.Activate(ctx, id, services); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "location not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to activate location")
	}

	names := make([]string, 0, len(services))
	for _, service := range services {
		names = append(names, service.String())
	}
	s.logger.InfoContext(ctx, "location activated", "location_id", id.String(), "services", names)
	s.record(ctx, audit.KindLocationActivated, id.String(), map[string]any{"services": names})
	return s.Get(ctx, id)
}

// Deactivate clears the activation for the listed services. Services with no
// active location are left untouched.
func (s *Service) Deactivate(ctx context.Context, services []domain.ServiceType) error {
	if len(services) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "at least one service type is required")
	}
	if err := s.store.Deactivate(ctx, services); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate services")
	}

	names := make([]string, 0, len(services))
	for _, service := range services {
		names = append(names, service.String())
	}
	s.logger.InfoContext(ctx, "services deactivated", "services", names)
	s.record(ctx, audit.KindLocationDeactivated, strings.Join(names, ","), nil)
	return nil
}

// ActiveOverview maps each service type to its active location, or nil when
// the service has none.
func (s *Service) ActiveOverview(ctx context.Context) (map[domain.ServiceType]*models.Location, error) {
	activations, err := s.store.Activations(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load activations")
	}

	out := make(map[domain.ServiceType]*models.Location, len(domain.AllServiceTypes()))
	for _, service := range domain.AllServiceTypes() {
		out[service] = nil
		id, ok := activations[service]
		if !ok {
			continue
		}
		loc, err := s.store.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load active location")
		}
		out[service] = loc
	}
	return out, nil
}

func (s *Service) record(ctx context.Context, kind audit.Kind, subject string, detail map[string]any) {
	s.recorder.Record(ctx, audit.Event{
		Kind:       kind,
		Actor:      requestcontext.AdminID(ctx),
		Subject:    subject,
		Detail:     detail,
		OccurredAt: requestcontext.Now(ctx),
	})
}

func validateGeometry(name string, lat, lon float64, radius int) error {
	if name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if lat < -90 || lat > 90 {
		return dErrors.New(dErrors.CodeValidation, "latitude must be between -90 and 90").
			Add("latitude", lat)
	}
	if lon < -180 || lon > 180 {
		return dErrors.New(dErrors.CodeValidation, "longitude must be between -180 and 180").
			Add("longitude", lon)
	}
	if radius < 0 {
		return dErrors.New(dErrors.CodeValidation, "radius must be positive").
			Add("radiusMeters", radius)
	}
	return nil
}

func buildView(loc models.Location, activations map[domain.ServiceType]domain.LocationID) models.View {
	view := models.View{Location: loc}
	for _, service := range domain.AllServiceTypes() {
		if activations[service] == loc.ID {
			view.ActiveFor = append(view.ActiveFor, service)
		}
	}
	return view
}
