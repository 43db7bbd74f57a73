package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"steeple/internal/attendance/models"
	"steeple/internal/attendance/store"
	"steeple/internal/audit"
	"steeple/internal/device"
	"steeple/internal/geo"
	locmodels "steeple/internal/location/models"
	locstore "steeple/internal/location/store"
	"steeple/internal/member"
	"steeple/internal/platform/metrics"
	"steeple/internal/schedule"
	"steeple/pkg/domain"
	dErrors "steeple/pkg/domain-errors"
	"steeple/pkg/email"
	"steeple/pkg/platform/sentinel"
	"steeple/pkg/requestcontext"
)

const defaultHistoryLimit = 50

// Service is the attendance ledger. Mark runs the full verification
// pipeline: service window, device guard, member lookup, geofence, duplicate
// check, then the write.
type Service struct {
	records   store.Store
	members   member.Store
	locations locstore.Store
	scheduler *schedule.Scheduler
	guard     *device.Guard
	metrics   *metrics.Metrics
	recorder  *audit.Recorder
	logger    *slog.Logger
	tracer    trace.Tracer
}

func New(
	records store.Store,
	members member.Store,
	locations locstore.Store,
	scheduler *schedule.Scheduler,
	guard *device.Guard,
	m *metrics.Metrics,
	recorder *audit.Recorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		records:   records,
		members:   members,
		locations: locations,
		scheduler: scheduler,
		guard:     guard,
		metrics:   m,
		recorder:  recorder,
		logger:    logger,
		tracer:    otel.Tracer("steeple/attendance"),
	}
}

// MarkParams is the member-submitted attendance request.
type MarkParams struct {
	Email     string
	DeviceID  string
	Latitude  float64
	Longitude float64
}

// MarkResult is the accepted record plus the measured distance, which the
// client shows as confirmation.
type MarkResult struct {
	Record         models.Record
	Member         member.Member
	DistanceMeters float64
}

// Mark verifies and records one attendance submission.
func (s *Service) Mark(ctx context.Context, params MarkParams) (*MarkResult, error) {
	ctx, span := s.tracer.Start(ctx, "attendance.mark")
	defer span.End()

	result, err := s.mark(ctx, params)
	if err != nil {
		code := string(dErrors.CodeOf(err))
		span.SetAttributes(attribute.String("attendance.reject_reason", code))
		s.metrics.MarkRejected(code)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("attendance.service", result.Record.ServiceType.String()),
		attribute.Float64("attendance.distance_meters", result.DistanceMeters),
	)
	s.metrics.MarkAccepted(result.Record.ServiceType.String())
	return result, nil
}

func (s *Service) mark(ctx context.Context, params MarkParams) (*MarkResult, error) {
	normalized, err := s.validate(params)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	status := s.scheduler.CurrentService(now)
	if !status.Active {
		return nil, dErrors.New(dErrors.CodeOutsideWindow, "attendance can only be marked during a service").
			Add("schedule", s.schedulePayload())
	}
	service := status.Service
	day := s.scheduler.CalendarDay(now)

	outcome, err := s.guard.Check(ctx, params.DeviceID, day, service, normalized)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify device")
	}
	if !outcome.Allowed {
		s.metrics.FraudRejected()
		s.recorder.Record(ctx, audit.Event{
			Kind:    audit.KindAttendanceRejected,
			Subject: normalized,
			Detail: map[string]any{
				"reason":  string(dErrors.CodeDeviceConflict),
				"service": service.String(),
				"day":     day,
			},
			OccurredAt: now,
		})
		return nil, dErrors.New(dErrors.CodeDeviceConflict,
			"this device has already been used to mark attendance for this service").
			Add("existingEmail", maskEmail(outcome.ExistingEmail))
	}
	// Past this point every early return must free the device claim so the
	// member can retry from the same device. Only a claim created by this
	// request may be released: a re-attempt after a successful mark rides on
	// the existing claim, and freeing it would let another member mark from
	// the same device.
	release := func() {
		if outcome.NewlyClaimed {
			s.guard.Release(ctx, params.DeviceID, day, service)
		}
	}

	mem, err := s.members.FindByEmail(ctx, normalized)
	if err != nil {
		release()
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no member is registered with this email").
				Add("email", normalized)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up member")
	}

	loc, err := s.locations.ActiveFor(ctx, service)
	if err != nil {
		release()
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNoActiveLocation,
				"no location is configured for the current service").
				Add("service", service.String())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve active location")
	}

	distance := geo.DistanceMeters(params.Latitude, params.Longitude, loc.Latitude, loc.Longitude)
	s.metrics.ObserveDistance(distance)
	if distance > float64(loc.RadiusMeters) {
		release()
		return nil, dErrors.New(dErrors.CodeOutOfRange, "you are too far from the church to mark attendance").
			Add("distanceMeters", round(distance)).
			Add("allowedRadiusMeters", loc.RadiusMeters).
			Add("locationName", loc.Name)
	}

	if existing, err := s.records.FindForDay(ctx, mem.ID, service, day); err == nil {
		return nil, alreadyMarked(existing)
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		release()
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing attendance")
	}

	rec := &models.Record{
		ID:           domain.NewRecordID(),
		MemberID:     mem.ID,
		ServiceType:  service,
		RecordedAt:   now,
		AttendedOn:   day,
		Latitude:     params.Latitude,
		Longitude:    params.Longitude,
		LocationName: loc.Name,
		Verified:     true,
	}
	if err := s.records.Insert(ctx, rec); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost the race to a concurrent request for the same member.
			if existing, findErr := s.records.FindForDay(ctx, mem.ID, service, day); findErr == nil {
				return nil, alreadyMarked(existing)
			}
			return nil, alreadyMarked(rec)
		}
		release()
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record attendance")
	}

	s.logger.InfoContext(ctx, "attendance marked",
		"member_id", mem.ID.String(),
		"service", service.String(),
		"day", day,
		"distance_m", round(distance),
	)
	s.recorder.Record(ctx, audit.Event{
		Kind:    audit.KindAttendanceMarked,
		Subject: mem.ID.String(),
		Detail: map[string]any{
			"service":        service.String(),
			"day":            day,
			"distanceMeters": round(distance),
			"location":       loc.Name,
		},
		OccurredAt: now,
	})

	return &MarkResult{Record: *rec, Member: *mem, DistanceMeters: distance}, nil
}

func (s *Service) validate(params MarkParams) (string, error) {
	normalized := email.Normalize(params.Email)
	if normalized == "" || !email.IsValid(normalized) {
		return "", dErrors.New(dErrors.CodeValidation, "a valid email address is required")
	}
	if strings.TrimSpace(params.DeviceID) == "" {
		return "", dErrors.New(dErrors.CodeValidation, "deviceId is required")
	}
	if params.Latitude < -90 || params.Latitude > 90 || params.Longitude < -180 || params.Longitude > 180 {
		return "", dErrors.New(dErrors.CodeValidation, "coordinates are out of range").
			Add("latitude", params.Latitude).
			Add("longitude", params.Longitude)
	}
	return normalized, nil
}

// Status is what the client polls before showing the mark button. Schedule
// carries the full weekly timetable whether or not a window is open, so the
// client can always show when the next service starts.
type Status struct {
	Active         bool
	Service        domain.ServiceType
	ActiveLocation *locmodels.Location
	Schedule       []schedule.Window
}

// Status reports whether a service window is open right now and, if so,
// where it is held. A window with no activated location still reports
// Active so the client can explain why marking will fail.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	now := requestcontext.Now(ctx)
	status := s.scheduler.CurrentService(now)
	if !status.Active {
		return &Status{Schedule: s.scheduler.Windows()}, nil
	}

	loc, err := s.locations.ActiveFor(ctx, status.Service)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve active location")
	}
	return &Status{
		Active:         true,
		Service:        status.Service,
		ActiveLocation: loc,
		Schedule:       s.scheduler.Windows(),
	}, nil
}

// History is a member's recent attendance plus an all-time per-service
// summary.
type History struct {
	Member  member.Member
	Records []models.Record
	Totals  map[domain.ServiceType]int
}

// History resolves the member then fetches their records and per-service
// totals concurrently.
func (s *Service) History(ctx context.Context, rawEmail string) (*History, error) {
	normalized := email.Normalize(rawEmail)
	if normalized == "" || !email.IsValid(normalized) {
		return nil, dErrors.New(dErrors.CodeValidation, "a valid email address is required")
	}

	mem, err := s.members.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no member is registered with this email")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up member")
	}

	history := &History{Member: *mem}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := s.records.ListByMember(gctx, mem.ID, defaultHistoryLimit)
		if err != nil {
			return err
		}
		history.Records = records
		return nil
	})
	g.Go(func() error {
		totals := make(map[domain.ServiceType]int)
		all, err := s.records.ListByMember(gctx, mem.ID, 0)
		if err != nil {
			return err
		}
		for _, rec := range all {
			totals[rec.ServiceType]++
		}
		history.Totals = totals
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load attendance history")
	}
	return history, nil
}

// Listing is the admin view: filtered records plus per-service counts over
// the same filter.
type Listing struct {
	Records []models.Record
	Counts  map[domain.ServiceType]int
}

// List returns attendance records for administrators. A non-empty
// memberEmail narrows the listing to that member. Records and counts are
// fetched concurrently.
func (s *Service) List(ctx context.Context, filter models.ListFilter, memberEmail string) (*Listing, error) {
	if filter.Limit <= 0 {
		filter.Limit = 200
	}
	if memberEmail != "" {
		mem, err := s.members.FindByEmail(ctx, email.Normalize(memberEmail))
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "no member is registered with this email")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up member")
		}
		filter.Member = &mem.ID
	}

	listing := &Listing{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := s.records.List(gctx, filter)
		if err != nil {
			return err
		}
		listing.Records = records
		return nil
	})
	g.Go(func() error {
		counts, err := s.records.CountByService(gctx, filter)
		if err != nil {
			return err
		}
		listing.Counts = counts
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list attendance")
	}
	return listing, nil
}

func (s *Service) schedulePayload() []map[string]any {
	windows := s.scheduler.Windows()
	out := make([]map[string]any, 0, len(windows))
	for _, w := range windows {
		out = append(out, map[string]any{
			"service":   w.Service.String(),
			"weekday":   w.Weekday.String(),
			"startHour": w.StartHour,
			"endHour":   w.EndHour,
		})
	}
	return out
}

func alreadyMarked(existing *models.Record) error {
	return dErrors.New(dErrors.CodeAlreadyMarked, "attendance is already marked for this service today").
		Add("recordedAt", existing.RecordedAt).
		Add("locationName", existing.LocationName)
}

func maskEmail(addr string) string {
	local, domainPart, ok := strings.Cut(addr, "@")
	if !ok || local == "" {
		return addr
	}
	if len(local) <= 2 {
		return local[:1] + "***@" + domainPart
	}
	return fmt.Sprintf("%c***%c@%s", local[0], local[len(local)-1], domainPart)
}

func round(meters float64) int {
	return int(meters + 0.5)
}
