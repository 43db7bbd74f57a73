package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"steeple/internal/attendance/models"
	"steeple/internal/attendance/store"
	"steeple/internal/audit"
	"steeple/internal/device"
	locmodels "steeple/internal/location/models"
	locservice "steeple/internal/location/service"
	locstore "steeple/internal/location/store"
	"steeple/internal/member"
	"steeple/internal/schedule"
	"steeple/pkg/domain"
	dErrors "steeple/pkg/domain-errors"
	"steeple/pkg/requestcontext"
)

const (
	hallLat = -1.2702
	hallLon = 36.8102
)

type MarkSuite struct {
	suite.Suite
	nairobi   *time.Location
	members   *member.InMemoryStore
	locations *locstore.InMemory
	records   *store.InMemory
	devices   *device.InMemoryStore
	svc       *Service

	jane member.Member
	hall *locmodels.Location
}

func (s *MarkSuite) SetupTest() {
	loc, err := time.LoadLocation("Africa/Nairobi")
	s.Require().NoError(err)
	s.nairobi = loc

	logger := slog.New(slog.DiscardHandler)
	s.members = member.NewInMemoryStore()
	s.locations = locstore.NewInMemory()
	s.records = store.NewInMemory()
	s.devices = device.NewInMemoryStore()

	s.svc = New(
		s.records,
		s.members,
		s.locations,
		schedule.New(loc),
		device.NewGuard(s.devices, 24*time.Hour, logger),
		nil,
		audit.NewRecorder(audit.NewInMemoryStore(), logger),
		logger,
	)

	s.jane = member.Member{
		ID:        domain.NewMemberID(),
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Mwangi",
	}
	s.members.Seed(s.jane)

	registry := locservice.New(s.locations, audit.NewRecorder(audit.NewInMemoryStore(), logger), logger)
	s.hall, err = registry.Create(context.Background(), locservice.CreateParams{
		Name:      "Main Hall",
		Latitude:  hallLat,
		Longitude: hallLon,
	})
	s.Require().NoError(err)
	_, err = registry.Activate(context.Background(), s.hall.ID, domain.AllServiceTypes())
	s.Require().NoError(err)
}

func TestMarkSuite(t *testing.T) {
	suite.Run(t, new(MarkSuite))
}

// sabbathMorning is Saturday 2026-08-22 10:00 in Nairobi, inside the
// morning window.
func (s *MarkSuite) sabbathMorning() context.Context {
	at := time.Date(2026, time.August, 22, 10, 0, 0, 0, s.nairobi)
	return requestcontext.WithTime(context.Background(), at)
}

func (s *MarkSuite) sundayMorning() context.Context {
	at := time.Date(2026, time.August, 23, 10, 0, 0, 0, s.nairobi)
	return requestcontext.WithTime(context.Background(), at)
}

func (s *MarkSuite) markJane(ctx context.Context, deviceID string) (*MarkResult, error) {
	return s.svc.Mark(ctx, MarkParams{
		Email:     "jane@example.com",
		DeviceID:  deviceID,
		Latitude:  hallLat,
		Longitude: hallLon,
	})
}

func (s *MarkSuite) TestHappyPath() {
	result, err := s.markJane(s.sabbathMorning(), "phone-1")
	s.Require().NoError(err)

	s.Equal(domain.ServiceSabbathMorning, result.Record.ServiceType)
	s.Equal("2026-08-22", result.Record.AttendedOn)
	s.Equal("Main Hall", result.Record.LocationName)
	s.True(result.Record.Verified)
	s.Equal(s.jane.ID, result.Record.MemberID)
	s.Less(result.DistanceMeters, 1.0)
}

func (s *MarkSuite) TestEmailNormalized() {
	result, err := s.svc.Mark(s.sabbathMorning(), MarkParams{
		Email:     "  Jane@Example.COM ",
		DeviceID:  "phone-1",
		Latitude:  hallLat,
		Longitude: hallLon,
	})
	s.Require().NoError(err)
	s.Equal(s.jane.ID, result.Record.MemberID)
}

func (s *MarkSuite) TestValidation() {
	cases := []struct {
		name   string
		params MarkParams
	}{
		{"missing email", MarkParams{DeviceID: "d", Latitude: 0, Longitude: 0}},
		{"malformed email", MarkParams{Email: "not-an-email", DeviceID: "d"}},
		{"missing device", MarkParams{Email: "jane@example.com"}},
		{"latitude out of range", MarkParams{Email: "jane@example.com", DeviceID: "d", Latitude: 91}},
		{"longitude out of range", MarkParams{Email: "jane@example.com", DeviceID: "d", Longitude: -181}},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.svc.Mark(s.sabbathMorning(), tc.params)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func (s *MarkSuite) TestOutsideWindowCarriesSchedule() {
	_, err := s.markJane(s.sundayMorning(), "phone-1")
	s.Require().True(dErrors.HasCode(err, dErrors.CodeOutsideWindow))

	details := dErrors.Load(err)
	s.Contains(details, "schedule")
}

func (s *MarkSuite) TestUnknownMemberReleasesDevice() {
	ctx := s.sabbathMorning()
	_, err := s.svc.Mark(ctx, MarkParams{
		Email:     "stranger@example.com",
		DeviceID:  "phone-1",
		Latitude:  hallLat,
		Longitude: hallLon,
	})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))

	// The failed attempt must not burn the device for a real member.
	_, err = s.markJane(ctx, "phone-1")
	s.NoError(err)
}

func (s *MarkSuite) TestDeviceUsedByAnotherMember() {
	john := member.Member{ID: domain.NewMemberID(), Email: "john@example.com", FirstName: "John"}
	s.members.Seed(john)

	ctx := s.sabbathMorning()
	_, err := s.markJane(ctx, "shared-phone")
	s.Require().NoError(err)

	_, err = s.svc.Mark(ctx, MarkParams{
		Email:     "john@example.com",
		DeviceID:  "shared-phone",
		Latitude:  hallLat,
		Longitude: hallLon,
	})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeDeviceConflict))
	s.Equal("j***e@example.com", dErrors.Load(err)["existingEmail"])
}

func (s *MarkSuite) TestFailedRetryKeepsEarlierClaim() {
	john := member.Member{ID: domain.NewMemberID(), Email: "john@example.com", FirstName: "John"}
	s.members.Seed(john)

	ctx := s.sabbathMorning()
	_, err := s.markJane(ctx, "shared-phone")
	s.Require().NoError(err)

	// Jane retries from outside the geofence. The failure must not free the
	// claim her successful mark created.
	later := time.Date(2026, time.August, 22, 10, 30, 0, 0, s.nairobi)
	_, err = s.svc.Mark(requestcontext.WithTime(context.Background(), later), MarkParams{
		Email:     "jane@example.com",
		DeviceID:  "shared-phone",
		Latitude:  hallLat + 0.01,
		Longitude: hallLon,
	})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeOutOfRange))

	_, err = s.svc.Mark(ctx, MarkParams{
		Email:     "john@example.com",
		DeviceID:  "shared-phone",
		Latitude:  hallLat,
		Longitude: hallLon,
	})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeDeviceConflict))
	s.Equal("j***e@example.com", dErrors.Load(err)["existingEmail"])
}

func (s *MarkSuite) TestSameDeviceDifferentServiceDay() {
	_, err := s.markJane(s.sabbathMorning(), "phone-1")
	s.Require().NoError(err)

	// Friday vespers the following week from the same phone.
	at := time.Date(2026, time.August, 28, 18, 0, 0, 0, s.nairobi)
	_, err = s.markJane(requestcontext.WithTime(context.Background(), at), "phone-1")
	s.NoError(err)
}

func (s *MarkSuite) TestNoActiveLocation() {
	reg := locservice.New(s.locations, audit.NewRecorder(audit.NewInMemoryStore(), slog.New(slog.DiscardHandler)), slog.New(slog.DiscardHandler))
	s.Require().NoError(reg.Deactivate(context.Background(), domain.AllServiceTypes()))

	_, err := s.markJane(s.sabbathMorning(), "phone-1")
	s.Require().True(dErrors.HasCode(err, dErrors.CodeNoActiveLocation))

	// The device claim is released; reactivating lets the retry through.
	_, err = reg.Activate(context.Background(), s.hall.ID, domain.AllServiceTypes())
	s.Require().NoError(err)
	_, err = s.markJane(s.sabbathMorning(), "phone-1")
	s.NoError(err)
}

func (s *MarkSuite) TestGeofenceBoundary() {
	// 0.001 degrees of latitude is about 111.19 m from the hall.
	farLat := hallLat + 0.001

	mark := func() error {
		_, err := s.svc.Mark(s.sabbathMorning(), MarkParams{
			Email:     "jane@example.com",
			DeviceID:  "phone-1",
			Latitude:  farLat,
			Longitude: hallLon,
		})
		return err
	}

	// Default 100 m radius rejects and reports the measured distance.
	err := mark()
	s.Require().True(dErrors.HasCode(err, dErrors.CodeOutOfRange))
	details := dErrors.Load(err)
	s.Equal(111, details["distanceMeters"])
	s.Equal(100, details["allowedRadiusMeters"])

	// Widening the radius to cover the measured distance admits the same
	// point; the comparison is strictly greater-than.
	radius := 112
	reg := locservice.New(s.locations, audit.NewRecorder(audit.NewInMemoryStore(), slog.New(slog.DiscardHandler)), slog.New(slog.DiscardHandler))
	_, err = reg.Update(context.Background(), s.hall.ID, locmodels.UpdateParams{RadiusMeters: &radius})
	s.Require().NoError(err)
	s.NoError(mark())
}

func (s *MarkSuite) TestDuplicateSameDay() {
	ctx := s.sabbathMorning()
	first, err := s.markJane(ctx, "phone-1")
	s.Require().NoError(err)

	// Later the same service, different device.
	later := time.Date(2026, time.August, 22, 14, 0, 0, 0, s.nairobi)
	_, err = s.markJane(requestcontext.WithTime(context.Background(), later), "phone-2")
	s.Require().True(dErrors.HasCode(err, dErrors.CodeAlreadyMarked))

	details := dErrors.Load(err)
	s.Equal(first.Record.RecordedAt, details["recordedAt"])
	s.Equal("Main Hall", details["locationName"])
}

func (s *MarkSuite) TestSameServiceNextWeekAllowed() {
	_, err := s.markJane(s.sabbathMorning(), "phone-1")
	s.Require().NoError(err)

	nextWeek := time.Date(2026, time.August, 29, 10, 0, 0, 0, s.nairobi)
	_, err = s.markJane(requestcontext.WithTime(context.Background(), nextWeek), "phone-1")
	s.NoError(err)
}

func (s *MarkSuite) TestStatus() {
	status, err := s.svc.Status(s.sabbathMorning())
	s.Require().NoError(err)
	s.True(status.Active)
	s.Equal(domain.ServiceSabbathMorning, status.Service)
	s.Require().NotNil(status.ActiveLocation)
	s.Equal("Main Hall", status.ActiveLocation.Name)
	s.Len(status.Schedule, 3)

	// The weekly timetable is reported outside service hours too.
	status, err = s.svc.Status(s.sundayMorning())
	s.Require().NoError(err)
	s.False(status.Active)
	s.Nil(status.ActiveLocation)
	s.Len(status.Schedule, 3)
}

func (s *MarkSuite) TestHistory() {
	_, err := s.markJane(s.sabbathMorning(), "phone-1")
	s.Require().NoError(err)
	fri := time.Date(2026, time.August, 21, 18, 0, 0, 0, s.nairobi)
	_, err = s.markJane(requestcontext.WithTime(context.Background(), fri), "phone-1")
	s.Require().NoError(err)

	history, err := s.svc.History(context.Background(), "JANE@example.com")
	s.Require().NoError(err)
	s.Equal(s.jane.ID, history.Member.ID)
	s.Require().Len(history.Records, 2)
	s.Equal(domain.ServiceSabbathMorning, history.Records[0].ServiceType)
	s.Equal(1, history.Totals[domain.ServiceSabbathMorning])
	s.Equal(1, history.Totals[domain.ServiceFridayVespers])

	_, err = s.svc.History(context.Background(), "stranger@example.com")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *MarkSuite) TestAdminListing() {
	john := member.Member{ID: domain.NewMemberID(), Email: "john@example.com"}
	s.members.Seed(john)

	_, err := s.markJane(s.sabbathMorning(), "phone-1")
	s.Require().NoError(err)
	_, err = s.svc.Mark(s.sabbathMorning(), MarkParams{
		Email: "john@example.com", DeviceID: "phone-2", Latitude: hallLat, Longitude: hallLon,
	})
	s.Require().NoError(err)
	fri := time.Date(2026, time.August, 21, 18, 0, 0, 0, s.nairobi)
	_, err = s.markJane(requestcontext.WithTime(context.Background(), fri), "phone-1")
	s.Require().NoError(err)

	listing, err := s.svc.List(context.Background(), models.ListFilter{Day: "2026-08-22"}, "")
	s.Require().NoError(err)
	s.Len(listing.Records, 2)
	s.Equal(2, listing.Counts[domain.ServiceSabbathMorning])
	s.Zero(listing.Counts[domain.ServiceFridayVespers])

	sabbath := domain.ServiceSabbathMorning
	listing, err = s.svc.List(context.Background(), models.ListFilter{Service: &sabbath}, "")
	s.Require().NoError(err)
	s.Len(listing.Records, 2)

	listing, err = s.svc.List(context.Background(), models.ListFilter{From: "2026-08-22", To: "2026-08-23"}, "")
	s.Require().NoError(err)
	s.Len(listing.Records, 2)

	listing, err = s.svc.List(context.Background(), models.ListFilter{}, "jane@example.com")
	s.Require().NoError(err)
	s.Len(listing.Records, 2)
	s.Equal(1, listing.Counts[domain.ServiceSabbathMorning])
	s.Equal(1, listing.Counts[domain.ServiceFridayVespers])

	_, err = s.svc.List(context.Background(), models.ListFilter{}, "stranger@example.com")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
