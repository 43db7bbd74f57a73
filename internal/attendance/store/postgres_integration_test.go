//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"steeple/internal/attendance/models"
	"steeple/pkg/domain"
	"steeple/pkg/platform/sentinel"
	"steeple/pkg/testutil/containers"
)

type PostgresSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Postgres
	jane  domain.MemberID
}

func (s *PostgresSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.DB)
}

func (s *PostgresSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.pg.Truncate(ctx, "attendance_records", "members"))

	s.jane = domain.NewMemberID()
	_, err := s.pg.DB.ExecContext(ctx,
		`INSERT INTO members (id, email, first_name, last_name) VALUES ($1, $2, $3, $4)`,
		s.jane.String(), "jane@example.com", "Jane", "Mwangi")
	s.Require().NoError(err)
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) record(member domain.MemberID, service domain.ServiceType, day string, at time.Time) *models.Record {
	return &models.Record{
		ID:           domain.NewRecordID(),
		MemberID:     member,
		ServiceType:  service,
		RecordedAt:   at.UTC().Truncate(time.Microsecond),
		AttendedOn:   day,
		Latitude:     -1.2702,
		Longitude:    36.8102,
		LocationName: "Main Hall",
		Verified:     true,
	}
}

func (s *PostgresSuite) TestInsertAndFind() {
	rec := s.record(s.jane, domain.ServiceSabbathMorning, "2026-08-22",
		time.Date(2026, 8, 22, 7, 15, 0, 0, time.UTC))
	s.Require().NoError(s.store.Insert(context.Background(), rec))

	found, err := s.store.FindForDay(context.Background(), s.jane, domain.ServiceSabbathMorning, "2026-08-22")
	s.Require().NoError(err)
	s.Equal(rec.ID, found.ID)
	s.Equal("2026-08-22", found.AttendedOn)
	s.Equal("Main Hall", found.LocationName)
	s.True(found.Verified)
}

func (s *PostgresSuite) TestUniquePerServiceDay() {
	at := time.Date(2026, 8, 22, 7, 15, 0, 0, time.UTC)
	s.Require().NoError(s.store.Insert(context.Background(),
		s.record(s.jane, domain.ServiceSabbathMorning, "2026-08-22", at)))

	err := s.store.Insert(context.Background(),
		s.record(s.jane, domain.ServiceSabbathMorning, "2026-08-22", at.Add(time.Hour)))
	s.ErrorIs(err, sentinel.ErrConflict)

	// A different service the same day is a separate record.
	s.NoError(s.store.Insert(context.Background(),
		s.record(s.jane, domain.ServiceFridayVespers, "2026-08-22", at)))
}

func (s *PostgresSuite) TestFindForDayMissing() {
	_, err := s.store.FindForDay(context.Background(), s.jane, domain.ServiceSabbathMorning, "2026-08-22")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresSuite) TestListByMemberNewestFirst() {
	base := time.Date(2026, 8, 15, 7, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.Insert(context.Background(),
		s.record(s.jane, domain.ServiceSabbathMorning, "2026-08-15", base)))
	s.Require().NoError(s.store.Insert(context.Background(),
		s.record(s.jane, domain.ServiceSabbathMorning, "2026-08-22", base.AddDate(0, 0, 7))))

	recs, err := s.store.ListByMember(context.Background(), s.jane, 10)
	s.Require().NoError(err)
	s.Require().Len(recs, 2)
	s.Equal("2026-08-22", recs[0].AttendedOn)

	recs, err = s.store.ListByMember(context.Background(), s.jane, 1)
	s.Require().NoError(err)
	s.Len(recs, 1)
}

func (s *PostgresSuite) TestListAndCountsWithFilters() {
	ctx := context.Background()
	john := domain.NewMemberID()
	_, err := s.pg.DB.ExecContext(ctx,
		`INSERT INTO members (id, email) VALUES ($1, $2)`, john.String(), "john@example.com")
	s.Require().NoError(err)

	sat := time.Date(2026, 8, 22, 7, 0, 0, 0, time.UTC)
	fri := time.Date(2026, 8, 21, 15, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.Insert(ctx, s.record(s.jane, domain.ServiceSabbathMorning, "2026-08-22", sat)))
	s.Require().NoError(s.store.Insert(ctx, s.record(john, domain.ServiceSabbathMorning, "2026-08-22", sat.Add(time.Minute))))
	s.Require().NoError(s.store.Insert(ctx, s.record(s.jane, domain.ServiceFridayVespers, "2026-08-21", fri)))

	recs, err := s.store.List(ctx, models.ListFilter{Day: "2026-08-22"})
	s.Require().NoError(err)
	s.Len(recs, 2)

	sabbath := domain.ServiceSabbathMorning
	recs, err = s.store.List(ctx, models.ListFilter{Service: &sabbath})
	s.Require().NoError(err)
	s.Len(recs, 2)

	counts, err := s.store.CountByService(ctx, models.ListFilter{})
	s.Require().NoError(err)
	s.Equal(2, counts[domain.ServiceSabbathMorning])
	s.Equal(1, counts[domain.ServiceFridayVespers])

	counts, err = s.store.CountByService(ctx, models.ListFilter{Day: "2026-08-21"})
	s.Require().NoError(err)
	s.Equal(1, counts[domain.ServiceFridayVespers])
	s.Zero(counts[domain.ServiceSabbathMorning])

	recs, err = s.store.List(ctx, models.ListFilter{From: "2026-08-21", To: "2026-08-21"})
	s.Require().NoError(err)
	s.Len(recs, 1)

	recs, err = s.store.List(ctx, models.ListFilter{Member: &s.jane})
	s.Require().NoError(err)
	s.Len(recs, 2)
}
