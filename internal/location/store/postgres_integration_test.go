//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"steeple/internal/location/models"
	"steeple/pkg/domain"
	"steeple/pkg/platform/sentinel"
	"steeple/pkg/testutil/containers"
)

type PostgresSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Postgres
}

func (s *PostgresSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.DB)
}

func (s *PostgresSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(context.Background(), "service_activations", "church_locations"))
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) newLocation(name string) *models.Location {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Location{
		ID:           domain.NewLocationID(),
		Name:         name,
		Latitude:     -1.2702,
		Longitude:    36.8102,
		RadiusMeters: 100,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *PostgresSuite) TestCreateAndFind() {
	loc := s.newLocation("Main Hall")
	s.Require().NoError(s.store.Create(context.Background(), loc))

	found, err := s.store.FindByID(context.Background(), loc.ID)
	s.Require().NoError(err)
	s.Equal(loc.Name, found.Name)
	s.Equal(loc.RadiusMeters, found.RadiusMeters)
	s.InDelta(loc.Latitude, found.Latitude, 1e-9)
}

func (s *PostgresSuite) TestCreateDuplicateName() {
	s.Require().NoError(s.store.Create(context.Background(), s.newLocation("Main Hall")))

	err := s.store.Create(context.Background(), s.newLocation("Main Hall"))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresSuite) TestUpdate() {
	loc := s.newLocation("Main Hall")
	s.Require().NoError(s.store.Create(context.Background(), loc))

	loc.Name = "Chapel"
	loc.RadiusMeters = 250
	s.Require().NoError(s.store.Update(context.Background(), loc))

	found, err := s.store.FindByID(context.Background(), loc.ID)
	s.Require().NoError(err)
	s.Equal("Chapel", found.Name)
	s.Equal(250, found.RadiusMeters)
}

func (s *PostgresSuite) TestUpdateMissing() {
	loc := s.newLocation("Ghost")
	s.ErrorIs(s.store.Update(context.Background(), loc), sentinel.ErrNotFound)
}

func (s *PostgresSuite) TestActivationSwap() {
	first := s.newLocation("Main Hall")
	second := s.newLocation("Annex")
	s.Require().NoError(s.store.Create(context.Background(), first))
	s.Require().NoError(s.store.Create(context.Background(), second))

	services := []domain.ServiceType{domain.ServiceSabbathMorning, domain.ServiceFridayVespers}
	s.Require().NoError(s.store.Activate(context.Background(), first.ID, services))

	active, err := s.store.ActiveFor(context.Background(), domain.ServiceSabbathMorning)
	s.Require().NoError(err)
	s.Equal(first.ID, active.ID)

	s.Require().NoError(s.store.Activate(context.Background(), second.ID,
		[]domain.ServiceType{domain.ServiceSabbathMorning}))

	activations, err := s.store.Activations(context.Background())
	s.Require().NoError(err)
	s.Equal(second.ID, activations[domain.ServiceSabbathMorning])
	s.Equal(first.ID, activations[domain.ServiceFridayVespers])

	_, err = s.store.ActiveFor(context.Background(), domain.ServiceWednesdayVespers)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresSuite) TestActivateMissingLocation() {
	err := s.store.Activate(context.Background(), domain.NewLocationID(),
		[]domain.ServiceType{domain.ServiceSabbathMorning})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresSuite) TestDeleteGuards() {
	loc := s.newLocation("Main Hall")
	s.Require().NoError(s.store.Create(context.Background(), loc))
	s.Require().NoError(s.store.Activate(context.Background(), loc.ID,
		[]domain.ServiceType{domain.ServiceSabbathMorning}))

	s.ErrorIs(s.store.Delete(context.Background(), loc.ID), sentinel.ErrInvalidState)

	s.Require().NoError(s.store.Deactivate(context.Background(),
		[]domain.ServiceType{domain.ServiceSabbathMorning}))
	s.Require().NoError(s.store.Delete(context.Background(), loc.ID))

	_, err := s.store.FindByID(context.Background(), loc.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresSuite) TestListNewestFirst() {
	first := s.newLocation("Older")
	first.CreatedAt = time.Now().UTC().Add(-time.Hour)
	second := s.newLocation("Newer")
	s.Require().NoError(s.store.Create(context.Background(), first))
	s.Require().NoError(s.store.Create(context.Background(), second))

	locs, err := s.store.List(context.Background())
	s.Require().NoError(err)
	s.Require().Len(locs, 2)
	s.Equal("Newer", locs[0].Name)
}
