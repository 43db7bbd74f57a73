package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"steeple/internal/location/models"
	"steeple/pkg/domain"
	"steeple/pkg/platform/sentinel"
)

const pgUniqueViolation = "23505"

// Postgres persists locations in church_locations and activations in
// service_activations. This store is pure I/O; validation and error
// translation belong in the service.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed location store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const locationColumns = `id, name, latitude, longitude, radius_m,
	COALESCE(address, ''), COALESCE(description, ''), created_by, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, loc *models.Location) error {
	query := `
		INSERT INTO church_locations
			(id, name, latitude, longitude, radius_m, address, description, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		loc.ID.String(), loc.Name, loc.Latitude, loc.Longitude, loc.RadiusMeters,
		loc.Address, loc.Description, loc.CreatedBy, loc.CreatedAt, loc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create location: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, loc *models.Location) error {
	query := `
		UPDATE church_locations
		SET name = $2, latitude = $3, longitude = $4, radius_m = $5,
		    address = $6, description = $7, updated_at = $8
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		loc.ID.String(), loc.Name, loc.Latitude, loc.Longitude, loc.RadiusMeters,
		loc.Address, loc.Description, loc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update location: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update location rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.LocationID) (*models.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM church_locations WHERE id = $1`
	loc, err := scanLocation(s.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find location: %w", err)
	}
	return loc, nil
}

func (s *Postgres) List(ctx context.Context) ([]models.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM church_locations ORDER BY created_at DESC, name`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var out []models.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, *loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return out, nil
}

func (s *Postgres) Delete(ctx context.Context, id domain.LocationID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete location: %w", err)
	}
	defer tx.Rollback()

	var active int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM service_activations WHERE location_id = $1`, id.String(),
	).Scan(&active)
	if err != nil {
		return fmt.Errorf("check location activations: %w", err)
	}
	if active > 0 {
		return sentinel.ErrInvalidState
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM church_locations WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete location: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete location rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return tx.Commit()
}

// Activate swaps the activation rows inside one transaction so concurrent
// ActiveFor readers see either the old location or the new one, never both.
func (s *Postgres) Activate(ctx context.Context, id domain.LocationID, services []domain.ServiceType) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activate location: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM church_locations WHERE id = $1)`, id.String(),
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check location exists: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}

	upsert := `
		INSERT INTO service_activations (service_type, location_id, activated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (service_type) DO UPDATE SET
			location_id = EXCLUDED.location_id,
			activated_at = EXCLUDED.activated_at
	`
	for _, service := range services {
		if _, err := tx.ExecContext(ctx, upsert, service.String(), id.String()); err != nil {
			return fmt.Errorf("activate service %s: %w", service, err)
		}
	}
	return tx.Commit()
}

func (s *Postgres) Deactivate(ctx context.Context, services []domain.ServiceType) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin deactivate: %w", err)
	}
	defer tx.Rollback()

	for _, service := range services {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM service_activations WHERE service_type = $1`, service.String(),
		); err != nil {
			return fmt.Errorf("deactivate service %s: %w", service, err)
		}
	}
	return tx.Commit()
}

func (s *Postgres) ActiveFor(ctx context.Context, service domain.ServiceType) (*models.Location, error) {
	query := `
		SELECT ` + locationColumns + `
		FROM church_locations
		JOIN service_activations ON service_activations.location_id = church_locations.id
		WHERE service_activations.service_type = $1
	`
	loc, err := scanLocation(s.db.QueryRowContext(ctx, query, service.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("active location for %s: %w", service, err)
	}
	return loc, nil
}

func (s *Postgres) Activations(ctx context.Context) (map[domain.ServiceType]domain.LocationID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT service_type, location_id FROM service_activations`)
	if err != nil {
		return nil, fmt.Errorf("list activations: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.ServiceType]domain.LocationID)
	for rows.Next() {
		var service, locID string
		if err := rows.Scan(&service, &locID); err != nil {
			return nil, fmt.Errorf("scan activation: %w", err)
		}
		parsed, err := uuid.Parse(locID)
		if err != nil {
			return nil, fmt.Errorf("activation for %s has malformed location id: %w", service, err)
		}
		out[domain.ServiceType(service)] = domain.LocationID(parsed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list activations: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLocation(row rowScanner) (*models.Location, error) {
	var (
		id  string
		loc models.Location
	)
	err := row.Scan(&id, &loc.Name, &loc.Latitude, &loc.Longitude, &loc.RadiusMeters,
		&loc.Address, &loc.Description, &loc.CreatedBy, &loc.CreatedAt, &loc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("location %q has malformed id: %w", loc.Name, err)
	}
	loc.ID = domain.LocationID(parsed)
	return &loc, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
