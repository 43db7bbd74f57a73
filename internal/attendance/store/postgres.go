package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"steeple/internal/attendance/models"
	"steeple/pkg/domain"
	"steeple/pkg/platform/sentinel"
)

const (
	pgUniqueViolation = "23505"
	isoDate           = "2006-01-02"

	recordColumns = `id, member_id, service_type, recorded_at,
		to_char(attended_on, 'YYYY-MM-DD'), latitude, longitude, location_name, verified`
)

// Postgres persists attendance records in attendance_records.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Insert(ctx context.Context, rec *models.Record) error {
	day, err := time.Parse(isoDate, rec.AttendedOn)
	if err != nil {
		return fmt.Errorf("parse attended_on %q: %w", rec.AttendedOn, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO attendance_records
			(id, member_id, service_type, recorded_at, attended_on,
			 latitude, longitude, location_name, verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		rec.ID.String(), rec.MemberID.String(), rec.ServiceType.String(),
		rec.RecordedAt, day, rec.Latitude, rec.Longitude, rec.LocationName, rec.Verified,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert attendance record: %w", err)
	}
	return nil
}

func (s *Postgres) FindForDay(ctx context.Context, memberID domain.MemberID, service domain.ServiceType, day string) (*models.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records
		WHERE member_id = $1 AND service_type = $2 AND attended_on = $3::date
	`
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, memberID.String(), service.String(), day))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find attendance record: %w", err)
	}
	return rec, nil
}

func (s *Postgres) ListByMember(ctx context.Context, memberID domain.MemberID, limit int) ([]models.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records
		WHERE member_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, memberID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("list member attendance: %w", err)
	}
	return collectRecords(rows)
}

func (s *Postgres) List(ctx context.Context, filter models.ListFilter) ([]models.Record, error) {
	query, args := buildFilter(`SELECT `+recordColumns+` FROM attendance_records`, filter)
	query += ` ORDER BY recorded_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return collectRecords(rows)
}

func (s *Postgres) CountByService(ctx context.Context, filter models.ListFilter) (map[domain.ServiceType]int, error) {
	query, args := buildFilter(`SELECT service_type, COUNT(*) FROM attendance_records`, filter)
	query += ` GROUP BY service_type`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count attendance: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.ServiceType]int)
	for rows.Next() {
		var (
			service string
			count   int
		)
		if err := rows.Scan(&service, &count); err != nil {
			return nil, fmt.Errorf("scan attendance count: %w", err)
		}
		counts[domain.ServiceType(service)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count attendance: %w", err)
	}
	return counts, nil
}

func buildFilter(base string, filter models.ListFilter) (string, []any) {
	var args []any
	query := base
	clause := " WHERE"
	appendCond := func(op, cast, arg string) {
		args = append(args, arg)
		query += fmt.Sprintf("%s %s $%d%s", clause, op, len(args), cast)
		clause = " AND"
	}

	if filter.Day != "" {
		appendCond("attended_on =", "::date", filter.Day)
	}
	if filter.Day == "" && filter.From != "" {
		appendCond("attended_on >=", "::date", filter.From)
	}
	if filter.Day == "" && filter.To != "" {
		appendCond("attended_on <=", "::date", filter.To)
	}
	if filter.Service != nil {
		appendCond("service_type =", "", filter.Service.String())
	}
	if filter.Member != nil {
		appendCond("member_id =", "", filter.Member.String())
	}
	return query, args
}

func collectRecords(rows *sql.Rows) ([]models.Record, error) {
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		id, memberID, service string
		rec                   models.Record
	)
	err := row.Scan(&id, &memberID, &service, &rec.RecordedAt, &rec.AttendedOn,
		&rec.Latitude, &rec.Longitude, &rec.LocationName, &rec.Verified)
	if err != nil {
		return nil, err
	}

	recID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("attendance record has malformed id: %w", err)
	}
	memID, err := uuid.Parse(memberID)
	if err != nil {
		return nil, fmt.Errorf("attendance record has malformed member id: %w", err)
	}
	rec.ID = domain.RecordID(recID)
	rec.MemberID = domain.MemberID(memID)
	rec.ServiceType = domain.ServiceType(service)
	return &rec, nil
}
