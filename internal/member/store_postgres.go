package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"steeple/pkg/domain"
	mail "steeple/pkg/email"
	"steeple/pkg/platform/sentinel"
)

// PostgresStore reads members from the shared members table. This store is
// read-only; registration is owned by the external member system.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed member store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByEmail(ctx context.Context, address string) (*Member, error) {
	query := `
		SELECT id, email, first_name, last_name
		FROM members
		WHERE email = $1
	`
	var (
		id string
		m  Member
	)
	err := s.db.QueryRowContext(ctx, query, mail.Normalize(address)).
		Scan(&id, &m.Email, &m.FirstName, &m.LastName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find member by email: %w", err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("member %q has malformed id: %w", m.Email, err)
	}
	m.ID = domain.MemberID(parsed)
	return &m, nil
}
