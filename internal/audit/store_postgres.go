package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PostgresStore persists audit events in the audit_events table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	var detail []byte
	if len(event.Detail) > 0 {
		var err error
		detail, err = json.Marshal(event.Detail)
		if err != nil {
			return fmt.Errorf("marshal audit detail: %w", err)
		}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (kind, actor, subject, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`, string(event.Kind), event.Actor, event.Subject, detail, event.OccurredAt)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, actor, subject, detail, occurred_at
		FROM audit_events
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			event  Event
			kind   string
			detail []byte
		)
		if err := rows.Scan(&event.ID, &kind, &event.Actor, &event.Subject, &detail, &event.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Kind = Kind(kind)
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &event.Detail); err != nil {
				return nil, fmt.Errorf("decode audit detail: %w", err)
			}
		}
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return out, nil
}
