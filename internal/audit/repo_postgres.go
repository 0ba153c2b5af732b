package audit

import (
	"context"
	"database/sql"
	"fmt"

	"medremind/pkg/utils"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS call_events (
	id         TEXT PRIMARY KEY,
	call_sid   TEXT NOT NULL,
	type       TEXT NOT NULL,
	message    TEXT NOT NULL DEFAULT '',
	metadata   TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_call_events_call_sid ON call_events (call_sid, created_at);
`

// PostgresRepo persists audit events. Insert-only by construction.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	err := utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, auditSchema)
		return err
	})
	if err != nil {
		return fmt.Errorf("audit: ensure schema: %w", err)
	}
	return nil
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO call_events (id, call_sid, type, message, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.CallSID, e.Type, e.Message, e.Metadata, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: insert event: %w", err)
	}
	return nil
}

func (r *PostgresRepo) ListByCall(ctx context.Context, callSID string) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, call_sid, type, message, metadata, created_at
		FROM call_events WHERE call_sid = $1
		ORDER BY created_at ASC`, callSID)
	if err != nil {
		return nil, fmt.Errorf("audit: list events: %w", err)
	}
	defer rows.Close()

	out := make([]Event, 0)
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.CallSID, &e.Type, &e.Message, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan event: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: iterate events: %w", err)
	}
	return out, nil
}
