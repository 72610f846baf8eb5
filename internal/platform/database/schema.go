package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema statements are idempotent so the service can bootstrap a fresh
// database on startup without an external migration step.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id             BIGSERIAL PRIMARY KEY,
		slack_user_id  TEXT UNIQUE NOT NULL,
		team_id        TEXT NOT NULL,
		access_token   TEXT NOT NULL,
		refresh_token  TEXT,
		expires_at     TIMESTAMPTZ,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS scheduled_messages (
		id             BIGSERIAL PRIMARY KEY,
		user_id        BIGINT NOT NULL REFERENCES users (id),
		channel_id     TEXT NOT NULL,
		channel_name   TEXT NOT NULL,
		message        TEXT NOT NULL,
		scheduled_at   TIMESTAMPTZ NOT NULL,
		status         TEXT NOT NULL DEFAULT 'pending'
		               CHECK (status IN ('pending', 'sent', 'failed', 'cancelled')),
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		sent_at        TIMESTAMPTZ,
		error_message  TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scheduled_messages_due
		ON scheduled_messages (scheduled_at, id) WHERE status = 'pending'`,
	`CREATE INDEX IF NOT EXISTS idx_scheduled_messages_user
		ON scheduled_messages (user_id, scheduled_at)`,
}

// EnsureSchema creates the tables and indexes the service needs.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema statement: %w", err)
		}
	}
	return nil
}
