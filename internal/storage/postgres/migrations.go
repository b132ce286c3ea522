package postgres

import (
	"context"
	"errors"

	"github.com/dukedaW/shortlinks/internal/infrastructure/db"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS links (
		alias        TEXT PRIMARY KEY,
		original_url TEXT NOT NULL,
		owner_id     BIGINT REFERENCES users (id) ON DELETE SET NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		expires_at   TIMESTAMPTZ,
		clicks       BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_links_original_url ON links (original_url)`,
	`CREATE INDEX IF NOT EXISTS idx_links_expires_at ON links (expires_at) WHERE expires_at IS NOT NULL`,
	// Serves the stale-link sweep, which filters on age and traffic together.
	`CREATE INDEX IF NOT EXISTS idx_links_cleanup ON links (created_at, clicks)`,
	`CREATE TABLE IF NOT EXISTS link_click_outbox (
		id                    UUID PRIMARY KEY,
		event_type            TEXT NOT NULL,
		alias                 TEXT NOT NULL,
		occurred_at           TIMESTAMPTZ NOT NULL,
		traceparent           TEXT NOT NULL DEFAULT '',
		tracestate            TEXT NOT NULL DEFAULT '',
		baggage               TEXT NOT NULL DEFAULT '',
		status                TEXT NOT NULL,
		attempts              INT NOT NULL DEFAULT 0,
		last_error            TEXT,
		next_attempt_at       TIMESTAMPTZ NOT NULL,
		processing_owner      TEXT,
		processing_expires_at TIMESTAMPTZ,
		sent_at               TIMESTAMPTZ,
		created_at            TIMESTAMPTZ NOT NULL,
		updated_at            TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_claim ON link_click_outbox (status, next_attempt_at)`,
}

// Migrate applies the schema idempotently at startup. Fine for a single
// service owning its database; a dedicated migration tool takes over if the
// schema ever needs versioned changes.
func Migrate(ctx context.Context, p *db.Postgres) error {
	if p == nil || p.Pool == nil {
		return errors.New("postgres pool is nil")
	}
	for _, stmt := range migrationStatements {
		if _, err := p.Pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
