package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is the idempotent DDL for the entry store. Entries are never
// deleted individually; teardown is dropping the whole schema.
const schema = `
CREATE TABLE IF NOT EXISTS entries (
	title         TEXT PRIMARY KEY,
	category      TEXT NOT NULL DEFAULT '',
	depth         INTEGER NOT NULL CHECK (depth >= 0),
	state         TEXT NOT NULL DEFAULT 'discovered',
	claimed_at    TIMESTAMPTZ,
	retry_count   INTEGER NOT NULL DEFAULT 0,
	last_error    TEXT,
	processed_at  TIMESTAMPTZ,
	discovered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_entries_claimable
	ON entries (depth, discovered_at) WHERE state = 'discovered';

CREATE INDEX IF NOT EXISTS idx_entries_leased
	ON entries (claimed_at) WHERE state = 'claimed';

CREATE TABLE IF NOT EXISTS entry_links (
	id            UUID PRIMARY KEY,
	source_title  TEXT NOT NULL REFERENCES entries(title),
	target_title  TEXT NOT NULL REFERENCES entries(title),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (source_title, target_title)
);

CREATE INDEX IF NOT EXISTS idx_entry_links_source ON entry_links (source_title);
`

// EnsureSchema creates the entry store tables and indexes if they do not
// already exist.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
