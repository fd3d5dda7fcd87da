package database

import (
	"context"
	"fmt"
)

// EnsureSchema creates the poker tables. Safe to call on every start.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS poker_sessions (
    id TEXT PRIMARY KEY,
    item_key TEXT NOT NULL,
    author TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    start_at TIMESTAMPTZ NOT NULL,
    end_at TIMESTAMPTZ NOT NULL,
    CONSTRAINT poker_sessions_window CHECK (start_at <= end_at)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_poker_sessions_item_key ON poker_sessions(item_key);
CREATE INDEX IF NOT EXISTS idx_poker_sessions_end_at ON poker_sessions(end_at);

CREATE TABLE IF NOT EXISTS poker_votes (
    id TEXT PRIMARY KEY,
    seq BIGSERIAL NOT NULL,
    session_id TEXT NOT NULL REFERENCES poker_sessions(id) ON DELETE CASCADE,
    voter TEXT NOT NULL,
    value TEXT NOT NULL,
    comment TEXT,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    UNIQUE (session_id, voter)
);

CREATE INDEX IF NOT EXISTS idx_poker_votes_session_seq ON poker_votes(session_id, seq);
`
