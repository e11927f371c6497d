package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the portal tables when they do not exist yet.
// Idempotent, runs at startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			address JSONB NOT NULL DEFAULT '{}'::jsonb,
			role TEXT NOT NULL CHECK (role IN ('mcp', 'partner')),
			status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive', 'suspended')),
			balance_micros BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS wallet_entries (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			direction TEXT NOT NULL CHECK (direction IN ('credit', 'debit')),
			amount_micros BIGINT NOT NULL CHECK (amount_micros >= 0),
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_wallet_entries_user ON wallet_entries (user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			mcp_id UUID NOT NULL REFERENCES users(id),
			partner_id UUID NOT NULL REFERENCES users(id),
			amount_micros BIGINT NOT NULL CHECK (amount_micros > 0),
			type TEXT NOT NULL CHECK (type IN ('credit', 'debit')),
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending'
				CHECK (status IN ('pending', 'assigned', 'in_progress', 'completed', 'cancelled')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			completed_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_mcp ON orders (mcp_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_partner ON orders (partner_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS idempotency_keys (
			idempotency_key TEXT PRIMARY KEY,
			request_hash TEXT NOT NULL,
			method TEXT NOT NULL,
			path TEXT NOT NULL,
			response_status INT NOT NULL DEFAULT 0,
			response_body BYTEA NOT NULL DEFAULT ''::bytea,
			content_type TEXT NOT NULL DEFAULT '',
			in_progress BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
