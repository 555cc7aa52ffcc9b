package sessionmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating sessions, players and rounds tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS sessions (
					id UUID PRIMARY KEY,
					game_type VARCHAR(16) NOT NULL,
					target_score INTEGER NOT NULL DEFAULT 0,
					is_completed BOOLEAN NOT NULL DEFAULT FALSE,
					dealer_for_next_round TEXT,
					player_order JSONB NOT NULL DEFAULT '[]'::jsonb,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE INDEX IF NOT EXISTS idx_sessions_game_type_created ON sessions(game_type, created_at DESC);
				CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at DESC);
			`); err != nil {
				return fmt.Errorf("failed to create sessions table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS players (
					id TEXT PRIMARY KEY,
					session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
					name VARCHAR(64) NOT NULL,
					seat INTEGER NOT NULL,
					UNIQUE (session_id, seat)
				);
			`); err != nil {
				return fmt.Errorf("failed to create players table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS rounds (
					id UUID PRIMARY KEY,
					session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
					idx INTEGER NOT NULL,
					label VARCHAR(8),
					scores JSONB NOT NULL DEFAULT '{}'::jsonb,
					dealer_for_next_round TEXT,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					UNIQUE (session_id, idx)
				);
			`); err != nil {
				return fmt.Errorf("failed to create rounds table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS spades_rounds (
					id UUID PRIMARY KEY,
					session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
					idx INTEGER NOT NULL,
					entries JSONB NOT NULL DEFAULT '{}'::jsonb,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					UNIQUE (session_id, idx)
				);
			`); err != nil {
				return fmt.Errorf("failed to create spades_rounds table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS exports (
					session_id UUID PRIMARY KEY REFERENCES sessions(id) ON DELETE CASCADE,
					content_type TEXT NOT NULL,
					content BYTEA NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`); err != nil {
				return fmt.Errorf("failed to create exports table: %w", err)
			}

			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping session tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for _, table := range []string{"exports", "spades_rounds", "rounds", "players", "sessions"} {
				if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
					return fmt.Errorf("failed to drop %s: %w", table, err)
				}
			}
			return nil
		})
	})
}
