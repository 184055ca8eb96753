package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"chat-client/internal/logging"
)

// Connect opens the transcript archive and applies its migrations.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(ctx context.Context, db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS transcript_entries (
            id BIGSERIAL PRIMARY KEY,
            room_key TEXT NOT NULL,
            owner_id INT NOT NULL,
            sender_id INT NOT NULL DEFAULT 0,
            text TEXT NOT NULL,
            is_mine BOOLEAN NOT NULL DEFAULT FALSE,
            sent_at TIMESTAMPTZ NOT NULL,
            archived_at TIMESTAMPTZ DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS transcript_entries_room_idx
            ON transcript_entries (owner_id, room_key, id);`,
	}

	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	logger := logging.L()
	logger.Info().Msg("database migrations applied")
	return nil
}
