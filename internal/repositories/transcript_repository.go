package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"chat-client/internal/models"
)

const defaultHistoryLimit = 50

// TranscriptRepository archives room transcripts.
type TranscriptRepository interface {
	Append(ctx context.Context, roomKey string, entry models.TranscriptEntry) error
	ListByRoom(ctx context.Context, roomKey string, limit int) ([]models.TranscriptEntry, error)
}

// TranscriptRepo is a sqlx implementation of TranscriptRepository. Entries
// are scoped to the viewer that archived them.
type TranscriptRepo struct {
	db      *sqlx.DB
	ownerID int
}

func NewTranscriptRepo(db *sqlx.DB, ownerID int) *TranscriptRepo {
	return &TranscriptRepo{db: db, ownerID: ownerID}
}

// Append stores one transcript entry.
func (r *TranscriptRepo) Append(ctx context.Context, roomKey string, entry models.TranscriptEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transcript_entries (room_key, owner_id, sender_id, text, is_mine, sent_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		roomKey, r.ownerID, entry.SenderID, entry.Text, entry.IsMine, entry.Time.UTC())
	if err != nil {
		return fmt.Errorf("append transcript entry: %w", err)
	}
	return nil
}

// ListByRoom returns the newest limit entries of a room, oldest first.
func (r *TranscriptRepo) ListByRoom(ctx context.Context, roomKey string, limit int) ([]models.TranscriptEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	entries := []models.TranscriptEntry{}
	query := `SELECT sender_id, text, is_mine, sent_at FROM (
            SELECT id, sender_id, text, is_mine, sent_at FROM transcript_entries
            WHERE owner_id=$1 AND room_key=$2
            ORDER BY id DESC LIMIT $3
        ) recent ORDER BY id ASC`
	if err := r.db.SelectContext(ctx, &entries, query, r.ownerID, roomKey, limit); err != nil {
		return nil, fmt.Errorf("list transcript: %w", err)
	}
	return entries, nil
}
