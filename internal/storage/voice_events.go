package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/claude/gymvoice/internal/models"
)

// InsertVoiceEvent records a newly received utterance.
func (db *DB) InsertVoiceEvent(ctx context.Context, e models.VoiceEvent) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO voice_events (id, raw_text, locale, status, intent, error, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)`,
		e.ID, e.RawText, e.Locale, string(e.Status), e.Intent, e.Error, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting voice event: %w", err)
	}
	return nil
}

// UpdateVoiceEvent moves an event to a new status. An empty intent keeps
// the stored one.
func (db *DB) UpdateVoiceEvent(ctx context.Context, id uuid.UUID, status models.VoiceStatus, intent string, errMsg *string, at time.Time) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE voice_events
		 SET status = $2, intent = COALESCE(NULLIF($3, ''), intent), error = $4, updated_at = $5
		 WHERE id = $1`,
		id, string(status), intent, errMsg, at)
	if err != nil {
		return fmt.Errorf("updating voice event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// QueryVoiceEvents returns the latest events, newest first.
func (db *DB) QueryVoiceEvents(ctx context.Context, limit int) ([]models.VoiceEvent, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, raw_text, locale, status, COALESCE(intent, ''), error, created_at, updated_at
		 FROM voice_events
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying voice events: %w", err)
	}
	defer rows.Close()

	var result []models.VoiceEvent
	for rows.Next() {
		var e models.VoiceEvent
		var status string
		if err := rows.Scan(&e.ID, &e.RawText, &e.Locale, &status, &e.Intent,
			&e.Error, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning voice event: %w", err)
		}
		e.Status = models.VoiceStatus(status)
		result = append(result, e)
	}
	return result, rows.Err()
}
