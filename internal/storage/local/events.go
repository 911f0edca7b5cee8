package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/claude/gymvoice/internal/models"
	"github.com/claude/gymvoice/internal/timer"
)

// InsertVoiceEvent records a newly received utterance.
func (s *Store) InsertVoiceEvent(ctx context.Context, e models.VoiceEvent) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO voice_events (id, raw_text, locale, status, intent, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, NULLIF(?, ''), ?, ?, ?)`,
		e.ID, e.RawText, e.Locale, string(e.Status), e.Intent, e.Error,
		nanos(e.CreatedAt), nanos(e.UpdatedAt)); err != nil {
		return fmt.Errorf("inserting voice event: %w", err)
	}
	return nil
}

// UpdateVoiceEvent moves an event to a new status. An empty intent keeps
// the stored one.
func (s *Store) UpdateVoiceEvent(ctx context.Context, id uuid.UUID, status models.VoiceStatus, intent string, errMsg *string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE voice_events
		 SET status = ?, intent = COALESCE(NULLIF(?, ''), intent), error = ?, updated_at = ?
		 WHERE id = ?`,
		string(status), intent, errMsg, nanos(at), id)
	if err != nil {
		return fmt.Errorf("updating voice event: %w", err)
	}
	return requireRow(res)
}

// QueryVoiceEvents returns the latest events, newest first.
func (s *Store) QueryVoiceEvents(ctx context.Context, limit int) ([]models.VoiceEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, raw_text, locale, status, COALESCE(intent, ''), error, created_at, updated_at
		 FROM voice_events
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying voice events: %w", err)
	}
	defer rows.Close()

	var result []models.VoiceEvent
	for rows.Next() {
		var e models.VoiceEvent
		var status string
		var errMsg sql.NullString
		var created, updated int64
		if err := rows.Scan(&e.ID, &e.RawText, &e.Locale, &status, &e.Intent,
			&errMsg, &created, &updated); err != nil {
			return nil, fmt.Errorf("scanning voice event: %w", err)
		}
		e.Status = models.VoiceStatus(status)
		if errMsg.Valid {
			e.Error = &errMsg.String
		}
		e.CreatedAt, e.UpdatedAt = fromNanos(created), fromNanos(updated)
		result = append(result, e)
	}
	return result, rows.Err()
}

// LoadTimer returns the stored rest timer, or nil when none is set.
func (s *Store) LoadTimer(ctx context.Context) (*timer.Timer, error) {
	var started, pausedFor, target int64
	var pausedAt sql.NullInt64
	var running bool
	err := s.db.QueryRowContext(ctx,
		`SELECT started_at, paused_for_ns, paused_at, target_ns, running
		 FROM rest_timer WHERE id = 1`).
		Scan(&started, &pausedFor, &pausedAt, &target, &running)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading rest timer: %w", err)
	}
	return &timer.Timer{
		StartedAt: fromNanos(started),
		PausedFor: time.Duration(pausedFor),
		PausedAt:  timePtr(pausedAt),
		Target:    time.Duration(target),
		Running:   running,
	}, nil
}

// SaveTimer upserts the rest timer. A nil t deletes it.
func (s *Store) SaveTimer(ctx context.Context, t *timer.Timer) error {
	if t == nil {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM rest_timer WHERE id = 1`); err != nil {
			return fmt.Errorf("clearing rest timer: %w", err)
		}
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO rest_timer (id, started_at, paused_for_ns, paused_at, target_ns, running)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			started_at = excluded.started_at,
			paused_for_ns = excluded.paused_for_ns,
			paused_at = excluded.paused_at,
			target_ns = excluded.target_ns,
			running = excluded.running
	`, nanos(t.StartedAt), int64(t.PausedFor), nullNanos(t.PausedAt), int64(t.Target), t.Running); err != nil {
		return fmt.Errorf("saving rest timer: %w", err)
	}
	return nil
}
