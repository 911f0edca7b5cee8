package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/claude/gymvoice/internal/timer"
)

// LoadTimer returns the stored rest timer, or nil when none is set.
func (db *DB) LoadTimer(ctx context.Context) (*timer.Timer, error) {
	var t timer.Timer
	var pausedFor, target int64
	err := db.Pool.QueryRow(ctx,
		`SELECT started_at, paused_for_ns, paused_at, target_ns, running
		 FROM rest_timer WHERE id = 1`).
		Scan(&t.StartedAt, &pausedFor, &t.PausedAt, &target, &t.Running)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading rest timer: %w", err)
	}
	t.PausedFor = time.Duration(pausedFor)
	t.Target = time.Duration(target)
	return &t, nil
}

// SaveTimer upserts the rest timer. A nil t deletes it.
func (db *DB) SaveTimer(ctx context.Context, t *timer.Timer) error {
	if t == nil {
		if _, err := db.Pool.Exec(ctx, `DELETE FROM rest_timer WHERE id = 1`); err != nil {
			return fmt.Errorf("clearing rest timer: %w", err)
		}
		return nil
	}
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO rest_timer (id, started_at, paused_for_ns, paused_at, target_ns, running)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			started_at = EXCLUDED.started_at,
			paused_for_ns = EXCLUDED.paused_for_ns,
			paused_at = EXCLUDED.paused_at,
			target_ns = EXCLUDED.target_ns,
			running = EXCLUDED.running
	`, t.StartedAt, int64(t.PausedFor), t.PausedAt, int64(t.Target), t.Running)
	if err != nil {
		return fmt.Errorf("saving rest timer: %w", err)
	}
	return nil
}
