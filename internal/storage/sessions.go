package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/gymvoice/internal/models"
)

// ActiveSessionID returns the session with no end time, if any.
func (db *DB) ActiveSessionID(ctx context.Context) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := db.Pool.QueryRow(ctx,
		`SELECT id FROM sessions WHERE ended_at IS NULL LIMIT 1`).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("querying active session: %w", err)
	}
	return id, true, nil
}

// InsertSession creates a session. The one-active index rejects a second
// open session.
func (db *DB) InsertSession(ctx context.Context, s models.Session) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO sessions (id, started_at, ended_at) VALUES ($1, $2, $3)`,
		s.ID, s.StartedAt, s.EndedAt)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// EndSession sets the end time of an open session.
func (db *DB) EndSession(ctx context.Context, id uuid.UUID, endedAt time.Time) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE sessions SET ended_at = $2 WHERE id = $1 AND ended_at IS NULL`, id, endedAt)
	if err != nil {
		return fmt.Errorf("ending session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// QuerySessionSummaries returns per-session totals, newest first.
func (db *DB) QuerySessionSummaries(ctx context.Context, limit int) ([]models.SessionSummary, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT s.id, s.started_at, s.ended_at,
		        COUNT(w.id), COUNT(DISTINCT w.exercise_id),
		        COALESCE(SUM(w.reps), 0), COALESCE(SUM(w.reps * w.weight_kg), 0)
		 FROM sessions s
		 LEFT JOIN workout_sets w ON w.session_id = s.id
		 GROUP BY s.id
		 ORDER BY s.started_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying session summaries: %w", err)
	}
	defer rows.Close()

	var result []models.SessionSummary
	for rows.Next() {
		var s models.SessionSummary
		if err := rows.Scan(&s.ID, &s.StartedAt, &s.EndedAt,
			&s.Sets, &s.Exercises, &s.TotalReps, &s.TonnageKg); err != nil {
			return nil, fmt.Errorf("scanning session summary: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
