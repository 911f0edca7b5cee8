package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/claude/gymvoice/internal/models"
)

// MaxSetNumber returns the highest set number for (session, exercise), or 0.
func (db *DB) MaxSetNumber(ctx context.Context, sessionID, exerciseID uuid.UUID) (int, error) {
	var n int
	err := db.Pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(set_number), 0) FROM workout_sets
		 WHERE session_id = $1 AND exercise_id = $2`, sessionID, exerciseID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("querying max set number: %w", err)
	}
	return n, nil
}

// InsertSet stores one set.
func (db *DB) InsertSet(ctx context.Context, s models.WorkoutSet) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO workout_sets (id, session_id, exercise_id, set_number, reps,
		 weight_kg, rpe, source, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.SessionID, s.ExerciseID, s.SetNumber, s.Reps,
		s.WeightKg, s.RPE, string(s.Source), s.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting set: %w", err)
	}
	return nil
}

// DeleteSet removes a set and returns the session it belonged to.
func (db *DB) DeleteSet(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var sessionID uuid.UUID
	err := db.Pool.QueryRow(ctx,
		`DELETE FROM workout_sets WHERE id = $1 RETURNING session_id`, id).Scan(&sessionID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("deleting set: %w", notFound(err))
	}
	return sessionID, nil
}

// QuerySessionSets returns a session's sets in creation order.
func (db *DB) QuerySessionSets(ctx context.Context, sessionID uuid.UUID) ([]models.WorkoutSet, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT w.id, w.session_id, w.exercise_id, w.set_number, w.reps,
		        w.weight_kg, w.rpe, w.source, w.created_at, e.name
		 FROM workout_sets w
		 JOIN exercises e ON e.id = w.exercise_id
		 WHERE w.session_id = $1
		 ORDER BY w.created_at ASC, w.id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying session sets: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutSet
	for rows.Next() {
		var s models.WorkoutSet
		var source string
		if err := rows.Scan(&s.ID, &s.SessionID, &s.ExerciseID, &s.SetNumber, &s.Reps,
			&s.WeightKg, &s.RPE, &source, &s.CreatedAt, &s.ExerciseName); err != nil {
			return nil, fmt.Errorf("scanning set: %w", err)
		}
		s.Source = models.SetSource(source)
		result = append(result, s)
	}
	return result, rows.Err()
}
