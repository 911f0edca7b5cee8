package local

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/claude/gymvoice/internal/models"
)

// MaxSetNumber returns the highest set number for (session, exercise), or 0.
func (s *Store) MaxSetNumber(ctx context.Context, sessionID, exerciseID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(set_number), 0) FROM workout_sets
		 WHERE session_id = ? AND exercise_id = ?`, sessionID, exerciseID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("querying max set number: %w", err)
	}
	return n, nil
}

// InsertSet stores one set.
func (s *Store) InsertSet(ctx context.Context, w models.WorkoutSet) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO workout_sets (id, session_id, exercise_id, set_number, reps,
		 weight_kg, rpe, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.SessionID, w.ExerciseID, w.SetNumber, w.Reps,
		w.WeightKg, w.RPE, string(w.Source), nanos(w.CreatedAt)); err != nil {
		return fmt.Errorf("inserting set: %w", err)
	}
	return nil
}

// DeleteSet removes a set and returns the session it belonged to.
func (s *Store) DeleteSet(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var sessionID uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`DELETE FROM workout_sets WHERE id = ? RETURNING session_id`, id).Scan(&sessionID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("deleting set: %w", notFound(err))
	}
	return sessionID, nil
}

// QuerySessionSets returns a session's sets in creation order.
func (s *Store) QuerySessionSets(ctx context.Context, sessionID uuid.UUID) ([]models.WorkoutSet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT w.id, w.session_id, w.exercise_id, w.set_number, w.reps,
		        w.weight_kg, w.rpe, w.source, w.created_at, e.name
		 FROM workout_sets w
		 JOIN exercises e ON e.id = w.exercise_id
		 WHERE w.session_id = ?
		 ORDER BY w.created_at ASC, w.id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying session sets: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutSet
	for rows.Next() {
		var w models.WorkoutSet
		var weight, rpe sql.NullFloat64
		var source string
		var created int64
		if err := rows.Scan(&w.ID, &w.SessionID, &w.ExerciseID, &w.SetNumber, &w.Reps,
			&weight, &rpe, &source, &created, &w.ExerciseName); err != nil {
			return nil, fmt.Errorf("scanning set: %w", err)
		}
		w.WeightKg, w.RPE = floatPtr(weight), floatPtr(rpe)
		w.Source = models.SetSource(source)
		w.CreatedAt = fromNanos(created)
		result = append(result, w)
	}
	return result, rows.Err()
}
