package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/gymvoice/internal/models"
)

// LookupAlias resolves a normalized alias to its exercise.
func (db *DB) LookupAlias(ctx context.Context, alias string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := db.Pool.QueryRow(ctx,
		`SELECT exercise_id FROM exercise_aliases WHERE alias = $1`, alias).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("looking up alias: %w", err)
	}
	return id, true, nil
}

// SearchExercises returns non-archived exercises whose normalized name
// contains query, ordered by normalized name then id.
func (db *DB) SearchExercises(ctx context.Context, query string, limit int) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, archived, created_at FROM exercises
		 WHERE NOT archived AND strpos(search_name, $1) > 0
		 ORDER BY search_name, id
		 LIMIT $2`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching exercises: %w", err)
	}
	return collectExercises(rows)
}

// CreateExercise inserts an exercise together with its first alias.
func (db *DB) CreateExercise(ctx context.Context, ex models.Exercise, alias string) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO exercises (id, name, search_name, archived, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		ex.ID, ex.Name, alias, ex.Archived, ex.CreatedAt); err != nil {
		return fmt.Errorf("inserting exercise: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO exercise_aliases (alias, exercise_id) VALUES ($1, $2)`,
		alias, ex.ID); err != nil {
		return fmt.Errorf("inserting alias: %w", err)
	}
	return tx.Commit(ctx)
}

// GetExercise returns a single exercise by ID.
func (db *DB) GetExercise(ctx context.Context, id uuid.UUID) (*models.Exercise, error) {
	var ex models.Exercise
	err := db.Pool.QueryRow(ctx,
		`SELECT id, name, archived, created_at FROM exercises WHERE id = $1`, id).
		Scan(&ex.ID, &ex.Name, &ex.Archived, &ex.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting exercise: %w", notFound(err))
	}
	return &ex, nil
}

// ListExercises returns exercises ordered by name.
func (db *DB) ListExercises(ctx context.Context, includeArchived bool) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, archived, created_at FROM exercises
		 WHERE $1 OR NOT archived
		 ORDER BY search_name, id`, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("listing exercises: %w", err)
	}
	return collectExercises(rows)
}

// InsertAlias adds an alias. Aliases are unique across exercises.
func (db *DB) InsertAlias(ctx context.Context, a models.ExerciseAlias) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO exercise_aliases (alias, exercise_id) VALUES ($1, $2)`,
		a.Alias, a.ExerciseID)
	if err != nil {
		return fmt.Errorf("inserting alias: %w", err)
	}
	return nil
}

// ArchiveExercise marks an exercise archived.
func (db *DB) ArchiveExercise(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `UPDATE exercises SET archived = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("archiving exercise: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func collectExercises(rows pgx.Rows) ([]models.Exercise, error) {
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		var ex models.Exercise
		if err := rows.Scan(&ex.ID, &ex.Name, &ex.Archived, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, ex)
	}
	return result, rows.Err()
}
