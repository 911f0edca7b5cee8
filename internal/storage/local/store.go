// Package local is the single-user SQLite store. It mirrors the Postgres
// store so the server can run without a database server.
package local

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/claude/gymvoice/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is a SQLite-backed store. Times are stored as Unix nanoseconds so
// they sort numerically.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// One connection keeps writes serialized and the pragmas in effect.
	db.SetMaxOpenConns(1)

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("opening migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	// m.Close would close db, which the store keeps using.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func nanos(t time.Time) int64 { return t.UnixNano() }

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }

func nullNanos(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func timePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromNanos(n.Int64)
	return &t
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	return &n.Float64
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	return err
}

// LookupAlias resolves a normalized alias to its exercise.
func (s *Store) LookupAlias(ctx context.Context, alias string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT exercise_id FROM exercise_aliases WHERE alias = ?`, alias).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("looking up alias: %w", err)
	}
	return id, true, nil
}

// SearchExercises returns non-archived exercises whose normalized name
// contains query, ordered by normalized name then id.
func (s *Store) SearchExercises(ctx context.Context, query string, limit int) ([]models.Exercise, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, archived, created_at FROM exercises
		 WHERE archived = 0 AND instr(search_name, ?) > 0
		 ORDER BY search_name, id
		 LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching exercises: %w", err)
	}
	return collectExercises(rows)
}

// CreateExercise inserts an exercise together with its first alias.
func (s *Store) CreateExercise(ctx context.Context, ex models.Exercise, alias string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO exercises (id, name, search_name, archived, created_at) VALUES (?, ?, ?, ?, ?)`,
		ex.ID, ex.Name, alias, ex.Archived, nanos(ex.CreatedAt)); err != nil {
		return fmt.Errorf("inserting exercise: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO exercise_aliases (alias, exercise_id) VALUES (?, ?)`, alias, ex.ID); err != nil {
		return fmt.Errorf("inserting alias: %w", err)
	}
	return tx.Commit()
}

// GetExercise returns a single exercise by ID.
func (s *Store) GetExercise(ctx context.Context, id uuid.UUID) (*models.Exercise, error) {
	var ex models.Exercise
	var created int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, archived, created_at FROM exercises WHERE id = ?`, id).
		Scan(&ex.ID, &ex.Name, &ex.Archived, &created)
	if err != nil {
		return nil, fmt.Errorf("getting exercise: %w", notFound(err))
	}
	ex.CreatedAt = fromNanos(created)
	return &ex, nil
}

// ListExercises returns exercises ordered by name.
func (s *Store) ListExercises(ctx context.Context, includeArchived bool) ([]models.Exercise, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, archived, created_at FROM exercises
		 WHERE ? OR archived = 0
		 ORDER BY search_name, id`, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("listing exercises: %w", err)
	}
	return collectExercises(rows)
}

// InsertAlias adds an alias. Aliases are unique across exercises.
func (s *Store) InsertAlias(ctx context.Context, a models.ExerciseAlias) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO exercise_aliases (alias, exercise_id) VALUES (?, ?)`,
		a.Alias, a.ExerciseID); err != nil {
		return fmt.Errorf("inserting alias: %w", err)
	}
	return nil
}

// ArchiveExercise marks an exercise archived.
func (s *Store) ArchiveExercise(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `UPDATE exercises SET archived = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("archiving exercise: %w", err)
	}
	return requireRow(res)
}

func collectExercises(rows *sql.Rows) ([]models.Exercise, error) {
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		var ex models.Exercise
		var created int64
		if err := rows.Scan(&ex.ID, &ex.Name, &ex.Archived, &created); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		ex.CreatedAt = fromNanos(created)
		result = append(result, ex)
	}
	return result, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ActiveSessionID returns the session with no end time, if any.
func (s *Store) ActiveSessionID(ctx context.Context) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM sessions WHERE ended_at IS NULL LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("querying active session: %w", err)
	}
	return id, true, nil
}

// InsertSession creates a session.
func (s *Store) InsertSession(ctx context.Context, sess models.Session) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, started_at, ended_at) VALUES (?, ?, ?)`,
		sess.ID, nanos(sess.StartedAt), nullNanos(sess.EndedAt)); err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// EndSession sets the end time of an open session.
func (s *Store) EndSession(ctx context.Context, id uuid.UUID, endedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL`, nanos(endedAt), id)
	if err != nil {
		return fmt.Errorf("ending session: %w", err)
	}
	return requireRow(res)
}

// QuerySessionSummaries returns per-session totals, newest first.
func (s *Store) QuerySessionSummaries(ctx context.Context, limit int) ([]models.SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.started_at, s.ended_at,
		        COUNT(w.id), COUNT(DISTINCT w.exercise_id),
		        COALESCE(SUM(w.reps), 0), COALESCE(SUM(w.reps * w.weight_kg), 0.0)
		 FROM sessions s
		 LEFT JOIN workout_sets w ON w.session_id = s.id
		 GROUP BY s.id
		 ORDER BY s.started_at DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying session summaries: %w", err)
	}
	defer rows.Close()

	var result []models.SessionSummary
	for rows.Next() {
		var sum models.SessionSummary
		var started int64
		var ended sql.NullInt64
		if err := rows.Scan(&sum.ID, &started, &ended,
			&sum.Sets, &sum.Exercises, &sum.TotalReps, &sum.TonnageKg); err != nil {
			return nil, fmt.Errorf("scanning session summary: %w", err)
		}
		sum.StartedAt = fromNanos(started)
		sum.EndedAt = timePtr(ended)
		result = append(result, sum)
	}
	return result, rows.Err()
}
