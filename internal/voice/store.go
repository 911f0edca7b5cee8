package voice

import (
	"context"
	"time"

	"github.com/claude/gymvoice/internal/models"
	"github.com/claude/gymvoice/internal/storage"
	"github.com/claude/gymvoice/internal/storage/local"
	"github.com/claude/gymvoice/internal/timer"
	"github.com/google/uuid"
)

// ExerciseStore is the part of storage the resolver needs.
type ExerciseStore interface {
	LookupAlias(ctx context.Context, alias string) (uuid.UUID, bool, error)
	// SearchExercises returns non-archived exercises whose normalized name
	// contains query, ordered by normalized name then id.
	SearchExercises(ctx context.Context, query string, limit int) ([]models.Exercise, error)
	// CreateExercise inserts the exercise and its first alias atomically.
	CreateExercise(ctx context.Context, ex models.Exercise, alias string) error
}

// Store abstracts persistence for the voice service. Both the Postgres
// store and the local SQLite store satisfy it.
type Store interface {
	ExerciseStore

	GetExercise(ctx context.Context, id uuid.UUID) (*models.Exercise, error)
	ListExercises(ctx context.Context, includeArchived bool) ([]models.Exercise, error)
	InsertAlias(ctx context.Context, a models.ExerciseAlias) error
	ArchiveExercise(ctx context.Context, id uuid.UUID) error

	ActiveSessionID(ctx context.Context) (uuid.UUID, bool, error)
	InsertSession(ctx context.Context, s models.Session) error
	EndSession(ctx context.Context, id uuid.UUID, endedAt time.Time) error
	QuerySessionSummaries(ctx context.Context, limit int) ([]models.SessionSummary, error)

	MaxSetNumber(ctx context.Context, sessionID, exerciseID uuid.UUID) (int, error)
	InsertSet(ctx context.Context, s models.WorkoutSet) error
	DeleteSet(ctx context.Context, id uuid.UUID) (sessionID uuid.UUID, err error)
	QuerySessionSets(ctx context.Context, sessionID uuid.UUID) ([]models.WorkoutSet, error)

	InsertVoiceEvent(ctx context.Context, e models.VoiceEvent) error
	UpdateVoiceEvent(ctx context.Context, id uuid.UUID, status models.VoiceStatus, intent string, errMsg *string, at time.Time) error
	QueryVoiceEvents(ctx context.Context, limit int) ([]models.VoiceEvent, error)

	// LoadTimer returns nil when no timer is set.
	LoadTimer(ctx context.Context) (*timer.Timer, error)
	// SaveTimer persists t; nil clears the stored timer.
	SaveTimer(ctx context.Context, t *timer.Timer) error
}

// Compile-time checks: both stores satisfy Store.
var (
	_ Store = (*storage.DB)(nil)
	_ Store = (*local.Store)(nil)
)
