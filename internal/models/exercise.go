package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by stores when the addressed record does not exist.
var ErrNotFound = errors.New("not found")

// Exercise is a canonical exercise. Exercises are archived, never deleted,
// so historical sets keep a valid reference.
type Exercise struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"created_at"`
}

// ExerciseAlias maps a normalized alias to an exercise. Alias is always the
// normalized form and is unique across all exercises.
type ExerciseAlias struct {
	Alias      string    `json:"alias"`
	ExerciseID uuid.UUID `json:"exercise_id"`
}
