package models

import (
	"time"

	"github.com/google/uuid"
)

// SetSource records how a set entered the system.
type SetSource string

const (
	SourceManual SetSource = "MANUAL"
	SourceVoice  SetSource = "VOICE"
)

// WorkoutSet is one logged set. Sets are immutable once created; they can
// only be deleted. SetNumber counts from 1 per (session, exercise).
type WorkoutSet struct {
	ID         uuid.UUID `json:"id"`
	SessionID  uuid.UUID `json:"session_id"`
	ExerciseID uuid.UUID `json:"exercise_id"`
	SetNumber  int       `json:"set_number"`
	Reps       int       `json:"reps"`
	WeightKg   *float64  `json:"weight_kg,omitempty"`
	RPE        *float64  `json:"rpe,omitempty"`
	Source     SetSource `json:"source"`
	CreatedAt  time.Time `json:"created_at"`

	// ExerciseName is filled in on reads for display; it is not stored.
	ExerciseName string `json:"exercise_name,omitempty"`
}
