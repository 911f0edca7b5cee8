package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is a workout session. A nil EndedAt marks the active session;
// at most one session is active at any time.
type Session struct {
	ID        uuid.UUID  `json:"id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Active reports whether the session is still open.
func (s Session) Active() bool {
	return s.EndedAt == nil
}

// SessionSummary aggregates the sets of one session for history browsing.
type SessionSummary struct {
	Session
	Sets      int     `json:"sets"`
	Exercises int     `json:"exercises"`
	TotalReps int     `json:"total_reps"`
	TonnageKg float64 `json:"tonnage_kg"`
}
