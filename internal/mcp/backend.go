package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/claude/gymvoice/internal/models"
	"github.com/claude/gymvoice/internal/voice"
)

// Backend abstracts the gym log for MCP tools. The in-process service
// (Local) and HTTPClient (remote via REST API) both satisfy it.
type Backend interface {
	LogUtterance(ctx context.Context, text, locale string) (voice.Outcome, error)
	ListExercises(ctx context.Context, includeArchived bool) ([]models.Exercise, error)
	ActiveSession(ctx context.Context) (uuid.UUID, bool, error)
	SessionSets(ctx context.Context, sessionID uuid.UUID) ([]models.WorkoutSet, error)
	SessionSummaries(ctx context.Context, limit int) ([]models.SessionSummary, error)
	TimerStatus(ctx context.Context) (TimerStatus, error)
}

// TimerStatus is one reading of the rest timer. It matches the REST form.
type TimerStatus struct {
	Active      bool      `json:"active"`
	Running     bool      `json:"running"`
	RemainingMs int64     `json:"remaining_ms"`
	At          time.Time `json:"at"`
}

// Local serves MCP from the in-process voice service.
type Local struct {
	svc *voice.Service
}

// Compile-time check: Local satisfies Backend.
var _ Backend = (*Local)(nil)

// NewLocal wraps svc as a Backend.
func NewLocal(svc *voice.Service) *Local {
	return &Local{svc: svc}
}

func (l *Local) LogUtterance(ctx context.Context, text, locale string) (voice.Outcome, error) {
	return l.svc.Ingest(ctx, text, locale), nil
}

func (l *Local) ListExercises(ctx context.Context, includeArchived bool) ([]models.Exercise, error) {
	return l.svc.ListExercises(ctx, includeArchived)
}

func (l *Local) ActiveSession(ctx context.Context) (uuid.UUID, bool, error) {
	return l.svc.ActiveSession(ctx)
}

func (l *Local) SessionSets(ctx context.Context, sessionID uuid.UUID) ([]models.WorkoutSet, error) {
	return l.svc.SessionSets(ctx, sessionID)
}

func (l *Local) SessionSummaries(ctx context.Context, limit int) ([]models.SessionSummary, error) {
	return l.svc.SessionSummaries(ctx, limit)
}

func (l *Local) TimerStatus(ctx context.Context) (TimerStatus, error) {
	r := l.svc.Timer()
	return TimerStatus{
		Active:      r.Active,
		Running:     r.Running,
		RemainingMs: r.Remaining.Milliseconds(),
		At:          r.At,
	}, nil
}
