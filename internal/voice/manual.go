package voice

import (
	"context"
	"fmt"

	"github.com/claude/gymvoice/internal/models"
	"github.com/google/uuid"
)

// ManualSet is a set typed in by hand rather than dictated.
type ManualSet struct {
	Exercise string   `json:"exercise"`
	Reps     int      `json:"reps"`
	WeightKg *float64 `json:"weight_kg,omitempty"`
	RPE      *float64 `json:"rpe,omitempty"`
}

// LogManualSet records a set for the active session. Unknown exercise
// names create a new exercise.
func (s *Service) LogManualSet(ctx context.Context, m ManualSet) (*models.WorkoutSet, error) {
	if m.Reps <= 0 {
		return nil, ErrMissingReps
	}
	if m.RPE != nil && (*m.RPE < 1 || *m.RPE > 10) {
		return nil, ErrRPEOutOfRange
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, created, err := s.resolver.EnsureExerciseIDByName(ctx, m.Exercise)
	if err != nil {
		return nil, err
	}
	if created {
		s.log.Info("exercise created", "exercise_id", id, "name", m.Exercise)
		s.hub.Publish(TopicExercises)
	}
	return s.appendSet(ctx, id, m.Reps, m.WeightKg, m.RPE, models.SourceManual)
}

// DeleteSet removes a set. Set numbers of the remaining sets are kept.
func (s *Service) DeleteSet(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID, err := s.store.DeleteSet(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting set %s: %w", id, err)
	}
	s.hub.Publish(SetsTopic(sessionID))
	s.hub.Publish(TopicSessions)
	return nil
}

// EnsureExercise returns the ID for name, creating the exercise if needed.
func (s *Service) EnsureExercise(ctx context.Context, name string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, created, err := s.resolver.EnsureExerciseIDByName(ctx, name)
	if err != nil {
		return uuid.Nil, err
	}
	if created {
		s.hub.Publish(TopicExercises)
	}
	return id, nil
}

// AddAlias maps alias (normalized) to an existing exercise.
func (s *Service) AddAlias(ctx context.Context, exerciseID uuid.UUID, alias string) (*models.ExerciseAlias, error) {
	key := Normalize(alias)
	if key == "" {
		return nil, ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.GetExercise(ctx, exerciseID); err != nil {
		return nil, fmt.Errorf("getting exercise %s: %w", exerciseID, err)
	}
	a := models.ExerciseAlias{Alias: key, ExerciseID: exerciseID}
	if err := s.store.InsertAlias(ctx, a); err != nil {
		return nil, fmt.Errorf("adding alias %q: %w", key, err)
	}
	s.hub.Publish(TopicExercises)
	return &a, nil
}

// ArchiveExercise hides an exercise from listings and fuzzy search. Its
// aliases keep resolving so old phrases still work.
func (s *Service) ArchiveExercise(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.ArchiveExercise(ctx, id); err != nil {
		return fmt.Errorf("archiving exercise %s: %w", id, err)
	}
	s.hub.Publish(TopicExercises)
	return nil
}

// GetExercise returns one exercise.
func (s *Service) GetExercise(ctx context.Context, id uuid.UUID) (*models.Exercise, error) {
	return s.store.GetExercise(ctx, id)
}

// ListExercises returns exercises ordered by name.
func (s *Service) ListExercises(ctx context.Context, includeArchived bool) ([]models.Exercise, error) {
	return s.store.ListExercises(ctx, includeArchived)
}

// ActiveSession returns the ID of the open session, if any.
func (s *Service) ActiveSession(ctx context.Context) (uuid.UUID, bool, error) {
	return s.store.ActiveSessionID(ctx)
}

// SessionSets returns a session's sets in creation order.
func (s *Service) SessionSets(ctx context.Context, sessionID uuid.UUID) ([]models.WorkoutSet, error) {
	return s.store.QuerySessionSets(ctx, sessionID)
}

// SessionSummaries returns per-session totals, newest first.
func (s *Service) SessionSummaries(ctx context.Context, limit int) ([]models.SessionSummary, error) {
	return s.store.QuerySessionSummaries(ctx, limit)
}
