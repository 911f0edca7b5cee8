package voice

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/claude/gymvoice/internal/models"
	"github.com/claude/gymvoice/internal/timer"
	"github.com/google/uuid"
)

// apply executes a parsed intent. Callers hold s.mu.
func (s *Service) apply(ctx context.Context, in Intent) (string, error) {
	switch v := in.(type) {
	case OpenSession:
		return s.openSession(ctx)
	case EndSession:
		return s.endSession(ctx)
	case StartTimer:
		return s.startTimer(ctx, v)
	case Note:
		// Notes are acknowledged only; there is no note storage.
		return "Note acknowledged (not saved): " + v.Text, nil
	case LogSet:
		return s.logVoiceSet(ctx, v)
	}
	return "", &ApplyError{Err: fmt.Errorf("unsupported intent %q", in.Kind())}
}

func (s *Service) openSession(ctx context.Context) (string, error) {
	if _, ok, err := s.store.ActiveSessionID(ctx); err != nil {
		return "", &ApplyError{Err: fmt.Errorf("checking active session: %w", err)}
	} else if ok {
		return "Session already active", nil
	}

	sess := models.Session{ID: newID(), StartedAt: s.now()}
	if err := s.store.InsertSession(ctx, sess); err != nil {
		return "", &ApplyError{Err: fmt.Errorf("starting session: %w", err)}
	}
	s.hub.Publish(TopicSessions)
	return "Session started", nil
}

func (s *Service) endSession(ctx context.Context) (string, error) {
	id, ok, err := s.store.ActiveSessionID(ctx)
	if err != nil {
		return "", &ApplyError{Err: fmt.Errorf("checking active session: %w", err)}
	}
	if !ok {
		return "No active session", nil
	}
	if err := s.store.EndSession(ctx, id, s.now()); err != nil {
		return "", &ApplyError{Err: fmt.Errorf("ending session: %w", err)}
	}
	s.hub.Publish(TopicSessions)
	return "Session ended", nil
}

func (s *Service) startTimer(ctx context.Context, v StartTimer) (string, error) {
	t := timer.New(s.now(), time.Duration(v.Seconds)*time.Second)
	if err := s.store.SaveTimer(ctx, t); err != nil {
		return "", &ApplyError{Err: fmt.Errorf("saving rest timer: %w", err)}
	}
	s.timer.Set(t)
	s.hub.Publish(TopicTimer)
	return "Rest timer started: " + v.String(), nil
}

func (s *Service) logVoiceSet(ctx context.Context, v LogSet) (string, error) {
	exerciseID := v.ExerciseID.UUID
	if !v.ExerciseID.Valid {
		id, ok, err := s.resolver.Search(ctx, v.Phrase)
		if err != nil {
			return "", &ApplyError{Err: err}
		}
		if !ok {
			return "", &ApplyError{Err: fmt.Errorf("%w %q", ErrUnknownExercise, v.Phrase)}
		}
		exerciseID = id
	}
	if v.Reps == nil {
		return "", &ApplyError{Err: ErrMissingReps}
	}

	set, err := s.appendSet(ctx, exerciseID, *v.Reps, v.WeightKg, v.RPE, models.SourceVoice)
	if err != nil {
		return "", &ApplyError{Err: err}
	}

	name := v.Phrase
	if ex, err := s.store.GetExercise(ctx, exerciseID); err == nil {
		name = ex.Name
	}
	return describeSet(name, set), nil
}

// appendSet adds the next set for (active session, exercise). Callers hold s.mu.
func (s *Service) appendSet(ctx context.Context, exerciseID uuid.UUID, reps int, weightKg, rpe *float64, source models.SetSource) (*models.WorkoutSet, error) {
	sessionID, ok, err := s.store.ActiveSessionID(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking active session: %w", err)
	}
	if !ok {
		return nil, ErrNoActiveSession
	}

	last, err := s.store.MaxSetNumber(ctx, sessionID, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("finding last set number: %w", err)
	}

	set := models.WorkoutSet{
		ID:         newID(),
		SessionID:  sessionID,
		ExerciseID: exerciseID,
		SetNumber:  last + 1,
		Reps:       reps,
		WeightKg:   weightKg,
		RPE:        rpe,
		Source:     source,
		CreatedAt:  s.now(),
	}
	if err := s.store.InsertSet(ctx, set); err != nil {
		return nil, fmt.Errorf("inserting set: %w", err)
	}
	s.hub.Publish(SetsTopic(sessionID))
	s.hub.Publish(TopicSessions)
	return &set, nil
}

// describeSet renders e.g. "Logged set 2 of Press banca: 7 reps, 80 kg, RPE 9".
func describeSet(name string, set *models.WorkoutSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Logged set %d of %s: %d reps", set.SetNumber, name, set.Reps)
	if set.WeightKg != nil {
		b.WriteString(", " + formatNumber(*set.WeightKg) + " kg")
	}
	if set.RPE != nil {
		b.WriteString(", RPE " + formatNumber(*set.RPE))
	}
	return b.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
