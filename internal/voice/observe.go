package voice

import (
	"context"
	"log/slog"

	"github.com/claude/gymvoice/internal/models"
	"github.com/claude/gymvoice/internal/watch"
	"github.com/google/uuid"
)

// ObserveExercises emits the non-archived exercise list (ordered by name,
// never nil) on subscribe and after every exercise change, until ctx is done.
func (s *Service) ObserveExercises(ctx context.Context) <-chan []models.Exercise {
	return observe(ctx, s.hub, TopicExercises, s.log, func(ctx context.Context) ([]models.Exercise, error) {
		ex, err := s.store.ListExercises(ctx, false)
		if ex == nil {
			ex = []models.Exercise{}
		}
		return ex, err
	})
}

// ObserveSessionSets emits a session's sets (creation order) on subscribe
// and after every change to that session's sets, until ctx is done.
func (s *Service) ObserveSessionSets(ctx context.Context, sessionID uuid.UUID) <-chan []models.WorkoutSet {
	return observe(ctx, s.hub, SetsTopic(sessionID), s.log, func(ctx context.Context) ([]models.WorkoutSet, error) {
		sets, err := s.store.QuerySessionSets(ctx, sessionID)
		if sets == nil {
			sets = []models.WorkoutSet{}
		}
		return sets, err
	})
}

// observe subscribes before the first load so no change between the
// snapshot and the subscription is missed.
func observe[T any](ctx context.Context, hub *watch.Hub, topic string, log *slog.Logger, load func(context.Context) (T, error)) <-chan T {
	out := make(chan T, 1)
	notify := hub.Subscribe(ctx, topic)

	go func() {
		defer close(out)
		for {
			v, err := load(ctx)
			switch {
			case ctx.Err() != nil:
				return
			case err != nil:
				log.Error("observe: reload failed", "topic", topic, "error", err)
			default:
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			}

			if _, ok := <-notify; !ok {
				return
			}
		}
	}()
	return out
}
