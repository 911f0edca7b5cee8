package voice

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/gymvoice/internal/timer"
)

// Timer reads the rest timer at the current time.
func (s *Service) Timer() timer.Reading {
	return s.timer.Read(s.now())
}

// TimerTicks streams timer readings every interval until ctx is done.
func (s *Service) TimerTicks(ctx context.Context, interval time.Duration) <-chan timer.Reading {
	return timer.Tick(ctx, s.timer, interval, s.now)
}

// PauseTimer freezes the rest timer. Pausing a paused timer is a no-op.
func (s *Service) PauseTimer(ctx context.Context) (timer.Reading, error) {
	return s.updateTimer(ctx, func(t *timer.Timer, now time.Time) bool { return t.Pause(now) })
}

// ResumeTimer restarts a paused rest timer. Resuming a running timer is a no-op.
func (s *Service) ResumeTimer(ctx context.Context) (timer.Reading, error) {
	return s.updateTimer(ctx, func(t *timer.Timer, now time.Time) bool { return t.Resume(now) })
}

// StopTimer clears the rest timer.
func (s *Service) StopTimer(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.timer.Get(); !ok {
		return ErrNoTimer
	}
	if err := s.store.SaveTimer(ctx, nil); err != nil {
		return fmt.Errorf("clearing rest timer: %w", err)
	}
	s.timer.Set(nil)
	s.hub.Publish(TopicTimer)
	return nil
}

func (s *Service) updateTimer(ctx context.Context, fn func(*timer.Timer, time.Time) bool) (timer.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.timer.Get()
	if !ok {
		return timer.Reading{}, ErrNoTimer
	}
	now := s.now()
	if fn(&t, now) {
		if err := s.store.SaveTimer(ctx, &t); err != nil {
			return timer.Reading{}, fmt.Errorf("saving rest timer: %w", err)
		}
		s.timer.Set(&t)
		s.hub.Publish(TopicTimer)
	}
	return s.timer.Read(now), nil
}
