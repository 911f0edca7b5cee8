// Package timer models the single rest timer. Remaining time is always a
// pure function of the stored state and the wall clock, so it can be
// recomputed at any moment, skipped, or recomputed redundantly.
package timer

import (
	"context"
	"sync"
	"time"
)

// Timer is the rest-timer state. A paused timer has Running=false and a
// non-nil PausedAt; PausedFor accumulates completed pauses.
type Timer struct {
	StartedAt time.Time     `json:"started_at"`
	PausedFor time.Duration `json:"paused_for"`
	PausedAt  *time.Time    `json:"paused_at,omitempty"`
	Target    time.Duration `json:"target"`
	Running   bool          `json:"running"`
}

// New returns a running timer started at now.
func New(now time.Time, target time.Duration) *Timer {
	return &Timer{StartedAt: now, Target: target, Running: true}
}

// Elapsed returns the active (non-paused) time since the timer started.
func (t Timer) Elapsed(now time.Time) time.Duration {
	end := now
	if !t.Running && t.PausedAt != nil {
		end = *t.PausedAt
	}
	e := end.Sub(t.StartedAt) - t.PausedFor
	if e < 0 {
		return 0
	}
	return e
}

// Remaining returns the time left, clamped at zero.
func (t Timer) Remaining(now time.Time) time.Duration {
	r := t.Target - t.Elapsed(now)
	if r < 0 {
		return 0
	}
	return r
}

// Done reports whether the target has been reached.
func (t Timer) Done(now time.Time) bool {
	return t.Remaining(now) == 0
}

// Pause stops the clock. Returns false if the timer was not running.
func (t *Timer) Pause(now time.Time) bool {
	if !t.Running {
		return false
	}
	t.Running = false
	t.PausedAt = &now
	return true
}

// Resume restarts a paused clock, folding the pause into PausedFor.
// Returns false if the timer was not paused.
func (t *Timer) Resume(now time.Time) bool {
	if t.Running || t.PausedAt == nil {
		return false
	}
	if d := now.Sub(*t.PausedAt); d > 0 {
		t.PausedFor += d
	}
	t.PausedAt = nil
	t.Running = true
	return true
}

// Slot holds the current timer, if any. Readers may call Get from any
// goroutine; Set is meant to be called by a single writer.
type Slot struct {
	mu  sync.RWMutex
	cur *Timer
}

// Get returns a copy of the current timer and whether one is set.
func (s *Slot) Get() (Timer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return Timer{}, false
	}
	return *s.cur, true
}

// Set replaces the current timer. A nil t clears the slot.
func (s *Slot) Set(t *Timer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t == nil {
		s.cur = nil
		return
	}
	cp := *t
	s.cur = &cp
}

// Reading is one periodic observation of the slot.
type Reading struct {
	Active    bool          `json:"active"`
	Running   bool          `json:"running"`
	Remaining time.Duration `json:"remaining"`
	At        time.Time     `json:"at"`
}

// Read observes the slot at now.
func (s *Slot) Read(now time.Time) Reading {
	t, ok := s.Get()
	if !ok {
		return Reading{At: now}
	}
	return Reading{Active: true, Running: t.Running, Remaining: t.Remaining(now), At: now}
}

// Tick emits a Reading immediately and then every interval until ctx is
// done. Readings are dropped, not queued, when the receiver falls behind.
func Tick(ctx context.Context, slot *Slot, interval time.Duration, now func() time.Time) <-chan Reading {
	out := make(chan Reading, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case out <- slot.Read(now()):
			default:
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return out
}
