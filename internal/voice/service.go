package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/gymvoice/internal/models"
	"github.com/claude/gymvoice/internal/timer"
	"github.com/claude/gymvoice/internal/watch"
	"github.com/google/uuid"
)

// Change-notification topics published on the hub.
const (
	TopicExercises = "exercises"
	TopicSessions  = "sessions"
	TopicTimer     = "timer"
)

// SetsTopic is the topic for changes to one session's sets.
func SetsTopic(sessionID uuid.UUID) string {
	return "sets:" + sessionID.String()
}

// DefaultLocale is the only locale the grammar is written for.
const DefaultLocale = "es-ES"

// Service ingests utterances and owns every mutation of sessions, sets,
// exercises and the rest timer. Mutations are serialized by mu, which makes
// the service the single writer for the active session and the timer slot.
type Service struct {
	store    Store
	resolver *Resolver
	parser   *Parser
	hub      *watch.Hub
	timer    *timer.Slot
	log      *slog.Logger
	locale   string
	now      func() time.Time

	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDefaultLocale sets the locale recorded when a caller passes none.
func WithDefaultLocale(locale string) Option {
	return func(s *Service) {
		if locale != "" {
			s.locale = locale
		}
	}
}

// NewService creates a Service and restores the persisted rest timer.
func NewService(ctx context.Context, store Store, hub *watch.Hub, log *slog.Logger, opts ...Option) (*Service, error) {
	s := &Service{
		store:  store,
		hub:    hub,
		timer:  &timer.Slot{},
		log:    log,
		locale: DefaultLocale,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resolver = &Resolver{store: store, now: s.now}
	s.parser = NewParser(s.resolver)

	t, err := store.LoadTimer(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading rest timer: %w", err)
	}
	s.timer.Set(t)
	return s, nil
}

// Resolver returns the exercise resolver used by the service.
func (s *Service) Resolver() *Resolver { return s.resolver }

// Outcome is the full result of ingesting one utterance.
type Outcome struct {
	EventID uuid.UUID          `json:"event_id"`
	Intent  Kind               `json:"intent,omitempty"`
	Status  models.VoiceStatus `json:"status"`
	Message string             `json:"message"`
}

// IngestAndApply processes one transcribed utterance end to end and returns
// a human-readable result. It never fails: errors come back as messages
// prefixed "Parse error:" or "Apply error:".
func (s *Service) IngestAndApply(ctx context.Context, rawText, locale string) string {
	return s.Ingest(ctx, rawText, locale).Message
}

// Ingest is IngestAndApply with the event ID and final status exposed.
// Once started, an ingestion runs to a recorded outcome even if ctx is
// cancelled.
func (s *Service) Ingest(ctx context.Context, rawText, locale string) Outcome {
	ctx = context.WithoutCancel(ctx)
	if locale == "" {
		locale = s.locale
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	ev := models.VoiceEvent{
		ID:        newID(),
		RawText:   rawText,
		Locale:    locale,
		Status:    models.VoiceReceived,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertVoiceEvent(ctx, ev); err != nil {
		s.log.Error("recording utterance", "error", err)
		ae := &ApplyError{Err: fmt.Errorf("recording utterance: %w", err)}
		return Outcome{Status: models.VoiceRejected, Message: ae.Error()}
	}
	out := Outcome{EventID: ev.ID}

	in, err := s.parser.Parse(ctx, rawText)
	if err != nil {
		s.transition(ctx, ev.ID, models.VoiceRejected, "", err)
		out.Status, out.Message = models.VoiceRejected, err.Error()
		s.logOutcome(out)
		return out
	}
	out.Intent = in.Kind()
	s.transition(ctx, ev.ID, models.VoiceParsed, out.Intent, nil)

	if _, ok := in.(Unknown); ok {
		s.transition(ctx, ev.ID, models.VoiceRejected, out.Intent, errors.New("no intent recognized"))
		out.Status, out.Message = models.VoiceRejected, "No intent recognized"
		s.logOutcome(out)
		return out
	}

	msg, err := s.apply(ctx, in)
	if err != nil {
		var ae *ApplyError
		if !errors.As(err, &ae) {
			ae = &ApplyError{Err: err}
		}
		s.transition(ctx, ev.ID, models.VoiceRejected, out.Intent, ae)
		out.Status, out.Message = models.VoiceRejected, ae.Error()
		s.logOutcome(out)
		return out
	}

	s.transition(ctx, ev.ID, models.VoiceApplied, out.Intent, nil)
	out.Status, out.Message = models.VoiceApplied, msg
	s.logOutcome(out)
	return out
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, status models.VoiceStatus, kind Kind, cause error) {
	var msg *string
	if cause != nil {
		m := cause.Error()
		msg = &m
	}
	if err := s.store.UpdateVoiceEvent(ctx, id, status, string(kind), msg, s.now()); err != nil {
		s.log.Error("updating voice event", "event_id", id, "status", status, "error", err)
	}
}

func (s *Service) logOutcome(out Outcome) {
	s.log.Info("utterance",
		"event_id", out.EventID,
		"intent", out.Intent,
		"status", out.Status,
		"message", out.Message,
	)
}

// VoiceEvents returns the most recent ingested utterances, newest first.
func (s *Service) VoiceEvents(ctx context.Context, limit int) ([]models.VoiceEvent, error) {
	return s.store.QueryVoiceEvents(ctx, limit)
}
