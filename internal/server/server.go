package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/claude/gymvoice/internal/voice"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc    *voice.Service
	log    *slog.Logger
	apiKey string
	tick   time.Duration
	whois  WhoIser
	router chi.Router
}

// New creates a new Server with all routes configured. tick is the interval
// of the rest-timer stream.
func New(svc *voice.Service, apiKey string, tick time.Duration, log *slog.Logger) *Server {
	if tick <= 0 {
		tick = time.Second
	}
	s := &Server{
		svc:    svc,
		log:    log,
		apiKey: apiKey,
		tick:   tick,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale enables caller identity lookup on the tailnet.
func (s *Server) SetTailscale(w WhoIser) {
	s.whois = w
}

// MountMCP serves the streamable-HTTP MCP endpoint at /mcp.
func (s *Server) MountMCP(h http.Handler) {
	s.router.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Handle("/mcp", h)
	})
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/me", s.handleMe)

		// Mutations (API key required)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/voice", s.handleVoice)
			r.Post("/sets", s.handleLogSet)
			r.Delete("/sets/{id}", s.handleDeleteSet)
			r.Post("/exercises", s.handleEnsureExercise)
			r.Post("/exercises/{id}/aliases", s.handleAddAlias)
			r.Post("/exercises/{id}/archive", s.handleArchiveExercise)
			r.Post("/timer/pause", s.handlePauseTimer)
			r.Post("/timer/resume", s.handleResumeTimer)
			r.Post("/timer/stop", s.handleStopTimer)
		})

		// Reads (no auth, tsnet handles access)
		r.Get("/voice/events", s.handleVoiceEvents)
		r.Get("/exercises", s.handleListExercises)
		r.Get("/exercises/stream", s.handleExerciseStream)
		r.Get("/sessions", s.handleSessions)
		r.Get("/sessions/active", s.handleActiveSession)
		r.Get("/sessions/{id}/sets", s.handleSessionSets)
		r.Get("/sessions/{id}/sets/stream", s.handleSessionSetStream)
		r.Get("/timer", s.handleTimer)
		r.Get("/timer/stream", s.handleTimerStream)
	})
}
