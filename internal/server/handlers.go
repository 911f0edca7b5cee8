package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/gymvoice/internal/models"
	"github.com/claude/gymvoice/internal/timer"
	"github.com/claude/gymvoice/internal/voice"
)

type voiceRequest struct {
	Text   string `json:"text"`
	Locale string `json:"locale"`
}

func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	var req voiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	out := s.svc.Ingest(r.Context(), req.Text, req.Locale)
	s.log.Debug("voice", "user", userInfoFromContext(r).Login, "event_id", out.EventID)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleVoiceEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.svc.VoiceEvents(r.Context(), queryLimit(r, 50))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(events))
}

func (s *Server) handleLogSet(w http.ResponseWriter, r *http.Request) {
	var req voice.ManualSet
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	set, err := s.svc.LogManualSet(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

func (s *Server) handleDeleteSet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.svc.DeleteSet(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	archived, _ := strconv.ParseBool(r.URL.Query().Get("archived"))
	exercises, err := s.svc.ListExercises(r.Context(), archived)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(exercises))
}

func (s *Server) handleEnsureExercise(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	id, err := s.svc.EnsureExercise(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	ex, err := s.svc.GetExercise(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

func (s *Server) handleAddAlias(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Alias string `json:"alias"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	alias, err := s.svc.AddAlias(r.Context(), id, req.Alias)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, alias)
}

func (s *Server) handleArchiveExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.svc.ArchiveExercise(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	sums, err := s.svc.SessionSummaries(r.Context(), queryLimit(r, 20))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(sums))
}

type activeSession struct {
	Active    bool       `json:"active"`
	SessionID *uuid.UUID `json:"session_id,omitempty"`
}

func (s *Server) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	id, ok, err := s.svc.ActiveSession(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := activeSession{Active: ok}
	if ok {
		resp.SessionID = &id
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSessionSets(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sets, err := s.svc.SessionSets(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(sets))
}

// timerView is the wire form of a timer reading.
type timerView struct {
	Active      bool      `json:"active"`
	Running     bool      `json:"running"`
	RemainingMs int64     `json:"remaining_ms"`
	At          time.Time `json:"at"`
}

func viewTimer(r timer.Reading) timerView {
	return timerView{
		Active:      r.Active,
		Running:     r.Running,
		RemainingMs: r.Remaining.Milliseconds(),
		At:          r.At,
	}
}

func (s *Server) handleTimer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewTimer(s.svc.Timer()))
}

func (s *Server) handlePauseTimer(w http.ResponseWriter, r *http.Request) {
	reading, err := s.svc.PauseTimer(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewTimer(reading))
}

func (s *Server) handleResumeTimer(w http.ResponseWriter, r *http.Request) {
	reading, err := s.svc.ResumeTimer(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewTimer(reading))
}

func (s *Server) handleStopTimer(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.StopTimer(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, voice.ErrNoActiveSession), errors.Is(err, voice.ErrNoTimer):
		status = http.StatusConflict
	case errors.Is(err, voice.ErrMissingReps), errors.Is(err, voice.ErrRPEOutOfRange),
		errors.Is(err, voice.ErrEmptyName):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ID"})
		return uuid.Nil, false
	}
	return id, true
}

func queryLimit(r *http.Request, def int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}

// orEmpty makes nil slices encode as [] instead of null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
