package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

func (s *Server) handleExerciseStream(w http.ResponseWriter, r *http.Request) {
	sendEvents(s, w, r, "exercises", s.svc.ObserveExercises(r.Context()))
}

func (s *Server) handleSessionSetStream(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sendEvents(s, w, r, "sets", s.svc.ObserveSessionSets(r.Context(), id))
}

func (s *Server) handleTimerStream(w http.ResponseWriter, r *http.Request) {
	ticks := s.svc.TimerTicks(r.Context(), s.tick)
	views := make(chan timerView)
	go func() {
		defer close(views)
		for t := range ticks {
			select {
			case views <- viewTimer(t):
			case <-r.Context().Done():
				return
			}
		}
	}()
	sendEvents(s, w, r, "timer", views)
}

// sendEvents writes each value from ch as a server-sent event until ch is
// closed, which happens when the request context ends.
func sendEvents[T any](s *Server, w http.ResponseWriter, r *http.Request, event string, ch <-chan T) {
	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for v := range ch {
		data, err := json.Marshal(v)
		if err != nil {
			s.log.Error("encoding event", "event", event, "error", err)
			continue
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			s.log.Warn("flushing event stream", "path", r.URL.Path, "error", err)
			return
		}
	}
}
