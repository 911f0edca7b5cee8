package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/claude/gymvoice/internal/models"
	"github.com/claude/gymvoice/internal/storage/local"
	"github.com/claude/gymvoice/internal/voice"
	"github.com/claude/gymvoice/internal/watch"
)

const testKey = "test-key"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := local.Open(filepath.Join(t.TempDir(), "gym.db"))
	if err != nil {
		t.Fatalf("local.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	svc, err := voice.NewService(context.Background(), store, watch.NewHub(), discardLogger())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return New(svc, testKey, 10*time.Millisecond, discardLogger())
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testKey)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode error: %v (body %q)", err, rec.Body.String())
	}
	return v
}

// TestVoiceEndpoint verifies utterances are applied and errors come back as messages.
func TestVoiceEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/voice", `{"text":"empieza entreno"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	out := decode[voice.Outcome](t, rec)
	if out.Message != "Session started" || out.Status != models.VoiceApplied {
		t.Errorf("outcome = %+v", out)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/voice", `{"text":"press banca 80 kilos"}`)
	out = decode[voice.Outcome](t, rec)
	if rec.Code != http.StatusOK || !strings.HasPrefix(out.Message, "Parse error:") {
		t.Errorf("status %d outcome = %+v", rec.Code, out)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/voice/events?limit=1", "")
	events := decode[[]models.VoiceEvent](t, rec)
	if len(events) != 1 || events[0].Status != models.VoiceRejected {
		t.Errorf("events = %+v", events)
	}
}

// TestVoiceRequiresAPIKey verifies mutations are protected while reads are open.
func TestVoiceRequiresAPIKey(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/voice", strings.NewReader(`{"text":"hola"}`))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("POST without key: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/exercises", nil)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("GET exercises: status = %d body = %q", rec.Code, rec.Body.String())
	}
}

// TestVoiceInvalidJSON verifies malformed bodies are rejected with 400.
func TestVoiceInvalidJSON(t *testing.T) {
	s := newTestServer(t)
	if rec := do(t, s, http.MethodPost, "/api/v1/voice", `{`); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestManualSetFlow verifies manual sets, session listing and deletion.
func TestManualSetFlow(t *testing.T) {
	s := newTestServer(t)

	if rec := do(t, s, http.MethodPost, "/api/v1/sets", `{"exercise":"Remo","reps":10}`); rec.Code != http.StatusConflict {
		t.Errorf("set without session: status = %d, want 409", rec.Code)
	}
	do(t, s, http.MethodPost, "/api/v1/voice", `{"text":"empieza entreno"}`)

	if rec := do(t, s, http.MethodPost, "/api/v1/sets", `{"exercise":"Remo"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("set without reps: status = %d, want 400", rec.Code)
	}
	rec := do(t, s, http.MethodPost, "/api/v1/sets", `{"exercise":"Remo","reps":10,"weight_kg":60}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("log set: status = %d body = %s", rec.Code, rec.Body)
	}
	set := decode[models.WorkoutSet](t, rec)

	active := decode[activeSession](t, do(t, s, http.MethodGet, "/api/v1/sessions/active", ""))
	if !active.Active || active.SessionID == nil || *active.SessionID != set.SessionID {
		t.Fatalf("active session = %+v", active)
	}

	sets := decode[[]models.WorkoutSet](t, do(t, s, http.MethodGet, "/api/v1/sessions/"+set.SessionID.String()+"/sets", ""))
	if len(sets) != 1 || sets[0].ExerciseName != "Remo" {
		t.Errorf("sets = %+v", sets)
	}

	sums := decode[[]models.SessionSummary](t, do(t, s, http.MethodGet, "/api/v1/sessions", ""))
	if len(sums) != 1 || sums[0].TonnageKg != 600 {
		t.Errorf("summaries = %+v", sums)
	}

	if rec := do(t, s, http.MethodDelete, "/api/v1/sets/"+set.ID.String(), ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete: status = %d, want 204", rec.Code)
	}
	if rec := do(t, s, http.MethodDelete, "/api/v1/sets/"+set.ID.String(), ""); rec.Code != http.StatusNotFound {
		t.Errorf("delete twice: status = %d, want 404", rec.Code)
	}
	if rec := do(t, s, http.MethodDelete, "/api/v1/sets/not-a-uuid", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("delete bad id: status = %d, want 400", rec.Code)
	}
}

// TestExerciseAdmin verifies create, alias and archive endpoints.
func TestExerciseAdmin(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/exercises", `{"name":"Press banca"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("ensure: status = %d", rec.Code)
	}
	ex := decode[models.Exercise](t, rec)

	rec = do(t, s, http.MethodPost, "/api/v1/exercises/"+ex.ID.String()+"/aliases", `{"alias":"Banca Plana"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("alias: status = %d", rec.Code)
	}
	if a := decode[models.ExerciseAlias](t, rec); a.Alias != "banca plana" {
		t.Errorf("alias = %q, want normalized", a.Alias)
	}

	do(t, s, http.MethodPost, "/api/v1/voice", `{"text":"empieza entreno"}`)
	out := decode[voice.Outcome](t, do(t, s, http.MethodPost, "/api/v1/voice", `{"text":"banca plana 5 reps"}`))
	if out.Message != "Logged set 1 of Press banca: 5 reps" {
		t.Errorf("voice via alias = %q", out.Message)
	}

	if rec := do(t, s, http.MethodPost, "/api/v1/exercises/"+ex.ID.String()+"/archive", ""); rec.Code != http.StatusNoContent {
		t.Errorf("archive: status = %d", rec.Code)
	}
	if list := decode[[]models.Exercise](t, do(t, s, http.MethodGet, "/api/v1/exercises", "")); len(list) != 0 {
		t.Errorf("active exercises = %+v, want none", list)
	}
	if list := decode[[]models.Exercise](t, do(t, s, http.MethodGet, "/api/v1/exercises?archived=true", "")); len(list) != 1 {
		t.Errorf("all exercises = %+v, want 1", list)
	}
}

// TestTimerEndpoints verifies the timer read and control endpoints.
func TestTimerEndpoints(t *testing.T) {
	s := newTestServer(t)

	if rec := do(t, s, http.MethodPost, "/api/v1/timer/pause", ""); rec.Code != http.StatusConflict {
		t.Errorf("pause without timer: status = %d, want 409", rec.Code)
	}
	do(t, s, http.MethodPost, "/api/v1/voice", `{"text":"descanso 2 min"}`)

	v := decode[timerView](t, do(t, s, http.MethodGet, "/api/v1/timer", ""))
	if !v.Active || !v.Running || v.RemainingMs <= 0 || v.RemainingMs > 120000 {
		t.Errorf("timer = %+v", v)
	}
	v = decode[timerView](t, do(t, s, http.MethodPost, "/api/v1/timer/pause", ""))
	if v.Running {
		t.Errorf("paused timer = %+v", v)
	}
	v = decode[timerView](t, do(t, s, http.MethodPost, "/api/v1/timer/resume", ""))
	if !v.Running {
		t.Errorf("resumed timer = %+v", v)
	}
	if rec := do(t, s, http.MethodPost, "/api/v1/timer/stop", ""); rec.Code != http.StatusNoContent {
		t.Errorf("stop: status = %d", rec.Code)
	}
	if v := decode[timerView](t, do(t, s, http.MethodGet, "/api/v1/timer", "")); v.Active {
		t.Errorf("timer after stop = %+v", v)
	}
}

// TestExerciseStream verifies the SSE stream sends a snapshot and then an
// update after a change.
func TestExerciseStream(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/exercises/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	events := readEvents(resp)
	if got := <-events; got != "[]" {
		t.Fatalf("first event = %q, want []", got)
	}

	do(t, s, http.MethodPost, "/api/v1/exercises", `{"name":"Zancadas"}`)
	select {
	case got := <-events:
		if !strings.Contains(got, "Zancadas") {
			t.Errorf("second event = %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for update")
	}
}

// TestTimerStream verifies the timer stream ticks.
func TestTimerStream(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/timer/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	defer resp.Body.Close()

	events := readEvents(resp)
	for range 2 {
		select {
		case data := <-events:
			var v timerView
			if err := json.Unmarshal([]byte(data), &v); err != nil {
				t.Fatalf("decode tick %q: %v", data, err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for tick")
		}
	}
}

// readEvents returns the data lines of an SSE response.
func readEvents(resp *http.Response) <-chan string {
	out := make(chan string, 16)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			if data, ok := strings.CutPrefix(sc.Text(), "data: "); ok {
				out <- data
			}
		}
	}()
	return out
}
