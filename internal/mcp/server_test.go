package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/gymvoice/internal/models"
	"github.com/claude/gymvoice/internal/storage/local"
	"github.com/claude/gymvoice/internal/voice"
	"github.com/claude/gymvoice/internal/watch"
)

func newTestHandlers(t *testing.T) (*handlers, *voice.Service) {
	t.Helper()
	store, err := local.Open(filepath.Join(t.TempDir(), "gym.db"))
	if err != nil {
		t.Fatalf("local.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := voice.NewService(context.Background(), store, watch.NewHub(), log)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &handlers{b: NewLocal(svc), log: log}, svc
}

func callTool(t *testing.T, fn func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (*mcp.CallToolResult, string) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := fn(context.Background(), req)
	if err != nil {
		t.Fatalf("tool returned error: %v", err)
	}
	if len(res.Content) == 0 {
		t.Fatal("tool returned no content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want TextContent", res.Content[0])
	}
	return res, text.Text
}

// TestNewRegistersEverything verifies New builds a server without panicking.
func TestNewRegistersEverything(t *testing.T) {
	h, _ := newTestHandlers(t)
	if s := New(h.b, "test", h.log); s == nil {
		t.Fatal("New returned nil")
	}
}

// TestLogUtteranceTool verifies utterances flow through the service and the
// outcome is returned as JSON.
func TestLogUtteranceTool(t *testing.T) {
	h, _ := newTestHandlers(t)

	res, text := callTool(t, h.logUtterance, map[string]any{"text": "empieza entreno"})
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", text)
	}
	var out voice.Outcome
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		t.Fatal(err)
	}
	if out.Status != models.VoiceApplied || out.Message != "Session started" {
		t.Errorf("outcome = %+v", out)
	}

	res, _ = callTool(t, h.logUtterance, map[string]any{})
	if !res.IsError {
		t.Error("missing text should be a tool error")
	}
}

// TestGetSessionSetsDefaultsToActive verifies the active session is used when
// no session_id is given, and that no active session is a tool error.
func TestGetSessionSetsDefaultsToActive(t *testing.T) {
	ctx := context.Background()
	h, svc := newTestHandlers(t)

	res, _ := callTool(t, h.getSessionSets, nil)
	if !res.IsError {
		t.Error("expected error with no active session")
	}

	if _, err := svc.EnsureExercise(ctx, "Sentadilla"); err != nil {
		t.Fatal(err)
	}
	svc.IngestAndApply(ctx, "empieza entreno", "")
	svc.IngestAndApply(ctx, "sentadilla 100 kg 5 reps", "")

	res, text := callTool(t, h.getSessionSets, nil)
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", text)
	}
	var doc struct {
		SessionID uuid.UUID           `json:"session_id"`
		Sets      []models.WorkoutSet `json:"sets"`
	}
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Sets) != 1 || doc.Sets[0].ExerciseName != "Sentadilla" || doc.Sets[0].Reps != 5 {
		t.Errorf("sets = %+v", doc.Sets)
	}

	res, _ = callTool(t, h.getSessionSets, map[string]any{"session_id": "not-a-uuid"})
	if !res.IsError {
		t.Error("invalid session_id should be a tool error")
	}
}

// TestListExercisesTool verifies archived exercises are hidden unless asked for.
func TestListExercisesTool(t *testing.T) {
	ctx := context.Background()
	h, svc := newTestHandlers(t)

	if _, err := svc.EnsureExercise(ctx, "Press banca"); err != nil {
		t.Fatal(err)
	}
	remo, err := svc.EnsureExercise(ctx, "Remo")
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.ArchiveExercise(ctx, remo); err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		archived bool
		want     int
	}{{false, 1}, {true, 2}} {
		_, text := callTool(t, h.listExercises, map[string]any{"include_archived": tc.archived})
		var got []models.Exercise
		if err := json.Unmarshal([]byte(text), &got); err != nil {
			t.Fatal(err)
		}
		if len(got) != tc.want {
			t.Errorf("include_archived=%v: got %d exercises, want %d", tc.archived, len(got), tc.want)
		}
	}
}

// TestTimerAndHistoryTools verifies the timer reading and the session history.
func TestTimerAndHistoryTools(t *testing.T) {
	ctx := context.Background()
	h, svc := newTestHandlers(t)

	_, text := callTool(t, h.getTimer, nil)
	var status TimerStatus
	if err := json.Unmarshal([]byte(text), &status); err != nil {
		t.Fatal(err)
	}
	if status.Active {
		t.Errorf("timer active before any command: %+v", status)
	}

	svc.IngestAndApply(ctx, "descanso 90", "")
	_, text = callTool(t, h.getTimer, nil)
	if err := json.Unmarshal([]byte(text), &status); err != nil {
		t.Fatal(err)
	}
	if !status.Active || !status.Running || status.RemainingMs <= 0 || status.RemainingMs > 90000 {
		t.Errorf("timer status = %+v", status)
	}

	svc.IngestAndApply(ctx, "empieza entreno", "")
	_, text = callTool(t, h.getSessionHistory, map[string]any{"limit": 5})
	var sums []models.SessionSummary
	if err := json.Unmarshal([]byte(text), &sums); err != nil {
		t.Fatal(err)
	}
	if len(sums) != 1 || !sums[0].Active() {
		t.Errorf("history = %+v", sums)
	}
}

// TestActiveSessionResource verifies the resource reports idle and open sessions.
func TestActiveSessionResource(t *testing.T) {
	ctx := context.Background()
	h, svc := newTestHandlers(t)

	read := func() activeSessionDoc {
		t.Helper()
		var req mcp.ReadResourceRequest
		req.Params.URI = "gymvoice://active_session"
		contents, err := h.activeSession(ctx, req)
		if err != nil {
			t.Fatal(err)
		}
		text := contents[0].(mcp.TextResourceContents)
		if text.URI != "gymvoice://active_session" || text.MIMEType != "application/json" {
			t.Errorf("contents = %+v", text)
		}
		var doc activeSessionDoc
		if err := json.Unmarshal([]byte(text.Text), &doc); err != nil {
			t.Fatal(err)
		}
		return doc
	}

	if doc := read(); doc.Active || doc.SessionID != nil || doc.Sets == nil {
		t.Errorf("idle doc = %+v", doc)
	}

	svc.IngestAndApply(ctx, "empieza entreno", "")
	if doc := read(); !doc.Active || doc.SessionID == nil {
		t.Errorf("open doc = %+v", doc)
	}
}
