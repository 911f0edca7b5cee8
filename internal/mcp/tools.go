package mcp

import (
	"context"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolLogUtterance = mcp.NewTool("log_utterance",
	mcp.WithDescription("Apply one Spanish gym command exactly as the user would say it. Examples: 'empieza entreno', 'termina entreno', 'press banca 80 kilos 7 reps rpe 9', '180 libras 5 reps', 'descanso 90', 'descanso 2 min', 'timer 1:30', 'nota: subir peso'. Returns the outcome message; failures start with 'Parse error:' or 'Apply error:'."),
	mcp.WithString("text", mcp.Required(), mcp.Description("The utterance text")),
	mcp.WithString("locale", mcp.Description("Locale tag recorded with the utterance. Defaults to es-ES.")),
)

var toolGetSessionSets = mcp.NewTool("get_session_sets",
	mcp.WithDescription("List the sets of a workout session in logging order, with exercise name, set number, reps, weight (kg) and RPE."),
	mcp.WithString("session_id", mcp.Description("Session UUID. Defaults to the active session.")),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List known exercises ordered by name."),
	mcp.WithBoolean("include_archived", mcp.Description("Include archived exercises. Defaults to false.")),
)

var toolGetSessionHistory = mcp.NewTool("get_session_history",
	mcp.WithDescription("Recent workout sessions, newest first, with set count, distinct exercises, total reps and tonnage (kg)."),
	mcp.WithNumber("limit", mcp.Description("Maximum sessions to return. Defaults to 10.")),
)

var toolGetTimer = mcp.NewTool("get_timer",
	mcp.WithDescription("Current rest timer state: whether one is set, whether it is running, and the remaining time in milliseconds."),
)

// --- Tool handlers ---

func (h *handlers) logUtterance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text parameter is required"), nil
	}

	out, err := h.b.LogUtterance(ctx, text, req.GetString("locale", ""))
	if err != nil {
		h.log.Error("mcp log_utterance", "error", err)
		return mcp.NewToolResultError("request failed: " + err.Error()), nil
	}
	return jsonResult(out)
}

func (h *handlers) getSessionSets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sessionID uuid.UUID
	if raw := req.GetString("session_id", ""); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return mcp.NewToolResultError("invalid session_id: " + err.Error()), nil
		}
		sessionID = id
	} else {
		id, ok, err := h.b.ActiveSession(ctx)
		if err != nil {
			h.log.Error("mcp get_session_sets active", "error", err)
			return mcp.NewToolResultError("query failed: " + err.Error()), nil
		}
		if !ok {
			return mcp.NewToolResultError("no active session; pass session_id"), nil
		}
		sessionID = id
	}

	sets, err := h.b.SessionSets(ctx, sessionID)
	if err != nil {
		h.log.Error("mcp get_session_sets", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(map[string]any{
		"session_id": sessionID,
		"sets":       orEmpty(sets),
	})
}

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercises, err := h.b.ListExercises(ctx, req.GetBool("include_archived", false))
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(orEmpty(exercises))
}

func (h *handlers) getSessionHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}
	sums, err := h.b.SessionSummaries(ctx, limit)
	if err != nil {
		h.log.Error("mcp get_session_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(orEmpty(sums))
}

func (h *handlers) getTimer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := h.b.TimerStatus(ctx)
	if err != nil {
		h.log.Error("mcp get_timer", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(status)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
