package mcp

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/gymvoice/internal/models"
)

type activeSessionDoc struct {
	Active    bool                `json:"active"`
	SessionID *uuid.UUID          `json:"session_id,omitempty"`
	Sets      []models.WorkoutSet `json:"sets"`
}

func (h *handlers) activeSession(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	id, ok, err := h.b.ActiveSession(ctx)
	if err != nil {
		return nil, err
	}

	doc := activeSessionDoc{Active: ok, Sets: []models.WorkoutSet{}}
	if ok {
		doc.SessionID = &id
		sets, err := h.b.SessionSets(ctx, id)
		if err != nil {
			h.log.Warn("active_session: sets query failed", "error", err)
		}
		doc.Sets = orEmpty(sets)
	}
	return jsonContents(req.Params.URI, doc)
}

func (h *handlers) exercises(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	exercises, err := h.b.ListExercises(ctx, false)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, orEmpty(exercises))
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
