package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(b Backend, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("GymVoice", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("GymVoice workout log. Log sets, rest timers and sessions with short Spanish commands (e.g. 'empieza entreno', 'press banca 80 kilos 7 reps rpe 9', 'descanso 90') and browse exercises, sessions and sets."),
	)

	h := &handlers{b: b, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolLogUtterance, Handler: h.logUtterance},
		server.ServerTool{Tool: toolGetSessionSets, Handler: h.getSessionSets},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolGetSessionHistory, Handler: h.getSessionHistory},
		server.ServerTool{Tool: toolGetTimer, Handler: h.getTimer},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resActiveSession, Handler: h.activeSession},
		server.ServerResource{Resource: resExercises, Handler: h.exercises},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	b   Backend
	log *slog.Logger
}

// --- Resource definitions ---

var resActiveSession = mcp.NewResource(
	"gymvoice://active_session",
	"Active Session",
	mcp.WithResourceDescription("The open workout session, if any, with its sets in logging order"),
	mcp.WithMIMEType("application/json"),
)

var resExercises = mcp.NewResource(
	"gymvoice://exercises",
	"Exercises",
	mcp.WithResourceDescription("All non-archived exercises ordered by name"),
	mcp.WithMIMEType("application/json"),
)
