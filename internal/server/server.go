// Package server wires the MCP surface: it attaches the sqlite backend
// and registers the three agent tools. No business logic lives here,
// only composition.
package server

import (
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mesh-intelligence/manifest/internal/sqlite"
	"github.com/mesh-intelligence/manifest/internal/tools"
	"github.com/mesh-intelligence/manifest/pkg/types"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with the agent tools registered against an
// attached backend.
//
// The returned cleanup function detaches the backend and must be called
// on shutdown, typically via defer. It is always non-nil.
func New(config types.Config) (*server.MCPServer, func(), error) {
	backend := sqlite.NewBackend()
	if err := backend.Attach(config); err != nil {
		return nil, noop, fmt.Errorf("attaching backend: %w", err)
	}
	cleanup := func() {
		if err := backend.Detach(); err != nil {
			slog.Error("detaching backend", "error", err)
		}
	}

	s := server.NewMCPServer(
		"manifest",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	contextTool := tools.NewContextTool(backend)
	s.AddTool(contextTool.Definition(), contextTool.Handle)

	noteTool := tools.NewNoteTool(backend)
	s.AddTool(noteTool.Definition(), noteTool.Handle)

	completeTool := tools.NewCompleteTool(backend)
	s.AddTool(completeTool.Definition(), completeTool.Handle)

	slog.Info("manifest MCP server ready", "data_dir", config.DataDir, "tools", 3)
	return s, cleanup, nil
}

// Serve runs the server over stdio until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func noop() {}
