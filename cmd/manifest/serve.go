// Serve command runs the MCP stdio server for coding agents.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/manifest/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdio",
	Long: `Serve exposes the agent tool surface (get_task_context,
add_implementation_note, complete_task) over the Model Context Protocol
on stdin/stdout. Logs go to stderr so they never corrupt the protocol
stream.

Example:
  manifest serve
  manifest serve --data-dir ./project/.manifest-db`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	// stdout carries the protocol; logging must stay on stderr.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := resolveBackendConfig()
	if err != nil {
		return err
	}

	s, cleanup, err := server.New(*cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	return server.Serve(s)
}
