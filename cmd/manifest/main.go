// Package main provides the manifest CLI: a cobra command tree over the
// feature store plus the MCP serve mode for coding agents.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mesh-intelligence/manifest/pkg/types"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps an error to the CLI exit code: user errors (bad
// input, missing or conflicting entities) exit 1, everything else is a
// system failure and exits 2.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidInput),
		errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrConflict):
		return exitUserError
	default:
		return exitSysError
	}
}
