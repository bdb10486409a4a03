// Shared helpers for manifest CLI commands.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/manifest/internal/sqlite"
	"github.com/mesh-intelligence/manifest/pkg/types"
)

// attachBackend resolves the data directory, creates a SQLite backend,
// and attaches it. The caller must defer backend.Detach().
func attachBackend() (*sqlite.Backend, error) {
	cfg, err := resolveBackendConfig()
	if err != nil {
		return nil, err
	}

	backend := sqlite.NewBackend()
	if err := backend.Attach(*cfg); err != nil {
		return nil, fmt.Errorf("attach backend: %w", err)
	}

	return backend, nil
}

// resolveBackendConfig builds the store config from flags, config.yaml
// and environment.
func resolveBackendConfig() (*types.Config, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	return &types.Config{
		DataDir: dataDir,
		Author:  configAuthor,
	}, nil
}

// printJSON renders v as indented JSON on stdout.
func printJSON(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(output))
	return nil
}

// optStr returns a display value for an optional string field.
func optStr(p *string) string {
	if p == nil {
		return "-"
	}
	return *p
}

// ptrIfSet returns a pointer to the flag value when the flag was
// explicitly provided, nil otherwise. Cobra's Changed lookup is done by
// the caller; this just keeps the address-of noise out of command code.
func ptrIfSet(changed bool, value string) *string {
	if !changed {
		return nil
	}
	return &value
}
