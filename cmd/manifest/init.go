// Init command creates the config and data directories.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the manifest store",
	Long: `Init creates the configuration directory with a default config.yaml
and initializes the SQLite store in the data directory.

Example:
  manifest init
  manifest init --data-dir ./project/.manifest-db`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	dataDir, err := resolveDataDir()
	if err != nil {
		return err
	}

	fmt.Printf("Initialized manifest store in %s\n", dataDir)
	return nil
}
