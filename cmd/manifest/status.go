// Status command reports store reachability and entity counts.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store location and entity counts",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	stats, err := backend.Stats()
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(stats)
	}

	dataDir, err := resolveDataDir()
	if err != nil {
		return err
	}
	fmt.Printf("Store: %s\n", dataDir)
	fmt.Printf("Features: %d\n", stats.Features)
	fmt.Printf("Active sessions: %d\n", stats.ActiveSessions)
	fmt.Printf("Tasks: %d\n", stats.Tasks)
	fmt.Printf("History entries: %d\n", stats.HistoryEntries)
	return nil
}
