// History command prints a feature's append-only history.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <feature-id>",
	Short: "Show a feature's history, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	entries, err := backend.ListHistory(args[0])
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(entries)
	}

	for _, e := range entries {
		fmt.Printf("%s  %s  %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Author, e.Summary)
		if len(e.CriteriaCompleted) > 0 {
			fmt.Printf("    criteria: %s\n", strings.Join(e.CriteriaCompleted, ", "))
		}
		if len(e.FilesChanged) > 0 {
			fmt.Printf("    files: %s\n", strings.Join(e.FilesChanged, ", "))
		}
		if len(e.CommitRefs) > 0 {
			fmt.Printf("    commits: %s\n", strings.Join(e.CommitRefs, ", "))
		}
	}
	return nil
}
