// Session commands drive the ephemeral work layer: start, inspect,
// squash-complete or fail a session.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/manifest/pkg/types"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage work sessions",
}

var (
	sessionGoal     string
	sessionSummary  string
	sessionCriteria []string
	sessionFiles    []string
	sessionCommits  []string
	sessionReason   string
)

var sessionStartCmd = &cobra.Command{
	Use:   "start <feature-id>",
	Short: "Start a session on a leaf feature",
	Long: `Start opens a work session. The feature must be a leaf and must not
already have an active session.

Example:
  manifest session start <feature-id> --goal "implement login"`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionStart,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session with its feature and tasks",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionShow,
}

var sessionCompleteCmd = &cobra.Command{
	Use:   "complete <session-id>",
	Short: "Squash a session into feature history",
	Long: `Complete atomically appends one history entry, deletes the session's
tasks and marks the session completed. Task notes are re-parented to the
feature first.

Example:
  manifest session complete <id> --summary "login shipped" --criterion <cid> --file internal/auth/login.go --commit abc1234`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionComplete,
}

var sessionFailCmd = &cobra.Command{
	Use:   "fail <session-id>",
	Short: "Mark a session failed, keeping its tasks for inspection",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionFail,
}

func init() {
	sessionStartCmd.Flags().StringVar(&sessionGoal, "goal", "", "what the session is meant to achieve (required)")
	_ = sessionStartCmd.MarkFlagRequired("goal")

	sessionCompleteCmd.Flags().StringVar(&sessionSummary, "summary", "", "summary of the work done (required)")
	sessionCompleteCmd.Flags().StringArrayVar(&sessionCriteria, "criterion", nil, "criterion id completed during the session (repeatable)")
	sessionCompleteCmd.Flags().StringArrayVar(&sessionFiles, "file", nil, "file changed during the session (repeatable)")
	sessionCompleteCmd.Flags().StringArrayVar(&sessionCommits, "commit", nil, "commit reference (repeatable)")
	_ = sessionCompleteCmd.MarkFlagRequired("summary")

	sessionFailCmd.Flags().StringVar(&sessionReason, "reason", "", "why the session failed")

	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionCompleteCmd)
	sessionCmd.AddCommand(sessionFailCmd)
}

func runSessionStart(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	result, err := backend.CreateSession(types.CreateSessionInput{
		FeatureID: args[0],
		Goal:      sessionGoal,
	})
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(result)
	}
	fmt.Printf("Started session: %s\n", result.Session.ID)
	return nil
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	detail, err := backend.GetSession(args[0])
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(detail)
	}

	fmt.Printf("Session: %s (%s)\n", detail.Session.ID, detail.Session.Status)
	fmt.Printf("Goal: %s\n", detail.Session.Goal)
	fmt.Printf("Feature: %s (%s)\n", detail.Feature.Title, detail.Feature.ID)
	if detail.Session.CompletedAt != nil {
		fmt.Printf("Finished: %s\n", detail.Session.CompletedAt.Format("2006-01-02 15:04:05"))
	}
	if len(detail.Tasks) > 0 {
		fmt.Println("Tasks:")
		for _, task := range detail.Tasks {
			fmt.Printf("  [%s] %s (%s, %s)\n", task.Status, task.Title, task.AgentType, task.ID)
		}
	}
	return nil
}

func runSessionComplete(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	session, entry, err := backend.CompleteSession(args[0], types.CompleteSessionInput{
		Summary:           sessionSummary,
		CriteriaCompleted: sessionCriteria,
		FilesChanged:      sessionFiles,
		CommitRefs:        sessionCommits,
	})
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(struct {
			Session *types.Session
			Entry   *types.HistoryEntry
		}{session, entry})
	}
	fmt.Printf("Completed session %s, history entry %s\n", session.ID, entry.ID)
	return nil
}

func runSessionFail(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	session, err := backend.FailSession(args[0], sessionReason)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(session)
	}
	fmt.Printf("Failed session %s (tasks kept for inspection)\n", session.ID)
	return nil
}
