// Task commands manage tasks inside active sessions.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/manifest/pkg/types"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage session tasks",
}

var (
	taskTitle    string
	taskScope    string
	taskAgent    string
	taskParent   string
	taskStatus   string
	taskWorktree string
	taskBranch   string
	taskContent  string
	taskFiles    []string
)

var taskAddCmd = &cobra.Command{
	Use:   "add <session-id>",
	Short: "Add a task to an active session",
	Long: `Add creates a task inside a session. Use --parent to nest the task
under another task of the same session.

Example:
  manifest task add <session-id> --title "Wire handler" --scope "HTTP layer" --agent claude`,
	Args: cobra.ExactArgs(1),
	RunE: runTaskAdd,
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update <task-id>",
	Short: "Update a task's status, worktree or branch",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskUpdate,
}

var taskNoteCmd = &cobra.Command{
	Use:   "note <task-id>",
	Short: "Record an implementation note on a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskNote,
}

func init() {
	taskAddCmd.Flags().StringVar(&taskTitle, "title", "", "task title (required)")
	taskAddCmd.Flags().StringVar(&taskScope, "scope", "", "what the task covers (required)")
	taskAddCmd.Flags().StringVar(&taskAgent, "agent", "", "agent type: claude, gemini or codex (required)")
	taskAddCmd.Flags().StringVar(&taskParent, "parent", "", "parent task id")
	_ = taskAddCmd.MarkFlagRequired("title")
	_ = taskAddCmd.MarkFlagRequired("scope")
	_ = taskAddCmd.MarkFlagRequired("agent")

	taskUpdateCmd.Flags().StringVar(&taskStatus, "status", "", "new status: pending, running, completed or failed")
	taskUpdateCmd.Flags().StringVar(&taskWorktree, "worktree", "", "worktree path")
	taskUpdateCmd.Flags().StringVar(&taskBranch, "branch", "", "branch name")

	taskNoteCmd.Flags().StringVar(&taskContent, "content", "", "note text (required)")
	taskNoteCmd.Flags().StringArrayVar(&taskFiles, "file", nil, "file changed (repeatable)")
	_ = taskNoteCmd.MarkFlagRequired("content")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskUpdateCmd)
	taskCmd.AddCommand(taskNoteCmd)
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	in := types.CreateTaskInput{
		Title:     taskTitle,
		Scope:     taskScope,
		AgentType: taskAgent,
	}
	if taskParent != "" {
		in.ParentID = &taskParent
	}

	task, err := backend.CreateTask(args[0], in)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(task)
	}
	fmt.Printf("Created task: %s\n", task.ID)
	return nil
}

func runTaskUpdate(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	in := types.UpdateTaskInput{
		Status:       ptrIfSet(cmd.Flags().Changed("status"), taskStatus),
		WorktreePath: ptrIfSet(cmd.Flags().Changed("worktree"), taskWorktree),
		Branch:       ptrIfSet(cmd.Flags().Changed("branch"), taskBranch),
	}

	task, err := backend.UpdateTask(args[0], in)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(task)
	}
	fmt.Printf("Updated task %s (%s)\n", task.ID, task.Status)
	return nil
}

func runTaskNote(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	note, err := backend.AddTaskNote(args[0], types.CreateNoteInput{
		Content:      taskContent,
		FilesChanged: taskFiles,
	})
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(note)
	}
	fmt.Printf("Recorded note: %s\n", note.ID)
	return nil
}
