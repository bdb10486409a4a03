package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mesh-intelligence/manifest/internal/sqlite"
	"github.com/mesh-intelligence/manifest/pkg/types"
)

// CompleteTool handles the complete_task MCP tool. Completing a task is
// a task-level report only: the session and its squash remain under the
// orchestrator's control.
type CompleteTool struct {
	backend *sqlite.Backend
}

// NewCompleteTool creates a CompleteTool backed by the given store.
func NewCompleteTool(backend *sqlite.Backend) *CompleteTool {
	return &CompleteTool{backend: backend}
}

// Definition returns the MCP tool definition for complete_task.
func (t *CompleteTool) Definition() mcp.Tool {
	return mcp.NewTool("complete_task",
		mcp.WithDescription(
			"Report your task finished. Provide a summary of what was done; it is attached "+
				"to the task as an implementation note and the task is marked completed. "+
				"This does not close the session.",
		),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("ID of the finished task"),
		),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("What was accomplished"),
		),
	)
}

// Handle processes the complete_task tool call. The summary note is
// written first so that the record survives even if the status write is
// refused.
func (t *CompleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID := req.GetString("task_id", "")
	summary := req.GetString("summary", "")
	if taskID == "" {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}
	if summary == "" {
		return mcp.NewToolResultError("'summary' is required"), nil
	}

	if _, err := t.backend.AddTaskNote(taskID, types.CreateNoteInput{Content: summary}); err != nil {
		return errorResult(err)
	}

	task, err := t.backend.UpdateTaskStatus(taskID, types.TaskStatusCompleted)
	if err != nil {
		return errorResult(err)
	}

	return mcp.NewToolResultText(fmt.Sprintf("Task %s marked %s", task.ID, task.Status)), nil
}
