package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mesh-intelligence/manifest/internal/sqlite"
)

// ContextTool handles the get_task_context MCP tool.
type ContextTool struct {
	backend *sqlite.Backend
}

// NewContextTool creates a ContextTool backed by the given store.
func NewContextTool(backend *sqlite.Backend) *ContextTool {
	return &ContextTool{backend: backend}
}

// Definition returns the MCP tool definition for get_task_context.
func (t *ContextTool) Definition() mcp.Tool {
	return mcp.NewTool("get_task_context",
		mcp.WithDescription(
			"Fetch everything needed to start working on an assigned task: the task's title, "+
				"scope and status, plus the feature it belongs to (title, story, details). "+
				"Call this first when picking up a task id.",
		),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("ID of the assigned task"),
		),
	)
}

// Handle processes the get_task_context tool call.
func (t *ContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID := req.GetString("task_id", "")
	if taskID == "" {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}

	taskCtx, err := t.backend.GetTaskContext(taskID)
	if err != nil {
		return errorResult(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s (%s)\n", taskCtx.Task.Title, taskCtx.Task.ID)
	fmt.Fprintf(&b, "Status: %s\n", taskCtx.Task.Status)
	fmt.Fprintf(&b, "Agent: %s\n", taskCtx.Task.AgentType)
	fmt.Fprintf(&b, "Scope: %s\n", taskCtx.Task.Scope)
	if taskCtx.Task.WorktreePath != nil {
		fmt.Fprintf(&b, "Worktree: %s\n", *taskCtx.Task.WorktreePath)
	}
	if taskCtx.Task.Branch != nil {
		fmt.Fprintf(&b, "Branch: %s\n", *taskCtx.Task.Branch)
	}
	fmt.Fprintf(&b, "\nFeature: %s (%s)\n", taskCtx.Feature.Title, taskCtx.Feature.ID)
	if story := strOrEmpty(taskCtx.Feature.Story); story != "" {
		fmt.Fprintf(&b, "Story: %s\n", story)
	}
	if details := strOrEmpty(taskCtx.Feature.Details); details != "" {
		fmt.Fprintf(&b, "Details: %s\n", details)
	}

	return mcp.NewToolResultText(b.String()), nil
}
