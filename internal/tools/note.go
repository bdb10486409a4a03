package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mesh-intelligence/manifest/internal/sqlite"
	"github.com/mesh-intelligence/manifest/pkg/types"
)

// NoteTool handles the add_implementation_note MCP tool.
type NoteTool struct {
	backend *sqlite.Backend
}

// NewNoteTool creates a NoteTool backed by the given store.
func NewNoteTool(backend *sqlite.Backend) *NoteTool {
	return &NoteTool{backend: backend}
}

// Definition returns the MCP tool definition for add_implementation_note.
func (t *NoteTool) Definition() mcp.Tool {
	return mcp.NewTool("add_implementation_note",
		mcp.WithDescription(
			"Record a progress note on your task: decisions made, files touched, dead ends, "+
				"anything the next agent or a human reviewer should know. Notes are permanent; "+
				"they outlive the task and end up on the feature's record.",
		),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("ID of the task the note belongs to"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The note text"),
		),
		mcp.WithArray("files_changed",
			mcp.Description("Paths of files changed, if any"),
			mcp.WithStringItems(),
		),
	)
}

// Handle processes the add_implementation_note tool call.
func (t *NoteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID := req.GetString("task_id", "")
	content := req.GetString("content", "")
	if taskID == "" {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}

	filesChanged, err := stringListArg(req, "files_changed")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	note, err := t.backend.AddTaskNote(taskID, types.CreateNoteInput{
		Content:      content,
		FilesChanged: filesChanged,
	})
	if err != nil {
		return errorResult(err)
	}

	return mcp.NewToolResultText(fmt.Sprintf("Note recorded on task %s (note id %s)", taskID, note.ID)), nil
}
