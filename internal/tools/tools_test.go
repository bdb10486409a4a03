package tools

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/manifest/internal/sqlite"
	"github.com/mesh-intelligence/manifest/pkg/types"
)

func setupBackend(t *testing.T) *sqlite.Backend {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{DataDir: t.TempDir()}))
	t.Cleanup(func() { _ = b.Detach() })
	return b
}

// seedTask creates a feature, an active session and one task, returning
// the task id.
func seedTask(t *testing.T, b *sqlite.Backend) string {
	t.Helper()
	story := "As a user I can sign in"
	feature, err := b.CreateFeature(types.CreateFeatureInput{Title: "Login", Story: &story})
	require.NoError(t, err)
	result, err := b.CreateSession(types.CreateSessionInput{
		FeatureID: feature.ID,
		Goal:      "implement login",
		InitialTasks: []types.CreateTaskInput{
			{Title: "Wire handler", Scope: "HTTP layer", AgentType: types.AgentClaude},
		},
	})
	require.NoError(t, err)
	return result.Tasks[0].ID
}

func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, r)
	require.NotEmpty(t, r.Content)
	text, ok := r.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestContextToolDefinition(t *testing.T) {
	tool := NewContextTool(setupBackend(t))
	def := tool.Definition()

	assert.Equal(t, "get_task_context", def.Name)
	assert.Contains(t, def.InputSchema.Properties, "task_id")
	assert.Contains(t, def.InputSchema.Required, "task_id")
}

func TestContextToolHandle(t *testing.T) {
	b := setupBackend(t)
	taskID := seedTask(t, b)
	tool := NewContextTool(b)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"task_id": taskID,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Wire handler")
	assert.Contains(t, text, "HTTP layer")
	assert.Contains(t, text, "Login")
	assert.Contains(t, text, "As a user I can sign in")
}

func TestContextToolErrors(t *testing.T) {
	b := setupBackend(t)
	tool := NewContextTool(b)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"task_id": "no-such-task",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestContextToolTerminalSession(t *testing.T) {
	b := setupBackend(t)
	taskID := seedTask(t, b)
	tool := NewContextTool(b)

	task, err := b.GetTask(taskID)
	require.NoError(t, err)
	_, err = b.FailSession(task.SessionID, "aborted")
	require.NoError(t, err)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"task_id": taskID,
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError, "a task in a terminal session is not resolvable")
}

func TestNoteToolHandle(t *testing.T) {
	b := setupBackend(t)
	taskID := seedTask(t, b)
	tool := NewNoteTool(b)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"task_id":       taskID,
		"content":       "moved secret to config",
		"files_changed": []interface{}{"internal/auth/jwt.go"},
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), taskID)

	notes, err := b.ListTaskNotes(taskID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "moved secret to config", notes[0].Content)
	assert.Equal(t, []string{"internal/auth/jwt.go"}, notes[0].FilesChanged)
}

func TestNoteToolValidation(t *testing.T) {
	b := setupBackend(t)
	taskID := seedTask(t, b)
	tool := NewNoteTool(b)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"task_id": taskID,
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"task_id":       taskID,
		"content":       "bad list",
		"files_changed": []interface{}{42},
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestNoteToolWorksOnTerminalSession(t *testing.T) {
	b := setupBackend(t)
	taskID := seedTask(t, b)
	tool := NewNoteTool(b)

	task, err := b.GetTask(taskID)
	require.NoError(t, err)
	_, err = b.FailSession(task.SessionID, "aborted")
	require.NoError(t, err)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"task_id": taskID,
		"content": "progress before the abort",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError, "notes land regardless of session state")
}

func TestCompleteToolHandle(t *testing.T) {
	b := setupBackend(t)
	taskID := seedTask(t, b)
	tool := NewCompleteTool(b)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"task_id": taskID,
		"summary": "handler wired and covered",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	task, err := b.GetTask(taskID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusCompleted, task.Status)

	// The summary is preserved as a note on the task.
	notes, err := b.ListTaskNotes(taskID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "handler wired and covered", notes[0].Content)

	// The session is untouched.
	detail, err := b.GetSession(task.SessionID)
	require.NoError(t, err)
	assert.Equal(t, types.SessionStatusActive, detail.Session.Status)
}

func TestCompleteToolTerminalSession(t *testing.T) {
	b := setupBackend(t)
	taskID := seedTask(t, b)
	tool := NewCompleteTool(b)

	task, err := b.GetTask(taskID)
	require.NoError(t, err)
	_, err = b.FailSession(task.SessionID, "aborted")
	require.NoError(t, err)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"task_id": taskID,
		"summary": "too late",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError, "completing a frozen task is refused")

	// The summary note still landed.
	notes, err := b.ListTaskNotes(taskID)
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}
