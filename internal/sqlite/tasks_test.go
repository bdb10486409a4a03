package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/manifest/pkg/types"
)

func TestTaskLifecycle(t *testing.T) {
	b := setupBackend(t)
	login := setupLeafFeature(t, b, "Login")
	result := startSession(t, b, login.ID, "task plumbing")

	task, err := b.CreateTask(result.Session.ID, types.CreateTaskInput{
		Title:     "Wire handler",
		Scope:     "HTTP layer",
		AgentType: types.AgentClaude,
	})
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusPending, task.Status)
	assert.Nil(t, task.WorktreePath)

	worktree := "/tmp/wt/login"
	branch := "feat/login"
	running := types.TaskStatusRunning
	updated, err := b.UpdateTask(task.ID, types.UpdateTaskInput{
		Status:       &running,
		WorktreePath: &worktree,
		Branch:       &branch,
	})
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusRunning, updated.Status)
	require.NotNil(t, updated.WorktreePath)
	assert.Equal(t, worktree, *updated.WorktreePath)
	require.NotNil(t, updated.Branch)
	assert.Equal(t, branch, *updated.Branch)

	got, err := b.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func TestTaskStatusIsCallerReported(t *testing.T) {
	b := setupBackend(t)
	login := setupLeafFeature(t, b, "Login")
	result := startSession(t, b, login.ID, "no enforced order")

	task, err := b.CreateTask(result.Session.ID, types.CreateTaskInput{
		Title: "Flaky work", Scope: "retries", AgentType: types.AgentGemini,
	})
	require.NoError(t, err)

	// Any reported move is accepted, including backwards ones.
	for _, status := range []string{
		types.TaskStatusCompleted,
		types.TaskStatusPending,
		types.TaskStatusFailed,
		types.TaskStatusRunning,
	} {
		updated, err := b.UpdateTaskStatus(task.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}

	_, err = b.UpdateTaskStatus(task.ID, "daydreaming")
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestTaskParentMustShareSession(t *testing.T) {
	b := setupBackend(t)
	login := setupLeafFeature(t, b, "Login")
	logout := setupLeafFeature(t, b, "Logout")

	loginResult := startSession(t, b, login.ID, "login work",
		types.CreateTaskInput{Title: "Parent", Scope: "root of subtree", AgentType: types.AgentClaude},
	)
	logoutResult := startSession(t, b, logout.ID, "logout work")

	parent := loginResult.Tasks[0]

	// Subtask under a parent in the same session.
	child, err := b.CreateTask(loginResult.Session.ID, types.CreateTaskInput{
		Title: "Child", Scope: "split off", AgentType: types.AgentClaude, ParentID: &parent.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, parent.ID, *child.ParentID)

	// A parent from a different session is rejected.
	_, err = b.CreateTask(logoutResult.Session.ID, types.CreateTaskInput{
		Title: "Stray", Scope: "wrong home", AgentType: types.AgentClaude, ParentID: &parent.ID,
	})
	assert.ErrorIs(t, err, types.ErrConflict)

	// Completing the parent says nothing about the child.
	_, err = b.UpdateTaskStatus(parent.ID, types.TaskStatusCompleted)
	require.NoError(t, err)
	got, err := b.GetTask(child.ID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusPending, got.Status)
}

func TestTasksFreezeWhenSessionTerminal(t *testing.T) {
	b := setupBackend(t)
	login := setupLeafFeature(t, b, "Login")
	result := startSession(t, b, login.ID, "fails fast",
		types.CreateTaskInput{Title: "Left behind", Scope: "evidence", AgentType: types.AgentCodex},
	)
	task := result.Tasks[0]

	_, err := b.FailSession(result.Session.ID, "crash")
	require.NoError(t, err)

	_, err = b.UpdateTaskStatus(task.ID, types.TaskStatusCompleted)
	assert.ErrorIs(t, err, types.ErrConflict)

	_, err = b.CreateTask(result.Session.ID, types.CreateTaskInput{
		Title: "Too late", Scope: "after the fact", AgentType: types.AgentClaude,
	})
	assert.ErrorIs(t, err, types.ErrConflict)

	// Reads still work on frozen tasks.
	got, err := b.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusPending, got.Status)
}

func TestGetTaskContext(t *testing.T) {
	b := setupBackend(t)
	story := "As a user I can sign in"
	auth, err := b.CreateFeature(types.CreateFeatureInput{Title: "Login", Story: &story})
	require.NoError(t, err)

	result := startSession(t, b, auth.ID, "context check",
		types.CreateTaskInput{Title: "Wire handler", Scope: "HTTP layer", AgentType: types.AgentClaude},
	)
	task := result.Tasks[0]

	ctx, err := b.GetTaskContext(task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, ctx.Task.ID)
	assert.Equal(t, auth.ID, ctx.Feature.ID)
	assert.Equal(t, "Login", ctx.Feature.Title)
	require.NotNil(t, ctx.Feature.Story)
	assert.Equal(t, story, *ctx.Feature.Story)

	_, err = b.GetTaskContext("no-such-task")
	assert.ErrorIs(t, err, types.ErrNotFound)

	// A terminal session makes its tasks unresolvable for pickup.
	_, err = b.FailSession(result.Session.ID, "abort")
	require.NoError(t, err)
	_, err = b.GetTaskContext(task.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}
