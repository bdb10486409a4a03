package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/manifest/pkg/types"
)

func TestAddTaskNote(t *testing.T) {
	b := setupBackend(t)
	login := setupLeafFeature(t, b, "Login")
	result := startSession(t, b, login.ID, "note taking",
		types.CreateTaskInput{Title: "Wire handler", Scope: "HTTP layer", AgentType: types.AgentClaude},
	)
	task := result.Tasks[0]

	note, err := b.AddTaskNote(task.ID, types.CreateNoteInput{
		Content:      "Handler registered on /login",
		FilesChanged: []string{"internal/auth/login.go"},
	})
	require.NoError(t, err)
	require.NotNil(t, note.TaskID)
	assert.Equal(t, task.ID, *note.TaskID)
	assert.Nil(t, note.FeatureID)

	notes, err := b.ListTaskNotes(task.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, note.ID, notes[0].ID)
	assert.Equal(t, []string{"internal/auth/login.go"}, notes[0].FilesChanged)

	_, err = b.AddTaskNote(task.ID, types.CreateNoteInput{Content: "   "})
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = b.AddTaskNote("no-such-task", types.CreateNoteInput{Content: "lost"})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestAddTaskNoteIgnoresSessionState(t *testing.T) {
	b := setupBackend(t)
	login := setupLeafFeature(t, b, "Login")
	result := startSession(t, b, login.ID, "failing run",
		types.CreateTaskInput{Title: "Crashes", Scope: "late report", AgentType: types.AgentGemini},
	)
	task := result.Tasks[0]

	_, err := b.FailSession(result.Session.ID, "agent crashed")
	require.NoError(t, err)

	// A late-reporting agent can still land its note on the frozen task.
	_, err = b.AddTaskNote(task.ID, types.CreateNoteInput{Content: "partial progress before crash"})
	require.NoError(t, err)

	notes, err := b.ListTaskNotes(task.ID)
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestFeatureNotes(t *testing.T) {
	b := setupBackend(t)
	login := setupLeafFeature(t, b, "Login")

	first, err := b.AddFeatureNote(login.ID, types.CreateNoteInput{Content: "first"})
	require.NoError(t, err)
	second, err := b.AddFeatureNote(login.ID, types.CreateNoteInput{Content: "second"})
	require.NoError(t, err)

	notes, err := b.ListFeatureNotes(login.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, first.ID, notes[0].ID)
	assert.Equal(t, second.ID, notes[1].ID)
	assert.Empty(t, notes[0].FilesChanged)

	_, err = b.AddFeatureNote("no-such-feature", types.CreateNoteInput{Content: "lost"})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestSquashReparentsTaskNotes(t *testing.T) {
	b := setupBackend(t)
	login := setupLeafFeature(t, b, "Login")
	result := startSession(t, b, login.ID, "note preservation",
		types.CreateTaskInput{Title: "Wire handler", Scope: "HTTP layer", AgentType: types.AgentClaude},
	)
	task := result.Tasks[0]

	note, err := b.AddTaskNote(task.ID, types.CreateNoteInput{
		Content:      "JWT secret moved to config",
		FilesChanged: []string{"internal/auth/jwt.go"},
	})
	require.NoError(t, err)

	_, _, err = b.CompleteSession(result.Session.ID, types.CompleteSessionInput{Summary: "done"})
	require.NoError(t, err)

	// The task row is gone but its note survives on the feature.
	notes, err := b.ListFeatureNotes(login.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, note.ID, notes[0].ID)
	assert.Equal(t, "JWT secret moved to config", notes[0].Content)
	assert.Equal(t, []string{"internal/auth/jwt.go"}, notes[0].FilesChanged)
	require.NotNil(t, notes[0].FeatureID)
	assert.Equal(t, login.ID, *notes[0].FeatureID)
	assert.Nil(t, notes[0].TaskID)
}

func TestHistoryIsChronological(t *testing.T) {
	b := setupBackend(t)
	login := setupLeafFeature(t, b, "Login")

	goals := []string{"first pass", "second pass", "third pass"}
	for _, goal := range goals {
		result := startSession(t, b, login.ID, goal)
		_, _, err := b.CompleteSession(result.Session.ID, types.CompleteSessionInput{Summary: goal + " done"})
		require.NoError(t, err)
	}

	entries, err := b.ListHistory(login.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, goal := range goals {
		assert.Equal(t, goal+" done", entries[i].Summary)
		assert.Equal(t, login.ID, entries[i].FeatureID)
	}

	_, err = b.ListHistory("no-such-feature")
	assert.ErrorIs(t, err, types.ErrNotFound)
}
