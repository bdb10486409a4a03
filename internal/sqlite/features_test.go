package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/manifest/pkg/types"
)

func TestCreateAndGetFeatureRoundTrip(t *testing.T) {
	b := setupBackend(t)

	story := "As a user I can sign in"
	details := "Argon2id, session cookies"
	created, err := b.CreateFeature(types.CreateFeatureInput{
		Title:   "Authentication",
		Story:   &story,
		Details: &details,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, types.FeatureStateProposed, created.State)

	got, err := b.GetFeature(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, got.Title)
	require.NotNil(t, got.Story)
	assert.Equal(t, story, *got.Story)
	require.NotNil(t, got.Details)
	assert.Equal(t, details, *got.Details)
	assert.Equal(t, created.CreatedAt, got.CreatedAt)
	assert.Equal(t, created.UpdatedAt, got.UpdatedAt)
}

func TestGetFeatureNotFound(t *testing.T) {
	b := setupBackend(t)
	_, err := b.GetFeature("no-such-id")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestCreateFeatureUnderMissingParent(t *testing.T) {
	b := setupBackend(t)
	parent := "ghost"
	_, err := b.CreateFeature(types.CreateFeatureInput{Title: "Orphan", ParentID: &parent})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestLeafDerivedFromChildren(t *testing.T) {
	b := setupBackend(t)

	auth, err := b.CreateFeature(types.CreateFeatureInput{Title: "Authentication"})
	require.NoError(t, err)
	login, err := b.CreateFeature(types.CreateFeatureInput{Title: "Login", ParentID: &auth.ID})
	require.NoError(t, err)

	authLeaf, err := b.IsLeaf(auth.ID)
	require.NoError(t, err)
	assert.False(t, authLeaf)

	loginLeaf, err := b.IsLeaf(login.ID)
	require.NoError(t, err)
	assert.True(t, loginLeaf)

	// is_leaf is false exactly when list_children is non-empty.
	children, err := b.ListChildFeatures(auth.ID)
	require.NoError(t, err)
	assert.Len(t, children, 1)
	assert.Equal(t, login.ID, children[0].ID)

	children, err = b.ListChildFeatures(login.ID)
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestListRootFeatures(t *testing.T) {
	b := setupBackend(t)

	first, err := b.CreateFeature(types.CreateFeatureInput{Title: "First"})
	require.NoError(t, err)
	second, err := b.CreateFeature(types.CreateFeatureInput{Title: "Second"})
	require.NoError(t, err)
	_, err = b.CreateFeature(types.CreateFeatureInput{Title: "Nested", ParentID: &first.ID})
	require.NoError(t, err)

	roots, err := b.ListRootFeatures()
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, first.ID, roots[0].ID)
	assert.Equal(t, second.ID, roots[1].ID)
}

func TestUpdateFeatureBumpsUpdatedAt(t *testing.T) {
	b := setupBackend(t)

	feature, err := b.CreateFeature(types.CreateFeatureInput{Title: "Search"})
	require.NoError(t, err)

	state := types.FeatureStateImplemented
	updated, err := b.UpdateFeature(feature.ID, types.UpdateFeatureInput{State: &state})
	require.NoError(t, err)
	assert.Equal(t, types.FeatureStateImplemented, updated.State)
	assert.False(t, updated.UpdatedAt.Before(feature.UpdatedAt))
	assert.Equal(t, feature.CreatedAt, updated.CreatedAt)
}

func TestReparentRejectsCycles(t *testing.T) {
	b := setupBackend(t)

	a, err := b.CreateFeature(types.CreateFeatureInput{Title: "A"})
	require.NoError(t, err)
	bf, err := b.CreateFeature(types.CreateFeatureInput{Title: "B", ParentID: &a.ID})
	require.NoError(t, err)
	c, err := b.CreateFeature(types.CreateFeatureInput{Title: "C", ParentID: &bf.ID})
	require.NoError(t, err)

	// A under its own grandchild.
	_, err = b.UpdateFeature(a.ID, types.UpdateFeatureInput{ParentID: &c.ID})
	assert.ErrorIs(t, err, types.ErrConflict)

	// Self-parenting.
	_, err = b.UpdateFeature(a.ID, types.UpdateFeatureInput{ParentID: &a.ID})
	assert.ErrorIs(t, err, types.ErrConflict)

	// Legal lateral move still works: C directly under A.
	moved, err := b.UpdateFeature(c.ID, types.UpdateFeatureInput{ParentID: &a.ID})
	require.NoError(t, err)
	require.NotNil(t, moved.ParentID)
	assert.Equal(t, a.ID, *moved.ParentID)

	// Move to root with an explicit empty parent.
	root := ""
	moved, err = b.UpdateFeature(c.ID, types.UpdateFeatureInput{ParentID: &root})
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)
}

func TestDeleteFeature(t *testing.T) {
	b := setupBackend(t)

	parent, err := b.CreateFeature(types.CreateFeatureInput{Title: "Parent"})
	require.NoError(t, err)
	child, err := b.CreateFeature(types.CreateFeatureInput{Title: "Child", ParentID: &parent.ID})
	require.NoError(t, err)

	// Non-leaf deletion is rejected, not cascaded.
	err = b.DeleteFeature(parent.ID)
	assert.ErrorIs(t, err, types.ErrConflict)
	_, err = b.GetFeature(child.ID)
	require.NoError(t, err)

	require.NoError(t, b.DeleteFeature(child.ID))
	require.NoError(t, b.DeleteFeature(parent.ID))

	_, err = b.GetFeature(parent.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	err = b.DeleteFeature(parent.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}
