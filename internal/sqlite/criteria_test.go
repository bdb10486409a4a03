package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/manifest/pkg/types"
)

func addTestCriterion(t *testing.T, b *Backend, featureID, description string) *types.Criterion {
	t.Helper()
	criterion, err := b.AddCriterion(featureID, types.CreateCriterionInput{Description: description})
	require.NoError(t, err)
	return criterion
}

func TestAddAndListCriteria(t *testing.T) {
	b := setupBackend(t)
	feature, err := b.CreateFeature(types.CreateFeatureInput{Title: "Login"})
	require.NoError(t, err)

	testFile := "internal/auth/login_test.go"
	first, err := b.AddCriterion(feature.ID, types.CreateCriterionInput{
		Description:  "rejects bad passwords",
		Verification: types.VerificationTest,
		TestFile:     &testFile,
	})
	require.NoError(t, err)
	assert.Equal(t, types.CriterionStatusPending, first.Status)

	second := addTestCriterion(t, b, feature.ID, "locks after five attempts")

	criteria, err := b.ListCriteria(feature.ID)
	require.NoError(t, err)
	require.Len(t, criteria, 2)
	assert.Equal(t, first.ID, criteria[0].ID)
	assert.Equal(t, second.ID, criteria[1].ID)
	require.NotNil(t, criteria[0].TestFile)
	assert.Equal(t, testFile, *criteria[0].TestFile)

	_, err = b.AddCriterion("ghost", types.CreateCriterionInput{Description: "x"})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestCriterionStatusMachine(t *testing.T) {
	b := setupBackend(t)
	feature, err := b.CreateFeature(types.CreateFeatureInput{Title: "Login"})
	require.NoError(t, err)

	t.Run("pending to complete stamps completed_at", func(t *testing.T) {
		c := addTestCriterion(t, b, feature.ID, "completes")
		updated, err := b.UpdateCriterionStatus(c.ID, types.CriterionStatusComplete, nil)
		require.NoError(t, err)
		assert.Equal(t, types.CriterionStatusComplete, updated.Status)
		assert.NotNil(t, updated.CompletedAt)
	})

	t.Run("complete is terminal", func(t *testing.T) {
		c := addTestCriterion(t, b, feature.ID, "terminal")
		_, err := b.UpdateCriterionStatus(c.ID, types.CriterionStatusComplete, nil)
		require.NoError(t, err)

		_, err = b.UpdateCriterionStatus(c.ID, types.CriterionStatusPending, nil)
		assert.ErrorIs(t, err, types.ErrConflict)
		_, err = b.UpdateCriterionStatus(c.ID, types.CriterionStatusBlocked, nil)
		assert.ErrorIs(t, err, types.ErrConflict)
	})

	t.Run("block and unblock round-trip", func(t *testing.T) {
		c := addTestCriterion(t, b, feature.ID, "blocked on infra")
		reason := "waiting on staging database"

		blocked, err := b.UpdateCriterionStatus(c.ID, types.CriterionStatusBlocked, &reason)
		require.NoError(t, err)
		require.NotNil(t, blocked.BlockedReason)
		assert.Equal(t, reason, *blocked.BlockedReason)
		assert.Nil(t, blocked.CompletedAt)

		unblocked, err := b.UpdateCriterionStatus(c.ID, types.CriterionStatusPending, nil)
		require.NoError(t, err)
		assert.Nil(t, unblocked.BlockedReason)

		// blocked criteria cannot jump straight to complete
		_, err = b.UpdateCriterionStatus(c.ID, types.CriterionStatusBlocked, &reason)
		require.NoError(t, err)
		_, err = b.UpdateCriterionStatus(c.ID, types.CriterionStatusComplete, nil)
		assert.ErrorIs(t, err, types.ErrConflict)
	})

	t.Run("unknown criterion", func(t *testing.T) {
		_, err := b.UpdateCriterionStatus("ghost", types.CriterionStatusComplete, nil)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}
