package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/manifest/pkg/types"
)

const criterionColumns = "id, feature_id, description, status, verification, test_file, blocked_reason, completed_at, created_at"

// AddCriterion attaches a new acceptance criterion to a feature.
func (b *Backend) AddCriterion(featureID string, in types.CreateCriterionInput) (*types.Criterion, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating UUID v7: %w", err)
	}
	criterion := &types.Criterion{
		ID:           id.String(),
		FeatureID:    featureID,
		Description:  in.Description,
		Status:       types.CriterionStatusPending,
		Verification: in.Verification,
		TestFile:     in.TestFile,
		CreatedAt:    nowUTC(),
	}

	err = b.withWriteTx(func(tx *sql.Tx) error {
		if err := featureExistsTx(tx, featureID); err != nil {
			return fmt.Errorf("feature %s: %w", featureID, err)
		}
		_, err := tx.Exec(
			"INSERT INTO criteria (id, feature_id, description, status, verification, test_file, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			criterion.ID, featureID, criterion.Description, criterion.Status,
			criterion.Verification, nullStr(criterion.TestFile), formatTime(criterion.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("inserting criterion: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return criterion, nil
}

// GetCriterion retrieves a criterion by ID.
func (b *Backend) GetCriterion(id string) (*types.Criterion, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}
	row := db.QueryRow("SELECT "+criterionColumns+" FROM criteria WHERE id = ?", id)
	criterion, err := hydrateCriterion(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("criterion %s: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("getting criterion %s: %w", id, err)
	}
	return criterion, nil
}

// ListCriteria returns a feature's criteria in creation order.
func (b *Backend) ListCriteria(featureID string) ([]types.Criterion, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}
	if err := featureExists(db, featureID); err != nil {
		return nil, fmt.Errorf("feature %s: %w", featureID, err)
	}

	rows, err := db.Query("SELECT "+criterionColumns+" FROM criteria WHERE feature_id = ? ORDER BY created_at, id", featureID)
	if err != nil {
		return nil, fmt.Errorf("listing criteria of %s: %w", featureID, err)
	}
	defer rows.Close()

	criteria := []types.Criterion{}
	for rows.Next() {
		c, err := hydrateCriterion(rows)
		if err != nil {
			return nil, err
		}
		criteria = append(criteria, *c)
	}
	return criteria, rows.Err()
}

// UpdateCriterionStatus moves a criterion through its status machine:
// pending→complete, pending→blocked, blocked→pending. Complete is
// terminal; any attempt to reactivate a completed criterion returns
// ErrConflict. completed_at is stamped exactly when the status becomes
// complete; blocked_reason is kept while blocked and cleared on unblock.
func (b *Backend) UpdateCriterionStatus(id, status string, blockedReason *string) (*types.Criterion, error) {
	if err := types.ValidateCriterionStatus(status); err != nil {
		return nil, err
	}

	var updated *types.Criterion
	err := b.withWriteTx(func(tx *sql.Tx) error {
		row := tx.QueryRow("SELECT "+criterionColumns+" FROM criteria WHERE id = ?", id)
		criterion, err := hydrateCriterion(row)
		if err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("criterion %s: %w", id, types.ErrNotFound)
			}
			return fmt.Errorf("loading criterion %s: %w", id, err)
		}

		if !types.CanTransitionCriterion(criterion.Status, status) {
			return fmt.Errorf("criterion %s cannot move from %s to %s: %w", id, criterion.Status, status, types.ErrConflict)
		}

		criterion.Status = status
		switch status {
		case types.CriterionStatusComplete:
			now := nowUTC()
			criterion.CompletedAt = &now
			criterion.BlockedReason = nil
		case types.CriterionStatusBlocked:
			criterion.BlockedReason = blockedReason
			criterion.CompletedAt = nil
		case types.CriterionStatusPending:
			criterion.BlockedReason = nil
			criterion.CompletedAt = nil
		}

		_, err = tx.Exec(
			"UPDATE criteria SET status = ?, blocked_reason = ?, completed_at = ? WHERE id = ?",
			criterion.Status, nullStr(criterion.BlockedReason), formatTimePtr(criterion.CompletedAt), id,
		)
		if err != nil {
			return fmt.Errorf("updating criterion: %w", err)
		}
		updated = criterion
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func hydrateCriterion(row rowScanner) (*types.Criterion, error) {
	var (
		c                       types.Criterion
		testFile, blockedReason sql.NullString
		completedAt             sql.NullString
		createdAt               string
	)
	if err := row.Scan(&c.ID, &c.FeatureID, &c.Description, &c.Status, &c.Verification,
		&testFile, &blockedReason, &completedAt, &createdAt); err != nil {
		return nil, err
	}
	c.TestFile = strPtr(testFile)
	c.BlockedReason = strPtr(blockedReason)

	var err error
	if c.CompletedAt, err = parseTimePtr(completedAt); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &c, nil
}
