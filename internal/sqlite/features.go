package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/manifest/pkg/types"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const featureColumns = "id, parent_id, title, story, details, state, created_at, updated_at"

// CreateFeature inserts a new feature, optionally under a parent.
// Returns ErrNotFound when the parent does not exist.
func (b *Backend) CreateFeature(in types.CreateFeatureInput) (*types.Feature, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating UUID v7: %w", err)
	}
	now := nowUTC()
	feature := &types.Feature{
		ID:        id.String(),
		ParentID:  in.ParentID,
		Title:     in.Title,
		Story:     in.Story,
		Details:   in.Details,
		State:     in.State,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = b.withWriteTx(func(tx *sql.Tx) error {
		if in.ParentID != nil {
			if err := featureExistsTx(tx, *in.ParentID); err != nil {
				return fmt.Errorf("parent feature %s: %w", *in.ParentID, err)
			}
		}
		_, err := tx.Exec(
			"INSERT INTO features (id, parent_id, title, story, details, state, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			feature.ID, nullStr(feature.ParentID), feature.Title, nullStr(feature.Story),
			nullStr(feature.Details), feature.State, formatTime(now), formatTime(now),
		)
		if err != nil {
			return fmt.Errorf("inserting feature: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return feature, nil
}

// GetFeature retrieves a feature by ID.
func (b *Backend) GetFeature(id string) (*types.Feature, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}

	row := db.QueryRow("SELECT "+featureColumns+" FROM features WHERE id = ?", id)
	feature, err := hydrateFeature(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("feature %s: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("getting feature %s: %w", id, err)
	}
	return feature, nil
}

// UpdateFeature applies a partial update and bumps updated_at. Moving the
// feature under a new parent re-validates acyclicity by walking the
// parent chain before committing; a move that would make the feature its
// own ancestor returns ErrConflict. A ParentID pointing at the empty
// string moves the feature to the root.
func (b *Backend) UpdateFeature(id string, in types.UpdateFeatureInput) (*types.Feature, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var updated *types.Feature
	err := b.withWriteTx(func(tx *sql.Tx) error {
		row := tx.QueryRow("SELECT "+featureColumns+" FROM features WHERE id = ?", id)
		feature, err := hydrateFeature(row)
		if err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("feature %s: %w", id, types.ErrNotFound)
			}
			return fmt.Errorf("loading feature %s: %w", id, err)
		}

		if in.Title != nil {
			feature.Title = *in.Title
		}
		if in.Story != nil {
			feature.Story = in.Story
		}
		if in.Details != nil {
			feature.Details = in.Details
		}
		if in.State != nil {
			feature.State = *in.State
		}
		if in.ParentID != nil {
			if *in.ParentID == "" {
				feature.ParentID = nil
			} else {
				if err := validateReparentTx(tx, id, *in.ParentID); err != nil {
					return err
				}
				parent := *in.ParentID
				feature.ParentID = &parent
			}
		}

		feature.UpdatedAt = nowUTC()
		_, err = tx.Exec(
			"UPDATE features SET parent_id = ?, title = ?, story = ?, details = ?, state = ?, updated_at = ? WHERE id = ?",
			nullStr(feature.ParentID), feature.Title, nullStr(feature.Story),
			nullStr(feature.Details), feature.State, formatTime(feature.UpdatedAt), id,
		)
		if err != nil {
			return fmt.Errorf("updating feature: %w", err)
		}
		updated = feature
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteFeature removes a feature together with its criteria, history,
// and feature-owned notes. Deleting a feature that still has children is
// rejected with ErrConflict rather than cascading, to avoid silent loss
// of sub-trees. Session rows referencing the feature are left in place;
// a later squash against them reports the feature as gone.
func (b *Backend) DeleteFeature(id string) error {
	return b.withWriteTx(func(tx *sql.Tx) error {
		if err := featureExistsTx(tx, id); err != nil {
			return fmt.Errorf("feature %s: %w", id, err)
		}

		var childCount int
		if err := tx.QueryRow("SELECT COUNT(*) FROM features WHERE parent_id = ?", id).Scan(&childCount); err != nil {
			return fmt.Errorf("counting children: %w", err)
		}
		if childCount > 0 {
			return fmt.Errorf("feature %s has %d child features: %w", id, childCount, types.ErrConflict)
		}

		for _, stmt := range []string{
			"DELETE FROM criteria WHERE feature_id = ?",
			"DELETE FROM implementation_notes WHERE feature_id = ?",
			"DELETE FROM feature_history WHERE feature_id = ?",
			"DELETE FROM features WHERE id = ?",
		} {
			if _, err := tx.Exec(stmt, id); err != nil {
				return fmt.Errorf("deleting feature %s: %w", id, err)
			}
		}
		return nil
	})
}

// ListRootFeatures returns all features without a parent, oldest first.
func (b *Backend) ListRootFeatures() ([]types.Feature, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}
	rows, err := db.Query("SELECT " + featureColumns + " FROM features WHERE parent_id IS NULL ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("listing root features: %w", err)
	}
	defer rows.Close()
	return collectFeatures(rows)
}

// ListChildFeatures returns the direct children of a feature in creation
// order. Returns ErrNotFound when the feature does not exist.
func (b *Backend) ListChildFeatures(id string) ([]types.Feature, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}
	if err := featureExists(db, id); err != nil {
		return nil, fmt.Errorf("feature %s: %w", id, err)
	}

	rows, err := db.Query("SELECT "+featureColumns+" FROM features WHERE parent_id = ? ORDER BY created_at, id", id)
	if err != nil {
		return nil, fmt.Errorf("listing children of %s: %w", id, err)
	}
	defer rows.Close()
	return collectFeatures(rows)
}

// IsLeaf reports whether no feature names this one as parent. Only leaf
// features may own an active session.
func (b *Backend) IsLeaf(id string) (bool, error) {
	db, err := b.handle()
	if err != nil {
		return false, err
	}
	if err := featureExists(db, id); err != nil {
		return false, fmt.Errorf("feature %s: %w", id, err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM features WHERE parent_id = ?", id).Scan(&count); err != nil {
		return false, fmt.Errorf("counting children of %s: %w", id, err)
	}
	return count == 0, nil
}

// validateReparentTx checks that newParent exists and that making it the
// parent of id keeps the parent relation a forest. The ancestor walk is
// bounded by a visited set so a corrupted chain cannot loop forever.
func validateReparentTx(tx *sql.Tx, id, newParent string) error {
	if newParent == id {
		return fmt.Errorf("feature %s cannot be its own parent: %w", id, types.ErrConflict)
	}
	if err := featureExistsTx(tx, newParent); err != nil {
		return fmt.Errorf("parent feature %s: %w", newParent, err)
	}

	visited := map[string]bool{}
	current := newParent
	for {
		if visited[current] {
			return fmt.Errorf("parent chain of %s already contains a cycle: %w", newParent, types.ErrConflict)
		}
		visited[current] = true

		var parent sql.NullString
		err := tx.QueryRow("SELECT parent_id FROM features WHERE id = ?", current).Scan(&parent)
		if err == sql.ErrNoRows || !parent.Valid {
			return nil
		}
		if err != nil {
			return fmt.Errorf("walking ancestors: %w", err)
		}
		if parent.String == id {
			return fmt.Errorf("moving %s under %s would create a cycle: %w", id, newParent, types.ErrConflict)
		}
		current = parent.String
	}
}

// featureExists probes for a feature on the read handle.
func featureExists(db *sql.DB, id string) error {
	var one int
	err := db.QueryRow("SELECT 1 FROM features WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return types.ErrNotFound
	}
	return err
}

// featureExistsTx probes for a feature inside a write transaction.
func featureExistsTx(tx *sql.Tx, id string) error {
	var one int
	err := tx.QueryRow("SELECT 1 FROM features WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return types.ErrNotFound
	}
	return err
}

func hydrateFeature(row rowScanner) (*types.Feature, error) {
	var (
		f                    types.Feature
		parentID             sql.NullString
		story, details       sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&f.ID, &parentID, &f.Title, &story, &details, &f.State, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	f.ParentID = strPtr(parentID)
	f.Story = strPtr(story)
	f.Details = strPtr(details)

	var err error
	if f.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if f.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func collectFeatures(rows *sql.Rows) ([]types.Feature, error) {
	features := []types.Feature{}
	for rows.Next() {
		f, err := hydrateFeature(rows)
		if err != nil {
			return nil, err
		}
		features = append(features, *f)
	}
	return features, rows.Err()
}
