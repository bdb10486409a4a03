package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/manifest/pkg/types"
)

const sessionColumns = "id, feature_id, goal, status, created_at, completed_at"

// CreateSession opens a work session on a leaf feature. It fails with
// ErrConflict when the feature has children or already owns an active
// session, and creates the session together with all initial tasks in one
// transaction: any invalid task rolls the whole call back.
//
// Leaf-ness is checked only here. A feature that gains a child while a
// session is active does not retroactively invalidate the session.
func (b *Backend) CreateSession(in types.CreateSessionInput) (*types.SessionResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var result *types.SessionResult
	err := b.withWriteTx(func(tx *sql.Tx) error {
		if err := featureExistsTx(tx, in.FeatureID); err != nil {
			return fmt.Errorf("feature %s: %w", in.FeatureID, err)
		}

		var childCount int
		if err := tx.QueryRow("SELECT COUNT(*) FROM features WHERE parent_id = ?", in.FeatureID).Scan(&childCount); err != nil {
			return fmt.Errorf("counting children: %w", err)
		}
		if childCount > 0 {
			return fmt.Errorf("feature %s is not a leaf (%d children): %w", in.FeatureID, childCount, types.ErrConflict)
		}

		var active int
		err := tx.QueryRow("SELECT COUNT(*) FROM sessions WHERE feature_id = ? AND status = ?", in.FeatureID, types.SessionStatusActive).Scan(&active)
		if err != nil {
			return fmt.Errorf("checking active sessions: %w", err)
		}
		if active > 0 {
			return fmt.Errorf("feature %s already has an active session: %w", in.FeatureID, types.ErrConflict)
		}

		sessionID, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generating UUID v7: %w", err)
		}
		now := nowUTC()
		session := types.Session{
			ID:        sessionID.String(),
			FeatureID: in.FeatureID,
			Goal:      in.Goal,
			Status:    types.SessionStatusActive,
			CreatedAt: now,
		}

		_, err = tx.Exec(
			"INSERT INTO sessions (id, feature_id, goal, status, created_at) VALUES (?, ?, ?, ?, ?)",
			session.ID, session.FeatureID, session.Goal, session.Status, formatTime(now),
		)
		if err != nil {
			return fmt.Errorf("inserting session: %w", err)
		}

		tasks := []types.Task{}
		for i := range in.InitialTasks {
			task, err := insertTaskTx(tx, session.ID, in.InitialTasks[i])
			if err != nil {
				return fmt.Errorf("initial task %d: %w", i, err)
			}
			tasks = append(tasks, *task)
		}

		result = &types.SessionResult{Session: session, Tasks: tasks}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetSession returns the session with its feature summary and tasks.
// When the feature was deleted out from under the session, the summary
// carries only the feature ID.
func (b *Backend) GetSession(id string) (*types.SessionDetail, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}

	row := db.QueryRow("SELECT "+sessionColumns+" FROM sessions WHERE id = ?", id)
	session, err := hydrateSession(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session %s: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("getting session %s: %w", id, err)
	}

	detail := &types.SessionDetail{
		Session: *session,
		Feature: types.FeatureSummary{ID: session.FeatureID},
	}
	if feature, err := b.GetFeature(session.FeatureID); err == nil {
		detail.Feature = types.FeatureSummary{
			ID:      feature.ID,
			Title:   feature.Title,
			Story:   feature.Story,
			Details: feature.Details,
		}
	}

	tasks, err := b.listSessionTasks(db, id)
	if err != nil {
		return nil, err
	}
	detail.Tasks = tasks
	return detail, nil
}

// CompleteSession is the squash: it converts an active session's
// ephemeral state into one permanent history entry. In a single
// transaction it re-parents the session's task notes to the feature,
// appends the history entry (summary, caller-supplied completed-criteria
// references, changed files, commit refs), deletes the session's tasks,
// and marks the session completed. Partial application is impossible:
// any failure rolls everything back and leaves the session active.
//
// A second call on the same session returns ErrConflict; a session whose
// feature was deleted concurrently returns ErrNotFound and stays active
// for operator inspection.
func (b *Backend) CompleteSession(id string, in types.CompleteSessionInput) (*types.Session, *types.HistoryEntry, error) {
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}

	var (
		session *types.Session
		entry   *types.HistoryEntry
	)
	err := b.withWriteTx(func(tx *sql.Tx) error {
		row := tx.QueryRow("SELECT "+sessionColumns+" FROM sessions WHERE id = ?", id)
		s, err := hydrateSession(row)
		if err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("session %s: %w", id, types.ErrNotFound)
			}
			return fmt.Errorf("loading session %s: %w", id, err)
		}
		if s.Terminal() {
			return fmt.Errorf("session %s is %s, not active: %w", id, s.Status, types.ErrConflict)
		}
		if err := featureExistsTx(tx, s.FeatureID); err != nil {
			return fmt.Errorf("feature %s: %w", s.FeatureID, err)
		}

		// Keep agent output reachable from the permanent record: notes on
		// tasks about to be deleted move to the feature.
		_, err = tx.Exec(
			`UPDATE implementation_notes SET feature_id = ?, task_id = NULL
			 WHERE task_id IN (SELECT id FROM tasks WHERE session_id = ?)`,
			s.FeatureID, id,
		)
		if err != nil {
			return fmt.Errorf("re-parenting task notes: %w", err)
		}

		now := nowUTC()
		sessionID := s.ID
		e := &types.HistoryEntry{
			FeatureID:         s.FeatureID,
			SessionID:         &sessionID,
			Summary:           in.Summary,
			CriteriaCompleted: in.CriteriaCompleted,
			FilesChanged:      in.FilesChanged,
			CommitRefs:        in.CommitRefs,
			Author:            b.author(),
			CreatedAt:         now,
		}
		if err := appendHistoryTx(tx, e); err != nil {
			return err
		}

		if _, err := tx.Exec("DELETE FROM tasks WHERE session_id = ?", id); err != nil {
			return fmt.Errorf("deleting session tasks: %w", err)
		}

		s.Status = types.SessionStatusCompleted
		s.CompletedAt = &now
		_, err = tx.Exec(
			"UPDATE sessions SET status = ?, completed_at = ? WHERE id = ?",
			s.Status, formatTime(now), id,
		)
		if err != nil {
			return fmt.Errorf("completing session: %w", err)
		}

		session = s
		entry = e
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return session, entry, nil
}

// FailSession marks an active session failed without writing history and
// without deleting its tasks; they stay around for post-mortem
// inspection. The reason is preserved as a feature-owned implementation
// note when the feature still exists.
func (b *Backend) FailSession(id, reason string) (*types.Session, error) {
	var session *types.Session
	err := b.withWriteTx(func(tx *sql.Tx) error {
		row := tx.QueryRow("SELECT "+sessionColumns+" FROM sessions WHERE id = ?", id)
		s, err := hydrateSession(row)
		if err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("session %s: %w", id, types.ErrNotFound)
			}
			return fmt.Errorf("loading session %s: %w", id, err)
		}
		if s.Terminal() {
			return fmt.Errorf("session %s is %s, not active: %w", id, s.Status, types.ErrConflict)
		}

		now := nowUTC()
		s.Status = types.SessionStatusFailed
		s.CompletedAt = &now
		_, err = tx.Exec(
			"UPDATE sessions SET status = ?, completed_at = ? WHERE id = ?",
			s.Status, formatTime(now), id,
		)
		if err != nil {
			return fmt.Errorf("failing session: %w", err)
		}

		if reason != "" {
			if err := featureExistsTx(tx, s.FeatureID); err == nil {
				if err := insertFeatureNoteTx(tx, s.FeatureID, fmt.Sprintf("Session %s failed: %s", id, reason), nil); err != nil {
					return err
				}
			}
		}

		session = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func hydrateSession(row rowScanner) (*types.Session, error) {
	var (
		s           types.Session
		createdAt   string
		completedAt sql.NullString
	)
	if err := row.Scan(&s.ID, &s.FeatureID, &s.Goal, &s.Status, &createdAt, &completedAt); err != nil {
		return nil, err
	}

	var err error
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if s.CompletedAt, err = parseTimePtr(completedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
