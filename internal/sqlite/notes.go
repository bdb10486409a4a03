package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/manifest/pkg/types"
)

const noteColumns = "id, feature_id, task_id, content, files_changed, created_at"

// AddTaskNote records an implementation note on a task. It succeeds
// whenever the task exists, regardless of the session's state, so agent
// output is never dropped on the floor.
func (b *Backend) AddTaskNote(taskID string, in types.CreateNoteInput) (*types.ImplementationNote, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var note *types.ImplementationNote
	err := b.withWriteTx(func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRow("SELECT 1 FROM tasks WHERE id = ?", taskID).Scan(&one)
		if err == sql.ErrNoRows {
			return fmt.Errorf("task %s: %w", taskID, types.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("checking task: %w", err)
		}

		note, err = insertNoteTx(tx, nil, &taskID, in.Content, in.FilesChanged)
		return err
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

// AddFeatureNote records an implementation note directly on a feature.
func (b *Backend) AddFeatureNote(featureID string, in types.CreateNoteInput) (*types.ImplementationNote, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var note *types.ImplementationNote
	err := b.withWriteTx(func(tx *sql.Tx) error {
		if err := featureExistsTx(tx, featureID); err != nil {
			return fmt.Errorf("feature %s: %w", featureID, err)
		}
		var err error
		note, err = insertNoteTx(tx, &featureID, nil, in.Content, in.FilesChanged)
		return err
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

// ListTaskNotes returns a task's notes in creation order.
func (b *Backend) ListTaskNotes(taskID string) ([]types.ImplementationNote, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}
	var one int
	if err := db.QueryRow("SELECT 1 FROM tasks WHERE id = ?", taskID).Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("task %s: %w", taskID, types.ErrNotFound)
		}
		return nil, fmt.Errorf("checking task: %w", err)
	}
	return b.listNotes(db, "task_id", taskID)
}

// ListFeatureNotes returns a feature's notes in creation order,
// including notes re-parented from squashed sessions.
func (b *Backend) ListFeatureNotes(featureID string) ([]types.ImplementationNote, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}
	if err := featureExists(db, featureID); err != nil {
		return nil, fmt.Errorf("feature %s: %w", featureID, err)
	}
	return b.listNotes(db, "feature_id", featureID)
}

func (b *Backend) listNotes(db *sql.DB, ownerColumn, ownerID string) ([]types.ImplementationNote, error) {
	rows, err := db.Query(
		"SELECT "+noteColumns+" FROM implementation_notes WHERE "+ownerColumn+" = ? ORDER BY created_at, id",
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	defer rows.Close()

	notes := []types.ImplementationNote{}
	for rows.Next() {
		note, err := hydrateNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *note)
	}
	return notes, rows.Err()
}

// insertNoteTx creates one immutable note row with exactly one owner.
func insertNoteTx(tx *sql.Tx, featureID, taskID *string, content string, filesChanged []string) (*types.ImplementationNote, error) {
	if (featureID == nil) == (taskID == nil) {
		return nil, fmt.Errorf("%w: a note needs exactly one owner", types.ErrInvalidInput)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating UUID v7: %w", err)
	}
	files, err := marshalStringList(filesChanged)
	if err != nil {
		return nil, err
	}

	note := &types.ImplementationNote{
		ID:           id.String(),
		FeatureID:    featureID,
		TaskID:       taskID,
		Content:      content,
		FilesChanged: filesChanged,
		CreatedAt:    nowUTC(),
	}
	if note.FilesChanged == nil {
		note.FilesChanged = []string{}
	}

	_, err = tx.Exec(
		"INSERT INTO implementation_notes (id, feature_id, task_id, content, files_changed, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		note.ID, nullStr(featureID), nullStr(taskID), content, files, formatTime(note.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting note: %w", err)
	}
	return note, nil
}

// insertFeatureNoteTx is the engine-internal path used by FailSession to
// preserve the failure reason on the feature.
func insertFeatureNoteTx(tx *sql.Tx, featureID, content string, filesChanged []string) error {
	_, err := insertNoteTx(tx, &featureID, nil, content, filesChanged)
	return err
}

func hydrateNote(row rowScanner) (*types.ImplementationNote, error) {
	var (
		n                 types.ImplementationNote
		featureID, taskID sql.NullString
		files             string
		createdAt         string
	)
	if err := row.Scan(&n.ID, &featureID, &taskID, &n.Content, &files, &createdAt); err != nil {
		return nil, err
	}
	n.FeatureID = strPtr(featureID)
	n.TaskID = strPtr(taskID)

	var err error
	if n.FilesChanged, err = unmarshalStringList(files); err != nil {
		return nil, err
	}
	if n.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &n, nil
}
