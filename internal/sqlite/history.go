package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/manifest/pkg/types"
)

const historyColumns = "id, feature_id, session_id, summary, criteria_completed, files_changed, commit_refs, author, created_at"

// beforeHistoryAppend is a package-level hook to allow test injection of
// append failures, proving the squash rolls back as one unit.
var beforeHistoryAppend func() error

// ListHistory returns a feature's history entries in chronological
// order, oldest first, like a log.
func (b *Backend) ListHistory(featureID string) ([]types.HistoryEntry, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}
	if err := featureExists(db, featureID); err != nil {
		return nil, fmt.Errorf("feature %s: %w", featureID, err)
	}

	rows, err := db.Query(
		"SELECT "+historyColumns+" FROM feature_history WHERE feature_id = ? ORDER BY created_at, id",
		featureID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing history of %s: %w", featureID, err)
	}
	defer rows.Close()

	entries := []types.HistoryEntry{}
	for rows.Next() {
		entry, err := hydrateHistoryEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// appendHistoryTx writes one immutable history entry inside an open
// write transaction. It is deliberately unexported: the session squash
// is the only writer of history, there is no free-standing append.
func appendHistoryTx(tx *sql.Tx, entry *types.HistoryEntry) error {
	if beforeHistoryAppend != nil {
		if err := beforeHistoryAppend(); err != nil {
			return fmt.Errorf("appending history: %w", err)
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generating UUID v7: %w", err)
	}
	entry.ID = id.String()
	if entry.CriteriaCompleted == nil {
		entry.CriteriaCompleted = []string{}
	}
	if entry.FilesChanged == nil {
		entry.FilesChanged = []string{}
	}
	if entry.CommitRefs == nil {
		entry.CommitRefs = []string{}
	}

	criteria, err := marshalStringList(entry.CriteriaCompleted)
	if err != nil {
		return err
	}
	files, err := marshalStringList(entry.FilesChanged)
	if err != nil {
		return err
	}
	commits, err := marshalStringList(entry.CommitRefs)
	if err != nil {
		return err
	}

	_, err = tx.Exec(
		"INSERT INTO feature_history (id, feature_id, session_id, summary, criteria_completed, files_changed, commit_refs, author, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		entry.ID, entry.FeatureID, nullStr(entry.SessionID), entry.Summary,
		criteria, files, commits, entry.Author, formatTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("appending history: %w", err)
	}
	return nil
}

func hydrateHistoryEntry(row rowScanner) (*types.HistoryEntry, error) {
	var (
		e                        types.HistoryEntry
		sessionID                sql.NullString
		criteria, files, commits string
		createdAt                string
	)
	if err := row.Scan(&e.ID, &e.FeatureID, &sessionID, &e.Summary,
		&criteria, &files, &commits, &e.Author, &createdAt); err != nil {
		return nil, err
	}
	e.SessionID = strPtr(sessionID)

	var err error
	if e.CriteriaCompleted, err = unmarshalStringList(criteria); err != nil {
		return nil, err
	}
	if e.FilesChanged, err = unmarshalStringList(files); err != nil {
		return nil, err
	}
	if e.CommitRefs, err = unmarshalStringList(commits); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &e, nil
}
