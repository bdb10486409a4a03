package types

import "time"

// HistoryEntry is one append-only feature history record. Entries are
// written exclusively by the session squash and are immutable; once a
// session's tasks are deleted the entry is the only durable trace of the
// session's existence.
type HistoryEntry struct {
	ID                string
	FeatureID         string
	SessionID         *string // Originating session, when the entry came from a squash.
	Summary           string
	CriteriaCompleted []string // References to criteria completed during the session.
	FilesChanged      []string
	CommitRefs        []string // External commit references.
	Author            string   // Label from config, e.g. "manifest".
	CreatedAt         time.Time
}
