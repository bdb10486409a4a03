package types

import (
	"fmt"
	"strings"
	"time"
)

// ImplementationNote is a permanent progress record attached to either a
// feature or a task, never both. Notes are immutable once written and are
// never deleted by the engine; notes attached to a task are re-parented
// to the task's feature when the session is squashed, so agent output
// stays reachable from the permanent record.
type ImplementationNote struct {
	ID           string
	FeatureID    *string // Set when the note is feature-owned.
	TaskID       *string // Set when the note is task-owned.
	Content      string
	FilesChanged []string
	CreatedAt    time.Time
}

// CreateNoteInput holds the caller-supplied fields for a new note.
type CreateNoteInput struct {
	Content      string
	FilesChanged []string
}

// Validate requires non-empty content.
func (in *CreateNoteInput) Validate() error {
	if strings.TrimSpace(in.Content) == "" {
		return fmt.Errorf("%w: note content is required", ErrInvalidInput)
	}
	return nil
}
