package types

import (
	"fmt"
	"strings"
	"time"
)

// Session statuses. Active is the only non-terminal status; at most one
// active session may exist per feature at any time.
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
	SessionStatusFailed    = "failed"
)

var validSessionStatuses = map[string]bool{
	SessionStatusActive:    true,
	SessionStatusCompleted: true,
	SessionStatusFailed:    true,
}

// ValidateSessionStatus returns ErrInvalidInput if the status is not recognized.
func ValidateSessionStatus(status string) error {
	if !validSessionStatuses[status] {
		return fmt.Errorf("%w: session status %q (valid: active, completed, failed)", ErrInvalidInput, status)
	}
	return nil
}

// Session is an ephemeral work container owned by exactly one leaf
// feature. It either completes via the squash (its tasks are deleted and
// one history entry is written) or fails explicitly (its tasks are kept
// for post-mortem inspection).
type Session struct {
	ID          string
	FeatureID   string
	Goal        string
	Status      string // One of the SessionStatus constants.
	CreatedAt   time.Time
	CompletedAt *time.Time // Set when the session reaches a terminal status.
}

// Terminal reports whether the session no longer accepts work.
func (s *Session) Terminal() bool {
	return s.Status != SessionStatusActive
}

// CreateSessionInput holds the caller-supplied fields for a new session.
// InitialTasks are created atomically with the session: if any task is
// invalid the whole call is rolled back.
type CreateSessionInput struct {
	FeatureID    string
	Goal         string
	InitialTasks []CreateTaskInput
}

// Validate checks the session fields and every initial task.
func (in *CreateSessionInput) Validate() error {
	if in.FeatureID == "" {
		return fmt.Errorf("%w: session feature id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Goal) == "" {
		return fmt.Errorf("%w: session goal is required", ErrInvalidInput)
	}
	for i := range in.InitialTasks {
		if err := in.InitialTasks[i].Validate(); err != nil {
			return fmt.Errorf("initial task %d: %w", i, err)
		}
	}
	return nil
}

// CompleteSessionInput carries the squash payload. CriteriaCompleted is
// the caller-supplied list of criterion references completed during the
// session; criteria belong to the feature, so the caller closing the
// session is the authority on what it finished.
type CompleteSessionInput struct {
	Summary           string
	CriteriaCompleted []string
	FilesChanged      []string
	CommitRefs        []string
}

// Validate requires a non-empty summary.
func (in *CompleteSessionInput) Validate() error {
	if strings.TrimSpace(in.Summary) == "" {
		return fmt.Errorf("%w: session summary is required", ErrInvalidInput)
	}
	return nil
}

// SessionDetail is the read model returned by GetSession: the session,
// a summary of its feature, and its current tasks.
type SessionDetail struct {
	Session Session
	Feature FeatureSummary
	Tasks   []Task
}

// FeatureSummary is the denormalized slice of a feature that session and
// task reads carry along.
type FeatureSummary struct {
	ID      string
	Title   string
	Story   *string
	Details *string
}

// SessionResult is returned by CreateSession: the new session plus the
// task rows created with it.
type SessionResult struct {
	Session Session
	Tasks   []Task
}
