package types

import (
	"fmt"
	"strings"
	"time"
)

// Task statuses. Status is caller-reported: agents drive
// pending→running→completed or fail from pending/running. A parent
// task's status is never derived from its children.
const (
	TaskStatusPending   = "pending"
	TaskStatusRunning   = "running"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)

// Supported agent identities a task can be assigned to.
const (
	AgentClaude = "claude"
	AgentGemini = "gemini"
	AgentCodex  = "codex"
)

var validTaskStatuses = map[string]bool{
	TaskStatusPending:   true,
	TaskStatusRunning:   true,
	TaskStatusCompleted: true,
	TaskStatusFailed:    true,
}

var validAgentTypes = map[string]bool{
	AgentClaude: true,
	AgentGemini: true,
	AgentCodex:  true,
}

// ValidateTaskStatus returns ErrInvalidInput if the status is not recognized.
func ValidateTaskStatus(status string) error {
	if !validTaskStatuses[status] {
		return fmt.Errorf("%w: task status %q (valid: pending, running, completed, failed)", ErrInvalidInput, status)
	}
	return nil
}

// ValidateAgentType returns ErrInvalidInput if the agent kind is not recognized.
func ValidateAgentType(agent string) error {
	if !validAgentTypes[agent] {
		return fmt.Errorf("%w: agent type %q (valid: claude, gemini, codex)", ErrInvalidInput, agent)
	}
	return nil
}

// Task is an ephemeral unit of work inside exactly one session, with an
// optional parent task for sub-tasks. Tasks are deleted en masse when
// their session is squashed.
type Task struct {
	ID           string
	SessionID    string
	ParentID     *string // Optional parent task within the same session.
	Title        string
	Scope        string  // What the task covers, handed to the agent as context.
	Status       string  // One of the TaskStatus constants.
	AgentType    string  // Assigned agent identity.
	WorktreePath *string // Optional isolated workspace path.
	Branch       *string // Optional branch reference.
	CreatedAt    time.Time
}

// CreateTaskInput holds the caller-supplied fields for a new task.
type CreateTaskInput struct {
	ParentID  *string
	Title     string
	Scope     string
	AgentType string
}

// Validate checks the task fields.
func (in *CreateTaskInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: task title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Scope) == "" {
		return fmt.Errorf("%w: task scope is required", ErrInvalidInput)
	}
	return ValidateAgentType(in.AgentType)
}

// UpdateTaskInput holds a partial task update. Nil fields are unchanged.
type UpdateTaskInput struct {
	Status       *string
	WorktreePath *string
	Branch       *string
}

// Validate rejects unknown statuses.
func (in *UpdateTaskInput) Validate() error {
	if in.Status != nil {
		return ValidateTaskStatus(*in.Status)
	}
	return nil
}

// TaskContext is the read model handed to an agent picking up a task:
// the task itself plus the denormalized feature the work belongs to.
type TaskContext struct {
	Task    Task
	Feature FeatureSummary
}
