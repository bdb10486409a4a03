package types

import (
	"fmt"
	"strings"
	"time"
)

// Feature lifecycle states. The state is advisory metadata set by callers:
// the engine records the current value but does not enforce an ordered
// progression between them.
const (
	FeatureStateProposed    = "proposed"
	FeatureStateSpecified   = "specified"
	FeatureStateImplemented = "implemented"
	FeatureStateDeprecated  = "deprecated"
)

// validFeatureStates is the set of recognized feature state values.
var validFeatureStates = map[string]bool{
	FeatureStateProposed:    true,
	FeatureStateSpecified:   true,
	FeatureStateImplemented: true,
	FeatureStateDeprecated:  true,
}

// ValidateFeatureState returns ErrInvalidInput if the state is not recognized.
func ValidateFeatureState(state string) error {
	if !validFeatureStates[state] {
		return fmt.Errorf("%w: feature state %q (valid: proposed, specified, implemented, deprecated)", ErrInvalidInput, state)
	}
	return nil
}

// Feature is a permanent node in the self-referential feature tree.
// A feature with no children is a leaf; only leaves may own an active
// session.
type Feature struct {
	ID        string    // UUID v7, generated on creation.
	ParentID  *string   // Parent feature, nil for roots.
	Title     string    // Human-readable title (required, non-empty).
	Story     *string   // Optional narrative description.
	Details   *string   // Optional technical notes.
	State     string    // One of the FeatureState constants.
	CreatedAt time.Time // Timestamp of creation.
	UpdatedAt time.Time // Timestamp of last modification.
}

// CreateFeatureInput holds the caller-supplied fields for a new feature.
type CreateFeatureInput struct {
	ParentID *string
	Title    string
	Story    *string
	Details  *string
	State    string // Defaults to proposed when empty.
}

// Validate checks the input and applies the default state.
func (in *CreateFeatureInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: feature title is required", ErrInvalidInput)
	}
	if in.State == "" {
		in.State = FeatureStateProposed
	}
	return ValidateFeatureState(in.State)
}

// UpdateFeatureInput holds a partial update. Nil fields are left unchanged.
// ParentID distinguishes "not supplied" (nil) from "move to root"
// (pointer to empty string).
type UpdateFeatureInput struct {
	ParentID *string
	Title    *string
	Story    *string
	Details  *string
	State    *string
}

// Validate rejects empty titles and unknown states.
func (in *UpdateFeatureInput) Validate() error {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return fmt.Errorf("%w: feature title cannot be empty", ErrInvalidInput)
	}
	if in.State != nil {
		return ValidateFeatureState(*in.State)
	}
	return nil
}
