package types

import (
	"fmt"
	"strings"
	"time"
)

// Criterion statuses. Complete is terminal: a completed criterion cannot
// be reactivated, only a blocked one can return to pending.
const (
	CriterionStatusPending  = "pending"
	CriterionStatusComplete = "complete"
	CriterionStatusBlocked  = "blocked"
)

// Criterion verification kinds.
const (
	VerificationManual = "manual"
	VerificationTest   = "test"
)

var validCriterionStatuses = map[string]bool{
	CriterionStatusPending:  true,
	CriterionStatusComplete: true,
	CriterionStatusBlocked:  true,
}

var validVerifications = map[string]bool{
	VerificationManual: true,
	VerificationTest:   true,
}

// ValidateCriterionStatus returns ErrInvalidInput if the status is not recognized.
func ValidateCriterionStatus(status string) error {
	if !validCriterionStatuses[status] {
		return fmt.Errorf("%w: criterion status %q (valid: pending, complete, blocked)", ErrInvalidInput, status)
	}
	return nil
}

// ValidateVerification returns ErrInvalidInput if the kind is not recognized.
func ValidateVerification(kind string) error {
	if !validVerifications[kind] {
		return fmt.Errorf("%w: verification %q (valid: manual, test)", ErrInvalidInput, kind)
	}
	return nil
}

// CanTransitionCriterion reports whether a criterion may move from one
// status to another. Legal moves: pending→complete, pending→blocked,
// blocked→pending. Setting the current status again is allowed and is a
// no-op for the caller.
func CanTransitionCriterion(from, to string) bool {
	if from == to {
		return true
	}
	switch from {
	case CriterionStatusPending:
		return to == CriterionStatusComplete || to == CriterionStatusBlocked
	case CriterionStatusBlocked:
		return to == CriterionStatusPending
	default:
		// Complete is terminal.
		return false
	}
}

// Criterion is an acceptance criterion attached to exactly one feature.
// Criteria are permanent: they outlive the sessions that complete them.
type Criterion struct {
	ID            string     // UUID v7, generated on creation.
	FeatureID     string     // Owning feature.
	Description   string     // What must hold for the criterion to pass.
	Status        string     // One of the CriterionStatus constants.
	Verification  string     // manual or test.
	TestFile      *string    // Optional test file reference.
	BlockedReason *string    // Set while blocked, cleared on unblock.
	CompletedAt   *time.Time // Set exactly when status becomes complete.
	CreatedAt     time.Time
}

// CreateCriterionInput holds the caller-supplied fields for a new criterion.
type CreateCriterionInput struct {
	Description  string
	Verification string // Defaults to manual when empty.
	TestFile     *string
}

// Validate checks the input and applies the default verification kind.
func (in *CreateCriterionInput) Validate() error {
	if strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("%w: criterion description is required", ErrInvalidInput)
	}
	if in.Verification == "" {
		in.Verification = VerificationManual
	}
	return ValidateVerification(in.Verification)
}
