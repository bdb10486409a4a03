package types

import "errors"

// Backend lifecycle errors.
var (
	ErrDetached        = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)

// Operation outcome errors. Callers match these with errors.Is; the
// backend wraps them with entity context at each return site.
var (
	// ErrNotFound means a referenced entity does not exist. Always
	// recoverable and surfaced to the caller unchanged.
	ErrNotFound = errors.New("not found")

	// ErrConflict means an invariant would be violated: session creation
	// on a non-leaf feature, a duplicate active session, a write against
	// a terminal session or task, an illegal criterion transition, or a
	// parent change that would create a cycle. Never retried — retrying
	// does not resolve a logical invariant breach.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput means a caller-supplied value failed validation
	// before reaching the store (empty title, unknown enum value, both
	// or neither note owner set).
	ErrInvalidInput = errors.New("invalid input")
)
