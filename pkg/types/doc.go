// Package types defines the domain model for Manifest: the permanent
// feature tree with its acceptance criteria and append-only history, and
// the ephemeral session/task layer that is squashed into history when a
// session completes.
//
// The package is deliberately free of storage and transport concerns; the
// SQLite backend and the caller surfaces depend on it, never the other
// way around.
package types
