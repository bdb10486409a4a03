package sqlite

import (
	"encoding/json"
	"fmt"
)

// String-list columns (files_changed, commit_refs, criteria_completed)
// are stored as JSON arrays in TEXT columns, preserving order.

// marshalStringList encodes a string slice for storage. A nil slice is
// stored as an empty array, never as SQL NULL.
func marshalStringList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encoding string list: %w", err)
	}
	return string(data), nil
}

// unmarshalStringList decodes a stored JSON array. Empty or NULL column
// text decodes to an empty slice.
func unmarshalStringList(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("decoding string list: %w", err)
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}
