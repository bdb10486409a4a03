package tools

import (
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mesh-intelligence/manifest/pkg/types"
)

// errorResult maps backend errors to tool-call errors. Domain sentinels
// become protocol-level tool errors the agent can act on; anything else
// is a storage fault and is surfaced as a Go error so the server reports
// an internal failure.
func errorResult(err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrConflict),
		errors.Is(err, types.ErrInvalidInput):
		return mcp.NewToolResultError(err.Error()), nil
	default:
		return nil, fmt.Errorf("backend: %w", err)
	}
}

// stringListArg extracts an optional string-array argument. JSON arrays
// arrive as []interface{}; non-string elements are rejected.
func stringListArg(req mcp.CallToolRequest, key string) ([]string, error) {
	raw, ok := req.GetArguments()[key]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("'%s' must be an array of strings", key)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("'%s' must be an array of strings", key)
		}
		out = append(out, s)
	}
	return out, nil
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
