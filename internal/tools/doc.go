// Package tools holds the MCP tool handlers exposed to coding agents.
//
// Each handler follows the same pattern:
//   - a struct holding its dependency (the sqlite backend) injected via
//     constructor
//   - Definition() returns the mcp.Tool schema
//   - Handle() processes the request and returns a result
//
// The surface is deliberately narrow. Agents get exactly three
// capabilities: read the context of an assigned task, append progress
// notes, and report a task done. Session lifecycle, feature edits and
// the squash stay with the orchestrator on the CLI side.
package tools
