package tools

import "github.com/modelcontextprotocol/go-sdk/mcp"

// Annotation helper functions to create common annotation patterns.

// boolPtr returns a pointer to a bool value
func boolPtr(b bool) *bool {
	return &b
}

// QueryAnnotations returns annotations for the search/aggregation tools.
// These read from a bounded dataset and never modify anything.
func QueryAnnotations(title string) *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		Title:          title,
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  boolPtr(false), // queries one materialized log table
	}
}

// ConfigureAnnotations returns annotations for the session configure
// tool. It writes session state but nothing durable or destructive.
func ConfigureAnnotations(title string) *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		Title:           title,
		ReadOnlyHint:    false,
		DestructiveHint: boolPtr(false),
		IdempotentHint:  true, // re-configuring replaces the same session entry
		OpenWorldHint:   boolPtr(false),
	}
}
