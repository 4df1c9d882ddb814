package tools

import (
	"context"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// sessionIDContextKey is the context key for the MCP session identifier
const sessionIDContextKey contextKey = "session_id"

// LocalSessionID is used when the transport provides no session
// identifier (stdio serves exactly one session per process).
const LocalSessionID = "local"

// WithSessionID stashes the opaque MCP session identifier in the
// context. The server handler sets this per request so tools and the
// resolver never touch transport state directly.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDContextKey, sessionID)
}

// SessionIDFromContext returns the session identifier for this
// invocation, falling back to LocalSessionID.
func SessionIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDContextKey).(string); ok && id != "" {
		return id
	}
	return LocalSessionID
}
