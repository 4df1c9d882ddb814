package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/ms-mfg-community/dbx-mcp-server/internal/dbsql"
	dbxerrors "github.com/ms-mfg-community/dbx-mcp-server/internal/errors"
	"github.com/ms-mfg-community/dbx-mcp-server/internal/errorlog"
	"github.com/ms-mfg-community/dbx-mcp-server/internal/resolver"
)

// Deps bundles the collaborators every tool needs: the config resolver,
// the warehouse client pool, the engine, and the table name.
type Deps struct {
	Resolver *resolver.Resolver
	Pool     *dbsql.Pool
	Engine   *errorlog.Engine
	Table    string
}

// BaseTool provides common functionality for all tools
type BaseTool struct {
	deps   *Deps
	logger *zap.Logger
}

// NewBaseTool creates a new base tool
func NewBaseTool(deps *Deps, logger *zap.Logger) *BaseTool {
	return &BaseTool{
		deps:   deps,
		logger: logger,
	}
}

// connect resolves the effective connection for this invocation and
// returns the pooled executor plus a builder for the resolved dataset.
// Per-request headers come out of the context where the HTTP middleware
// stashed them; the session ID comes from the server handler.
func (t *BaseTool) connect(ctx context.Context) (dbsql.Executor, *errorlog.Builder, error) {
	headers := resolver.HeadersFromContext(ctx)
	sessionID := SessionIDFromContext(ctx)

	cc, err := t.deps.Resolver.Resolve(headers, sessionID)
	if err != nil {
		return nil, nil, err
	}

	exec, err := t.deps.Pool.Get(cc.Host, cc.Token, cc.WarehouseID)
	if err != nil {
		return nil, nil, err
	}

	builder, err := errorlog.NewBuilder(cc.Catalog, cc.Schema, t.deps.Table)
	if err != nil {
		return nil, nil, err
	}

	return exec, builder, nil
}

// FormatResponse formats a result value as pretty-printed JSON content
func FormatResponse(result interface{}) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to format response: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, nil
}

// ErrorResult converts an error into a structured tool error result.
// Structured errors serialize with their category and suggestion so the
// caller can tell credential problems from dataset problems.
func ErrorResult(err error) *mcp.CallToolResult {
	se := dbxerrors.AsStructured(err)
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: se.ToJSON()},
		},
		IsError: true,
	}
}

// GetStringParam safely gets a string parameter from arguments
func GetStringParam(arguments map[string]interface{}, key string, required bool) (string, error) {
	val, exists := arguments[key]
	if !exists {
		if required {
			return "", dbxerrors.NewMissingParameter(key)
		}
		return "", nil
	}

	str, ok := val.(string)
	if !ok {
		return "", dbxerrors.NewInvalidInput(fmt.Sprintf("parameter %s must be a string", key))
	}

	return str, nil
}

// GetIntParam safely gets an integer parameter from arguments
func GetIntParam(arguments map[string]interface{}, key string, required bool) (int, error) {
	val, exists := arguments[key]
	if !exists {
		if required {
			return 0, dbxerrors.NewMissingParameter(key)
		}
		return 0, nil
	}

	// JSON numbers arrive as float64
	switch v := val.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, dbxerrors.NewInvalidInput(fmt.Sprintf("parameter %s must be a number", key))
	}
}

// GetSeverityParam gets and validates an optional severity parameter,
// rejecting values outside the enum before any query is built
func GetSeverityParam(arguments map[string]interface{}) (errorlog.Severity, error) {
	raw, err := GetStringParam(arguments, "severity", false)
	if err != nil {
		return "", err
	}
	return errorlog.ParseSeverity(raw)
}
