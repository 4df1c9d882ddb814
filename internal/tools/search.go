package tools

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/ms-mfg-community/dbx-mcp-server/internal/errorlog"
)

// searchToolTimeout bounds the record-returning search tools
const searchToolTimeout = 90 * time.Second

// limitSchema is the shared schema fragment for bounded result limits
func limitSchema(def int, description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
		"default":     def,
		"minimum":     1,
		"maximum":     errorlog.MaxLimit,
	}
}

// severitySchema is the shared schema fragment for severity filters
func severitySchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Filter by severity level",
		"enum":        []string{"Warning", "Error", "Event"},
	}
}

// SearchErrorLogsTool is the point search over the error log table
type SearchErrorLogsTool struct {
	*BaseTool
}

// NewSearchErrorLogsTool creates a new tool instance
func NewSearchErrorLogsTool(deps *Deps, logger *zap.Logger) *SearchErrorLogsTool {
	return &SearchErrorLogsTool{BaseTool: NewBaseTool(deps, logger)}
}

// Name returns the tool name
func (t *SearchErrorLogsTool) Name() string {
	return "search_error_logs"
}

// Description returns the tool description
func (t *SearchErrorLogsTool) Description() string {
	return `Search for error logs by various criteria.

All filters are optional and combine with AND. With no filters this
returns the most recent entries. total_found reports the full match
count even when results are capped by limit.`
}

// Annotations returns tool hints for LLMs
func (t *SearchErrorLogsTool) Annotations() *mcp.ToolAnnotations {
	return QueryAnnotations("Search Error Logs")
}

// DefaultTimeout returns the recommended timeout
func (t *SearchErrorLogsTool) DefaultTimeout() time.Duration {
	return searchToolTimeout
}

// InputSchema returns the JSON Schema for the tool's input parameters
func (t *SearchErrorLogsTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"error_code": map[string]interface{}{
				"type":        "string",
				"description": "Filter by error code (e.g., 'CC-1001')",
			},
			"severity": severitySchema(),
			"file_path": map[string]interface{}{
				"type":        "string",
				"description": "Filter by file path (partial match)",
			},
			"message_contains": map[string]interface{}{
				"type":        "string",
				"description": "Search for literal text in the error message",
			},
			"limit": limitSchema(errorlog.DefaultLimit, "Maximum number of results to return"),
		},
	}
}

// Execute runs the point search
func (t *SearchErrorLogsTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	errorCode, err := GetStringParam(arguments, "error_code", false)
	if err != nil {
		return ErrorResult(err), nil
	}
	severity, err := GetSeverityParam(arguments)
	if err != nil {
		return ErrorResult(err), nil
	}
	filePath, err := GetStringParam(arguments, "file_path", false)
	if err != nil {
		return ErrorResult(err), nil
	}
	messageContains, err := GetStringParam(arguments, "message_contains", false)
	if err != nil {
		return ErrorResult(err), nil
	}
	limit, err := GetIntParam(arguments, "limit", false)
	if err != nil {
		return ErrorResult(err), nil
	}

	exec, builder, err := t.connect(ctx)
	if err != nil {
		return ErrorResult(err), nil
	}

	result, err := t.deps.Engine.Search(ctx, exec, builder, errorlog.SearchCriteria{
		ErrorCode:       errorCode,
		Severity:        severity,
		FilePath:        filePath,
		MessageContains: messageContains,
		Limit:           limit,
	})
	if err != nil {
		return ErrorResult(err), nil
	}

	return FormatResponse(result)
}

// GetFileErrorsTool lists errors for one application file
type GetFileErrorsTool struct {
	*BaseTool
}

// NewGetFileErrorsTool creates a new tool instance
func NewGetFileErrorsTool(deps *Deps, logger *zap.Logger) *GetFileErrorsTool {
	return &GetFileErrorsTool{BaseTool: NewBaseTool(deps, logger)}
}

// Name returns the tool name
func (t *GetFileErrorsTool) Name() string {
	return "get_file_errors"
}

// Description returns the tool description
func (t *GetFileErrorsTool) Description() string {
	return "Get all errors from a specific application file, most recent first."
}

// Annotations returns tool hints for LLMs
func (t *GetFileErrorsTool) Annotations() *mcp.ToolAnnotations {
	return QueryAnnotations("Get File Errors")
}

// DefaultTimeout returns the recommended timeout
func (t *GetFileErrorsTool) DefaultTimeout() time.Duration {
	return searchToolTimeout
}

// InputSchema returns the JSON Schema for the tool's input parameters
func (t *GetFileErrorsTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"file_path": map[string]interface{}{
				"type":        "string",
				"description": "Path to the file (e.g., 'app/src/main.py')",
			},
			"limit": limitSchema(errorlog.DefaultFileLimit, "Maximum number of errors to return"),
		},
		"required": []string{"file_path"},
	}
}

// Execute runs the per-file listing
func (t *GetFileErrorsTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	filePath, err := GetStringParam(arguments, "file_path", true)
	if err != nil {
		return ErrorResult(err), nil
	}
	limit, err := GetIntParam(arguments, "limit", false)
	if err != nil {
		return ErrorResult(err), nil
	}

	exec, builder, err := t.connect(ctx)
	if err != nil {
		return ErrorResult(err), nil
	}

	result, err := t.deps.Engine.FileErrors(ctx, exec, builder, filePath, limit)
	if err != nil {
		return ErrorResult(err), nil
	}

	return FormatResponse(result)
}

// SearchByMessageTool is the full-text message search
type SearchByMessageTool struct {
	*BaseTool
}

// NewSearchByMessageTool creates a new tool instance
func NewSearchByMessageTool(deps *Deps, logger *zap.Logger) *SearchByMessageTool {
	return &SearchByMessageTool{BaseTool: NewBaseTool(deps, logger)}
}

// Name returns the tool name
func (t *SearchByMessageTool) Name() string {
	return "search_by_message"
}

// Description returns the tool description
func (t *SearchByMessageTool) Description() string {
	return `Full-text search for errors by message content.

The query text matches literally: wildcard characters like % and _ are
treated as ordinary characters, not patterns.`
}

// Annotations returns tool hints for LLMs
func (t *SearchByMessageTool) Annotations() *mcp.ToolAnnotations {
	return QueryAnnotations("Search By Message")
}

// DefaultTimeout returns the recommended timeout
func (t *SearchByMessageTool) DefaultTimeout() time.Duration {
	return searchToolTimeout
}

// InputSchema returns the JSON Schema for the tool's input parameters
func (t *SearchByMessageTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Text to search for in error messages (e.g., 'connection timeout')",
				"minLength":   1,
			},
			"limit": limitSchema(errorlog.DefaultFileLimit, "Maximum number of results"),
		},
		"required": []string{"query"},
	}
}

// Execute runs the message search
func (t *SearchByMessageTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	query, err := GetStringParam(arguments, "query", true)
	if err != nil {
		return ErrorResult(err), nil
	}
	limit, err := GetIntParam(arguments, "limit", false)
	if err != nil {
		return ErrorResult(err), nil
	}

	exec, builder, err := t.connect(ctx)
	if err != nil {
		return ErrorResult(err), nil
	}

	result, err := t.deps.Engine.MessageSearch(ctx, exec, builder, query, limit)
	if err != nil {
		return ErrorResult(err), nil
	}

	return FormatResponse(result)
}

// SearchByTimeRangeTool searches a trailing time window
type SearchByTimeRangeTool struct {
	*BaseTool
}

// NewSearchByTimeRangeTool creates a new tool instance
func NewSearchByTimeRangeTool(deps *Deps, logger *zap.Logger) *SearchByTimeRangeTool {
	return &SearchByTimeRangeTool{BaseTool: NewBaseTool(deps, logger)}
}

// Name returns the tool name
func (t *SearchByTimeRangeTool) Name() string {
	return "search_by_time_range"
}

// Description returns the tool description
func (t *SearchByTimeRangeTool) Description() string {
	return "Search errors within a trailing time window (e.g. the last 24 hours)."
}

// Annotations returns tool hints for LLMs
func (t *SearchByTimeRangeTool) Annotations() *mcp.ToolAnnotations {
	return QueryAnnotations("Search By Time Range")
}

// DefaultTimeout returns the recommended timeout
func (t *SearchByTimeRangeTool) DefaultTimeout() time.Duration {
	return searchToolTimeout
}

// InputSchema returns the JSON Schema for the tool's input parameters
func (t *SearchByTimeRangeTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"hours_ago": map[string]interface{}{
				"type":        "integer",
				"description": "How many hours back to search (e.g., 24 for last day)",
				"default":     24,
				"minimum":     1,
				"maximum":     errorlog.MaxWindowHours,
			},
			"severity": severitySchema(),
		},
	}
}

// Execute runs the time-window search
func (t *SearchByTimeRangeTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	hoursAgo, err := GetIntParam(arguments, "hours_ago", false)
	if err != nil {
		return ErrorResult(err), nil
	}
	severity, err := GetSeverityParam(arguments)
	if err != nil {
		return ErrorResult(err), nil
	}

	exec, builder, err := t.connect(ctx)
	if err != nil {
		return ErrorResult(err), nil
	}

	result, err := t.deps.Engine.TimeRange(ctx, exec, builder, hoursAgo, severity)
	if err != nil {
		return ErrorResult(err), nil
	}

	return FormatResponse(result)
}
