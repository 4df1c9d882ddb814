package tools

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// GetErrorFrequencyTool ranks error codes by occurrence
type GetErrorFrequencyTool struct {
	*BaseTool
}

// NewGetErrorFrequencyTool creates a new tool instance
func NewGetErrorFrequencyTool(deps *Deps, logger *zap.Logger) *GetErrorFrequencyTool {
	return &GetErrorFrequencyTool{BaseTool: NewBaseTool(deps, logger)}
}

// Name returns the tool name
func (t *GetErrorFrequencyTool) Name() string {
	return "get_error_frequency"
}

// Description returns the tool description
func (t *GetErrorFrequencyTool) Description() string {
	return `Get the most frequently occurring error codes with statistics.

Each entry includes the occurrence count, the number of distinct files
affected, and the first/last time the code was seen.`
}

// Annotations returns tool hints for LLMs
func (t *GetErrorFrequencyTool) Annotations() *mcp.ToolAnnotations {
	return QueryAnnotations("Get Error Frequency")
}

// DefaultTimeout returns the recommended timeout
func (t *GetErrorFrequencyTool) DefaultTimeout() time.Duration {
	return searchToolTimeout
}

// InputSchema returns the JSON Schema for the tool's input parameters
func (t *GetErrorFrequencyTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"severity": severitySchema(),
			"limit":    limitSchema(10, "Maximum number of error codes to return"),
		},
	}
}

// Execute runs the frequency ranking
func (t *GetErrorFrequencyTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	severity, err := GetSeverityParam(arguments)
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

	entries, err := t.deps.Engine.Frequency(ctx, exec, builder, severity, limit)
	if err != nil {
		return ErrorResult(err), nil
	}

	return FormatResponse(map[string]interface{}{
		"total":   len(entries),
		"entries": entries,
	})
}

// GetSeveritySummaryTool summarizes the dataset per severity level
type GetSeveritySummaryTool struct {
	*BaseTool
}

// NewGetSeveritySummaryTool creates a new tool instance
func NewGetSeveritySummaryTool(deps *Deps, logger *zap.Logger) *GetSeveritySummaryTool {
	return &GetSeveritySummaryTool{BaseTool: NewBaseTool(deps, logger)}
}

// Name returns the tool name
func (t *GetSeveritySummaryTool) Name() string {
	return "get_severity_summary"
}

// Description returns the tool description
func (t *GetSeveritySummaryTool) Description() string {
	return `Get a summary of errors grouped by severity level.

Always returns one entry per level (Warning, Error, Event); levels with
no matching rows report zero counts.`
}

// Annotations returns tool hints for LLMs
func (t *GetSeveritySummaryTool) Annotations() *mcp.ToolAnnotations {
	return QueryAnnotations("Get Severity Summary")
}

// DefaultTimeout returns the recommended timeout
func (t *GetSeveritySummaryTool) DefaultTimeout() time.Duration {
	return searchToolTimeout
}

// InputSchema returns the JSON Schema for the tool's input parameters
func (t *GetSeveritySummaryTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// Execute runs the severity summary
func (t *GetSeveritySummaryTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	exec, builder, err := t.connect(ctx)
	if err != nil {
		return ErrorResult(err), nil
	}

	entries, err := t.deps.Engine.SeveritySummary(ctx, exec, builder)
	if err != nil {
		return ErrorResult(err), nil
	}

	return FormatResponse(map[string]interface{}{
		"total":   len(entries),
		"entries": entries,
	})
}
