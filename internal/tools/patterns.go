package tools

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// AnalyzeErrorPatternTool groups similar error messages by their
// normalized template
type AnalyzeErrorPatternTool struct {
	*BaseTool
}

// NewAnalyzeErrorPatternTool creates a new tool instance
func NewAnalyzeErrorPatternTool(deps *Deps, logger *zap.Logger) *AnalyzeErrorPatternTool {
	return &AnalyzeErrorPatternTool{BaseTool: NewBaseTool(deps, logger)}
}

// Name returns the tool name
func (t *AnalyzeErrorPatternTool) Name() string {
	return "analyze_error_pattern"
}

// Description returns the tool description
func (t *AnalyzeErrorPatternTool) Description() string {
	return `Analyze patterns in error messages to find similar errors.

Messages are normalized (numbers, quoted values, and identifiers become
placeholders) and grouped by the resulting template, ranked by how
often each template occurs, with a few literal example messages per
group.`
}

// Annotations returns tool hints for LLMs
func (t *AnalyzeErrorPatternTool) Annotations() *mcp.ToolAnnotations {
	return QueryAnnotations("Analyze Error Patterns")
}

// DefaultTimeout returns the recommended timeout. Pattern analysis
// fetches a larger row window than the point searches.
func (t *AnalyzeErrorPatternTool) DefaultTimeout() time.Duration {
	return 2 * time.Minute
}

// InputSchema returns the JSON Schema for the tool's input parameters
func (t *AnalyzeErrorPatternTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"error_code": map[string]interface{}{
				"type":        "string",
				"description": "Filter by specific error code (e.g., 'CC-3005')",
			},
			"severity": severitySchema(),
		},
	}
}

// Execute runs the pattern analysis
func (t *AnalyzeErrorPatternTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	errorCode, err := GetStringParam(arguments, "error_code", false)
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

	patterns, err := t.deps.Engine.PatternAnalysis(ctx, exec, builder, errorCode, severity)
	if err != nil {
		return ErrorResult(err), nil
	}

	return FormatResponse(map[string]interface{}{
		"total":    len(patterns),
		"patterns": patterns,
	})
}
