package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/ms-mfg-community/dbx-mcp-server/internal/config"
	"github.com/ms-mfg-community/dbx-mcp-server/internal/session"
)

// ConfigureDatabricksTool sets the Databricks connection for the
// current session. The stored overrides live only for this session and
// are never visible to other sessions.
type ConfigureDatabricksTool struct {
	*BaseTool
}

// NewConfigureDatabricksTool creates a new tool instance
func NewConfigureDatabricksTool(deps *Deps, logger *zap.Logger) *ConfigureDatabricksTool {
	return &ConfigureDatabricksTool{BaseTool: NewBaseTool(deps, logger)}
}

// Name returns the tool name
func (t *ConfigureDatabricksTool) Name() string {
	return "configure_databricks"
}

// Description returns the tool description
func (t *ConfigureDatabricksTool) Description() string {
	return `Set Databricks connection details for this session.

Use this tool if you cannot pass X-Databricks-* HTTP headers. The
configuration persists for the lifetime of the MCP session and applies
to all subsequent search tools. Per-request headers still take
precedence over values set here.`
}

// Annotations returns tool hints for LLMs
func (t *ConfigureDatabricksTool) Annotations() *mcp.ToolAnnotations {
	return ConfigureAnnotations("Configure Databricks Connection")
}

// DefaultTimeout returns the recommended timeout
func (t *ConfigureDatabricksTool) DefaultTimeout() time.Duration {
	return 5 * time.Second
}

// InputSchema returns the JSON Schema for the tool's input parameters
func (t *ConfigureDatabricksTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"host": map[string]interface{}{
				"type":        "string",
				"description": "Databricks workspace URL (e.g. https://adb-xxx.azuredatabricks.net)",
			},
			"token": map[string]interface{}{
				"type":        "string",
				"description": "Databricks personal access token",
			},
			"warehouse_id": map[string]interface{}{
				"type":        "string",
				"description": "SQL warehouse ID",
			},
			"catalog": map[string]interface{}{
				"type":        "string",
				"description": "Unity Catalog name (default: " + config.DefaultCatalog + ")",
			},
			"schema_name": map[string]interface{}{
				"type":        "string",
				"description": "Schema name (default: " + config.DefaultSchema + ")",
			},
		},
		"required": []string{"host", "token", "warehouse_id"},
	}
}

// Execute stores the connection overrides for the calling session
func (t *ConfigureDatabricksTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	host, err := GetStringParam(arguments, "host", true)
	if err != nil {
		return ErrorResult(err), nil
	}
	token, err := GetStringParam(arguments, "token", true)
	if err != nil {
		return ErrorResult(err), nil
	}
	warehouseID, err := GetStringParam(arguments, "warehouse_id", true)
	if err != nil {
		return ErrorResult(err), nil
	}
	catalog, err := GetStringParam(arguments, "catalog", false)
	if err != nil {
		return ErrorResult(err), nil
	}
	schema, err := GetStringParam(arguments, "schema_name", false)
	if err != nil {
		return ErrorResult(err), nil
	}

	sessionID := SessionIDFromContext(ctx)
	t.deps.Resolver.Sessions().Set(sessionID, session.Overrides{
		Host:        host,
		Token:       token,
		WarehouseID: warehouseID,
		Catalog:     catalog,
		Schema:      schema,
	})

	if catalog == "" {
		catalog = config.DefaultCatalog
	}
	if schema == "" {
		schema = config.DefaultSchema
	}

	t.logger.Info("Session configured",
		zap.String("host", host),
		zap.String("warehouse_id", warehouseID),
		zap.String("catalog", catalog),
		zap.String("schema", schema),
	)

	return FormatResponse(map[string]interface{}{
		"status":    "configured",
		"host":      host,
		"dataset":   fmt.Sprintf("%s.%s", catalog, schema),
		"warehouse": warehouseID,
	})
}
