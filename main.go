// Package main implements the Databricks Error Logs MCP (Model Context
// Protocol) server.
//
// The server exposes search and aggregation tools over an application
// error log Delta table in a Databricks workspace, so coding assistants
// can pull error context directly from the logs.
//
// It speaks MCP over stdio by default and over streamable HTTP when
// MCP_TRANSPORT=streamable-http.
//
// Databricks connection material resolves per invocation at this
// precedence: X-Databricks-* request headers, then session configuration
// set via the configure_databricks tool, then environment defaults:
//   - DATABRICKS_HOST: workspace URL (e.g. https://adb-xxx.azuredatabricks.net)
//   - DATABRICKS_TOKEN: personal access token  // pragma: allowlist secret
//   - DATABRICKS_WAREHOUSE_ID: SQL warehouse ID
//   - DATABRICKS_CATALOG, DATABRICKS_SCHEMA: dataset namespace (optional)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ms-mfg-community/dbx-mcp-server/internal/config"
	"github.com/ms-mfg-community/dbx-mcp-server/internal/server"
	"github.com/ms-mfg-community/dbx-mcp-server/internal/tracing"
)

// Build information - set at build time via ldflags
var (
	version = "dev"     // e.g., "v0.3.0" or "dev"
	commit  = "unknown" // Git commit SHA
	builtBy = "manual"  // "goreleaser" or "manual"
)

func main() {
	// Load .env file if it exists (optional, for development)
	_ = godotenv.Load()

	logger, err := initLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync() // Ignore error on cleanup
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	tracerProvider, err := tracing.Setup(cfg.EnableTracing, logger)
	if err != nil {
		logger.Fatal("Failed to set up tracing", zap.Error(err))
	}

	logFields := []zap.Field{
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("built_by", builtBy),
		zap.String("transport", cfg.Transport),
	}
	if cfg.Host != "" {
		logFields = append(logFields, zap.String("default_host", cfg.Host))
	}
	logger.Info("Starting Databricks Error Logs MCP Server", logFields...)

	mcpServer, err := server.New(cfg, logger, version)
	if err != nil {
		logger.Fatal("Failed to create MCP server", zap.Error(err))
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- mcpServer.Start(ctx)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-serverDone:
		if err != nil {
			logger.Error("Server error", zap.Error(err))
		}
		cancel()
		shutdownTracing(tracerProvider, logger)
		return
	}

	logger.Info("Initiating graceful shutdown", zap.Duration("timeout", cfg.ShutdownTimeout))
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	select {
	case <-serverDone:
		logger.Info("Server shutdown complete")
	case <-shutdownCtx.Done():
		logger.Warn("Shutdown timeout exceeded, forcing exit",
			zap.Duration("timeout", cfg.ShutdownTimeout))
	}

	shutdownTracing(tracerProvider, logger)
}

func shutdownTracing(provider *tracing.Provider, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := provider.Shutdown(ctx); err != nil {
		logger.Warn("Failed to shutdown tracer provider", zap.Error(err))
	}
}

// initLogger initializes and returns a zap logger. Production logging
// is selected with ENVIRONMENT=production; both configurations log to
// stderr, keeping stdout clean for the MCP stdio transport.
func initLogger() (*zap.Logger, error) {
	env := os.Getenv("ENVIRONMENT")
	if env == "production" {
		cfg := zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stderr"}
		return cfg.Build()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
