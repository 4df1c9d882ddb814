// Package server provides the MCP server implementation for the
// Databricks error log search tools.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/ms-mfg-community/dbx-mcp-server/internal/audit"
	"github.com/ms-mfg-community/dbx-mcp-server/internal/config"
	"github.com/ms-mfg-community/dbx-mcp-server/internal/dbsql"
	dbxerrors "github.com/ms-mfg-community/dbx-mcp-server/internal/errors"
	"github.com/ms-mfg-community/dbx-mcp-server/internal/errorlog"
	"github.com/ms-mfg-community/dbx-mcp-server/internal/health"
	"github.com/ms-mfg-community/dbx-mcp-server/internal/metrics"
	"github.com/ms-mfg-community/dbx-mcp-server/internal/resolver"
	"github.com/ms-mfg-community/dbx-mcp-server/internal/session"
	"github.com/ms-mfg-community/dbx-mcp-server/internal/tools"
)

// Server represents the MCP server
type Server struct {
	mcpServer    *mcp.Server
	config       *config.Config
	logger       *zap.Logger
	metrics      *metrics.Metrics
	audit        *audit.Logger
	sessions     *session.Store
	resolver     *resolver.Resolver
	pool         *dbsql.Pool
	engine       *errorlog.Engine
	version      string
	healthServer *health.Server
}

// New creates a new MCP server instance
func New(cfg *config.Config, logger *zap.Logger, version string) (*Server, error) {
	sessions := session.NewStore()
	res := resolver.New(cfg, sessions)
	m := metrics.New(logger)
	pool := dbsql.NewPool(cfg, logger, m, version)
	engine := errorlog.NewEngine(logger)

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "Databricks Error Logs MCP Server",
		Version: version,
	}, &mcp.ServerOptions{
		HasTools: true,
	})

	s := &Server{
		mcpServer: mcpServer,
		config:    cfg,
		logger:    logger,
		metrics:   m,
		audit:     audit.NewLogger(logger, cfg.EnableAuditLog),
		sessions:  sessions,
		resolver:  res,
		pool:      pool,
		engine:    engine,
		version:   version,
	}

	if cfg.HealthPort > 0 {
		checker := health.New(cfg, sessions, logger)
		s.healthServer = health.NewServer(checker, logger, cfg.HealthPort, "", cfg.MetricsEndpoint)
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	deps := &tools.Deps{
		Resolver: s.resolver,
		Pool:     s.pool,
		Engine:   s.engine,
		Table:    s.config.Table,
	}

	s.registerTool(tools.NewConfigureDatabricksTool(deps, s.logger))
	s.registerTool(tools.NewSearchErrorLogsTool(deps, s.logger))
	s.registerTool(tools.NewGetErrorFrequencyTool(deps, s.logger))
	s.registerTool(tools.NewAnalyzeErrorPatternTool(deps, s.logger))
	s.registerTool(tools.NewGetFileErrorsTool(deps, s.logger))
	s.registerTool(tools.NewSearchByMessageTool(deps, s.logger))
	s.registerTool(tools.NewSearchByTimeRangeTool(deps, s.logger))
	s.registerTool(tools.NewGetSeveritySummaryTool(deps, s.logger))

	s.logger.Info("Registered all MCP tools")
}

// registerTool wires one tool into the MCP server with session
// injection, per-tool timeout, metrics, and audit logging
func (s *Server) registerTool(t tools.Tool) {
	toolName := t.Name()

	mcpTool := &mcp.Tool{
		Name:        toolName,
		Description: t.Description(),
		InputSchema: t.InputSchema(),
		Annotations: t.Annotations(),
	}

	handler := func(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		// Each MCP connection has its own opaque session ID; the
		// resolver keys session-scoped config by it
		sessionID := tools.LocalSessionID
		if request.Session != nil && request.Session.ID() != "" {
			sessionID = request.Session.ID()
		}
		ctx = tools.WithSessionID(ctx, sessionID)

		if timeout := t.DefaultTimeout(); timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		var args map[string]interface{}
		if len(request.Params.Arguments) > 0 {
			if err := json.Unmarshal(request.Params.Arguments, &args); err != nil {
				s.metrics.RecordToolExecution(toolName, false, time.Since(start))
				return nil, fmt.Errorf("failed to unmarshal arguments: %w", err)
			}
		}

		result, err := t.Execute(ctx, args)
		duration := time.Since(start)
		success := err == nil && (result == nil || !result.IsError)
		s.metrics.RecordToolExecution(toolName, success, duration)
		s.metrics.SetConfiguredSessions(s.sessions.Len())

		entry := audit.Entry{
			Tool:      toolName,
			SessionID: sessionID,
			Success:   success,
			Duration:  duration,
			InputHash: audit.HashInput(request.Params.Arguments),
		}
		if err != nil {
			entry.ErrorCode = string(dbxerrors.AsStructured(err).Code)
		}
		s.audit.Log(ctx, entry)

		return result, err
	}

	s.mcpServer.AddTool(mcpTool, handler)
	s.logger.Debug("Registered tool", zap.String("tool", toolName))
}

// Start starts the MCP server on the configured transport
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting MCP server", zap.String("transport", s.config.Transport))

	if s.healthServer != nil {
		go func() {
			if err := s.healthServer.Start(); err != nil {
				s.logger.Error("Health server error", zap.Error(err))
			}
		}()
		s.healthServer.SetReady(true)
	}

	defer func() {
		s.metrics.LogStats()

		if s.healthServer != nil {
			s.healthServer.SetReady(false)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.healthServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("Failed to shutdown health server", zap.Error(err))
			}
		}

		if err := s.pool.Close(); err != nil {
			s.logger.Error("Failed to close client pool", zap.Error(err))
		}
	}()

	if s.config.Transport == "streamable-http" {
		return s.serveHTTP(ctx)
	}
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// serveHTTP runs the streamable HTTP transport with a /health probe
// alongside the MCP endpoint, mirroring the stdio lifecycle
func (s *Server) serveHTTP(ctx context.Context) error {
	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})
	mux.Handle("/", connectionHeaders(mcpHandler))

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.config.ServerHost, s.config.ServerPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening for streamable HTTP connections",
			zap.String("addr", httpServer.Addr),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

// connectionHeaders extracts per-request Databricks connection headers
// into the request context as an explicit resolver input. Values are
// read here once, so tools never touch transport state.
func connectionHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := resolver.Headers{
			Host:        r.Header.Get(resolver.HeaderHost),
			Token:       r.Header.Get(resolver.HeaderToken),
			WarehouseID: r.Header.Get(resolver.HeaderWarehouseID),
			Catalog:     r.Header.Get(resolver.HeaderCatalog),
			Schema:      r.Header.Get(resolver.HeaderSchema),
		}
		if h != (resolver.Headers{}) {
			r = r.WithContext(resolver.WithHeaders(r.Context(), h))
		}
		next.ServeHTTP(w, r)
	})
}

// GetMetrics returns the server's metrics tracker for external access
func (s *Server) GetMetrics() *metrics.Metrics {
	return s.metrics
}
