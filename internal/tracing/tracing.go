// Package tracing configures OpenTelemetry tracing for the MCP server.
// Spans are emitted around statement execution so slow warehouse calls
// show up with their warehouse and parameter counts attached.
package tracing

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// Provider wraps the tracer provider lifecycle
type Provider struct {
	provider *sdktrace.TracerProvider
	logger   *zap.Logger
}

// Setup installs a global tracer provider. When disabled, a no-op
// provider is installed so instrumentation sites stay unconditional.
func Setup(enabled bool, logger *zap.Logger) (*Provider, error) {
	if !enabled {
		otel.SetTracerProvider(sdktrace.NewTracerProvider())
		return &Provider{logger: logger}, nil
	}

	// Export to stderr: stdout carries the MCP stdio transport and must
	// stay clean
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(os.Stderr),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)

	logger.Info("Tracing enabled with stdout exporter")
	return &Provider{provider: provider, logger: logger}, nil
}

// Shutdown flushes and stops the tracer provider
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.provider == nil {
		return nil
	}
	if err := p.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer provider: %w", err)
	}
	return nil
}
