// Package dbsql executes parameterized SQL statements against a
// Databricks SQL warehouse through the statement execution REST API.
package dbsql

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ms-mfg-community/dbx-mcp-server/internal/auth"
	"github.com/ms-mfg-community/dbx-mcp-server/internal/config"
	dbxerrors "github.com/ms-mfg-community/dbx-mcp-server/internal/errors"
)

const (
	statementsPath = "/api/2.0/sql/statements"

	// waitTimeout is the server-side wait before the API returns a
	// statement still in flight; polling takes over from there
	waitTimeout = "30s"

	pollInterval = 500 * time.Millisecond
)

// Authenticator is the interface for adding authentication to requests
type Authenticator interface {
	Authenticate(req *http.Request) error
}

// StatementRecorder observes statement executions for metrics. A nil
// recorder disables observation.
type StatementRecorder interface {
	RecordStatement(success bool, duration time.Duration)
}

// Client executes statements against one SQL warehouse on one
// workspace with one token. Clients are pooled per
// (host, token, warehouse_id) tuple and never shared across tuples.
type Client struct {
	httpClient    *http.Client
	config        *config.Config
	logger        *zap.Logger
	rateLimiter   *rate.Limiter
	authenticator Authenticator
	tracer        trace.Tracer
	recorder      StatementRecorder

	host        string
	warehouseID string
	version     string
}

// New creates a client for one (host, token, warehouse_id) tuple
func New(cfg *config.Config, logger *zap.Logger, recorder StatementRecorder, host, token, warehouseID, version string) (*Client, error) {
	authenticator, err := auth.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}

	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}
	if !cfg.TLSVerify {
		tlsConfig.InsecureSkipVerify = true
		logger.Warn("TLS certificate verification is DISABLED - this is insecure and should only be used for testing",
			zap.String("host", host),
		)
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig:     tlsConfig,
	}

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}

	var rateLimiter *rate.Limiter
	if cfg.EnableRateLimit {
		rateLimiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)
	}

	if version == "" {
		version = "dev"
	}

	return &Client{
		httpClient:    httpClient,
		config:        cfg,
		logger:        logger,
		rateLimiter:   rateLimiter,
		authenticator: authenticator,
		tracer:        otel.Tracer("dbsql"),
		recorder:      recorder,
		host:          strings.TrimSuffix(host, "/"),
		warehouseID:   warehouseID,
		version:       version,
	}, nil
}

// statementRequest is the submit body for the statement execution API
type statementRequest struct {
	Statement     string      `json:"statement"`
	WarehouseID   string      `json:"warehouse_id"`
	Parameters    []Parameter `json:"parameters,omitempty"`
	WaitTimeout   string      `json:"wait_timeout"`
	OnWaitTimeout string      `json:"on_wait_timeout"`
	Format        string      `json:"format"`
	Disposition   string      `json:"disposition"`
}

// statementResponse mirrors the API response shape for submit and poll
type statementResponse struct {
	StatementID string `json:"statement_id"`
	Status      struct {
		State string `json:"state"`
		Error struct {
			ErrorCode string `json:"error_code"`
			Message   string `json:"message"`
		} `json:"error"`
	} `json:"status"`
	Manifest struct {
		Schema struct {
			Columns []struct {
				Name string `json:"name"`
			} `json:"columns"`
		} `json:"schema"`
	} `json:"manifest"`
	Result struct {
		DataArray [][]string `json:"data_array"`
	} `json:"result"`
}

// Execute submits a statement, polls until it leaves the
// PENDING/RUNNING states, and decodes the inline result. The context
// bounds the whole exchange; on expiry the caller gets a distinct
// timeout error rather than an open-ended hang.
func (c *Client) Execute(ctx context.Context, stmt Statement) (*ResultSet, error) {
	start := time.Now()
	res, err := c.execute(ctx, stmt)
	if c.recorder != nil {
		c.recorder.RecordStatement(err == nil, time.Since(start))
	}
	return res, err
}

func (c *Client) execute(ctx context.Context, stmt Statement) (*ResultSet, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.QueryTimeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "dbsql.execute_statement",
		trace.WithAttributes(
			attribute.String("warehouse_id", c.warehouseID),
			attribute.Int("param_count", len(stmt.Params)),
		),
	)
	defer span.End()

	resp, err := c.submit(ctx, stmt)
	if err != nil {
		return nil, c.classify(err)
	}

	for resp.Status.State == "PENDING" || resp.Status.State == "RUNNING" {
		select {
		case <-time.After(pollInterval):
		case <-ctx.Done():
			return nil, dbxerrors.NewTimeout("execute_statement")
		}
		resp, err = c.poll(ctx, resp.StatementID)
		if err != nil {
			return nil, c.classify(err)
		}
	}

	switch resp.Status.State {
	case "SUCCEEDED":
	case "FAILED":
		return nil, classifyStatementFailure(resp)
	case "CANCELED", "CLOSED":
		return nil, dbxerrors.NewStatementFailed(fmt.Sprintf("statement %s: %s", resp.StatementID, resp.Status.State))
	default:
		return nil, dbxerrors.NewStatementFailed(fmt.Sprintf("statement %s in unexpected state %s", resp.StatementID, resp.Status.State))
	}

	columns := make([]string, 0, len(resp.Manifest.Schema.Columns))
	for _, col := range resp.Manifest.Schema.Columns {
		columns = append(columns, col.Name)
	}

	return &ResultSet{
		Columns: columns,
		Rows:    resp.Result.DataArray,
	}, nil
}

// submit posts the statement, retrying transient failures with
// exponential backoff
func (c *Client) submit(ctx context.Context, stmt Statement) (*statementResponse, error) {
	body := statementRequest{
		Statement:     stmt.SQL,
		WarehouseID:   c.warehouseID,
		Parameters:    stmt.Params,
		WaitTimeout:   waitTimeout,
		OnWaitTimeout: "CONTINUE",
		Format:        "JSON_ARRAY",
		Disposition:   "INLINE",
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			shift := min(attempt-1, 30)
			waitTime := c.config.RetryWaitMin * time.Duration(1<<shift)
			if waitTime > c.config.RetryWaitMax {
				waitTime = c.config.RetryWaitMax
			}

			c.logger.Debug("Retrying statement submission",
				zap.Int("attempt", attempt),
				zap.Duration("wait", waitTime),
			)

			select {
			case <-time.After(waitTime):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := c.doJSON(ctx, http.MethodPost, c.host+statementsPath, body)
		if err != nil {
			lastErr = err
			if isRetryable(err) {
				continue
			}
			return nil, err
		}
		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) poll(ctx context.Context, statementID string) (*statementResponse, error) {
	return c.doJSON(ctx, http.MethodGet, c.host+statementsPath+"/"+statementID, nil)
}

// httpStatusError carries an HTTP-level failure for classification
type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

func (c *Client) doJSON(ctx context.Context, method, url string, body interface{}) (*statementResponse, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", fmt.Sprintf("dbx-mcp-server/%s", c.version))

	if err := c.authenticator.Authenticate(httpReq); err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	startTime := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Error("HTTP request failed",
			zap.Error(err),
			zap.String("method", method),
			zap.Duration("duration", duration),
		)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if closeErr := httpResp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close response body", zap.Error(closeErr))
		}
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("Statement API request completed",
		zap.String("method", method),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("duration", duration),
	)

	if httpResp.StatusCode >= 400 {
		return nil, &httpStatusError{StatusCode: httpResp.StatusCode, Body: string(respBody)}
	}

	var parsed statementResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &parsed, nil
}

// classify maps transport-level failures into the structured taxonomy.
// Rejected credentials are an authentication error, not a configuration
// one: the resolver found material, the workspace refused it.
func (c *Client) classify(err error) error {
	var se *dbxerrors.StructuredError
	if errors.As(err, &se) {
		return se
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return dbxerrors.NewAuthFailed(statusErr.StatusCode)
		case http.StatusNotFound:
			// The statements endpoint exists on every workspace, so a
			// 404 here means the host URL is wrong
			return dbxerrors.NewNetworkError("statement API not found: check the workspace host URL")
		default:
			return dbxerrors.NewStatementFailed(statusErr.Error())
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return dbxerrors.NewTimeout("execute_statement")
	}

	return dbxerrors.NewNetworkError(err.Error())
}

// classifyStatementFailure distinguishes "table not materialized" from
// every other FAILED statement, so the caller knows to run the loader
// rather than retry.
func classifyStatementFailure(resp *statementResponse) error {
	msg := resp.Status.Error.Message
	code := resp.Status.Error.ErrorCode

	if strings.Contains(msg, "TABLE_OR_VIEW_NOT_FOUND") || strings.Contains(code, "TABLE_OR_VIEW_NOT_FOUND") {
		fqn := extractFQN(msg)
		return dbxerrors.NewTableNotFound(fqn)
	}

	if msg == "" {
		msg = fmt.Sprintf("statement %s failed with code %s", resp.StatementID, code)
	}
	return dbxerrors.NewStatementFailed(msg)
}

// extractFQN pulls the backtick-quoted table name out of a
// TABLE_OR_VIEW_NOT_FOUND message, falling back to a generic label
func extractFQN(msg string) string {
	start := strings.Index(msg, "`")
	if start < 0 {
		return "error_logs_parsed"
	}
	end := strings.LastIndex(msg, "`")
	if end <= start {
		return "error_logs_parsed"
	}
	return strings.ReplaceAll(msg[start:end+1], "`", "")
}

// isRetryable determines if an error is retryable (transient network errors)
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) ||
			errors.Is(opErr.Err, syscall.ECONNRESET) ||
			errors.Is(opErr.Err, syscall.ENETUNREACH) ||
			errors.Is(opErr.Err, syscall.EHOSTUNREACH) ||
			errors.Is(opErr.Err, syscall.ETIMEDOUT) {
			return true
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary()
	}

	errStr := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset",
		"connection refused",
		"no such host",
		"network is unreachable",
		"i/o timeout",
		"tls handshake timeout",
		"eof",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// Close closes the client and releases resources
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
