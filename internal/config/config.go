// Package config provides configuration management for the Databricks
// error logs MCP server.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default dataset identity used when neither headers nor session config
// nor environment provide one. These mirror the defaults baked into the
// log parsing notebook.
const (
	DefaultCatalog = "dbx_1"
	DefaultSchema  = "default"

	// DefaultTable is the parsed error log table produced by the loader
	DefaultTable = "error_logs_parsed"
)

// Config holds all configuration for the MCP server
type Config struct {
	// Databricks process-wide defaults (lowest precedence tier; any of
	// these may instead arrive per-request or per-session)
	Host        string `json:"host"`
	Token       string `json:"token,omitempty"` // Not stored in files, from env only
	WarehouseID string `json:"warehouse_id"`
	Catalog     string `json:"catalog"`
	Schema      string `json:"schema"`
	Table       string `json:"table"`

	// Transport
	Transport  string `json:"transport"` // stdio or streamable-http
	ServerHost string `json:"server_host"`
	ServerPort int    `json:"server_port"`

	// HTTP Client Configuration
	Timeout         time.Duration `json:"timeout"`
	MaxRetries      int           `json:"max_retries"`
	RetryWaitMin    time.Duration `json:"retry_wait_min"`
	RetryWaitMax    time.Duration `json:"retry_wait_max"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	IdleConnTimeout time.Duration `json:"idle_conn_timeout"`

	// QueryTimeout bounds one statement execution end to end,
	// including server-side polling
	QueryTimeout time.Duration `json:"query_timeout"`

	// Rate Limiting
	RateLimit       int  `json:"rate_limit"`       // requests per second
	RateLimitBurst  int  `json:"rate_limit_burst"` // burst size
	EnableRateLimit bool `json:"enable_rate_limit"`

	// Security
	TLSVerify bool `json:"tls_verify"`

	// Observability
	EnableTracing   bool `json:"enable_tracing"`
	EnableAuditLog  bool `json:"enable_audit_log"`
	MetricsEndpoint bool `json:"metrics_endpoint"`
	HealthPort      int  `json:"health_port"` // 0 disables the health server

	// Logging
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"` // json or console

	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// Load configuration from environment variables and config file
func Load() (*Config, error) {
	cfg := &Config{
		// Defaults
		Catalog:         DefaultCatalog,
		Schema:          DefaultSchema,
		Table:           DefaultTable,
		Transport:       "stdio",
		ServerHost:      "0.0.0.0",
		ServerPort:      8000,
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		RetryWaitMin:    1 * time.Second,
		RetryWaitMax:    30 * time.Second,
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
		QueryTimeout:    60 * time.Second,
		RateLimit:       100,
		RateLimitBurst:  20,
		EnableRateLimit: true,
		TLSVerify:       true,
		EnableTracing:   false,
		EnableAuditLog:  true,
		MetricsEndpoint: false,
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: 10 * time.Second,
	}

	// Try to load from config file if specified
	if configFile := os.Getenv("CONFIG_FILE"); configFile != "" {
		if err := loadFromFile(cfg, configFile); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Override with environment variables (these take precedence)
	loadFromEnv(cfg)

	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	cleanPath := filepath.Clean(path)

	// Prevent path traversal by checking for ".." components
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("invalid file path: path traversal detected")
	}

	data, err := os.ReadFile(cleanPath) // #nosec G304 -- path is validated above
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return json.Unmarshal(data, cfg)
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("DATABRICKS_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("DATABRICKS_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("DATABRICKS_WAREHOUSE_ID"); v != "" {
		cfg.WarehouseID = v
	}
	if v := os.Getenv("DATABRICKS_CATALOG"); v != "" {
		cfg.Catalog = v
	}
	if v := os.Getenv("DATABRICKS_SCHEMA"); v != "" {
		cfg.Schema = v
	}
	if v := os.Getenv("DATABRICKS_TABLE"); v != "" {
		cfg.Table = v
	}
	if v := os.Getenv("MCP_TRANSPORT"); v != "" {
		cfg.Transport = v
	}
	if v := os.Getenv("MCP_SERVER_HOST"); v != "" {
		cfg.ServerHost = v
	}
	if v := os.Getenv("MCP_SERVER_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.ServerPort = port
		}
	}
	if v := os.Getenv("DBX_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
	if v := os.Getenv("DBX_QUERY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.QueryTimeout = d
		}
	}
	if v := os.Getenv("DBX_MAX_RETRIES"); v != "" {
		var retries int
		if _, err := fmt.Sscanf(v, "%d", &retries); err == nil {
			cfg.MaxRetries = retries
		}
	}
	if v := os.Getenv("DBX_RATE_LIMIT"); v != "" {
		var limit int
		if _, err := fmt.Sscanf(v, "%d", &limit); err == nil {
			cfg.RateLimit = limit
		}
	}
	if v := os.Getenv("DBX_RATE_LIMIT_BURST"); v != "" {
		var burst int
		if _, err := fmt.Sscanf(v, "%d", &burst); err == nil {
			cfg.RateLimitBurst = burst
		}
	}
	if v := os.Getenv("DBX_ENABLE_RATE_LIMIT"); v != "" {
		cfg.EnableRateLimit = v == "true" || v == "1"
	}
	if v := os.Getenv("DBX_TLS_VERIFY"); v != "" {
		cfg.TLSVerify = v == "true" || v == "1"
	}
	if v := os.Getenv("DBX_ENABLE_TRACING"); v != "" {
		cfg.EnableTracing = v == "true" || v == "1"
	}
	if v := os.Getenv("DBX_ENABLE_AUDIT_LOG"); v != "" {
		cfg.EnableAuditLog = v == "true" || v == "1"
	}
	if v := os.Getenv("DBX_METRICS_ENDPOINT"); v != "" {
		cfg.MetricsEndpoint = v == "true" || v == "1"
	}
	if v := os.Getenv("DBX_HEALTH_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.HealthPort = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
}

// Validate checks if the configuration is valid. Workspace credentials
// are intentionally not required here: they may arrive per-request via
// headers or per-session via the configure_databricks tool, and the
// resolver reports their absence per invocation.
func (c *Config) Validate() error {
	if c.Transport != "stdio" && c.Transport != "streamable-http" {
		return fmt.Errorf("invalid transport: %s (must be stdio or streamable-http)", c.Transport)
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid server port: %d", c.ServerPort)
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.QueryTimeout <= 0 {
		return errors.New("query_timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return errors.New("max_retries must be non-negative")
	}
	if c.RateLimit <= 0 && c.EnableRateLimit {
		return errors.New("rate_limit must be positive when rate limiting is enabled")
	}
	if c.Host != "" && !strings.HasPrefix(c.Host, "https://") && !strings.HasPrefix(c.Host, "http://") {
		return fmt.Errorf("DATABRICKS_HOST must be a URL, got: %s", c.Host)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	return nil
}

// Redact returns a copy of the config with sensitive data removed
func (c *Config) Redact() *Config {
	redacted := *c
	redacted.Token = MaskToken(redacted.Token)
	return &redacted
}

// MaskToken returns a masked version of an access token for safe logging
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
