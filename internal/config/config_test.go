package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Catalog != DefaultCatalog {
		t.Errorf("Catalog = %q, want %q", cfg.Catalog, DefaultCatalog)
	}
	if cfg.Schema != DefaultSchema {
		t.Errorf("Schema = %q, want %q", cfg.Schema, DefaultSchema)
	}
	if cfg.Table != DefaultTable {
		t.Errorf("Table = %q, want %q", cfg.Table, DefaultTable)
	}
	if cfg.Transport != "stdio" {
		t.Errorf("Transport = %q, want stdio", cfg.Transport)
	}
	if cfg.QueryTimeout != 60*time.Second {
		t.Errorf("QueryTimeout = %v, want 60s", cfg.QueryTimeout)
	}
	if !cfg.EnableRateLimit {
		t.Error("Rate limiting should default on")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DATABRICKS_HOST", "https://adb-123.azuredatabricks.net")
	t.Setenv("DATABRICKS_TOKEN", "dapi-test-token")
	t.Setenv("DATABRICKS_WAREHOUSE_ID", "abc123")
	t.Setenv("DATABRICKS_CATALOG", "my_catalog")
	t.Setenv("MCP_TRANSPORT", "streamable-http")
	t.Setenv("MCP_SERVER_PORT", "9000")
	t.Setenv("DBX_QUERY_TIMEOUT", "2m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Host != "https://adb-123.azuredatabricks.net" {
		t.Errorf("Host = %q", cfg.Host)
	}
	if cfg.Token != "dapi-test-token" {
		t.Errorf("Token not loaded from env")
	}
	if cfg.WarehouseID != "abc123" {
		t.Errorf("WarehouseID = %q", cfg.WarehouseID)
	}
	if cfg.Catalog != "my_catalog" {
		t.Errorf("Catalog = %q", cfg.Catalog)
	}
	if cfg.Schema != DefaultSchema {
		t.Errorf("Unset env must not disturb defaults: Schema = %q", cfg.Schema)
	}
	if cfg.Transport != "streamable-http" || cfg.ServerPort != 9000 {
		t.Errorf("Transport config not loaded: %s:%d", cfg.Transport, cfg.ServerPort)
	}
	if cfg.QueryTimeout != 2*time.Minute {
		t.Errorf("QueryTimeout = %v, want 2m", cfg.QueryTimeout)
	}
}

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"host": "https://file.databricks.net", "warehouse_id": "file-wh", "server_port": 7070}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DATABRICKS_WAREHOUSE_ID", "env-wh")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Host != "https://file.databricks.net" {
		t.Errorf("Host = %q, want file value", cfg.Host)
	}
	if cfg.ServerPort != 7070 {
		t.Errorf("ServerPort = %d, want 7070", cfg.ServerPort)
	}
	// Environment wins over the file
	if cfg.WarehouseID != "env-wh" {
		t.Errorf("WarehouseID = %q, want env override", cfg.WarehouseID)
	}
}

func TestLoadRejectsPathTraversal(t *testing.T) {
	t.Setenv("CONFIG_FILE", "../../etc/passwd")

	if _, err := Load(); err == nil {
		t.Error("Expected path traversal rejection")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Transport:       "stdio",
			ServerPort:      8000,
			Timeout:         30 * time.Second,
			QueryTimeout:    60 * time.Second,
			MaxRetries:      3,
			RateLimit:       100,
			EnableRateLimit: true,
			LogLevel:        "info",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid stdio", func(c *Config) {}, false},
		{"valid http", func(c *Config) { c.Transport = "streamable-http" }, false},
		{"no credentials is valid at startup", func(c *Config) { c.Host = ""; c.Token = "" }, false},
		{"valid host URL", func(c *Config) { c.Host = "https://adb-1.azuredatabricks.net" }, false},
		{"bad transport", func(c *Config) { c.Transport = "websocket" }, true},
		{"bad port", func(c *Config) { c.ServerPort = 0 }, true},
		{"port too high", func(c *Config) { c.ServerPort = 70000 }, true},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, true},
		{"zero query timeout", func(c *Config) { c.QueryTimeout = 0 }, true},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, true},
		{"rate limit zero while enabled", func(c *Config) { c.RateLimit = 0 }, true},
		{"host without scheme", func(c *Config) { c.Host = "adb-1.azuredatabricks.net" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMaskToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"", ""},
		{"short", "***"},
		{"12345678", "***"},
		{"dapi1234567890abcdef", "dapi...cdef"},
	}

	for _, tt := range tests {
		if got := MaskToken(tt.token); got != tt.want {
			t.Errorf("MaskToken(%q) = %q, want %q", tt.token, got, tt.want)
		}
	}
}

func TestRedactDoesNotMutate(t *testing.T) {
	cfg := &Config{Token: "dapi1234567890abcdef"}
	redacted := cfg.Redact()

	if redacted.Token == cfg.Token {
		t.Error("Redact did not mask the token")
	}
	if cfg.Token != "dapi1234567890abcdef" {
		t.Error("Redact mutated the original config")
	}
}
