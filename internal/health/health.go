// Package health provides health checking and HTTP probe endpoints.
package health

import (
	"time"

	"go.uber.org/zap"

	"github.com/ms-mfg-community/dbx-mcp-server/internal/config"
	"github.com/ms-mfg-community/dbx-mcp-server/internal/session"
)

// Status represents the health status
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
)

// Check represents a health check result
type Check struct {
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Checker performs health checks. Warehouse connectivity is not probed
// here: credentials may be per-request only, so the process can be
// healthy with no defaults configured at all.
type Checker struct {
	config   *config.Config
	sessions *session.Store
	logger   *zap.Logger
	started  time.Time
}

// New creates a new health checker
func New(cfg *config.Config, sessions *session.Store, logger *zap.Logger) *Checker {
	return &Checker{
		config:   cfg,
		sessions: sessions,
		logger:   logger,
		started:  time.Now(),
	}
}

// CheckAll performs all health checks and returns the overall status
func (c *Checker) CheckAll() (Status, []Check) {
	now := time.Now()
	checks := []Check{
		{
			Name:      "process",
			Status:    StatusHealthy,
			Message:   "uptime " + time.Since(c.started).Round(time.Second).String(),
			Timestamp: now,
		},
		c.checkDefaults(now),
	}

	overall := StatusHealthy
	for _, check := range checks {
		if check.Status == StatusDegraded {
			overall = StatusDegraded
		}
	}
	return overall, checks
}

// checkDefaults reports whether process-wide Databricks defaults exist.
// Their absence is degraded, not unhealthy: callers can still supply
// credentials per request or per session.
func (c *Checker) checkDefaults(now time.Time) Check {
	check := Check{
		Name:      "databricks_defaults",
		Status:    StatusHealthy,
		Timestamp: now,
	}
	if c.config.Host == "" || c.config.Token == "" || c.config.WarehouseID == "" {
		check.Status = StatusDegraded
		check.Message = "no process-wide credentials; relying on per-request headers or session config"
	}
	return check
}

// SessionCount returns the number of sessions holding overrides
func (c *Checker) SessionCount() int {
	return c.sessions.Len()
}
