// Package resolver turns per-request headers, session-scoped overrides,
// and process defaults into the effective Databricks connection for one
// invocation.
package resolver

import (
	"context"

	"github.com/ms-mfg-community/dbx-mcp-server/internal/config"
	"github.com/ms-mfg-community/dbx-mcp-server/internal/errors"
	"github.com/ms-mfg-community/dbx-mcp-server/internal/session"
)

// Header names recognized on the streamable HTTP transport. Each carries
// one connection field; any subset may be present.
const (
	HeaderHost        = "X-Databricks-Host"
	HeaderToken       = "X-Databricks-Token"
	HeaderWarehouseID = "X-Databricks-Warehouse-Id"
	HeaderCatalog     = "X-Databricks-Catalog"
	HeaderSchema      = "X-Databricks-Schema"
)

// ConnectionContext is the resolved identity for one invocation. It is
// never persisted or logged and carries no relation to any other
// concurrent invocation's context.
type ConnectionContext struct {
	Host        string
	Token       string
	WarehouseID string
	Catalog     string
	Schema      string
}

// Headers carries per-request connection material extracted from
// transport metadata. It is an explicit resolver input so resolution
// stays testable without a live transport.
type Headers struct {
	Host        string
	Token       string
	WarehouseID string
	Catalog     string
	Schema      string
}

type headersContextKey struct{}

// WithHeaders stashes per-request connection headers in the context.
// The HTTP middleware calls this; stdio transport never does.
func WithHeaders(ctx context.Context, h Headers) context.Context {
	return context.WithValue(ctx, headersContextKey{}, h)
}

// HeadersFromContext returns the per-request headers, if any were set
func HeadersFromContext(ctx context.Context) Headers {
	h, _ := ctx.Value(headersContextKey{}).(Headers)
	return h
}

// Resolver resolves connection contexts at a fixed precedence:
// per-request headers, then session overrides, then process defaults.
// Each field resolves independently, so a caller may pin catalog via a
// header while taking the token from session config.
type Resolver struct {
	defaults *config.Config
	sessions *session.Store
}

// New creates a resolver over the given process defaults and session store
func New(defaults *config.Config, sessions *session.Store) *Resolver {
	return &Resolver{
		defaults: defaults,
		sessions: sessions,
	}
}

// Sessions exposes the session store for the configure tool
func (r *Resolver) Sessions() *session.Store {
	return r.sessions
}

// Resolve produces the effective ConnectionContext for one invocation.
// host, token, and warehouse_id are required; their absence is a
// configuration error naming every missing field. catalog and schema
// fall back to documented defaults instead of failing.
func (r *Resolver) Resolve(h Headers, sessionID string) (ConnectionContext, error) {
	overrides, _ := r.sessions.Get(sessionID)

	cc := ConnectionContext{
		Host:        firstNonEmpty(h.Host, overrides.Host, r.defaults.Host),
		Token:       firstNonEmpty(h.Token, overrides.Token, r.defaults.Token),
		WarehouseID: firstNonEmpty(h.WarehouseID, overrides.WarehouseID, r.defaults.WarehouseID),
		Catalog:     firstNonEmpty(h.Catalog, overrides.Catalog, r.defaults.Catalog, config.DefaultCatalog),
		Schema:      firstNonEmpty(h.Schema, overrides.Schema, r.defaults.Schema, config.DefaultSchema),
	}

	var missing []string
	if cc.Host == "" {
		missing = append(missing, "host")
	}
	if cc.Token == "" {
		missing = append(missing, "token")
	}
	if cc.WarehouseID == "" {
		missing = append(missing, "warehouse_id")
	}
	if len(missing) > 0 {
		return ConnectionContext{}, errors.NewMissingCredentials(missing)
	}

	return cc, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
