// Package auth handles Databricks workspace authentication.
package auth

import (
	"fmt"
	"net/http"

	"github.com/IBM/go-sdk-core/v5/core"
)

// Authenticator attaches a Databricks personal access token to outgoing
// requests. PATs are plain bearer tokens, so this wraps the SDK core
// bearer authenticator rather than hand-rolling header handling.
type Authenticator struct {
	authenticator *core.BearerTokenAuthenticator
}

// New creates an authenticator for the given personal access token
func New(token string) (*Authenticator, error) {
	if token == "" {
		return nil, fmt.Errorf("access token is required")
	}

	authenticator := &core.BearerTokenAuthenticator{
		BearerToken: token,
	}
	if err := authenticator.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate authenticator: %w", err)
	}

	return &Authenticator{authenticator: authenticator}, nil
}

// Authenticate adds the Authorization header to an HTTP request
func (a *Authenticator) Authenticate(req *http.Request) error {
	if req == nil {
		return fmt.Errorf("request cannot be nil")
	}
	if err := a.authenticator.Authenticate(req); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	return nil
}
