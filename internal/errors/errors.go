// Package errors defines the structured error taxonomy for the server.
// Every failure surfaced to an MCP client carries a category and code so
// the caller can distinguish "fix your criteria" from "fix your
// credentials" from "run the log loader" from "try again later".
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCategory classifies the type of error
type ErrorCategory string

const (
	// ValidationError indicates malformed or out-of-range criteria,
	// caught before any backend call
	ValidationError ErrorCategory = "VALIDATION_ERROR"
	// ConfigurationError indicates required connection material could
	// not be resolved for the invocation
	ConfigurationError ErrorCategory = "CONFIGURATION_ERROR"
	// AuthenticationError indicates credentials were resolved but
	// rejected by the Databricks workspace
	AuthenticationError ErrorCategory = "AUTHENTICATION_ERROR"
	// ConnectivityError indicates the workspace was unreachable or the
	// statement timed out
	ConnectivityError ErrorCategory = "CONNECTIVITY_ERROR"
	// DatasetError indicates the workspace is reachable but the backing
	// table or view does not exist
	DatasetError ErrorCategory = "DATASET_ERROR"
	// BackendError indicates any other statement failure reported by
	// the SQL warehouse
	BackendError ErrorCategory = "BACKEND_ERROR"
)

// ErrorCode represents a structured error code
type ErrorCode string

const (
	CodeInvalidInput      ErrorCode = "INVALID_INPUT"
	CodeMissingParameter  ErrorCode = "MISSING_PARAMETER"
	CodeInvalidSeverity   ErrorCode = "INVALID_SEVERITY"
	CodeMissingCredential ErrorCode = "MISSING_CREDENTIAL"
	CodeAuthFailed        ErrorCode = "AUTH_FAILED"
	CodeNetworkError      ErrorCode = "NETWORK_ERROR"
	CodeTimeout           ErrorCode = "TIMEOUT"
	CodeTableNotFound     ErrorCode = "TABLE_NOT_FOUND"
	CodeStatementFailed   ErrorCode = "STATEMENT_FAILED"
)

// StructuredError represents a detailed error with category, code, and recovery suggestion
type StructuredError struct {
	Code       ErrorCode     `json:"code"`
	Category   ErrorCategory `json:"category"`
	Message    string        `json:"message"`
	Details    interface{}   `json:"details,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
}

// Error implements the error interface
func (e *StructuredError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Category, e.Message)
}

// ToJSON converts the error to JSON string
func (e *StructuredError) ToJSON() string {
	bytes, err := json.Marshal(e)
	if err != nil {
		return fmt.Sprintf(`{"code":"%s","category":"%s","message":"%s"}`, e.Code, e.Category, e.Message)
	}
	return string(bytes)
}

// New creates a new structured error
func New(code ErrorCode, category ErrorCategory, message string) *StructuredError {
	return &StructuredError{
		Code:     code,
		Category: category,
		Message:  message,
	}
}

// WithDetails adds details to the error
func (e *StructuredError) WithDetails(details interface{}) *StructuredError {
	e.Details = details
	return e
}

// WithSuggestion adds a recovery suggestion to the error
func (e *StructuredError) WithSuggestion(suggestion string) *StructuredError {
	e.Suggestion = suggestion
	return e
}

// Common error constructors

// NewInvalidInput creates a validation error for malformed criteria
func NewInvalidInput(message string) *StructuredError {
	return New(CodeInvalidInput, ValidationError, message).
		WithSuggestion("Check the input parameters and try again")
}

// NewMissingParameter creates a validation error for an absent required parameter
func NewMissingParameter(param string) *StructuredError {
	return New(CodeMissingParameter, ValidationError, fmt.Sprintf("Required parameter '%s' is missing", param)).
		WithSuggestion(fmt.Sprintf("Provide the '%s' parameter", param))
}

// NewInvalidSeverity creates a validation error for a severity outside the enum
func NewInvalidSeverity(value string) *StructuredError {
	return New(CodeInvalidSeverity, ValidationError,
		fmt.Sprintf("Invalid severity '%s': must be one of Warning, Error, Event", value)).
		WithSuggestion("Use one of: Warning, Error, Event")
}

// NewMissingCredentials creates a configuration error naming exactly the
// connection fields that could not be resolved. Field values are never
// included, only field names.
func NewMissingCredentials(fields []string) *StructuredError {
	return New(CodeMissingCredential, ConfigurationError,
		fmt.Sprintf("Databricks connection not configured: missing %v", fields)).
		WithDetails(map[string]interface{}{"missing_fields": fields}).
		WithSuggestion("Set DATABRICKS_HOST/DATABRICKS_TOKEN/DATABRICKS_WAREHOUSE_ID, send X-Databricks-* headers, or call configure_databricks")
}

// NewAuthFailed creates an authentication error. The workspace rejected
// credentials that resolved fine, so this is distinct from a
// configuration error.
func NewAuthFailed(statusCode int) *StructuredError {
	return New(CodeAuthFailed, AuthenticationError,
		fmt.Sprintf("Databricks rejected the access token (HTTP %d)", statusCode)).
		WithSuggestion("Verify the personal access token is valid and has access to the SQL warehouse")
}

// NewNetworkError creates a connectivity error
func NewNetworkError(message string) *StructuredError {
	return New(CodeNetworkError, ConnectivityError, message).
		WithSuggestion("Check the workspace URL and your network connection, then try again")
}

// NewTimeout creates a connectivity error for a timed-out backend call
func NewTimeout(operation string) *StructuredError {
	return New(CodeTimeout, ConnectivityError, fmt.Sprintf("Operation '%s' timed out waiting for the SQL warehouse", operation)).
		WithSuggestion("Try again, or check that the SQL warehouse is running")
}

// NewTableNotFound creates a dataset error for a missing table or view
func NewTableNotFound(fqn string) *StructuredError {
	return New(CodeTableNotFound, DatasetError,
		fmt.Sprintf("Table or view '%s' does not exist", fqn)).
		WithSuggestion("Run the log parsing notebook to materialize the error_logs_parsed table")
}

// NewStatementFailed creates a backend error for any other failed statement
func NewStatementFailed(message string) *StructuredError {
	return New(CodeStatementFailed, BackendError, message).
		WithSuggestion("Check the SQL warehouse state and try again later")
}

// AsStructured extracts a StructuredError from an error chain, or wraps
// the error as a backend error when no structured error is present.
func AsStructured(err error) *StructuredError {
	var se *StructuredError
	if errors.As(err, &se) {
		return se
	}
	return NewStatementFailed(err.Error())
}

// IsCategory reports whether err carries the given category
func IsCategory(err error, category ErrorCategory) bool {
	var se *StructuredError
	if errors.As(err, &se) {
		return se.Category == category
	}
	return false
}
