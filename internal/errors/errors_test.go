package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorInterface(t *testing.T) {
	err := New(CodeInvalidInput, ValidationError, "bad limit")
	msg := err.Error()

	if !strings.Contains(msg, "INVALID_INPUT") || !strings.Contains(msg, "bad limit") {
		t.Errorf("Error() = %q, want code and message", msg)
	}
}

func TestToJSON(t *testing.T) {
	err := NewInvalidSeverity("critical")

	var decoded map[string]interface{}
	if jsonErr := json.Unmarshal([]byte(err.ToJSON()), &decoded); jsonErr != nil {
		t.Fatalf("ToJSON produced invalid JSON: %v", jsonErr)
	}
	if decoded["code"] != "INVALID_SEVERITY" {
		t.Errorf("code = %v", decoded["code"])
	}
	if decoded["category"] != "VALIDATION_ERROR" {
		t.Errorf("category = %v", decoded["category"])
	}
	if decoded["suggestion"] == "" {
		t.Error("Expected a recovery suggestion")
	}
}

func TestConstructorCategories(t *testing.T) {
	tests := []struct {
		name     string
		err      *StructuredError
		code     ErrorCode
		category ErrorCategory
	}{
		{"invalid input", NewInvalidInput("x"), CodeInvalidInput, ValidationError},
		{"missing parameter", NewMissingParameter("file_path"), CodeMissingParameter, ValidationError},
		{"invalid severity", NewInvalidSeverity("x"), CodeInvalidSeverity, ValidationError},
		{"missing credentials", NewMissingCredentials([]string{"token"}), CodeMissingCredential, ConfigurationError},
		{"auth failed", NewAuthFailed(401), CodeAuthFailed, AuthenticationError},
		{"network", NewNetworkError("unreachable"), CodeNetworkError, ConnectivityError},
		{"timeout", NewTimeout("search"), CodeTimeout, ConnectivityError},
		{"table not found", NewTableNotFound("c.s.t"), CodeTableNotFound, DatasetError},
		{"statement failed", NewStatementFailed("boom"), CodeStatementFailed, BackendError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.Category != tt.category {
				t.Errorf("Category = %s, want %s", tt.err.Category, tt.category)
			}
		})
	}
}

func TestMissingCredentialsNamesFieldsNotValues(t *testing.T) {
	err := NewMissingCredentials([]string{"host", "token"})

	if !strings.Contains(err.Message, "host") || !strings.Contains(err.Message, "token") {
		t.Errorf("Message must name missing fields: %s", err.Message)
	}

	details, ok := err.Details.(map[string]interface{})
	if !ok {
		t.Fatalf("Details = %T, want map", err.Details)
	}
	fields, ok := details["missing_fields"].([]string)
	if !ok || len(fields) != 2 {
		t.Errorf("missing_fields = %v", details["missing_fields"])
	}
}

func TestAsStructured(t *testing.T) {
	se := NewAuthFailed(403)
	wrapped := fmt.Errorf("executing statement: %w", se)

	if got := AsStructured(wrapped); got != se {
		t.Errorf("AsStructured lost the wrapped error: %v", got)
	}

	plain := stderrors.New("dial tcp: connection refused")
	got := AsStructured(plain)
	if got.Category != BackendError {
		t.Errorf("Plain errors wrap as backend: %s", got.Category)
	}
	if !strings.Contains(got.Message, "connection refused") {
		t.Errorf("Original message lost: %s", got.Message)
	}
}

func TestIsCategory(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NewTimeout("search"))

	if !IsCategory(err, ConnectivityError) {
		t.Error("Expected connectivity category through the wrap")
	}
	if IsCategory(err, ValidationError) {
		t.Error("Category must not match others")
	}
	if IsCategory(stderrors.New("plain"), BackendError) {
		t.Error("Plain errors carry no category")
	}
}
