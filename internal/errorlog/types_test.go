package errorlog

import (
	"testing"

	"github.com/ms-mfg-community/dbx-mcp-server/internal/errors"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input   string
		want    Severity
		wantErr bool
	}{
		{"Error", SeverityError, false},
		{"error", SeverityError, false},
		{"ERROR", SeverityError, false},
		{"warning", SeverityWarning, false},
		{"Event", SeverityEvent, false},
		{"", "", false},
		{"critical", "", true},
		{"Errors", "", true},
	}

	for _, tt := range tests {
		got, err := ParseSeverity(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseSeverity(%q) expected error, got %q", tt.input, got)
				continue
			}
			se := errors.AsStructured(err)
			if se.Category != errors.ValidationError {
				t.Errorf("ParseSeverity(%q) category = %s, want validation", tt.input, se.Category)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSeverity(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSeverity(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		limit int
		def   int
		want  int
	}{
		{0, DefaultLimit, DefaultLimit},
		{-5, DefaultLimit, DefaultLimit},
		{1, DefaultLimit, 1},
		{MaxLimit, DefaultLimit, MaxLimit},
		{MaxLimit + 1, DefaultLimit, MaxLimit},
		{0, DefaultFileLimit, DefaultFileLimit},
	}

	for _, tt := range tests {
		if got := ClampLimit(tt.limit, tt.def); got != tt.want {
			t.Errorf("ClampLimit(%d, %d) = %d, want %d", tt.limit, tt.def, got, tt.want)
		}
	}
}

func TestCodeNumeric(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"CC-1001", 1001},
		{"CC-3005", 3005},
		{"E42", 42},
		{"NOCODE", 0},
		{"", 0},
		{"12-abc", 0},
	}

	for _, tt := range tests {
		if got := CodeNumeric(tt.code); got != tt.want {
			t.Errorf("CodeNumeric(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
