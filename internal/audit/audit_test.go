package audit

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/zap"
)

func TestHashInput(t *testing.T) {
	if HashInput(nil) != "" {
		t.Error("Empty input hashes to empty string")
	}

	a := HashInput([]byte(`{"error_code":"CC-1001"}`))
	b := HashInput([]byte(`{"error_code":"CC-1001"}`))
	c := HashInput([]byte(`{"error_code":"CC-3005"}`))

	if a != b {
		t.Error("Hash must be stable for identical input")
	}
	if a == c {
		t.Error("Different inputs must hash differently")
	}
	if len(a) != 16 {
		t.Errorf("Hash length = %d, want 16 hex chars", len(a))
	}
	// The hash must never contain the raw input
	if a == `{"error_code":"CC-1001"}` {
		t.Error("Hash leaked raw input")
	}
}

func TestLogAndRecent(t *testing.T) {
	l := NewLogger(zap.NewNop(), true)

	for i := 0; i < 5; i++ {
		l.Log(context.Background(), Entry{
			Tool:    fmt.Sprintf("tool-%d", i),
			Success: true,
		})
	}

	recent := l.Recent(3)
	if len(recent) != 3 {
		t.Fatalf("Recent(3) = %d entries", len(recent))
	}
	if recent[2].Tool != "tool-4" {
		t.Errorf("Newest entry last, got %s", recent[2].Tool)
	}
	if recent[0].Timestamp.IsZero() {
		t.Error("Timestamp not stamped on log")
	}

	if got := l.Recent(0); len(got) != 5 {
		t.Errorf("Recent(0) returns everything, got %d", len(got))
	}
}

func TestLogDisabled(t *testing.T) {
	l := NewLogger(zap.NewNop(), false)
	l.Log(context.Background(), Entry{Tool: "search_error_logs"})

	if len(l.Recent(10)) != 0 {
		t.Error("Disabled logger must not record entries")
	}
}

func TestRingBound(t *testing.T) {
	l := NewLogger(zap.NewNop(), true)
	l.maxEntries = 10

	for i := 0; i < 25; i++ {
		l.Log(context.Background(), Entry{Tool: fmt.Sprintf("tool-%d", i)})
	}

	recent := l.Recent(0)
	if len(recent) != 10 {
		t.Fatalf("Ring holds %d entries, want 10", len(recent))
	}
	if recent[0].Tool != "tool-15" {
		t.Errorf("Oldest surviving entry = %s, want tool-15", recent[0].Tool)
	}
}
