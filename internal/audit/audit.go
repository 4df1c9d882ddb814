// Package audit provides audit logging for tool executions. Entries
// record which operation ran with what outcome; criteria values and
// credentials are never written, only an input hash.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Entry represents a single audit log entry
type Entry struct {
	Timestamp   time.Time     `json:"timestamp"`
	TraceID     string        `json:"trace_id,omitempty"`
	Tool        string        `json:"tool"`
	SessionID   string        `json:"session_id,omitempty"`
	Success     bool          `json:"success"`
	Duration    time.Duration `json:"duration_ms"`
	ErrorCode   string        `json:"error_code,omitempty"`
	ResultCount int           `json:"result_count,omitempty"`
	InputHash   string        `json:"input_hash,omitempty"`
}

// Logger handles audit logging with an in-memory ring of recent entries
type Logger struct {
	enabled bool
	logger  *zap.Logger

	mu         sync.RWMutex
	entries    []Entry
	maxEntries int
}

// NewLogger creates a new audit logger
func NewLogger(logger *zap.Logger, enabled bool) *Logger {
	return &Logger{
		enabled:    enabled,
		logger:     logger.Named("audit"),
		entries:    make([]Entry, 0, 1000),
		maxEntries: 1000,
	}
}

// HashInput produces a stable hash of raw tool arguments so invocations
// can be correlated without storing the arguments themselves
func HashInput(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8])
}

// Log records an audit entry
func (l *Logger) Log(ctx context.Context, entry Entry) {
	if !l.enabled {
		return
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		entry.TraceID = sc.TraceID().String()
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.maxEntries {
		l.entries = l.entries[1:]
	}
	l.mu.Unlock()

	l.logger.Info("tool execution",
		zap.String("tool", entry.Tool),
		zap.Bool("success", entry.Success),
		zap.Duration("duration", entry.Duration),
		zap.String("error_code", entry.ErrorCode),
		zap.Int("result_count", entry.ResultCount),
		zap.String("input_hash", entry.InputHash),
	)
}

// Recent returns the most recent n audit entries, newest last
func (l *Logger) Recent(n int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}
