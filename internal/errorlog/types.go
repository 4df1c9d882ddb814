// Package errorlog implements the search and aggregation engine over
// the parsed error log table.
package errorlog

import (
	"regexp"
	"strconv"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ms-mfg-community/dbx-mcp-server/internal/errors"
)

// Severity is one of the three levels emitted by the log generator
type Severity string

const (
	SeverityWarning Severity = "Warning"
	SeverityError   Severity = "Error"
	SeverityEvent   Severity = "Event"
)

// Severities lists the enum in its canonical order
var Severities = []Severity{SeverityWarning, SeverityError, SeverityEvent}

var titleCaser = cases.Title(language.English)

// ParseSeverity validates a caller-supplied severity value, folding
// case so "error" and "ERROR" are accepted. Anything outside the enum
// is a validation error, rejected before any query is built.
func ParseSeverity(value string) (Severity, error) {
	if value == "" {
		return "", nil
	}
	switch Severity(titleCaser.String(value)) {
	case SeverityWarning:
		return SeverityWarning, nil
	case SeverityError:
		return SeverityError, nil
	case SeverityEvent:
		return SeverityEvent, nil
	default:
		return "", errors.NewInvalidSeverity(value)
	}
}

// Limit bounds for all search operations
const (
	DefaultLimit = 20
	MaxLimit     = 100

	// DefaultFileLimit is the default page size for per-file listings
	DefaultFileLimit = 50

	// MaxWindowHours caps time-window searches at one year
	MaxWindowHours = 8760

	// PatternFetchLimit bounds the rows fetched for pattern analysis
	PatternFetchLimit = 500
)

// ClampLimit applies the default and hard cap to a caller-supplied limit
func ClampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// ErrorLogRecord is one parsed log line. Produced by the upstream
// loader; the engine only reads it.
type ErrorLogRecord struct {
	Timestamp        time.Time `json:"timestamp"`
	ErrorCode        string    `json:"error_code"`
	ErrorCodeNumeric int       `json:"error_code_numeric"`
	FilePath         string    `json:"file_path"`
	Severity         Severity  `json:"severity"`
	Message          string    `json:"message"`
	SourceFile       string    `json:"source_file"`
}

var trailingDigits = regexp.MustCompile(`(\d+)$`)

// CodeNumeric extracts the numeric part of an error code such as
// "CC-1001". Codes without trailing digits yield zero.
func CodeNumeric(code string) int {
	m := trailingDigits.FindString(code)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// SearchCriteria is the request-scoped filter for point searches. All
// fields are optional and combine with logical AND; Limit is always
// positive after clamping.
type SearchCriteria struct {
	ErrorCode       string
	Severity        Severity
	FilePath        string
	MessageContains string
	TimeWindowHours int
	Limit           int
}

// SearchResult is a bounded page of records plus the real total match
// count and a human-readable description of the executed query.
type SearchResult struct {
	TotalFound int              `json:"total_found"`
	Results    []ErrorLogRecord `json:"results"`
	Query      string           `json:"query"`
}

// FrequencyEntry is one row of the frequency ranking
type FrequencyEntry struct {
	ErrorCode         string    `json:"error_code"`
	Severity          Severity  `json:"severity"`
	OccurrenceCount   int       `json:"occurrence_count"`
	AffectedFileCount int       `json:"affected_file_count"`
	FirstSeen         time.Time `json:"first_seen"`
	LastSeen          time.Time `json:"last_seen"`
}

// MessagePattern is one normalized message template with its frequency
// and a bounded sample of literal examples
type MessagePattern struct {
	PatternTemplate string   `json:"pattern_template"`
	OccurrenceCount int      `json:"occurrence_count"`
	Examples        []string `json:"examples"`
}

// SeveritySummaryEntry summarizes one severity level. The summary
// always contains one entry per enum value, zero-counted when the
// dataset has no rows at that level.
type SeveritySummaryEntry struct {
	Severity        Severity  `json:"severity"`
	OccurrenceCount int       `json:"occurrence_count"`
	UniqueCodes     int       `json:"unique_codes"`
	FirstSeen       time.Time `json:"first_seen,omitempty"`
	LastSeen        time.Time `json:"last_seen,omitempty"`
}
