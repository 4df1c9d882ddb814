package errorlog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ms-mfg-community/dbx-mcp-server/internal/dbsql"
	"github.com/ms-mfg-community/dbx-mcp-server/internal/errors"
	"github.com/ms-mfg-community/dbx-mcp-server/internal/pattern"
)

// Engine implements the search and aggregation operations. It is
// stateless across calls: each operation takes its executor and builder
// for the invocation's resolved connection, runs a strict
// query-then-aggregate pipeline, and returns a typed result. Empty
// result sets are valid outcomes, never errors.
type Engine struct {
	logger *zap.Logger

	// Now is injectable for deterministic time-window tests
	Now func() time.Time
}

// NewEngine creates an engine
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{
		logger: logger,
		Now:    time.Now,
	}
}

// Search runs a point search. It executes the count statement first so
// TotalFound reports the real match count, then fetches the bounded
// page ordered most recent first.
func (e *Engine) Search(ctx context.Context, exec dbsql.Executor, b *Builder, c SearchCriteria) (*SearchResult, error) {
	c.Limit = ClampLimit(c.Limit, DefaultLimit)

	countRes, err := exec.Execute(ctx, b.Count(c))
	if err != nil {
		return nil, err
	}
	total := decodeCount(countRes)

	pageRes, err := exec.Execute(ctx, b.Search(c))
	if err != nil {
		return nil, err
	}

	records := decodeRecords(pageRes)
	e.logger.Debug("Point search completed",
		zap.Int("total_found", total),
		zap.Int("returned", len(records)),
	)

	return &SearchResult{
		TotalFound: total,
		Results:    records,
		Query:      describeCriteria(c),
	}, nil
}

// Frequency runs the frequency ranking
func (e *Engine) Frequency(ctx context.Context, exec dbsql.Executor, b *Builder, severity Severity, limit int) ([]FrequencyEntry, error) {
	limit = ClampLimit(limit, 10)

	res, err := exec.Execute(ctx, b.Frequency(severity, limit))
	if err != nil {
		return nil, err
	}

	entries := make([]FrequencyEntry, 0, len(res.Rows))
	for _, row := range res.Maps() {
		entries = append(entries, FrequencyEntry{
			ErrorCode:         row["error_code"],
			Severity:          Severity(row["severity"]),
			OccurrenceCount:   atoi(row["occurrence_count"]),
			AffectedFileCount: atoi(row["affected_file_count"]),
			FirstSeen:         parseTimestamp(row["first_seen"]),
			LastSeen:          parseTimestamp(row["last_seen"]),
		})
	}
	return entries, nil
}

// PatternAnalysis fetches a bounded window of matching messages,
// normalizes them, and groups by template ranked by occurrence.
func (e *Engine) PatternAnalysis(ctx context.Context, exec dbsql.Executor, b *Builder, errorCode string, severity Severity) ([]MessagePattern, error) {
	res, err := exec.Execute(ctx, b.PatternRows(errorCode, severity, PatternFetchLimit))
	if err != nil {
		return nil, err
	}

	messages := make([]string, 0, len(res.Rows))
	for _, row := range res.Maps() {
		messages = append(messages, row["message"])
	}

	groups := pattern.GroupMessages(messages)
	patterns := make([]MessagePattern, 0, len(groups))
	for _, g := range groups {
		patterns = append(patterns, MessagePattern{
			PatternTemplate: g.Template,
			OccurrenceCount: g.Count,
			Examples:        g.Examples,
		})
	}

	e.logger.Debug("Pattern analysis completed",
		zap.Int("messages", len(messages)),
		zap.Int("patterns", len(patterns)),
	)
	return patterns, nil
}

// FileErrors lists errors for one file, most recent first
func (e *Engine) FileErrors(ctx context.Context, exec dbsql.Executor, b *Builder, filePath string, limit int) (*SearchResult, error) {
	if filePath == "" {
		return nil, errors.NewMissingParameter("file_path")
	}
	limit = ClampLimit(limit, DefaultFileLimit)

	res, err := exec.Execute(ctx, b.FileErrors(filePath, limit))
	if err != nil {
		return nil, err
	}

	records := decodeRecords(res)
	return &SearchResult{
		TotalFound: len(records),
		Results:    records,
		Query:      fmt.Sprintf("errors in file %s", filePath),
	}, nil
}

// MessageSearch runs a literal containment search over messages
func (e *Engine) MessageSearch(ctx context.Context, exec dbsql.Executor, b *Builder, query string, limit int) (*SearchResult, error) {
	if query == "" {
		return nil, errors.NewMissingParameter("query")
	}
	limit = ClampLimit(limit, DefaultFileLimit)

	res, err := exec.Execute(ctx, b.MessageSearch(query, limit))
	if err != nil {
		return nil, err
	}

	records := decodeRecords(res)
	return &SearchResult{
		TotalFound: len(records),
		Results:    records,
		Query:      fmt.Sprintf("message contains %q", query),
	}, nil
}

// TimeRange searches the last hoursBack hours. The cutoff is computed
// here against the engine clock and bound as a parameter.
func (e *Engine) TimeRange(ctx context.Context, exec dbsql.Executor, b *Builder, hoursBack int, severity Severity) (*SearchResult, error) {
	if hoursBack <= 0 {
		hoursBack = 24
	}
	if hoursBack > MaxWindowHours {
		hoursBack = MaxWindowHours
	}

	cutoff := e.Now().Add(-time.Duration(hoursBack) * time.Hour)
	res, err := exec.Execute(ctx, b.TimeRange(cutoff, severity, DefaultFileLimit))
	if err != nil {
		return nil, err
	}

	records := decodeRecords(res)
	return &SearchResult{
		TotalFound: len(records),
		Results:    records,
		Query:      fmt.Sprintf("errors in last %d hours (severity=%s)", hoursBack, orAny(string(severity))),
	}, nil
}

// SeveritySummary returns one entry per severity level. Levels absent
// from the dataset appear with zero counts, so an empty dataset yields
// three zero rows rather than an empty list.
func (e *Engine) SeveritySummary(ctx context.Context, exec dbsql.Executor, b *Builder) ([]SeveritySummaryEntry, error) {
	res, err := exec.Execute(ctx, b.SeveritySummary())
	if err != nil {
		return nil, err
	}

	byLevel := make(map[Severity]SeveritySummaryEntry, len(Severities))
	for _, row := range res.Maps() {
		sev := Severity(row["severity"])
		byLevel[sev] = SeveritySummaryEntry{
			Severity:        sev,
			OccurrenceCount: atoi(row["occurrence_count"]),
			UniqueCodes:     atoi(row["unique_codes"]),
			FirstSeen:       parseTimestamp(row["first_seen"]),
			LastSeen:        parseTimestamp(row["last_seen"]),
		}
	}

	entries := make([]SeveritySummaryEntry, 0, len(Severities))
	for _, sev := range Severities {
		if entry, ok := byLevel[sev]; ok {
			entries = append(entries, entry)
		} else {
			entries = append(entries, SeveritySummaryEntry{Severity: sev})
		}
	}
	return entries, nil
}

// decodeRecords maps result rows onto ErrorLogRecord values
func decodeRecords(res *dbsql.ResultSet) []ErrorLogRecord {
	records := make([]ErrorLogRecord, 0, len(res.Rows))
	for _, row := range res.Maps() {
		code := row["error_code"]
		records = append(records, ErrorLogRecord{
			Timestamp:        parseTimestamp(row["timestamp"]),
			ErrorCode:        code,
			ErrorCodeNumeric: CodeNumeric(code),
			FilePath:         row["file_path"],
			Severity:         Severity(row["severity"]),
			Message:          row["message"],
			SourceFile:       row["source_file"],
		})
	}
	return records
}

func decodeCount(res *dbsql.ResultSet) int {
	maps := res.Maps()
	if len(maps) == 0 {
		return 0
	}
	return atoi(maps[0]["total"])
}

// timestampFormats covers the shapes the statement API emits for
// TIMESTAMP columns depending on warehouse settings
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func describeCriteria(c SearchCriteria) string {
	return fmt.Sprintf("error_code=%s, severity=%s, file=%s, message=%s, limit=%d",
		orAny(c.ErrorCode), orAny(string(c.Severity)), orAny(c.FilePath), orAny(c.MessageContains), c.Limit)
}

func orAny(s string) string {
	if s == "" {
		return "any"
	}
	return s
}
