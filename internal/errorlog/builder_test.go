package errorlog

import (
	"strings"
	"testing"
	"time"

	"github.com/ms-mfg-community/dbx-mcp-server/internal/dbsql"
	"github.com/ms-mfg-community/dbx-mcp-server/internal/errors"
)

func testBuilder(t *testing.T) *Builder {
	t.Helper()
	b, err := NewBuilder("dbx_1", "default", "error_logs_parsed")
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}
	return b
}

func paramNames(params []dbsql.Parameter) []string {
	names := make([]string, 0, len(params))
	for _, p := range params {
		names = append(names, p.Name)
	}
	return names
}

func findParam(t *testing.T, params []dbsql.Parameter, name string) dbsql.Parameter {
	t.Helper()
	for _, p := range params {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("Parameter %q not bound; have %v", name, paramNames(params))
	return dbsql.Parameter{}
}

func TestNewBuilderRejectsUnsafeIdentifiers(t *testing.T) {
	bad := []struct {
		catalog, schema, table string
	}{
		{"dbx_1", "default", "error_logs; DROP TABLE users"},
		{"dbx-1", "default", "error_logs_parsed"},
		{"dbx_1", "def ault", "error_logs_parsed"},
		{"dbx_1", "default", "t`able"},
		{"", "default", "error_logs_parsed"},
	}

	for _, tt := range bad {
		_, err := NewBuilder(tt.catalog, tt.schema, tt.table)
		if err == nil {
			t.Errorf("NewBuilder(%q, %q, %q) accepted unsafe identifier", tt.catalog, tt.schema, tt.table)
			continue
		}
		if !errors.IsCategory(err, errors.ValidationError) {
			t.Errorf("Expected validation error, got %v", err)
		}
	}
}

func TestNewBuilderQuotesIdentifiers(t *testing.T) {
	b := testBuilder(t)
	stmt := b.SeveritySummary()
	if !strings.Contains(stmt.SQL, "`dbx_1`.`default`.`error_logs_parsed`") {
		t.Errorf("Expected backtick-quoted FQN in statement: %s", stmt.SQL)
	}
}

// Statement text must depend only on which criteria are present, never
// on their values. Values travel exclusively through bound parameters.
func TestSearchShapeIndependentOfValues(t *testing.T) {
	b := testBuilder(t)

	a := b.Search(SearchCriteria{ErrorCode: "CC-1001", Limit: 20})
	c := b.Search(SearchCriteria{ErrorCode: "'; DROP TABLE x; --", Limit: 20})

	if a.SQL != c.SQL {
		t.Errorf("Statement text varies with values:\n%s\n%s", a.SQL, c.SQL)
	}
	if strings.Contains(c.SQL, "DROP TABLE") {
		t.Errorf("Caller value leaked into statement text: %s", c.SQL)
	}
	if got := findParam(t, c.Params, "error_code").Value; got != "'; DROP TABLE x; --" {
		t.Errorf("Bound value altered: %q", got)
	}
}

func TestSearchFilterCombinations(t *testing.T) {
	b := testBuilder(t)

	tests := []struct {
		name       string
		criteria   SearchCriteria
		wantParams []string
		wantWhere  bool
	}{
		{"empty", SearchCriteria{Limit: 20}, []string{"limit"}, false},
		{"code only", SearchCriteria{ErrorCode: "CC-1001", Limit: 20}, []string{"error_code", "limit"}, true},
		{"all filters", SearchCriteria{
			ErrorCode: "CC-1001", Severity: SeverityError,
			FilePath: "main.rs", MessageContains: "timeout", Limit: 20,
		}, []string{"error_code", "severity", "file_path", "message", "limit"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := b.Search(tt.criteria)
			if got := paramNames(stmt.Params); len(got) != len(tt.wantParams) {
				t.Errorf("Params = %v, want %v", got, tt.wantParams)
			}
			if hasWhere := strings.Contains(stmt.SQL, " WHERE "); hasWhere != tt.wantWhere {
				t.Errorf("WHERE presence = %v, want %v: %s", hasWhere, tt.wantWhere, stmt.SQL)
			}
			if !strings.Contains(stmt.SQL, "ORDER BY timestamp DESC") {
				t.Errorf("Missing recency ordering: %s", stmt.SQL)
			}
			if !strings.Contains(stmt.SQL, "LIMIT :limit") {
				t.Errorf("Limit not bound: %s", stmt.SQL)
			}
		})
	}
}

func TestCountSharesSearchFilters(t *testing.T) {
	b := testBuilder(t)
	c := SearchCriteria{ErrorCode: "CC-1001", Severity: SeverityError, Limit: 20}

	count := b.Count(c)
	if !strings.Contains(count.SQL, "COUNT(*)") {
		t.Errorf("Expected count projection: %s", count.SQL)
	}
	if strings.Contains(count.SQL, "LIMIT") {
		t.Errorf("Count statement must not be limited: %s", count.SQL)
	}
	// Same filters as the page query, without the limit binding
	if got, want := len(count.Params), len(b.Search(c).Params)-1; got != want {
		t.Errorf("Count params = %d, want %d", got, want)
	}
}

func TestLikeEscaping(t *testing.T) {
	b := testBuilder(t)

	stmt := b.MessageSearch(`50%_done\now`, 20)
	got := findParam(t, stmt.Params, "message").Value
	want := `%50\%\_done\\now%`
	if got != want {
		t.Errorf("LIKE pattern = %q, want %q", got, want)
	}
	if !strings.Contains(stmt.SQL, `ESCAPE '\\'`) {
		t.Errorf("Escape clause missing: %s", stmt.SQL)
	}
}

func TestFileErrorsExactMatch(t *testing.T) {
	b := testBuilder(t)
	stmt := b.FileErrors("src/main.rs", 50)

	if !strings.Contains(stmt.SQL, "file_path = :file_path") {
		t.Errorf("Expected exact path match: %s", stmt.SQL)
	}
	if got := findParam(t, stmt.Params, "file_path").Value; got != "src/main.rs" {
		t.Errorf("Path bound as %q", got)
	}
}

func TestFrequencyOrderingDeterministic(t *testing.T) {
	b := testBuilder(t)
	stmt := b.Frequency("", 10)

	if !strings.Contains(stmt.SQL, "ORDER BY occurrence_count DESC, error_code ASC") {
		t.Errorf("Frequency ordering must break ties by code: %s", stmt.SQL)
	}
	if !strings.Contains(stmt.SQL, "COUNT(DISTINCT file_path)") {
		t.Errorf("Missing affected file count: %s", stmt.SQL)
	}

	filtered := b.Frequency(SeverityWarning, 10)
	if got := findParam(t, filtered.Params, "severity").Value; got != "Warning" {
		t.Errorf("Severity bound as %q", got)
	}
}

func TestTimeRangeBindsCutoff(t *testing.T) {
	b := testBuilder(t)
	cutoff := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

	stmt := b.TimeRange(cutoff, SeverityError, 50)
	if !strings.Contains(stmt.SQL, "timestamp >= :cutoff") {
		t.Errorf("Cutoff not bound: %s", stmt.SQL)
	}
	p := findParam(t, stmt.Params, "cutoff")
	if p.Value != "2026-03-15 10:30:00" {
		t.Errorf("Cutoff value = %q", p.Value)
	}
	if p.Type != dbsql.TypeTimestamp {
		t.Errorf("Cutoff type = %q, want TIMESTAMP", p.Type)
	}
}

func TestSeveritySummaryHasNoLimit(t *testing.T) {
	b := testBuilder(t)
	stmt := b.SeveritySummary()
	if strings.Contains(stmt.SQL, "LIMIT") {
		t.Errorf("Summary is bounded by the enum, not a limit: %s", stmt.SQL)
	}
	if !strings.Contains(stmt.SQL, "GROUP BY severity") {
		t.Errorf("Missing severity grouping: %s", stmt.SQL)
	}
}

func TestPatternRowsProjectsMessagesOnly(t *testing.T) {
	b := testBuilder(t)
	stmt := b.PatternRows("CC-3005", SeverityError, PatternFetchLimit)

	if !strings.HasPrefix(stmt.SQL, "SELECT message FROM") {
		t.Errorf("Pattern fetch should project message only: %s", stmt.SQL)
	}
	findParam(t, stmt.Params, "error_code")
	findParam(t, stmt.Params, "severity")
	findParam(t, stmt.Params, "limit")
}
