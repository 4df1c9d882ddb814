package errorlog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ms-mfg-community/dbx-mcp-server/internal/dbsql"
	"github.com/ms-mfg-community/dbx-mcp-server/internal/errors"
)

// recordColumns is the projection for every record-returning query
const recordColumns = "timestamp, error_code, file_path, severity, message, source_file"

// validIdent restricts the dataset identifiers interpolated into
// statement text. Identifiers cannot be bound as parameters, so they
// are validated instead; everything caller-valued is bound.
var validIdent = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Builder compiles typed criteria into parameterized statements for
// one fully-qualified table. The statement shape depends only on which
// criteria fields are present, never on their values.
type Builder struct {
	fqn string
}

// NewBuilder creates a builder for catalog.schema.table, rejecting
// identifiers outside the safe charset.
func NewBuilder(catalog, schema, table string) (*Builder, error) {
	for name, v := range map[string]string{"catalog": catalog, "schema": schema, "table": table} {
		if !validIdent.MatchString(v) {
			return nil, errors.NewInvalidInput(fmt.Sprintf("invalid %s identifier: %q", name, v))
		}
	}
	return &Builder{
		fqn: fmt.Sprintf("`%s`.`%s`.`%s`", catalog, schema, table),
	}, nil
}

// FQN returns the fully-qualified table name the builder targets
func (b *Builder) FQN() string {
	return strings.ReplaceAll(b.fqn, "`", "")
}

// likeEscaper makes caller substrings literal inside LIKE patterns.
// Backslash is declared as the escape character in the statement text,
// so %, _ and backslash itself lose their metacharacter meaning.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern wraps a caller substring for a contains-style LIKE
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// searchFilters builds the shared WHERE conjunction for point search.
// Returns the clause text and the bound parameters; both depend only on
// which fields are set.
func searchFilters(c SearchCriteria) (string, []dbsql.Parameter) {
	var conds []string
	var params []dbsql.Parameter

	if c.ErrorCode != "" {
		conds = append(conds, "error_code = :error_code")
		params = append(params, dbsql.Parameter{Name: "error_code", Value: c.ErrorCode, Type: dbsql.TypeString})
	}
	if c.Severity != "" {
		conds = append(conds, "severity = :severity")
		params = append(params, dbsql.Parameter{Name: "severity", Value: string(c.Severity), Type: dbsql.TypeString})
	}
	if c.FilePath != "" {
		conds = append(conds, `file_path LIKE :file_path ESCAPE '\\'`)
		params = append(params, dbsql.Parameter{Name: "file_path", Value: containsPattern(c.FilePath), Type: dbsql.TypeString})
	}
	if c.MessageContains != "" {
		conds = append(conds, `message LIKE :message ESCAPE '\\'`)
		params = append(params, dbsql.Parameter{Name: "message", Value: containsPattern(c.MessageContains), Type: dbsql.TypeString})
	}

	if len(conds) == 0 {
		return "", params
	}
	return " WHERE " + strings.Join(conds, " AND "), params
}

func limitParam(limit int) dbsql.Parameter {
	return dbsql.Parameter{Name: "limit", Value: strconv.Itoa(limit), Type: dbsql.TypeInt}
}

// Search compiles a point search: AND of whichever filters are present,
// most recent first, bounded. Empty criteria yield the unfiltered
// most-recent page, which is intended.
func (b *Builder) Search(c SearchCriteria) dbsql.Statement {
	where, params := searchFilters(c)
	return dbsql.Statement{
		SQL: fmt.Sprintf("SELECT %s FROM %s%s ORDER BY timestamp DESC LIMIT :limit",
			recordColumns, b.fqn, where),
		Params: append(params, limitParam(c.Limit)),
	}
}

// Count compiles the matching-row count for the same filters as Search,
// so results can report the real total alongside the bounded page.
func (b *Builder) Count(c SearchCriteria) dbsql.Statement {
	where, params := searchFilters(c)
	return dbsql.Statement{
		SQL:    fmt.Sprintf("SELECT COUNT(*) AS total FROM %s%s", b.fqn, where),
		Params: params,
	}
}

// Frequency compiles the frequency ranking: per error code (and
// severity), occurrence count, distinct file count, first/last seen.
// Ties on count break by error_code ascending so ordering is
// deterministic.
func (b *Builder) Frequency(severity Severity, limit int) dbsql.Statement {
	where := ""
	var params []dbsql.Parameter
	if severity != "" {
		where = " WHERE severity = :severity"
		params = append(params, dbsql.Parameter{Name: "severity", Value: string(severity), Type: dbsql.TypeString})
	}
	return dbsql.Statement{
		SQL: fmt.Sprintf(
			"SELECT error_code, severity, COUNT(*) AS occurrence_count, "+
				"COUNT(DISTINCT file_path) AS affected_file_count, "+
				"MIN(timestamp) AS first_seen, MAX(timestamp) AS last_seen "+
				"FROM %s%s GROUP BY error_code, severity "+
				"ORDER BY occurrence_count DESC, error_code ASC LIMIT :limit",
			b.fqn, where),
		Params: append(params, limitParam(limit)),
	}
}

// FileErrors compiles the per-file listing, exact path match
func (b *Builder) FileErrors(filePath string, limit int) dbsql.Statement {
	return dbsql.Statement{
		SQL: fmt.Sprintf("SELECT %s FROM %s WHERE file_path = :file_path ORDER BY timestamp DESC LIMIT :limit",
			recordColumns, b.fqn),
		Params: []dbsql.Parameter{
			{Name: "file_path", Value: filePath, Type: dbsql.TypeString},
			limitParam(limit),
		},
	}
}

// MessageSearch compiles the full-text message search as a literal
// containment match
func (b *Builder) MessageSearch(query string, limit int) dbsql.Statement {
	return dbsql.Statement{
		SQL: fmt.Sprintf(`SELECT %s FROM %s WHERE message LIKE :message ESCAPE '\\' ORDER BY timestamp DESC LIMIT :limit`,
			recordColumns, b.fqn),
		Params: []dbsql.Parameter{
			{Name: "message", Value: containsPattern(query), Type: dbsql.TypeString},
			limitParam(limit),
		},
	}
}

// TimeRange compiles the time-window search. The cutoff is computed by
// the caller and bound as a timestamp, keeping interval arithmetic out
// of the statement text.
func (b *Builder) TimeRange(cutoff time.Time, severity Severity, limit int) dbsql.Statement {
	where := " WHERE timestamp >= :cutoff"
	params := []dbsql.Parameter{
		{Name: "cutoff", Value: cutoff.UTC().Format("2006-01-02 15:04:05"), Type: dbsql.TypeTimestamp},
	}
	if severity != "" {
		where += " AND severity = :severity"
		params = append(params, dbsql.Parameter{Name: "severity", Value: string(severity), Type: dbsql.TypeString})
	}
	return dbsql.Statement{
		SQL: fmt.Sprintf("SELECT %s FROM %s%s ORDER BY timestamp DESC LIMIT :limit",
			recordColumns, b.fqn, where),
		Params: append(params, limitParam(limit)),
	}
}

// SeveritySummary compiles the grouped summary. No limit clause: the
// result is bounded by the severity enum's cardinality.
func (b *Builder) SeveritySummary() dbsql.Statement {
	return dbsql.Statement{
		SQL: fmt.Sprintf(
			"SELECT severity, COUNT(*) AS occurrence_count, "+
				"COUNT(DISTINCT error_code) AS unique_codes, "+
				"MIN(timestamp) AS first_seen, MAX(timestamp) AS last_seen "+
				"FROM %s GROUP BY severity ORDER BY occurrence_count DESC",
			b.fqn),
	}
}

// PatternRows compiles the bounded row fetch feeding pattern analysis.
// Normalization and grouping happen in the application layer over these
// rows.
func (b *Builder) PatternRows(errorCode string, severity Severity, limit int) dbsql.Statement {
	var conds []string
	var params []dbsql.Parameter
	if errorCode != "" {
		conds = append(conds, "error_code = :error_code")
		params = append(params, dbsql.Parameter{Name: "error_code", Value: errorCode, Type: dbsql.TypeString})
	}
	if severity != "" {
		conds = append(conds, "severity = :severity")
		params = append(params, dbsql.Parameter{Name: "severity", Value: string(severity), Type: dbsql.TypeString})
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}
	return dbsql.Statement{
		SQL: fmt.Sprintf("SELECT message FROM %s%s ORDER BY timestamp DESC LIMIT :limit",
			b.fqn, where),
		Params: append(params, limitParam(limit)),
	}
}
