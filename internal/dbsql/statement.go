package dbsql

import "context"

// Parameter is one named bound parameter of a SQL statement, in the
// shape the Databricks statement execution API expects. Every value
// originating from caller input travels through one of these, never
// through the statement text.
type Parameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Type  string `json:"type,omitempty"`
}

// Parameter type names accepted by the statement execution API
const (
	TypeString    = "STRING"
	TypeInt       = "INT"
	TypeTimestamp = "TIMESTAMP"
)

// Statement is a parameterized SQL statement ready for execution
type Statement struct {
	SQL    string
	Params []Parameter
}

// ResultSet holds the tabular result of one executed statement. The
// statement API returns all cell values as strings; typed decoding is
// the caller's concern.
type ResultSet struct {
	Columns []string
	Rows    [][]string
}

// Maps converts the result set into one map per row, keyed by column
// name. Rows shorter than the column list are padded with empty
// strings.
func (r *ResultSet) Maps() []map[string]string {
	out := make([]map[string]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		m := make(map[string]string, len(r.Columns))
		for i, col := range r.Columns {
			if i < len(row) {
				m[col] = row[i]
			} else {
				m[col] = ""
			}
		}
		out = append(out, m)
	}
	return out
}

// Executor executes one parameterized statement against a SQL
// warehouse. The engine depends on this interface so tests can run
// against a fake instead of a live workspace.
type Executor interface {
	Execute(ctx context.Context, stmt Statement) (*ResultSet, error)
}
