package table

import "context"

// CellUpdate is one buffered cell write. Row and Col are 1-based.
type CellUpdate struct {
	Row   int
	Col   int
	Value string
}

// Store is the external tabular backend. Row 1 is the header row.
type Store interface {
	// Values returns every row of the tab, header included.
	Values(ctx context.Context) ([][]string, error)
	// Append appends rows after the last used row.
	Append(ctx context.Context, rows [][]string) error
	// BatchUpdate applies a set of single-cell writes in one call.
	BatchUpdate(ctx context.Context, updates []CellUpdate) error
}

// Row is one data row of the news table, bound to the resolved schema.
type Row struct {
	// Index is the 1-based sheet row (data starts at 2).
	Index  int
	cells  []string
	schema *Schema
}

// Get returns the row's value for a field, or "" when the row is shorter
// than the field's column.
func (r Row) Get(f Field) string {
	col := r.schema.Col(f)
	if col < 1 || col > len(r.cells) {
		return ""
	}
	return r.cells[col-1]
}
