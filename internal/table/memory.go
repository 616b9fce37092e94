package table

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used by tests and dry runs. It counts
// backend calls so batching behaviour can be asserted.
type MemoryStore struct {
	mu     sync.Mutex
	values [][]string

	// BatchCalls counts BatchUpdate invocations.
	BatchCalls int
	// AppendCalls counts Append invocations.
	AppendCalls int
	// FailBatches makes BatchUpdate fail after the given number of
	// successful calls. Zero disables failure injection.
	FailBatches int
	// BatchErr is returned when failure injection triggers.
	BatchErr error
}

// NewMemoryStore creates a memory store seeded with the given rows (header
// first).
func NewMemoryStore(values [][]string) *MemoryStore {
	copied := make([][]string, len(values))
	for i, row := range values {
		copied[i] = append([]string(nil), row...)
	}
	return &MemoryStore{values: copied}
}

// Values returns a copy of all rows.
func (m *MemoryStore) Values(ctx context.Context) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([][]string, len(m.values))
	for i, row := range m.values {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

// Append adds rows to the end of the table.
func (m *MemoryStore) Append(ctx context.Context, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AppendCalls++
	for _, row := range rows {
		m.values = append(m.values, append([]string(nil), row...))
	}
	return nil
}

// BatchUpdate applies cell writes, growing rows as needed.
func (m *MemoryStore) BatchUpdate(ctx context.Context, updates []CellUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.BatchCalls++
	if m.FailBatches > 0 && m.BatchCalls > m.FailBatches && m.BatchErr != nil {
		return m.BatchErr
	}

	for _, u := range updates {
		for len(m.values) < u.Row {
			m.values = append(m.values, nil)
		}
		row := m.values[u.Row-1]
		for len(row) < u.Col {
			row = append(row, "")
		}
		row[u.Col-1] = u.Value
		m.values[u.Row-1] = row
	}
	return nil
}

// Cell returns the current value at a 1-based position, "" when unset.
func (m *MemoryStore) Cell(row, col int) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if row < 1 || row > len(m.values) {
		return ""
	}
	r := m.values[row-1]
	if col < 1 || col > len(r) {
		return ""
	}
	return r[col-1]
}

// Len returns the number of rows currently in the table.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}
