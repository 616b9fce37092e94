package table

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonesrussell/gonews/internal/logger"
	"github.com/jonesrussell/gonews/internal/metrics"
)

// Adapter wraps a Store with schema resolution and a mutex-guarded write
// buffer. Writes are staged in memory by concurrent stage workers and sent
// in bounded batches by a single Flush call, with a pause between batches.
// The throttling is backpressure against the store's request quota; without
// it large runs abort on quota errors.
type Adapter struct {
	store     Store
	log       logger.Logger
	batchSize int
	sleep     time.Duration

	mu      sync.Mutex
	pending []CellUpdate
	schema  *Schema
}

// NewAdapter creates an adapter over the given store.
func NewAdapter(store Store, log logger.Logger, batchSize int, sleep time.Duration) *Adapter {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Adapter{
		store:     store,
		log:       log,
		batchSize: batchSize,
		sleep:     sleep,
	}
}

// Load reads the whole tab once, resolves the schema from the header row and
// returns the data rows. Row indices are sheet positions (first data row is
// 2).
func (a *Adapter) Load(ctx context.Context) ([]Row, error) {
	values, err := a.store.Values(ctx)
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}

	var header []string
	if len(values) > 0 {
		header = values[0]
	}
	schema := ResolveSchema(header)
	if guessed := schema.Guessed(); len(guessed) > 0 {
		names := make([]string, len(guessed))
		for i, f := range guessed {
			names[i] = string(f)
		}
		a.log.Warn("headers missing, using canonical positions", logger.Strings("fields", names))
	}

	a.mu.Lock()
	a.schema = schema
	a.mu.Unlock()

	rows := make([]Row, 0, len(values))
	for i := 1; i < len(values); i++ {
		rows = append(rows, Row{Index: i + 1, cells: values[i], schema: schema})
	}
	return rows, nil
}

// Schema returns the schema resolved by the last Load.
func (a *Adapter) Schema() *Schema {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.schema
}

// Stage buffers one cell write for a field of a row. Safe for concurrent use.
func (a *Adapter) Stage(rowIndex int, f Field, value string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = append(a.pending, CellUpdate{Row: rowIndex, Col: a.schema.Col(f), Value: value})
}

// Pending returns the number of buffered writes.
func (a *Adapter) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// Flush submits buffered writes in batches of at most batchSize, pausing
// between batches. A failing batch aborts the flush; batches already sent
// stay committed, so callers must treat a flush error as partial, not rolled
// back.
func (a *Adapter) Flush(ctx context.Context) error {
	a.mu.Lock()
	pending := a.pending
	a.pending = nil
	a.mu.Unlock()

	for i := 0; i < len(pending); i += a.batchSize {
		end := min(i+a.batchSize, len(pending))
		if i > 0 {
			if err := a.pause(ctx); err != nil {
				return err
			}
		}
		if err := a.store.BatchUpdate(ctx, pending[i:end]); err != nil {
			return fmt.Errorf("batch update: %w", err)
		}
		metrics.FlushBatches.Inc()
	}

	if len(pending) > 0 {
		a.log.Debug("flushed staged writes",
			logger.Int("cells", len(pending)),
			logger.Int("batch_size", a.batchSize),
		)
	}
	return nil
}

// AppendRows appends new rows in batches with the same throttling as Flush.
func (a *Adapter) AppendRows(ctx context.Context, rows [][]string) error {
	for i := 0; i < len(rows); i += a.batchSize {
		end := min(i+a.batchSize, len(rows))
		if i > 0 {
			if err := a.pause(ctx); err != nil {
				return err
			}
		}
		if err := a.store.Append(ctx, rows[i:end]); err != nil {
			return fmt.Errorf("append rows: %w", err)
		}
	}
	return nil
}

// NewRowValues allocates an empty row spanning the schema width.
func (a *Adapter) NewRowValues() []string {
	return make([]string, a.Schema().Width())
}

// pause sleeps for the configured inter-batch interval or returns early when
// the context is cancelled.
func (a *Adapter) pause(ctx context.Context) error {
	if a.sleep <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(a.sleep):
		return nil
	}
}
