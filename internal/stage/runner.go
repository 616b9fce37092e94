package stage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonesrussell/gonews/internal/logger"
	"github.com/jonesrussell/gonews/internal/metrics"
	"github.com/jonesrussell/gonews/internal/status"
	"github.com/jonesrussell/gonews/internal/table"
)

// maxNoteLength caps what one failure writes into the notes column.
const maxNoteLength = 180

// Runner drives a RowStage across the table: load, partition across
// workers, process, then one batched flush.
type Runner struct {
	adapter *table.Adapter
	log     logger.Logger
	workers int
	maxRows int
}

// NewRunner creates a runner with the given worker count (minimum 1).
func NewRunner(adapter *table.Adapter, log logger.Logger, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{adapter: adapter, log: log, workers: workers}
}

// WithMaxRows caps how many eligible rows a single run processes; the rest
// wait for the next invocation. Zero or negative disables the cap.
func (r *Runner) WithMaxRows(n int) *Runner {
	r.maxRows = n
	return r
}

// Run executes the stage over every eligible row. Row failures are isolated:
// they mark that row failed and the run continues; Run itself errors only
// on table access problems.
func (r *Runner) Run(ctx context.Context, s RowStage) error {
	start := time.Now()

	rows, err := r.adapter.Load(ctx)
	if err != nil {
		return fmt.Errorf("%s: load table: %w", s.Name(), err)
	}

	eligible := make([]table.Row, 0, len(rows))
	for _, row := range rows {
		if s.Eligible(row) {
			eligible = append(eligible, row)
		}
	}
	if r.maxRows > 0 && len(eligible) > r.maxRows {
		eligible = eligible[:r.maxRows]
	}
	r.log.Info("stage starting",
		logger.String("stage", s.Name()),
		logger.Int("rows", len(rows)),
		logger.Int("eligible", len(eligible)))

	counts := r.processAll(ctx, s, eligible)

	if err := r.adapter.Flush(ctx); err != nil {
		return fmt.Errorf("%s: flush updates: %w", s.Name(), err)
	}

	metrics.StageDuration.WithLabelValues(s.Name()).Observe(time.Since(start).Seconds())
	r.log.Info("stage finished",
		logger.String("stage", s.Name()),
		logger.Int("ok", counts[OutcomeOK]),
		logger.Int("skipped", counts[OutcomeSkipped]+len(rows)-len(eligible)),
		logger.Int("failed", counts[OutcomeFailed]),
		logger.Duration("took", time.Since(start)))
	return nil
}

// processAll fans eligible rows out to the worker pool and tallies outcomes.
func (r *Runner) processAll(ctx context.Context, s RowStage, eligible []table.Row) map[Outcome]int {
	var (
		mu     sync.Mutex
		counts = make(map[Outcome]int)
		wg     sync.WaitGroup
	)

	workers := r.workers
	if workers > len(eligible) {
		workers = len(eligible)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(part []table.Row) {
			defer wg.Done()
			for _, row := range part {
				if ctx.Err() != nil {
					return
				}
				outcome := r.processRow(ctx, s, row)
				mu.Lock()
				counts[outcome]++
				mu.Unlock()
			}
		}(partition(eligible, w, workers))
	}
	wg.Wait()
	return counts
}

// processRow runs the stage on one row and stages the resulting writes,
// including the status-ledger token for ok and failed outcomes.
func (r *Runner) processRow(ctx context.Context, s RowStage, row table.Row) Outcome {
	res := s.Process(ctx, row)

	switch res.Outcome {
	case OutcomeSkipped:
		metrics.RowsProcessed.WithLabelValues(s.Name(), string(OutcomeSkipped)).Inc()
		return OutcomeSkipped

	case OutcomeFailed:
		// Partial progress (e.g. two of three channels posted) still gets
		// recorded before the row is marked failed.
		for _, u := range res.Updates {
			r.adapter.Stage(row.Index, u.Field, u.Value)
		}
		ledger := status.Parse(row.Get(table.FieldStatus))
		ledger.Mark(s.Number(), status.Failed)
		r.adapter.Stage(row.Index, table.FieldStatus, ledger.String())
		if res.Note != "" {
			r.adapter.Stage(row.Index, table.FieldNotes, truncateNote(res.Note))
		}
		r.log.Warn("row failed",
			logger.String("stage", s.Name()),
			logger.Int("row", row.Index),
			logger.String("note", res.Note))
		metrics.RowsProcessed.WithLabelValues(s.Name(), string(OutcomeFailed)).Inc()
		return OutcomeFailed

	default:
		for _, u := range res.Updates {
			r.adapter.Stage(row.Index, u.Field, u.Value)
		}
		ledger := status.Parse(row.Get(table.FieldStatus))
		ledger.Mark(s.Number(), status.OK)
		r.adapter.Stage(row.Index, table.FieldStatus, ledger.String())
		// An ok outcome can still carry a note, e.g. a partly degraded
		// publish.
		if res.Note != "" {
			r.adapter.Stage(row.Index, table.FieldNotes, truncateNote(res.Note))
		}
		metrics.RowsProcessed.WithLabelValues(s.Name(), string(OutcomeOK)).Inc()
		return OutcomeOK
	}
}

// partition returns worker w's share of rows, every workers-th element.
// Neighbouring rows land on different workers so one slow source does not
// serialize a whole worker's slice.
func partition(rows []table.Row, w, workers int) []table.Row {
	var part []table.Row
	for i := w; i < len(rows); i += workers {
		part = append(part, rows[i])
	}
	return part
}

func truncateNote(note string) string {
	note = strings.TrimSpace(note)
	runes := []rune(note)
	if len(runes) <= maxNoteLength {
		return note
	}
	return string(runes[:maxNoteLength-1]) + "…"
}
