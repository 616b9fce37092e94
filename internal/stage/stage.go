// Package stage defines the row-processing contract the pipeline stages
// share and the runner that drives them over the table with a worker pool.
package stage

import (
	"context"

	"github.com/jonesrussell/gonews/internal/table"
)

// Outcome classifies what a stage did with one row.
type Outcome string

const (
	// OutcomeOK means the row advanced; its status ledger gains an ok token.
	OutcomeOK Outcome = "ok"
	// OutcomeSkipped means the row was not touched at all.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means the row errored; it gains a failed token and the
	// error lands in the notes column.
	OutcomeFailed Outcome = "failed"
)

// Update is one staged cell write produced by a stage.
type Update struct {
	Field table.Field
	Value string
}

// RowResult is what a stage reports for one row.
type RowResult struct {
	Outcome Outcome
	Updates []Update
	// Note is appended to the notes column on failure, and logged otherwise.
	Note string
}

// Skip is the zero-work result.
func Skip() RowResult {
	return RowResult{Outcome: OutcomeSkipped}
}

// Fail marks the row failed with a note.
func Fail(note string) RowResult {
	return RowResult{Outcome: OutcomeFailed, Note: note}
}

// RowStage is one stage of the pipeline, operating row by row.
type RowStage interface {
	// Name is the stage's short name, used in logs and workflow specs.
	Name() string
	// Number is the stage's position in the status ledger.
	Number() int
	// Eligible reports whether the row needs this stage. Rows already
	// processed return false, which is what makes re-runs idempotent.
	Eligible(row table.Row) bool
	// Process does the work for one row. It must not write to the table
	// itself; all writes go through the returned updates.
	Process(ctx context.Context, row table.Row) RowResult
}
