package stage_test

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/gonews/internal/logger"
	"github.com/jonesrussell/gonews/internal/stage"
	"github.com/jonesrussell/gonews/internal/table"
)

func newsHeader() []string {
	return []string{"News ID", "Created At", "Category", "Source", "Language",
		"Original Title", "Original Link", "New Title", "Summary", "Long Text",
		"Original Image", "Web Image", "Telegram Image", "Social Image",
		"Short Audio", "Long Audio", "Status", "Notes",
		"Telegram Post", "X Post", "Bluesky Post"}
}

// fakeStage processes any row whose status lacks its token.
type fakeStage struct {
	name    string
	number  int
	process func(row table.Row) stage.RowResult
	calls   atomic.Int64
}

func (f *fakeStage) Name() string { return f.name }
func (f *fakeStage) Number() int  { return f.number }

func (f *fakeStage) Eligible(row table.Row) bool {
	return !strings.Contains(row.Get(table.FieldStatus), "Stage 2 ok")
}

func (f *fakeStage) Process(_ context.Context, row table.Row) stage.RowResult {
	f.calls.Add(1)
	return f.process(row)
}

func newRunner(t *testing.T, rows ...[]string) (*stage.Runner, *table.MemoryStore) {
	t.Helper()

	data := [][]string{newsHeader()}
	data = append(data, rows...)
	store := table.NewMemoryStore(data)
	adapter := table.NewAdapter(store, logger.NewNop(), 40, 0)
	return stage.NewRunner(adapter, logger.NewNop(), 4), store
}

func TestRunner_MarksOKAndWritesUpdates(t *testing.T) {
	t.Parallel()

	r, store := newRunner(t,
		[]string{"id-1", "", "tech", "", "", "Original", "https://n/1", "", "", "", "", "", "", "", "", "", "Stage 1 ok"},
	)
	s := &fakeStage{name: "crafter", number: 2, process: func(_ table.Row) stage.RowResult {
		return stage.RowResult{
			Outcome: stage.OutcomeOK,
			Updates: []stage.Update{{Field: table.FieldTitle, Value: "Rewritten title"}},
		}
	}}

	require.NoError(t, r.Run(context.Background(), s))

	assert.Equal(t, "Rewritten title", store.Cell(2, 8))
	assert.Equal(t, "Stage 1 ok\nStage 2 ok", store.Cell(2, 17))
}

func TestRunner_SecondRunIsNoop(t *testing.T) {
	t.Parallel()

	r, store := newRunner(t,
		[]string{"id-1", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "Stage 1 ok"},
	)
	s := &fakeStage{name: "crafter", number: 2, process: func(_ table.Row) stage.RowResult {
		return stage.RowResult{Outcome: stage.OutcomeOK}
	}}

	require.NoError(t, r.Run(context.Background(), s))
	callsAfterFirst := s.calls.Load()
	batchesAfterFirst := store.BatchCalls

	// The ok token is now present, so the row is ineligible and nothing is
	// written.
	require.NoError(t, r.Run(context.Background(), s))

	assert.Equal(t, callsAfterFirst, s.calls.Load())
	assert.Equal(t, batchesAfterFirst, store.BatchCalls)
}

func TestRunner_RowFailureIsIsolated(t *testing.T) {
	t.Parallel()

	r, store := newRunner(t,
		[]string{"id-1", "", "", "", "", "", "https://n/1"},
		[]string{"id-2", "", "", "", "", "", "https://n/2"},
	)
	s := &fakeStage{name: "crafter", number: 2, process: func(row table.Row) stage.RowResult {
		if row.Get(table.FieldID) == "id-1" {
			return stage.Fail("fetch failed: status 404")
		}
		return stage.RowResult{Outcome: stage.OutcomeOK}
	}}

	require.NoError(t, r.Run(context.Background(), s))

	assert.Equal(t, "Stage 2 failed", store.Cell(2, 17))
	assert.Equal(t, "fetch failed: status 404", store.Cell(2, 18))
	assert.Equal(t, "Stage 2 ok", store.Cell(3, 17))
}

func TestRunner_LongNoteTruncated(t *testing.T) {
	t.Parallel()

	r, store := newRunner(t, []string{"id-1"})
	s := &fakeStage{name: "crafter", number: 2, process: func(_ table.Row) stage.RowResult {
		return stage.Fail(strings.Repeat("x", 500))
	}}

	require.NoError(t, r.Run(context.Background(), s))

	note := store.Cell(2, 18)
	assert.LessOrEqual(t, len([]rune(note)), 180)
	assert.True(t, strings.HasSuffix(note, "…"))
}

func TestRunner_SkippedRowWritesNothing(t *testing.T) {
	t.Parallel()

	r, store := newRunner(t, []string{"id-1"})
	s := &fakeStage{name: "crafter", number: 2, process: func(_ table.Row) stage.RowResult {
		return stage.Skip()
	}}

	require.NoError(t, r.Run(context.Background(), s))

	assert.Zero(t, store.BatchCalls)
	assert.Equal(t, "", store.Cell(2, 17))
}

func TestRunner_ManyRowsAllProcessed(t *testing.T) {
	t.Parallel()

	var rows [][]string
	for i := 0; i < 50; i++ {
		rows = append(rows, []string{"id"})
	}
	r, _ := newRunner(t, rows...)
	s := &fakeStage{name: "crafter", number: 2, process: func(_ table.Row) stage.RowResult {
		return stage.RowResult{Outcome: stage.OutcomeOK}
	}}

	require.NoError(t, r.Run(context.Background(), s))
	assert.Equal(t, int64(50), s.calls.Load())
}

func TestParseWorkflow(t *testing.T) {
	t.Parallel()

	t.Run("canonical names", func(t *testing.T) {
		t.Parallel()

		names, err := stage.ParseWorkflow("styler,publisher")
		require.NoError(t, err)
		assert.Equal(t, []string{"styler", "publisher"}, names)
	})

	t.Run("aliases resolve", func(t *testing.T) {
		t.Parallel()

		names, err := stage.ParseWorkflow("crawler, writer")
		require.NoError(t, err)
		assert.Equal(t, []string{"harvester", "crafter"}, names)
	})

	t.Run("unknown stage", func(t *testing.T) {
		t.Parallel()

		_, err := stage.ParseWorkflow("styler,mystery")
		assert.ErrorContains(t, err, "unknown stage")
	})

	t.Run("duplicate stage", func(t *testing.T) {
		t.Parallel()

		_, err := stage.ParseWorkflow("styler,styler")
		assert.ErrorContains(t, err, "listed twice")
	})

	t.Run("empty spec", func(t *testing.T) {
		t.Parallel()

		_, err := stage.ParseWorkflow(" , ")
		assert.Error(t, err)
	})
}

func TestNumber(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, stage.Number(stage.NameHarvester))
	assert.Equal(t, 5, stage.Number(stage.NamePublisher))
}
