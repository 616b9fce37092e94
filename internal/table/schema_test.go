package table_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/gonews/internal/table"
)

func TestResolveSchema_CanonicalHeader(t *testing.T) {
	t.Parallel()

	header := []string{"News ID", "Created At", "Category", "Source", "Language",
		"Original Title", "Original Link", "New Title", "Summary", "Long Text"}
	s := table.ResolveSchema(header)

	assert.Equal(t, 1, s.Col(table.FieldID))
	assert.Equal(t, 7, s.Col(table.FieldLink))
	assert.Equal(t, 10, s.Col(table.FieldLongText))
	assert.NotContains(t, s.Guessed(), table.FieldID)
	assert.NotContains(t, s.Guessed(), table.FieldLongText)
}

func TestResolveSchema_ReorderedColumns(t *testing.T) {
	t.Parallel()

	header := []string{"Original Link", "News ID", "Status"}
	s := table.ResolveSchema(header)

	assert.Equal(t, 1, s.Col(table.FieldLink))
	assert.Equal(t, 2, s.Col(table.FieldID))
	assert.Equal(t, 3, s.Col(table.FieldStatus))
}

func TestResolveSchema_Aliases(t *testing.T) {
	t.Parallel()

	header := []string{"ID", "Date", "Main Category", "Feed", "Lang",
		"Original Title", "URL"}
	s := table.ResolveSchema(header)

	assert.Equal(t, 1, s.Col(table.FieldID))
	assert.Equal(t, 3, s.Col(table.FieldCategory))
	assert.Equal(t, 7, s.Col(table.FieldLink))
}

func TestResolveSchema_CaseAndSpacingTolerant(t *testing.T) {
	t.Parallel()

	header := []string{"news id", "  created   at ", "CATEGORY"}
	s := table.ResolveSchema(header)

	assert.Equal(t, 1, s.Col(table.FieldID))
	assert.Equal(t, 2, s.Col(table.FieldCreatedAt))
	assert.Equal(t, 3, s.Col(table.FieldCategory))
}

func TestResolveSchema_MissingHeaderFallsBackToPosition(t *testing.T) {
	t.Parallel()

	// Status is canonical column 17; the header row is truncated long
	// before that, so the position is guessed instead of failing.
	header := []string{"News ID", "Created At"}
	s := table.ResolveSchema(header)

	assert.Equal(t, 17, s.Col(table.FieldStatus))
	assert.Contains(t, s.Guessed(), table.FieldStatus)
	assert.NotContains(t, s.Guessed(), table.FieldID)
}

func TestResolveSchema_EmptyHeader(t *testing.T) {
	t.Parallel()

	s := table.ResolveSchema(nil)

	assert.Equal(t, 1, s.Col(table.FieldID))
	assert.Equal(t, 18, s.Col(table.FieldNotes))
	assert.GreaterOrEqual(t, s.Width(), 21)
}
