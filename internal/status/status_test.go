package status_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/gonews/internal/status"
)

func TestToken(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Stage 1 ok", status.Token(1, status.OK))
	assert.Equal(t, "Stage 4 failed", status.Token(4, status.Failed))
}

func TestParseAndQuery(t *testing.T) {
	t.Parallel()

	l := status.Parse("Stage 1 ok\nStage 2 failed")

	assert.True(t, l.Has(1))
	assert.True(t, l.OK(1))
	assert.True(t, l.Has(2))
	assert.False(t, l.OK(2))
	assert.False(t, l.Has(3))
}

func TestParse_ToleratesWhitespaceAndBlankLines(t *testing.T) {
	t.Parallel()

	l := status.Parse("  Stage 1 ok  \n\n\tStage 3 ok\n")

	assert.True(t, l.OK(1))
	assert.True(t, l.OK(3))
	assert.Equal(t, "Stage 1 ok\nStage 3 ok", l.String())
}

func TestMark_ReplacesOwnTokenOnly(t *testing.T) {
	t.Parallel()

	l := status.Parse("Stage 1 ok\nStage 2 ok\nStage 3 ok")
	l.Mark(2, status.Failed)

	out := l.String()
	require.Equal(t, 1, strings.Count(out, "Stage 2"))
	assert.Contains(t, out, "Stage 2 failed")
	assert.Contains(t, out, "Stage 1 ok")
	assert.Contains(t, out, "Stage 3 ok")
}

func TestMark_AppendsNewStage(t *testing.T) {
	t.Parallel()

	l := status.Parse("Stage 1 ok")
	l.Mark(2, status.OK)

	assert.Equal(t, "Stage 1 ok\nStage 2 ok", l.String())
}

func TestParse_LastTokenWinsPerStage(t *testing.T) {
	t.Parallel()

	l := status.Parse("Stage 2 failed\nStage 2 ok")

	assert.True(t, l.OK(2))
	assert.Equal(t, 1, strings.Count(l.String(), "Stage 2"))
}

func TestParse_PreservesForeignLines(t *testing.T) {
	t.Parallel()

	l := status.Parse("Stage 1 ok\nmanually checked")
	l.Mark(2, status.OK)

	assert.Equal(t, "Stage 1 ok\nmanually checked\nStage 2 ok", l.String())
}

func TestEmptyLedger(t *testing.T) {
	t.Parallel()

	l := status.Parse("")

	assert.False(t, l.Has(1))
	assert.Equal(t, "", l.String())

	l.Mark(1, status.OK)
	assert.Equal(t, "Stage 1 ok", l.String())
}
