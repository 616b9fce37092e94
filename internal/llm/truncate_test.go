package llm_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/gonews/internal/llm"
)

func TestTruncateAtSentence(t *testing.T) {
	t.Parallel()

	t.Run("short text untouched", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Short.", llm.TruncateAtSentence("Short.", 100))
	})

	t.Run("cuts at sentence boundary", func(t *testing.T) {
		t.Parallel()
		in := "First sentence here. Second sentence goes on for quite a while longer."
		got := llm.TruncateAtSentence(in, 40)
		assert.Equal(t, "First sentence here.", got)
	})

	t.Run("falls back to word boundary", func(t *testing.T) {
		t.Parallel()
		in := "no punctuation at all just words words words words words"
		got := llm.TruncateAtSentence(in, 30)
		assert.LessOrEqual(t, len([]rune(got)), 30)
		assert.False(t, strings.HasSuffix(got, " "))
		assert.True(t, strings.HasPrefix(in, got))
	})

	t.Run("zero max", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", llm.TruncateAtSentence("anything", 0))
	})
}
