package dedup_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/gonews/internal/dedup"
)

// stubEmbedder returns fixed vectors keyed by text.
type stubEmbedder struct {
	vecs map[string][]float64
	err  error
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float64, len(texts))
	for i, txt := range texts {
		out[i] = s.vecs[txt]
	}
	return out, nil
}

func TestTitleFilter_DropsNearDuplicatesInCategory(t *testing.T) {
	t.Parallel()

	emb := &stubEmbedder{vecs: map[string][]float64{
		"Central bank raises rates": {1, 0, 0},
		"Bank raises interest rate": {0.99, 0.1, 0},
		"New phone announced":       {0, 1, 0},
	}}
	f := dedup.NewTitleFilter(emb, 0.92)

	keep, err := f.Filter(context.Background(), []dedup.Candidate{
		{Category: "economy", Title: "Central bank raises rates"},
		{Category: "economy", Title: "Bank raises interest rate"},
		{Category: "tech", Title: "New phone announced"},
	})
	require.NoError(t, err)

	assert.Equal(t, []bool{true, false, true}, keep)
}

func TestTitleFilter_SameTitleDifferentCategoryKept(t *testing.T) {
	t.Parallel()

	emb := &stubEmbedder{vecs: map[string][]float64{
		"Election results are in": {1, 0},
	}}
	f := dedup.NewTitleFilter(emb, 0.92)

	keep, err := f.Filter(context.Background(), []dedup.Candidate{
		{Category: "politics", Title: "Election results are in"},
		{Category: "economy", Title: "Election results are in"},
	})
	require.NoError(t, err)

	assert.Equal(t, []bool{true, true}, keep)
}

func TestTitleFilter_ZeroThresholdDisables(t *testing.T) {
	t.Parallel()

	f := dedup.NewTitleFilter(nil, 0)

	keep, err := f.Filter(context.Background(), []dedup.Candidate{
		{Category: "tech", Title: "Same"},
		{Category: "tech", Title: "Same"},
	})
	require.NoError(t, err)

	assert.Equal(t, []bool{true, true}, keep)
}

func TestTitleFilter_EmbedFailureKeepsAll(t *testing.T) {
	t.Parallel()

	emb := &stubEmbedder{err: errors.New("api down")}
	f := dedup.NewTitleFilter(emb, 0.92)

	keep, err := f.Filter(context.Background(), []dedup.Candidate{
		{Category: "tech", Title: "A"},
		{Category: "tech", Title: "B"},
	})

	require.Error(t, err)
	assert.Equal(t, []bool{true, true}, keep)
}
