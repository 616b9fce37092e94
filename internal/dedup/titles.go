package dedup

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
)

// Embedder turns texts into vectors for similarity comparison.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Candidate is one harvested story competing for a slot in the batch.
type Candidate struct {
	Category string
	Title    string
}

// TitleFilter drops near-duplicate titles within a single harvest batch.
// Comparison is restricted to candidates in the same category; cross-category
// repeats are legitimate (the same event covered by a tech feed and an
// economy feed reads differently).
type TitleFilter struct {
	embedder  Embedder
	threshold float64
}

// NewTitleFilter builds a filter. A threshold of 0 disables similarity
// filtering entirely: Filter then keeps every candidate.
func NewTitleFilter(embedder Embedder, threshold float64) *TitleFilter {
	return &TitleFilter{embedder: embedder, threshold: threshold}
}

// Filter returns a keep-mask over candidates, in input order. For each
// category the first occurrence wins and later candidates whose title vector
// is within the threshold of any kept one are dropped. An embedding failure
// degrades to keeping everything: harvesting a duplicate costs less than
// losing a batch.
func (f *TitleFilter) Filter(ctx context.Context, cands []Candidate) ([]bool, error) {
	keep := make([]bool, len(cands))
	for i := range keep {
		keep[i] = true
	}
	if f.threshold <= 0 || f.embedder == nil || len(cands) < 2 {
		return keep, nil
	}

	titles := make([]string, len(cands))
	for i, c := range cands {
		titles[i] = strings.TrimSpace(c.Title)
	}

	vecs, err := f.embedder.Embed(ctx, titles)
	if err != nil {
		return keep, fmt.Errorf("embed titles: %w", err)
	}
	if len(vecs) != len(cands) {
		return keep, fmt.Errorf("embed titles: got %d vectors for %d titles", len(vecs), len(cands))
	}

	kept := make(map[string][]int) // category -> indexes kept so far
	for i, c := range cands {
		for _, j := range kept[c.Category] {
			if cosine(vecs[i], vecs[j]) >= f.threshold {
				keep[i] = false
				break
			}
		}
		if keep[i] {
			kept[c.Category] = append(kept[c.Category], i)
		}
	}
	return keep, nil
}

// cosine computes cosine similarity; mismatched or zero vectors score 0.
func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// TitleCache flags near-duplicate titles across one processing run. Unlike
// TitleFilter it is fed incrementally, title by title, so concurrent workers
// can share it. Comparison stays within a category.
type TitleCache struct {
	embedder  Embedder
	threshold float64

	mu   sync.Mutex
	seen map[string][]cachedTitle
}

type cachedTitle struct {
	title string
	vec   []float64
}

// NewTitleCache builds an empty cache. A threshold of 0 disables it.
func NewTitleCache(embedder Embedder, threshold float64) *TitleCache {
	return &TitleCache{
		embedder:  embedder,
		threshold: threshold,
		seen:      make(map[string][]cachedTitle),
	}
}

// Duplicate embeds title and compares it against the titles already seen in
// the same category this run. The first occurrence is remembered and wins;
// later ones within the threshold report true. An embedding failure reports
// false with the error, so callers can degrade to generating anyway.
func (c *TitleCache) Duplicate(ctx context.Context, category, title string) (bool, error) {
	if c.threshold <= 0 || c.embedder == nil {
		return false, nil
	}

	vecs, err := c.embedder.Embed(ctx, []string{strings.TrimSpace(title)})
	if err != nil {
		return false, fmt.Errorf("embed title: %w", err)
	}
	if len(vecs) != 1 {
		return false, fmt.Errorf("embed title: got %d vectors for one title", len(vecs))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, prev := range c.seen[category] {
		if cosine(prev.vec, vecs[0]) >= c.threshold {
			return true, nil
		}
	}
	c.seen[category] = append(c.seen[category], cachedTitle{title: title, vec: vecs[0]})
	return false, nil
}
