package dedup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/gonews/internal/dedup"
)

func TestCanonicalURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"strips utm parameters",
			"https://example.com/story?utm_source=rss&utm_medium=feed&id=7",
			"https://example.com/story?id=7",
		},
		{
			"strips fbclid and gclid",
			"https://example.com/a?fbclid=abc&gclid=def",
			"https://example.com/a",
		},
		{
			"trailing slash trimmed",
			"https://example.com/story/",
			"https://example.com/story",
		},
		{
			"root slash kept",
			"https://example.com/",
			"https://example.com/",
		},
		{
			"fragment dropped and host lowercased",
			"https://Example.COM/story#comments",
			"https://example.com/story",
		},
		{
			"query keys sorted",
			"https://example.com/s?b=2&a=1",
			"https://example.com/s?a=1&b=2",
		},
		{
			"whitespace trimmed",
			"  https://example.com/x  ",
			"https://example.com/x",
		},
		{
			"unparseable passes through",
			"not a url",
			"not a url",
		},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := dedup.CanonicalURL(tt.in)
			assert.Equal(t, tt.want, got)
			// Canonicalization must be idempotent.
			assert.Equal(t, got, dedup.CanonicalURL(got))
		})
	}
}

func TestLinkSet(t *testing.T) {
	t.Parallel()

	s := dedup.NewLinkSet([]string{
		"https://example.com/story?utm_source=rss",
		"",
	})

	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Seen("https://example.com/story"))
	assert.True(t, s.Seen("https://example.com/story/?utm_campaign=x"))
	assert.False(t, s.Seen("https://example.com/other"))
	assert.False(t, s.Seen(""))

	s.Add("https://example.com/other")
	assert.True(t, s.Seen("https://example.com/other"))
}
