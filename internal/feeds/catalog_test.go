package feeds_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/gonews/internal/feeds"
)

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	c := feeds.DefaultCatalog()

	assert.Greater(t, c.Len(), 0)
	assert.Contains(t, c.Categories(), "technology")
	for _, s := range c.All() {
		assert.NotEmpty(t, s.URL)
		assert.NotEmpty(t, s.Category)
	}
}

func TestLoadCatalog(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sources.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
sources:
  - name: Feed A
    url: https://a.example/rss
    category: tech
    language: en
  - name: Feed B
    url: https://b.example/rss
    category: economy
    language: en
  - name: Feed C
    url: https://c.example/rss
    category: tech
    language: tr
`), 0o600))

	c, err := feeds.LoadCatalog(path)
	require.NoError(t, err)

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"economy", "tech"}, c.Categories())
	assert.Len(t, c.ByCategory("tech"), 2)
	assert.Equal(t, "Feed B", c.ByCategory("economy")[0].Name)
}

func TestLoadCatalog_Invalid(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := feeds.LoadCatalog(filepath.Join(t.TempDir(), "nope.yml"))
		assert.Error(t, err)
	})

	t.Run("source without url", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "sources.yml")
		require.NoError(t, os.WriteFile(path, []byte(
			"sources:\n  - name: Broken\n    category: tech\n"), 0o600))

		_, err := feeds.LoadCatalog(path)
		assert.ErrorContains(t, err, "missing url or category")
	})

	t.Run("empty list", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "sources.yml")
		require.NoError(t, os.WriteFile(path, []byte("sources: []\n"), 0o600))

		_, err := feeds.LoadCatalog(path)
		assert.ErrorContains(t, err, "no sources")
	})
}
