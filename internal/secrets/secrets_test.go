package secrets_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/gonews/internal/secrets"
)

func TestChain_FileBeatsEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "API_TOKEN"), []byte("from-file\n"), 0o600))
	t.Setenv("API_TOKEN", "from-env")

	c := secrets.DefaultChain(dir)

	v, ok := c.Get("API_TOKEN")
	assert.True(t, ok)
	assert.Equal(t, "from-file", v)
}

func TestChain_EnvFallback(t *testing.T) {
	t.Setenv("ONLY_IN_ENV", "env-value")

	c := secrets.DefaultChain(t.TempDir())

	v, ok := c.Get("ONLY_IN_ENV")
	assert.True(t, ok)
	assert.Equal(t, "env-value", v)
}

func TestChain_Missing(t *testing.T) {
	c := secrets.DefaultChain(t.TempDir())

	_, ok := c.Get("DEFINITELY_NOT_SET_ANYWHERE")
	assert.False(t, ok)
	assert.Equal(t, "fallback", c.GetOr("DEFINITELY_NOT_SET_ANYWHERE", "fallback"))
}

func TestChain_EmptyFileIgnored(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "EMPTY"), []byte("  \n"), 0o600))
	t.Setenv("EMPTY", "env-wins")

	c := secrets.DefaultChain(dir)

	v, ok := c.Get("EMPTY")
	assert.True(t, ok)
	assert.Equal(t, "env-wins", v)
}
