// Package secrets resolves credentials from mounted secret files with an
// environment fallback, so the same build runs in a container platform that
// mounts secrets and on a laptop that exports them.
package secrets

import (
	"os"
	"path/filepath"
	"strings"
)

// Provider looks up one named secret.
type Provider interface {
	// Get returns the secret value and whether it was found.
	Get(name string) (string, bool)
}

// FileProvider reads secrets from files named after the secret in a mount
// directory (e.g. /run/secrets/TELEGRAM_BOT_TOKEN).
type FileProvider struct {
	dir string
}

// NewFileProvider creates a provider over the given mount directory.
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{dir: dir}
}

// Get reads the secret file, trimming trailing whitespace.
func (p *FileProvider) Get(name string) (string, bool) {
	if p.dir == "" {
		return "", false
	}
	data, err := os.ReadFile(filepath.Join(p.dir, name))
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(string(data))
	return v, v != ""
}

// EnvProvider reads secrets from environment variables.
type EnvProvider struct{}

// Get reads the environment variable.
func (EnvProvider) Get(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Chain tries providers in order.
type Chain []Provider

// DefaultChain prefers a secrets mount, falling back to the environment.
// dir may be empty to use the environment only.
func DefaultChain(dir string) Chain {
	return Chain{NewFileProvider(dir), EnvProvider{}}
}

// Get returns the first provider's hit.
func (c Chain) Get(name string) (string, bool) {
	for _, p := range c {
		if v, ok := p.Get(name); ok {
			return v, true
		}
	}
	return "", false
}

// GetOr returns the secret or a fallback value.
func (c Chain) GetOr(name, fallback string) string {
	if v, ok := c.Get(name); ok {
		return v
	}
	return fallback
}
