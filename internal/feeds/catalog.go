// Package feeds defines where news comes from: the category catalog of RSS
// sources and the reader that turns a source into fresh items.
package feeds

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Source is one RSS/Atom feed assigned to a category.
type Source struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
	Language string `yaml:"language"`
}

// Catalog groups sources by category.
type Catalog struct {
	sources map[string][]Source
}

// catalogFile is the YAML shape of a sources file.
type catalogFile struct {
	Sources []Source `yaml:"sources"`
}

// DefaultCatalog returns the built-in source list used when no sources file
// is configured.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Source{
		{Name: "BBC World", URL: "https://feeds.bbci.co.uk/news/world/rss.xml", Category: "world", Language: "en"},
		{Name: "BBC Technology", URL: "https://feeds.bbci.co.uk/news/technology/rss.xml", Category: "technology", Language: "en"},
		{Name: "BBC Business", URL: "https://feeds.bbci.co.uk/news/business/rss.xml", Category: "economy", Language: "en"},
		{Name: "Reuters World", URL: "https://www.reutersagency.com/feed/?best-topics=world", Category: "world", Language: "en"},
		{Name: "The Verge", URL: "https://www.theverge.com/rss/index.xml", Category: "technology", Language: "en"},
		{Name: "Ars Technica", URL: "https://feeds.arstechnica.com/arstechnica/index", Category: "technology", Language: "en"},
		{Name: "BBC Science", URL: "https://feeds.bbci.co.uk/news/science_and_environment/rss.xml", Category: "science", Language: "en"},
		{Name: "BBC Health", URL: "https://feeds.bbci.co.uk/news/health/rss.xml", Category: "health", Language: "en"},
	})
}

// LoadCatalog reads a sources YAML file. Sources missing a URL or category
// are rejected.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}
	if len(f.Sources) == 0 {
		return nil, fmt.Errorf("sources file %s declares no sources", path)
	}
	for i, s := range f.Sources {
		if s.URL == "" || s.Category == "" {
			return nil, fmt.Errorf("source %d (%q) missing url or category", i, s.Name)
		}
	}
	return NewCatalog(f.Sources), nil
}

// NewCatalog groups sources by category.
func NewCatalog(sources []Source) *Catalog {
	c := &Catalog{sources: make(map[string][]Source)}
	for _, s := range sources {
		c.sources[s.Category] = append(c.sources[s.Category], s)
	}
	return c
}

// Categories returns the category names in sorted order.
func (c *Catalog) Categories() []string {
	out := make([]string, 0, len(c.sources))
	for cat := range c.sources {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

// ByCategory returns the sources for one category.
func (c *Catalog) ByCategory(category string) []Source {
	return c.sources[category]
}

// All returns every source, grouped by sorted category.
func (c *Catalog) All() []Source {
	var out []Source
	for _, cat := range c.Categories() {
		out = append(out, c.sources[cat]...)
	}
	return out
}

// Len returns the total number of sources.
func (c *Catalog) Len() int {
	n := 0
	for _, ss := range c.sources {
		n += len(ss)
	}
	return n
}
