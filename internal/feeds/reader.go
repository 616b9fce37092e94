package feeds

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Item is one fresh entry pulled from a source feed.
type Item struct {
	Title       string
	Link        string
	Image       string
	Source      Source
	PublishedAt time.Time
}

// Reader fetches and filters feed entries.
type Reader struct {
	parser     *gofeed.Parser
	lookback   time.Duration
	maxPerFeed int
}

const defaultReaderAgent = "GoNewsBot/1.0 (+https://github.com/jonesrussell/gonews)"

// NewReader creates a reader. Entries older than lookback are dropped;
// each feed contributes at most maxPerFeed entries, newest first.
func NewReader(timeout time.Duration, lookback time.Duration, maxPerFeed int) *Reader {
	p := gofeed.NewParser()
	p.UserAgent = defaultReaderAgent
	p.Client = &http.Client{Timeout: timeout}
	return &Reader{parser: p, lookback: lookback, maxPerFeed: maxPerFeed}
}

// Read fetches one source and returns its fresh items newest first. Entries
// without a usable link or published time are skipped.
func (r *Reader) Read(ctx context.Context, src Source) ([]Item, error) {
	feed, err := r.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.URL, err)
	}

	cutoff := time.Now().Add(-r.lookback)
	items := make([]Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		link := entryLink(entry)
		if link == "" {
			continue
		}
		published := entryTime(entry)
		if published.IsZero() || published.Before(cutoff) {
			continue
		}
		items = append(items, Item{
			Title:       strings.TrimSpace(entry.Title),
			Link:        link,
			Image:       entryImage(entry),
			Source:      src,
			PublishedAt: published,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
	if r.maxPerFeed > 0 && len(items) > r.maxPerFeed {
		items = items[:r.maxPerFeed]
	}
	return items, nil
}

// entryLink prefers the explicit link, falling back to a GUID that looks
// like a URL.
func entryLink(entry *gofeed.Item) string {
	if entry.Link != "" {
		return strings.TrimSpace(entry.Link)
	}
	if strings.HasPrefix(entry.GUID, "http") {
		return strings.TrimSpace(entry.GUID)
	}
	return ""
}

// entryImage takes the feed's own image, falling back to an image
// enclosure.
func entryImage(entry *gofeed.Item) string {
	if entry.Image != nil && entry.Image.URL != "" {
		return strings.TrimSpace(entry.Image.URL)
	}
	for _, enc := range entry.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return strings.TrimSpace(enc.URL)
		}
	}
	return ""
}

// entryTime prefers the published time, falling back to updated.
func entryTime(entry *gofeed.Item) time.Time {
	if entry.PublishedParsed != nil {
		return *entry.PublishedParsed
	}
	if entry.UpdatedParsed != nil {
		return *entry.UpdatedParsed
	}
	return time.Time{}
}
