package harvester_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/gonews/internal/dedup"
	"github.com/jonesrussell/gonews/internal/feeds"
	"github.com/jonesrussell/gonews/internal/logger"
	"github.com/jonesrussell/gonews/internal/stage/harvester"
	"github.com/jonesrussell/gonews/internal/table"
)

func newsHeader() []string {
	return []string{"News ID", "Created At", "Category", "Source", "Language",
		"Original Title", "Original Link", "New Title", "Summary", "Long Text",
		"Original Image", "Web Image", "Telegram Image", "Social Image",
		"Short Audio", "Long Audio", "Status", "Notes",
		"Telegram Post", "X Post", "Bluesky Post"}
}

type stubReader struct {
	items map[string][]feeds.Item
	errs  map[string]error
}

func (r *stubReader) Read(_ context.Context, src feeds.Source) ([]feeds.Item, error) {
	if err := r.errs[src.URL]; err != nil {
		return nil, err
	}
	return r.items[src.URL], nil
}

type dropSecond struct{}

func (dropSecond) Filter(_ context.Context, cands []dedup.Candidate) ([]bool, error) {
	keep := make([]bool, len(cands))
	for i := range keep {
		keep[i] = i != 1
	}
	return keep, nil
}

func catalog(sources ...feeds.Source) *feeds.Catalog {
	return feeds.NewCatalog(sources)
}

func item(src feeds.Source, title, link string) feeds.Item {
	return feeds.Item{Title: title, Link: link, Source: src, PublishedAt: time.Now()}
}

func TestHarvester_AppendsFreshRows(t *testing.T) {
	t.Parallel()

	src := feeds.Source{Name: "Feed A", URL: "https://a/rss", Category: "tech", Language: "en"}
	reader := &stubReader{items: map[string][]feeds.Item{
		"https://a/rss": {
			item(src, "First story", "https://a/1"),
			item(src, "Second story", "https://a/2"),
		},
	}}
	store := table.NewMemoryStore([][]string{newsHeader()})
	adapter := table.NewAdapter(store, logger.NewNop(), 40, 0)

	h := harvester.New(adapter, catalog(src), reader, nil, logger.NewNop())
	require.NoError(t, h.Run(context.Background()))

	require.Equal(t, 3, store.Len())
	assert.NotEmpty(t, store.Cell(2, 1))
	assert.Equal(t, "tech", store.Cell(2, 3))
	assert.Equal(t, "Feed A", store.Cell(2, 4))
	assert.Equal(t, "en", store.Cell(2, 5))
	assert.Equal(t, "First story", store.Cell(2, 6))
	assert.Equal(t, "https://a/1", store.Cell(2, 7))
	assert.Equal(t, "Stage 1 ok", store.Cell(2, 17))
	assert.Equal(t, "https://a/2", store.Cell(3, 7))
}

func TestHarvester_SkipsKnownAndRepeatedLinks(t *testing.T) {
	t.Parallel()

	src := feeds.Source{Name: "Feed A", URL: "https://a/rss", Category: "tech"}
	reader := &stubReader{items: map[string][]feeds.Item{
		"https://a/rss": {
			item(src, "Known", "https://a/known?utm_source=rss"),
			item(src, "Fresh", "https://a/fresh"),
			item(src, "Repeat of fresh", "https://a/fresh/"),
		},
	}}
	existing := make([]string, 21)
	existing[0] = "id-0"
	existing[6] = "https://a/known"
	store := table.NewMemoryStore([][]string{newsHeader(), existing})
	adapter := table.NewAdapter(store, logger.NewNop(), 40, 0)

	h := harvester.New(adapter, catalog(src), reader, nil, logger.NewNop())
	require.NoError(t, h.Run(context.Background()))

	require.Equal(t, 3, store.Len())
	assert.Equal(t, "https://a/fresh", store.Cell(3, 7))
}

func TestHarvester_TitleFilterApplied(t *testing.T) {
	t.Parallel()

	src := feeds.Source{Name: "Feed A", URL: "https://a/rss", Category: "tech"}
	reader := &stubReader{items: map[string][]feeds.Item{
		"https://a/rss": {
			item(src, "Original story", "https://a/1"),
			item(src, "Original story, reworded", "https://a/2"),
			item(src, "Different story", "https://a/3"),
		},
	}}
	store := table.NewMemoryStore([][]string{newsHeader()})
	adapter := table.NewAdapter(store, logger.NewNop(), 40, 0)

	h := harvester.New(adapter, catalog(src), reader, dropSecond{}, logger.NewNop())
	require.NoError(t, h.Run(context.Background()))

	require.Equal(t, 3, store.Len())
	assert.Equal(t, "https://a/1", store.Cell(2, 7))
	assert.Equal(t, "https://a/3", store.Cell(3, 7))
}

func TestHarvester_FeedFailureDoesNotAbortRun(t *testing.T) {
	t.Parallel()

	srcA := feeds.Source{Name: "Broken", URL: "https://broken/rss", Category: "tech"}
	srcB := feeds.Source{Name: "Works", URL: "https://works/rss", Category: "world"}
	reader := &stubReader{
		errs:  map[string]error{"https://broken/rss": errors.New("timeout")},
		items: map[string][]feeds.Item{"https://works/rss": {item(srcB, "Story", "https://w/1")}},
	}
	store := table.NewMemoryStore([][]string{newsHeader()})
	adapter := table.NewAdapter(store, logger.NewNop(), 40, 0)

	h := harvester.New(adapter, catalog(srcA, srcB), reader, nil, logger.NewNop())
	require.NoError(t, h.Run(context.Background()))

	require.Equal(t, 2, store.Len())
	assert.Equal(t, "https://w/1", store.Cell(2, 7))
}

func TestHarvester_NothingNewAppendsNothing(t *testing.T) {
	t.Parallel()

	src := feeds.Source{Name: "Feed A", URL: "https://a/rss", Category: "tech"}
	reader := &stubReader{}
	store := table.NewMemoryStore([][]string{newsHeader()})
	adapter := table.NewAdapter(store, logger.NewNop(), 40, 0)

	h := harvester.New(adapter, catalog(src), reader, nil, logger.NewNop())
	require.NoError(t, h.Run(context.Background()))

	assert.Zero(t, store.AppendCalls)
}

type stubFetcher struct {
	pages map[string][]byte
}

func (f *stubFetcher) Get(_ context.Context, url string) ([]byte, error) {
	page, ok := f.pages[url]
	if !ok {
		return nil, errors.New("status 404")
	}
	return page, nil
}

func metaPage(image string) []byte {
	return []byte(`<html lang="en-GB"><head><meta property="og:image" content="` +
		image + `"></head><body></body></html>`)
}

func TestHarvester_FeedImageCarriedToRow(t *testing.T) {
	t.Parallel()

	src := feeds.Source{Name: "Feed A", URL: "https://a/rss", Category: "tech", Language: "en"}
	it := item(src, "Story", "https://a/1")
	it.Image = "https://a/lead.jpg"
	reader := &stubReader{items: map[string][]feeds.Item{"https://a/rss": {it}}}
	store := table.NewMemoryStore([][]string{newsHeader()})
	adapter := table.NewAdapter(store, logger.NewNop(), 40, 0)

	h := harvester.New(adapter, catalog(src), reader, nil, logger.NewNop())
	require.NoError(t, h.Run(context.Background()))

	assert.Equal(t, "https://a/lead.jpg", store.Cell(2, 11))
}

func TestHarvester_PageMetaFillsImageAndLanguage(t *testing.T) {
	t.Parallel()

	src := feeds.Source{Name: "Feed A", URL: "https://a/rss", Category: "tech"}
	reader := &stubReader{items: map[string][]feeds.Item{
		"https://a/rss": {item(src, "Story", "https://a/1")},
	}}
	fetcher := &stubFetcher{pages: map[string][]byte{
		"https://a/1": metaPage("https://a/og.jpg"),
	}}
	store := table.NewMemoryStore([][]string{newsHeader()})
	adapter := table.NewAdapter(store, logger.NewNop(), 40, 0)

	h := harvester.New(adapter, catalog(src), reader, nil, logger.NewNop()).
		WithPageMeta(fetcher, true)
	require.NoError(t, h.Run(context.Background()))

	require.Equal(t, 2, store.Len())
	assert.Equal(t, "en", store.Cell(2, 5))
	assert.Equal(t, "https://a/og.jpg", store.Cell(2, 11))
}

func TestHarvester_RequiredImageMissingSkipsEntry(t *testing.T) {
	t.Parallel()

	src := feeds.Source{Name: "Feed A", URL: "https://a/rss", Category: "tech"}
	reader := &stubReader{items: map[string][]feeds.Item{
		"https://a/rss": {
			item(src, "No image anywhere", "https://a/bare"),
			item(src, "Has image", "https://a/pictured"),
		},
	}}
	fetcher := &stubFetcher{pages: map[string][]byte{
		"https://a/bare":     []byte(`<html><body><p>text only</p></body></html>`),
		"https://a/pictured": metaPage("https://a/og.jpg"),
	}}
	store := table.NewMemoryStore([][]string{newsHeader()})
	adapter := table.NewAdapter(store, logger.NewNop(), 40, 0)

	h := harvester.New(adapter, catalog(src), reader, nil, logger.NewNop()).
		WithPageMeta(fetcher, true)
	require.NoError(t, h.Run(context.Background()))

	require.Equal(t, 2, store.Len())
	assert.Equal(t, "https://a/pictured", store.Cell(2, 7))
	assert.Contains(t, store.Cell(2, 18), "1 skipped")
}

func TestHarvester_RunSummaryInLastRowNotes(t *testing.T) {
	t.Parallel()

	src := feeds.Source{Name: "Feed A", URL: "https://a/rss", Category: "tech", Language: "en"}
	items := []feeds.Item{
		item(src, "First", "https://a/1"),
		item(src, "Second", "https://a/2"),
	}
	for i := range items {
		items[i].Image = "https://a/lead.jpg"
	}
	reader := &stubReader{items: map[string][]feeds.Item{"https://a/rss": items}}
	store := table.NewMemoryStore([][]string{newsHeader()})
	adapter := table.NewAdapter(store, logger.NewNop(), 40, 0)

	h := harvester.New(adapter, catalog(src), reader, nil, logger.NewNop()).
		WithPageMeta(&stubFetcher{}, true)
	require.NoError(t, h.Run(context.Background()))

	require.Equal(t, 3, store.Len())
	assert.Empty(t, store.Cell(2, 18))
	assert.Equal(t, "harvest: 2 added, 0 skipped", store.Cell(3, 18))
}
