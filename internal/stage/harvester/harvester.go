// Package harvester implements stage 1: reading the source feeds and
// appending fresh, deduplicated stories to the table.
package harvester

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/gonews/internal/dedup"
	"github.com/jonesrussell/gonews/internal/feeds"
	"github.com/jonesrussell/gonews/internal/fetch"
	"github.com/jonesrussell/gonews/internal/logger"
	"github.com/jonesrussell/gonews/internal/stage"
	"github.com/jonesrussell/gonews/internal/status"
	"github.com/jonesrussell/gonews/internal/table"
)

// FeedReader fetches fresh items from one source.
type FeedReader interface {
	Read(ctx context.Context, src feeds.Source) ([]feeds.Item, error)
}

// TitleFilter drops near-duplicate titles within a batch.
type TitleFilter interface {
	Filter(ctx context.Context, cands []dedup.Candidate) ([]bool, error)
}

// Fetcher downloads an article page for metadata enrichment.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Harvester appends new stories from the feed catalog. Unlike the later
// stages it creates rows instead of advancing them, so it runs as a whole
// step rather than through the row runner.
type Harvester struct {
	adapter      *table.Adapter
	catalog      *feeds.Catalog
	reader       FeedReader
	titles       TitleFilter
	fetcher      Fetcher
	requireImage bool
	log          logger.Logger
	newID        func() string
	now          func() time.Time
}

// New creates the harvester. titles may be nil to skip similarity filtering.
func New(adapter *table.Adapter, catalog *feeds.Catalog, reader FeedReader, titles TitleFilter, log logger.Logger) *Harvester {
	return &Harvester{
		adapter: adapter,
		catalog: catalog,
		reader:  reader,
		titles:  titles,
		log:     log,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// WithPageMeta enables fetching the article page for entries whose feed
// left the lead image or language blank. With requireImage set, entries
// that still have no image after the lookup are dropped instead of
// surfacing downstream as styler failures.
func (h *Harvester) WithPageMeta(fetcher Fetcher, requireImage bool) *Harvester {
	h.fetcher = fetcher
	h.requireImage = requireImage
	return h
}

// Name returns the stage name.
func (h *Harvester) Name() string { return stage.NameHarvester }

// Run reads every source, drops stories already in the table or repeated
// within the batch, and appends the rest marked "Stage 1 ok". Individual
// feed failures are logged and skipped; Run errors only on table access.
func (h *Harvester) Run(ctx context.Context) error {
	rows, err := h.adapter.Load(ctx)
	if err != nil {
		return fmt.Errorf("harvester: load table: %w", err)
	}

	links := dedup.NewLinkSet(nil)
	for _, row := range rows {
		links.Add(row.Get(table.FieldLink))
	}

	var batch []feeds.Item
	for _, src := range h.catalog.All() {
		items, err := h.reader.Read(ctx, src)
		if err != nil {
			h.log.Warn("feed read failed",
				logger.String("source", src.Name),
				logger.String("url", src.URL),
				logger.Error(err))
			continue
		}
		fresh := 0
		for _, item := range items {
			if links.Seen(item.Link) {
				continue
			}
			links.Add(item.Link)
			batch = append(batch, item)
			fresh++
		}
		h.log.Debug("feed read",
			logger.String("source", src.Name),
			logger.Int("items", len(items)),
			logger.Int("fresh", fresh))
	}

	batch = h.filterTitles(ctx, batch)
	if len(batch) == 0 {
		h.log.Info("harvest found nothing new")
		return nil
	}

	newRows := make([][]string, 0, len(batch))
	skipped := 0
	for _, item := range batch {
		item = h.enrich(ctx, item)
		if h.requireImage && item.Image == "" {
			skipped++
			h.log.Debug("no usable image, dropping entry",
				logger.String("link", item.Link))
			continue
		}
		newRows = append(newRows, h.newRow(item))
	}
	if len(newRows) == 0 {
		h.log.Info("harvest found nothing new", logger.Int("skipped", skipped))
		return nil
	}

	// The run summary rides on the last appended row's notes cell, where a
	// spreadsheet reader will see it.
	summary := fmt.Sprintf("harvest: %d added, %d skipped", len(newRows), skipped)
	last := newRows[len(newRows)-1]
	last[h.adapter.Schema().Col(table.FieldNotes)-1] = summary

	if err := h.adapter.AppendRows(ctx, newRows); err != nil {
		return fmt.Errorf("harvester: append rows: %w", err)
	}

	h.log.Info("harvest complete",
		logger.Int("added", len(newRows)),
		logger.Int("skipped", skipped))
	return nil
}

// enrich fills a missing lead image or language from the article page.
// Failures leave the item as it came from the feed.
func (h *Harvester) enrich(ctx context.Context, item feeds.Item) feeds.Item {
	if h.fetcher == nil || (item.Image != "" && item.Source.Language != "") {
		return item
	}

	page, err := h.fetcher.Get(ctx, item.Link)
	if err != nil {
		h.log.Debug("page metadata fetch failed",
			logger.String("link", item.Link),
			logger.Error(err))
		return item
	}
	meta, err := fetch.ExtractMeta(page, item.Link)
	if err != nil {
		return item
	}
	if item.Image == "" {
		item.Image = meta.Image
	}
	if item.Source.Language == "" {
		item.Source.Language = meta.Language
	}
	return item
}

// filterTitles applies the similarity filter; a filter failure keeps the
// whole batch.
func (h *Harvester) filterTitles(ctx context.Context, batch []feeds.Item) []feeds.Item {
	if h.titles == nil || len(batch) < 2 {
		return batch
	}

	cands := make([]dedup.Candidate, len(batch))
	for i, item := range batch {
		cands[i] = dedup.Candidate{Category: item.Source.Category, Title: item.Title}
	}
	keep, err := h.titles.Filter(ctx, cands)
	if err != nil {
		h.log.Warn("title similarity filter failed, keeping all", logger.Error(err))
		return batch
	}

	out := batch[:0]
	for i, item := range batch {
		if keep[i] {
			out = append(out, item)
		}
	}
	return out
}

func (h *Harvester) newRow(item feeds.Item) []string {
	values := h.adapter.NewRowValues()
	schema := h.adapter.Schema()
	set := func(f table.Field, v string) {
		values[schema.Col(f)-1] = v
	}

	set(table.FieldID, h.newID())
	set(table.FieldCreatedAt, h.now().UTC().Format(time.RFC3339))
	set(table.FieldCategory, item.Source.Category)
	set(table.FieldSource, item.Source.Name)
	set(table.FieldLanguage, item.Source.Language)
	set(table.FieldOrigTitle, item.Title)
	set(table.FieldLink, item.Link)
	set(table.FieldOrigImage, item.Image)
	set(table.FieldStatus, status.Token(1, status.OK))
	return values
}
