// Package styler implements stage 3: turning the source lead image into the
// sized variants the channels need and persisting them to object storage.
package styler

import (
	"context"
	"fmt"

	"github.com/jonesrussell/gonews/internal/media"
	"github.com/jonesrussell/gonews/internal/stage"
	"github.com/jonesrussell/gonews/internal/status"
	"github.com/jonesrussell/gonews/internal/table"
)

// Fetcher downloads the source image.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Styler renders and stores image variants.
type Styler struct {
	fetcher      Fetcher
	blobs        media.BlobStore
	requireImage bool
	minWidth     int
	minHeight    int
}

// New creates the styler. With requireImage set, rows without a source
// image fail instead of passing through. Zero minimum dimensions use the
// media package defaults.
func New(fetcher Fetcher, blobs media.BlobStore, requireImage bool, minWidth, minHeight int) *Styler {
	return &Styler{
		fetcher:      fetcher,
		blobs:        blobs,
		requireImage: requireImage,
		minWidth:     minWidth,
		minHeight:    minHeight,
	}
}

// Name returns the stage name.
func (s *Styler) Name() string { return stage.NameStyler }

// Number returns the ledger position.
func (s *Styler) Number() int { return stage.Number(stage.NameStyler) }

// Eligible wants crafted rows not yet styled.
func (s *Styler) Eligible(row table.Row) bool {
	ledger := status.Parse(row.Get(table.FieldStatus))
	return ledger.OK(2) && !ledger.Has(s.Number())
}

// Process downloads the lead image, validates it, renders every variant and
// uploads them.
func (s *Styler) Process(ctx context.Context, row table.Row) stage.RowResult {
	src := row.Get(table.FieldOrigImage)
	if src == "" {
		if s.requireImage {
			return stage.Fail("no source image")
		}
		return stage.RowResult{Outcome: stage.OutcomeOK}
	}

	data, err := s.fetcher.Get(ctx, src)
	if err != nil {
		return stage.Fail(fmt.Sprintf("download image: %v", err))
	}

	img, err := media.DecodeAndValidate(data, s.minWidth, s.minHeight)
	if err != nil {
		return stage.Fail(fmt.Sprintf("validate image: %v", err))
	}

	id := row.Get(table.FieldID)
	urls := make(map[string]string, len(media.Variants))
	for _, v := range media.Variants {
		rendered, err := media.RenderVariant(img, v)
		if err != nil {
			return stage.Fail(fmt.Sprintf("render %s image: %v", v.Name, err))
		}
		key := fmt.Sprintf("images/%s/%s.jpg", id, v.Name)
		url, err := s.blobs.Put(ctx, key, rendered, "image/jpeg")
		if err != nil {
			return stage.Fail(fmt.Sprintf("store %s image: %v", v.Name, err))
		}
		urls[v.Name] = url
	}

	return stage.RowResult{
		Outcome: stage.OutcomeOK,
		Updates: []stage.Update{
			{Field: table.FieldWebImage, Value: urls["web"]},
			{Field: table.FieldTelegramImage, Value: urls["telegram"]},
			// The social card reuses the wide rendering.
			{Field: table.FieldSocialImage, Value: urls["web"]},
		},
	}
}
