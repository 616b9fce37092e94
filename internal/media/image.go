package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Default minimum source dimensions for a usable lead image. Anything
// smaller is likely an icon or tracking pixel.
const (
	MinImageWidth  = 500
	MinImageHeight = 300
)

// Variant names the fixed output sizes the downstream channels expect.
type Variant struct {
	Name   string
	Width  int
	Height int
}

// Variants produced for every story image: a wide web card and a portrait
// crop for Telegram.
var Variants = []Variant{
	{Name: "web", Width: 1280, Height: 720},
	{Name: "telegram", Width: 1080, Height: 1350},
}

// ErrImageTooSmall is returned when the source is below the minimum
// dimensions.
var ErrImageTooSmall = errors.New("image too small")

// DecodeAndValidate decodes an image and rejects sources below the given
// minimum dimensions. Zero minimums fall back to the package defaults.
func DecodeAndValidate(data []byte, minWidth, minHeight int) (image.Image, error) {
	if minWidth <= 0 {
		minWidth = MinImageWidth
	}
	if minHeight <= 0 {
		minHeight = MinImageHeight
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() < minWidth || b.Dy() < minHeight {
		return nil, fmt.Errorf("%w: got %dx%d, need %dx%d",
			ErrImageTooSmall, b.Dx(), b.Dy(), minWidth, minHeight)
	}
	return img, nil
}

// RenderVariant center-crops and scales the source to the variant's exact
// dimensions and encodes it as JPEG.
func RenderVariant(src image.Image, v Variant) ([]byte, error) {
	out := imaging.Fill(src, v.Width, v.Height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode %s variant: %w", v.Name, err)
	}
	return buf.Bytes(), nil
}
