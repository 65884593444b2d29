package pageimage

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// DefaultMaxPixels is large enough for double-page scans at print resolution.
const DefaultMaxPixels = 64 << 20

var ErrDecode = errors.New("decode page image")

// Decoder turns downloaded page bytes into bitmaps. JPEG, PNG, GIF, BMP,
// TIFF and WebP are understood; EXIF orientation is applied.
type Decoder struct {
	// MaxPixels rejects images whose declared size exceeds it before any
	// pixel memory is allocated. Zero means DefaultMaxPixels.
	MaxPixels int
}

func (d Decoder) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrDecode)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	limit := d.MaxPixels
	if limit <= 0 {
		limit = DefaultMaxPixels
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > limit {
		return nil, fmt.Errorf("%w: %s image is %dx%d, limit is %d pixels", ErrDecode, format, cfg.Width, cfg.Height, limit)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, format, err)
	}
	return img, nil
}
