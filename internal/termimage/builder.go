package termimage

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/blacktop/go-termimg"
	"github.com/disintegration/imaging"
	"github.com/glabrego/yomu-cli/internal/pageimage"
	"github.com/glabrego/yomu-cli/internal/reader"
)

var ErrBuild = errors.New("build terminal image")

// Image is an encoded page ready to be written to the terminal.
type Image struct {
	text string
	cols int
	rows int
}

func (i Image) Render() string {
	return i.text
}

func (i Image) Size() (cols, rows int) {
	return i.cols, i.rows
}

// Builder encodes bitmaps with a terminal graphics protocol.
type Builder struct {
	Protocol termimg.Protocol
	Filter   imaging.ResampleFilter
	Cell     CellSize
}

func NewBuilder(mode Mode, filter imaging.ResampleFilter, cell CellSize) Builder {
	return Builder{Protocol: Resolve(mode), Filter: filter, Cell: cell}
}

// Build scales img to fit area keeping its aspect ratio and encodes it. The
// reported size is the cell box the encoded image covers.
func (b Builder) Build(img image.Image, area reader.Rect) (reader.Protocol, error) {
	if img == nil || area.Empty() {
		return nil, fmt.Errorf("%w: nothing to draw into %dx%d", ErrBuild, area.Width, area.Height)
	}

	cell := b.Cell
	if b.Protocol == termimg.Halfblocks {
		// one column, two pixel rows per cell
		cell = CellSize{Width: 1, Height: 2}
	} else if !cell.Valid() {
		cell = DefaultCell
	}
	filter := b.Filter
	if filter.Kernel == nil {
		filter = imaging.Linear
	}

	fitted := fit(img, area.Width*cell.Width, area.Height*cell.Height, filter)
	cols := ceilDiv(fitted.Bounds().Dx(), cell.Width)
	rows := ceilDiv(fitted.Bounds().Dy(), cell.Height)

	ti := termimg.New(fitted).Width(cols).Height(rows).Protocol(b.Protocol)
	if b.Protocol == termimg.Halfblocks {
		ti = ti.Dither(true).DitherMode(termimg.DitherFloydSteinberg)
	}
	out, err := ti.Render()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBuild, ProtocolName(b.Protocol), err)
	}
	out = strings.TrimLeft(out, "\n")
	if out == "" {
		return nil, fmt.Errorf("%w: %s produced no output", ErrBuild, ProtocolName(b.Protocol))
	}
	return Image{text: out, cols: cols, rows: rows}, nil
}

// ASCIIBuilder draws pages as plain text.
type ASCIIBuilder struct{}

func (ASCIIBuilder) Build(img image.Image, area reader.Rect) (reader.Protocol, error) {
	if img == nil || area.Empty() {
		return nil, fmt.Errorf("%w: nothing to draw into %dx%d", ErrBuild, area.Width, area.Height)
	}
	text := pageimage.ToASCII(img, area.Width, area.Height)
	if text == "" {
		return nil, fmt.Errorf("%w: empty ascii output", ErrBuild)
	}
	lines := strings.Split(text, "\n")
	return Image{text: text, cols: len([]rune(lines[0])), rows: len(lines)}, nil
}

// Fallback tries Secondary when Primary cannot encode a page.
type Fallback struct {
	Primary   reader.ProtocolBuilder
	Secondary reader.ProtocolBuilder
}

func (f Fallback) Build(img image.Image, area reader.Rect) (reader.Protocol, error) {
	p, err := f.Primary.Build(img, area)
	if err == nil || f.Secondary == nil {
		return p, err
	}
	p, err2 := f.Secondary.Build(img, area)
	if err2 != nil {
		return nil, errors.Join(err, err2)
	}
	return p, nil
}

// fit scales img up or down to the largest size inside maxW x maxH.
func fit(img image.Image, maxW, maxH int, filter imaging.ResampleFilter) *image.NRGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return imaging.New(max(1, maxW), max(1, maxH), image.Black)
	}
	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	tw := max(1, min(maxW, int(float64(w)*scale)))
	th := max(1, min(maxH, int(float64(h)*scale)))
	return imaging.Resize(img, tw, th, filter)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
