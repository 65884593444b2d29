package termimage

import "github.com/blacktop/go-termimg"

// CellSize is the pixel size of one terminal cell.
type CellSize struct {
	Width  int
	Height int
}

// DefaultCell is used when the terminal reports nothing useful.
var DefaultCell = CellSize{Width: 8, Height: 16}

func (c CellSize) Valid() bool {
	return c.Width > 0 && c.Height > 0
}

// DetectCellSize asks the tty for its pixel geometry, then the terminal's
// font metrics, and falls back to DefaultCell. Call it before the UI takes
// over the terminal's input.
func DetectCellSize() CellSize {
	if c := winsizeCell(); c.Valid() {
		return c
	}
	if f := termimg.QueryTerminalFeatures(); f != nil && f.FontWidth > 0 && f.FontHeight > 0 {
		return CellSize{Width: f.FontWidth, Height: f.FontHeight}
	}
	return DefaultCell
}
