package reader

import "fmt"

// Side identifies one of the two panels of a spread.
type Side int

const (
	SideRight Side = iota
	SideLeft
)

var sides = [...]Side{SideRight, SideLeft}

func (s Side) String() string {
	if s == SideLeft {
		return "left"
	}
	return "right"
}

// Rect is a panel area in terminal cells.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// SameSize reports whether both rects have equal dimensions. Position is
// ignored: a protocol only depends on the size it was encoded for.
func (r Rect) SameSize(o Rect) bool {
	return r.Width == o.Width && r.Height == o.Height
}

// Direction is the reading direction of a chapter.
type Direction int

const (
	RightToLeft Direction = iota
	LeftToRight
)

func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "rtl":
		return RightToLeft, nil
	case "ltr":
		return LeftToRight, nil
	default:
		return RightToLeft, fmt.Errorf("direction must be rtl or ltr: %s", s)
	}
}

func (d Direction) String() string {
	if d == LeftToRight {
		return "ltr"
	}
	return "rtl"
}

// PrimarySide is the panel that shows the current page of a spread.
func (d Direction) PrimarySide() Side {
	if d == LeftToRight {
		return SideLeft
	}
	return SideRight
}

// SecondarySide is the panel that shows current+1.
func (d Direction) SecondarySide() Side {
	if d == LeftToRight {
		return SideRight
	}
	return SideLeft
}

// PageAt returns the page shown on side for the spread starting at current.
func (d Direction) PageAt(side Side, current int) int {
	if side == d.PrimarySide() {
		return current
	}
	return current + 1
}

// InterestedSides returns the panels on which page will be drawn either on
// the spread starting at current or on the one right after it. Pages outside
// that window return nil.
func InterestedSides(page, current int, dir Direction) []Side {
	switch page - current {
	case 0, 2:
		return []Side{dir.PrimarySide()}
	case 1, 3:
		return []Side{dir.SecondarySide()}
	default:
		return nil
	}
}

// ClampSpread snaps current onto an even spread start inside [0, pageCount).
func ClampSpread(current, pageCount int) int {
	if pageCount <= 0 || current < 0 {
		return 0
	}
	if current >= pageCount {
		current = pageCount - 1
	}
	return current - current%2
}
