package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/glabrego/yomu-cli/internal/reader"
)

// Spine returns the horizontal alignment that pushes a page against the
// middle of the spread.
func Spine(side reader.Side) lipgloss.Position {
	if side == reader.SideLeft {
		return lipgloss.Right
	}
	return lipgloss.Left
}

// SpineOffset is the column inside a panel of the given width where a page
// cols wide starts.
func SpineOffset(side reader.Side, width, cols int) int {
	if side != reader.SideLeft || cols >= width {
		return 0
	}
	return width - cols
}

// Panel places text content against the spine of a width x height box.
func Panel(content string, width, height int, side reader.Side) string {
	return lipgloss.Place(width, height, Spine(side), lipgloss.Top, content)
}

func Placeholder(text string, width, height int, style lipgloss.Style) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, style.Render(text))
}

// Blank is a width x height box of spaces.
func Blank(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	line := strings.Repeat(" ", width)
	lines := make([]string, height)
	for i := range lines {
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// IsGraphics reports whether rendered output is a terminal graphics
// sequence (kitty APC or sixel/passthrough DCS) rather than styled text.
func IsGraphics(s string) bool {
	return ContainsKittyGraphicsEscape(s) || strings.Contains(s, "\x1bP")
}

// GraphicsAt draws data with its top-left corner at the zero-based cell
// (x, y) and restores the cursor afterwards.
func GraphicsAt(x, y int, data string) string {
	return fmt.Sprintf("\x1b7\x1b[%d;%dH%s\x1b8", y+1, x+1, data)
}
