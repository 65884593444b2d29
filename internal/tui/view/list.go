package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/glabrego/yomu-cli/internal/mangadex"
	tuitheme "github.com/glabrego/yomu-cli/internal/tui/theme"
)

// RenderLine draws one list row: a cursor marker, a left label truncated to
// fit, and a right-aligned detail.
func RenderLine(label, detail string, width int, active bool, th tuitheme.Theme) string {
	marker := "  "
	if active {
		marker = "> "
	}
	right := ""
	if detail != "" {
		right = th.MetaValue.Render(detail)
	}
	available := width - ansi.StringWidth(marker) - ansi.StringWidth(right) - 1
	if available < 1 {
		available = 1
	}
	label = Truncate(label, available)
	gap := width - ansi.StringWidth(marker) - ansi.StringWidth(label) - ansi.StringWidth(right)
	if gap < 1 {
		gap = 1
	}
	if right == "" {
		gap = 0
	}
	return th.RenderActiveLine(active, marker+label+strings.Repeat(" ", gap)+right)
}

func RenderTitleLine(title mangadex.Title, width int, active bool, th tuitheme.Theme) string {
	return RenderLine(strings.TrimSpace(title.Name), TitleDetail(title), width, active, th)
}

func RenderChapterLine(chapter mangadex.Chapter, width int, active bool, th tuitheme.Theme) string {
	return RenderLine(chapter.Label(), chapter.Language, width, active, th)
}

// TitleDetail summarises year, status and demographic, skipping unknowns.
func TitleDetail(title mangadex.Title) string {
	var parts []string
	if title.Year > 0 {
		parts = append(parts, fmt.Sprintf("%d", title.Year))
	}
	if title.Status != "" {
		parts = append(parts, title.Status)
	}
	if title.Demographic != "" {
		parts = append(parts, title.Demographic)
	}
	return strings.Join(parts, " · ")
}

// Truncate shortens s to maxWidth terminal cells, ending with "...".
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if ansi.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return strings.Repeat(".", maxWidth)
	}
	return ansi.Truncate(s, maxWidth, "...")
}
