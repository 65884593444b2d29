package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	tuitheme "github.com/glabrego/yomu-cli/internal/tui/theme"
)

const logo = `__   _____  __  __ _   _
\ \ / / _ \|  \/  | | | |
 \ V / | | | |\/| | | | |
  | || |_| | |  | | |_| |
  |_| \___/|_|  |_|\___/`

var splashBoxes = []struct {
	title string
	lines []string
}{
	{"Directions", []string{
		"enter   select / read",
		"b       back",
		"→ / ←   next / prev spread",
		"a       ascii rendering",
		"esc     quit",
	}},
	{"Reading", []string{
		"MangaDex catalog",
		"two-page spreads",
		"pages prefetched ahead",
		"kitty, sixel, blocks",
	}},
	{"Limits", []string{
		"API rate limits apply",
		"needs network access",
		"graphics need support",
		"encoding is CPU-bound",
	}},
}

// Splash is the start screen centered in a width x height area.
func Splash(width, height int, th tuitheme.Theme) string {
	boxes := make([]string, 0, len(splashBoxes))
	for _, b := range splashBoxes {
		body := th.Section.Render(b.title) + "\n\n" + strings.Join(b.lines, "\n")
		boxes = append(boxes, th.Splash.Render(body))
	}
	content := lipgloss.JoinVertical(lipgloss.Center,
		th.Title.Render(logo),
		"",
		th.Muted.Render("A manga reader for your terminal"),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, boxes...),
		"",
		th.Prompt.Render("Press any key to start searching"),
	)
	if width <= 0 || height <= 0 {
		return content
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
