package view

import (
	"fmt"
	"strings"

	"github.com/glabrego/yomu-cli/internal/tui/state"
	tuitheme "github.com/glabrego/yomu-cli/internal/tui/theme"
)

func Toolbar(screen state.Screen) string {
	switch screen {
	case state.ScreenSearch:
		return "type to search | enter search/open | up/down move | pgup/pgdown jump | esc quit"
	case state.ScreenChapters:
		return "up/down move | g/G top/bottom | enter read | b back | esc quit"
	case state.ScreenReading:
		return "l/→ next | h/← prev | g/G first/last | a ascii | r reload | o open | y copy | b back | esc quit"
	default:
		return "any key: start | esc quit"
	}
}

type FooterParams struct {
	Screen    state.Screen
	Title     string
	Chapter   string
	Current   int
	PageCount int
	Direction string
	Renderer  string
	Cached    int
	InFlight  int
}

func Footer(p FooterParams, th tuitheme.Theme) string {
	parts := []string{
		th.MetaLabel.Render("mode") + " " + th.MetaValue.Render(p.Screen.String()),
	}
	if p.Title != "" {
		parts = append(parts, th.MetaValue.Render(p.Title))
	}
	if p.Screen != state.ScreenReading {
		return strings.Join(parts, " • ")
	}
	if p.Chapter != "" {
		parts = append(parts, th.MetaValue.Render(p.Chapter))
	}
	parts = append(parts,
		th.PageCount.Render(SpreadLabel(p.Current, p.PageCount)),
		th.MetaLabel.Render("dir")+" "+th.MetaValue.Render(p.Direction),
		th.MetaLabel.Render("render")+" "+th.MetaValue.Render(p.Renderer),
		th.MetaLabel.Render("cache")+" "+th.MetaValue.Render(fmt.Sprintf("%d", p.Cached)),
	)
	if p.InFlight > 0 {
		parts = append(parts, th.MetaLabel.Render("fetching")+" "+th.MetaValue.Render(fmt.Sprintf("%d", p.InFlight)))
	}
	return strings.Join(parts, " • ")
}

// SpreadLabel names the pages on screen, 1-based: "pages 3-4/20", or
// "page 20/20" when the spread holds a single page.
func SpreadLabel(current, pageCount int) string {
	if pageCount <= 0 {
		return "no pages"
	}
	if current+1 >= pageCount {
		return fmt.Sprintf("page %d/%d", current+1, pageCount)
	}
	return fmt.Sprintf("pages %d-%d/%d", current+1, current+2, pageCount)
}

// Message is the status line: a state label followed by the status text,
// or the error when there is no status.
func Message(loading bool, status string, err error, spinner string, th tuitheme.Theme) string {
	st := "idle"
	if loading {
		st = "loading"
	}
	if err != nil {
		st = "warning"
	}
	main := "Ready"
	switch {
	case status != "":
		main = status
	case err != nil:
		main = err.Error()
	}
	label := th.StyleState(st)
	if loading && spinner != "" {
		label = spinner + " " + label
	}
	return fmt.Sprintf("%s | %s", label, th.MetaValue.Render(main))
}
