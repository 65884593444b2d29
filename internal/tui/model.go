package tui

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/glabrego/yomu-cli/internal/reader"
	"github.com/glabrego/yomu-cli/internal/termimage"
	"github.com/glabrego/yomu-cli/internal/tui/actions"
	"github.com/glabrego/yomu-cli/internal/tui/platform"
	"github.com/glabrego/yomu-cli/internal/tui/state"
	tuitheme "github.com/glabrego/yomu-cli/internal/tui/theme"
	"github.com/glabrego/yomu-cli/internal/tui/view"
)

const (
	headerRows           = 1
	footerRows           = 2
	defaultFrameInterval = 33 * time.Millisecond
	statusTTL            = 4 * time.Second
)

// Service is the catalog the reader browses.
type Service interface {
	state.Remote
	ChapterWebURL(chapterID string) string
}

type Options struct {
	// Builder is the encoder the coordinator was created with. ASCIIBuilder
	// replaces it while ASCII rendering is toggled on.
	Builder       reader.ProtocolBuilder
	ASCIIBuilder  reader.ProtocolBuilder
	Renderer      string
	FrameInterval time.Duration
	OpenURL       func(string) error
	CopyURL       func(string) error
	// Graphics receives kitty and sixel sequences, which are drawn outside
	// the text frame. Nil disables graphics output.
	Graphics io.Writer
	Logger   *slog.Logger
}

type Model struct {
	service Service
	machine *state.Machine
	reader  *reader.Coordinator

	primary   reader.ProtocolBuilder
	ascii     reader.ProtocolBuilder
	renderer  string
	asciiMode bool

	frameInterval time.Duration
	ticking       bool

	graphics   io.Writer
	drawn      string
	kittyShown bool

	keys     keyMap
	help     help.Model
	showHelp bool
	spinner  spinner.Model
	theme    tuitheme.Theme

	openURLFn func(string) error
	copyURLFn func(string) error

	status   string
	statusID int
	err      error

	width  int
	height int

	log *slog.Logger
}

func NewModel(service Service, pipeline *reader.Coordinator, opts Options) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	interval := opts.FrameInterval
	if interval <= 0 {
		interval = defaultFrameInterval
	}
	ascii := opts.ASCIIBuilder
	if ascii == nil {
		ascii = termimage.ASCIIBuilder{}
	}
	renderer := opts.Renderer
	if renderer == "" {
		renderer = "default"
	}
	openFn := opts.OpenURL
	if openFn == nil {
		openFn = platform.OpenURLInBrowser
	}
	copyFn := opts.CopyURL
	if copyFn == nil {
		copyFn = platform.CopyURLToClipboard
	}

	return Model{
		service:       service,
		machine:       state.NewMachine(service, pipeline),
		reader:        pipeline,
		primary:       opts.Builder,
		ascii:         ascii,
		renderer:      renderer,
		frameInterval: interval,
		graphics:      opts.Graphics,
		keys:          defaultKeyMap(),
		help:          help.New(),
		spinner:       spin,
		theme:         tuitheme.Default(),
		openURLFn:     openFn,
		copyURLFn:     copyFn,
		log:           logger,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle("yomu")
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.layout()
		m.drawn = ""
		if m.machine.Screen == state.ScreenReading {
			m.reader.EnsureSpread(m.machine.Current)
		}
		cmd := m.afterPipelineChange()
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	case actions.RequestResultMsg:
		req := msg.Result.Request
		if err := m.machine.Apply(msg.Result); err != nil {
			m.log.Warn("request failed", "kind", req.Kind, "seq", req.Seq, "err", err)
		} else {
			m.log.Debug("request applied", "kind", req.Kind, "seq", req.Seq, "duration", msg.Duration)
		}
		cmd := m.afterPipelineChange()
		return m, cmd
	case actions.FrameMsg:
		m.ticking = false
		m.reader.Drain()
		cmd := m.afterPipelineChange()
		return m, cmd
	case spinner.TickMsg:
		if !m.machine.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case actions.ClearStatusMsg:
		if msg.ID == m.statusID {
			m.status = ""
		}
		return m, nil
	case actions.OpenURLSuccessMsg:
		cmd := m.flash(msg.Status)
		return m, cmd
	case actions.OpenURLErrorMsg:
		m.status = ""
		m.err = msg.Err
		return m, nil
	case actions.GraphicsErrorMsg:
		m.log.Warn("graphics output failed", "err", msg.Err)
		m.err = msg.Err
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		if m.kittyShown {
			return m, tea.Sequence(actions.DrawGraphicsCmd(m.graphics, view.ClearKittyGraphicsSequence(), 0), tea.Quit)
		}
		return m, tea.Quit
	}

	screen := m.machine.Screen
	if screen == state.ScreenChapters || screen == state.ScreenReading {
		if key.Matches(msg, m.keys.Help) {
			m.showHelp = !m.showHelp
			cmd := m.drawGraphics()
			return m, cmd
		}
	}
	if screen == state.ScreenReading && !m.machine.Busy() {
		switch {
		case key.Matches(msg, m.keys.ASCII):
			return m.toggleASCII()
		case key.Matches(msg, m.keys.Open):
			return m.openChapterURL(false)
		case key.Matches(msg, m.keys.Copy):
			return m.openChapterURL(true)
		}
	}

	inputs := m.translate(msg)
	if len(inputs) == 0 {
		return m, nil
	}
	m.err = nil
	m.showHelp = false

	var cmds []tea.Cmd
	for _, in := range inputs {
		req := m.machine.Step(in)
		if req == nil {
			continue
		}
		m.log.Debug("request issued", "kind", req.Kind, "seq", req.Seq)
		cmds = append(cmds, actions.RunRequestCmd(m.service, *req), m.spinner.Tick)
	}
	cmds = append(cmds, m.afterPipelineChange())
	return m, tea.Batch(cmds...)
}

// translate maps a key press to machine inputs for the current screen. A
// paste on the search screen yields one input per rune.
func (m Model) translate(msg tea.KeyMsg) []state.Input {
	if m.machine.Busy() {
		if key.Matches(msg, m.keys.Back) {
			return []state.Input{state.Press(state.KeyBack)}
		}
		return nil
	}

	switch m.machine.Screen {
	case state.ScreenSplash:
		return []state.Input{state.Press(state.KeyNone)}
	case state.ScreenSearch:
		switch msg.Type {
		case tea.KeyRunes:
			inputs := make([]state.Input, 0, len(msg.Runes))
			for _, r := range msg.Runes {
				inputs = append(inputs, state.Rune(r))
			}
			return inputs
		case tea.KeySpace:
			return []state.Input{state.Rune(' ')}
		case tea.KeyBackspace:
			return []state.Input{state.Press(state.KeyBackspace)}
		case tea.KeyUp:
			return []state.Input{state.Press(state.KeyUp)}
		case tea.KeyDown:
			return []state.Input{state.Press(state.KeyDown)}
		case tea.KeyPgUp:
			return []state.Input{state.Press(state.KeyPageUp)}
		case tea.KeyPgDown:
			return []state.Input{state.Press(state.KeyPageDown)}
		case tea.KeyEnter:
			return []state.Input{state.Press(state.KeyEnter)}
		}
	case state.ScreenChapters:
		switch {
		case key.Matches(msg, m.keys.Up):
			return []state.Input{state.Press(state.KeyUp)}
		case key.Matches(msg, m.keys.Down):
			return []state.Input{state.Press(state.KeyDown)}
		case key.Matches(msg, m.keys.PageUp):
			return []state.Input{state.Press(state.KeyPageUp)}
		case key.Matches(msg, m.keys.PageDown):
			return []state.Input{state.Press(state.KeyPageDown)}
		case key.Matches(msg, m.keys.First):
			return []state.Input{state.Press(state.KeyFirst)}
		case key.Matches(msg, m.keys.Last):
			return []state.Input{state.Press(state.KeyLast)}
		case key.Matches(msg, m.keys.Enter):
			return []state.Input{state.Press(state.KeyEnter)}
		case key.Matches(msg, m.keys.Back):
			return []state.Input{state.Press(state.KeyBack)}
		}
	case state.ScreenReading:
		switch {
		case key.Matches(msg, m.keys.Next):
			return []state.Input{state.Press(state.KeyAdvance)}
		case key.Matches(msg, m.keys.Prev):
			return []state.Input{state.Press(state.KeyRetreat)}
		case key.Matches(msg, m.keys.First):
			return []state.Input{state.Press(state.KeyFirst)}
		case key.Matches(msg, m.keys.Last):
			return []state.Input{state.Press(state.KeyLast)}
		case key.Matches(msg, m.keys.Reload):
			return []state.Input{state.Press(state.KeyReload)}
		case key.Matches(msg, m.keys.Back):
			return []state.Input{state.Press(state.KeyBack)}
		}
	}
	return nil
}

func (m Model) toggleASCII() (tea.Model, tea.Cmd) {
	if m.primary == nil {
		cmd := m.flash("ASCII rendering cannot be toggled")
		return m, cmd
	}
	m.asciiMode = !m.asciiMode
	builder, status := m.primary, "Rendering with "+m.renderer
	if m.asciiMode {
		builder, status = m.ascii, "Rendering as ASCII"
	}
	m.reader.SetBuilder(builder)
	m.reader.EnsureSpread(m.machine.Current)
	m.log.Debug("builder switched", "ascii", m.asciiMode)
	cmd := tea.Batch(m.flash(status), m.afterPipelineChange())
	return m, cmd
}

func (m Model) openChapterURL(copyOnly bool) (tea.Model, tea.Cmd) {
	validURL, err := platform.ValidateWebURL(m.service.ChapterWebURL(m.machine.Chapter.ID))
	if err != nil {
		cmd := m.flash(err.Error())
		return m, cmd
	}
	if copyOnly {
		return m, actions.CopyURLCmd(validURL, m.copyURLFn)
	}
	return m, actions.OpenURLCmd(validURL, m.openURLFn, m.copyURLFn)
}

func (m *Model) flash(status string) tea.Cmd {
	m.err = nil
	m.status = status
	m.statusID++
	return actions.ClearStatusCmd(m.statusID, statusTTL)
}

// layout hands the coordinator the two page panels between the header and
// the status lines.
func (m *Model) layout() {
	bodyH := m.bodyHeight()
	half := m.width / 2
	m.reader.SetPanel(reader.SideLeft, reader.Rect{X: 0, Y: headerRows, Width: half, Height: bodyH})
	m.reader.SetPanel(reader.SideRight, reader.Rect{X: half, Y: headerRows, Width: m.width - half, Height: bodyH})
	m.machine.ListHeight = m.height
}

func (m Model) bodyHeight() int {
	h := m.height - headerRows - footerRows
	if h < 1 {
		return 1
	}
	return h
}

func (m *Model) afterPipelineChange() tea.Cmd {
	return tea.Batch(m.ensureTicking(), m.drawGraphics())
}

// ensureTicking schedules a frame while the coordinator has work in
// flight. The loop stops by itself once everything is drained.
func (m *Model) ensureTicking() tea.Cmd {
	if m.ticking || !m.reader.Pending() {
		return nil
	}
	m.ticking = true
	return actions.FrameCmd(m.frameInterval)
}

// drawGraphics emits the visible kitty or sixel pages when they differ
// from what was last drawn. Kitty placements from the previous spread are
// deleted first.
func (m *Model) drawGraphics() tea.Cmd {
	if m.graphics == nil {
		return nil
	}
	var sig, seq strings.Builder
	kitty := false
	if m.machine.Screen == state.ScreenReading && !m.showHelp {
		fmt.Fprintf(&sig, "%d:%d", m.reader.Epoch(), m.machine.Current)
		for _, side := range []reader.Side{reader.SideLeft, reader.SideRight} {
			p, rect, ok := m.visibleProtocol(side)
			if !ok {
				continue
			}
			out := p.Render()
			if !view.IsGraphics(out) {
				continue
			}
			cols, rows := p.Size()
			fmt.Fprintf(&sig, "|%s:%dx%d@%d,%d", side, cols, rows, rect.X, rect.Y)
			seq.WriteString(view.GraphicsAt(rect.X+view.SpineOffset(side, rect.Width, cols), rect.Y, out))
			kitty = kitty || view.ContainsKittyGraphicsEscape(out)
		}
	}
	if sig.String() == m.drawn {
		return nil
	}
	m.drawn = sig.String()

	out := seq.String()
	if m.kittyShown {
		out = view.ClearKittyGraphicsSequence() + out
	}
	m.kittyShown = kitty
	return actions.DrawGraphicsCmd(m.graphics, out, m.frameInterval)
}

func (m Model) visibleProtocol(side reader.Side) (reader.Protocol, reader.Rect, bool) {
	page, ok := m.reader.Visible(side)
	if !ok {
		return nil, reader.Rect{}, false
	}
	rect := m.reader.Panel(side)
	p, ok := m.reader.Protocols().Usable(reader.ProtocolKey{Page: page, Side: side}, rect)
	return p, rect, ok
}

func (m Model) View() string {
	if m.machine.Screen == state.ScreenSplash {
		return view.Splash(m.width, m.height, m.theme)
	}

	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(m.body())
	b.WriteString("\n")
	b.WriteString(m.messageLine())
	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

func (m Model) header() string {
	th := m.theme
	line := th.Title.Render("yomu") + " " +
		th.ModePill.Render(m.machine.Screen.String()) + " " +
		th.MetaLabel.Render(view.Toolbar(m.machine.Screen))
	if m.width > 0 {
		line = view.Truncate(line, m.width)
	}
	return line
}

func (m Model) body() string {
	h := m.bodyHeight()
	var content string
	switch {
	case m.showHelp:
		content = m.help.FullHelpView(m.keys.FullHelp())
	case m.machine.Screen == state.ScreenSearch:
		content = m.searchView(h)
	case m.machine.Screen == state.ScreenChapters:
		content = m.chaptersView(h)
	case m.machine.Screen == state.ScreenReading:
		return lipgloss.JoinHorizontal(lipgloss.Top, m.renderPanel(reader.SideLeft), m.renderPanel(reader.SideRight))
	}
	if m.width <= 0 {
		return content
	}
	return lipgloss.Place(m.width, h, lipgloss.Left, lipgloss.Top, content)
}

func (m Model) searchView(height int) string {
	th := m.theme
	lines := []string{th.Prompt.Render("Search: ") + m.machine.Query + "█", ""}
	results := m.machine.Results
	if len(results) == 0 {
		lines = append(lines, th.Muted.Render("Type a title and press enter"))
		return strings.Join(lines, "\n")
	}
	start, end := state.CenteredWindow(len(results), m.machine.ResultCursor, height-len(lines))
	for i := start; i < end; i++ {
		lines = append(lines, view.RenderTitleLine(results[i], m.listWidth(), i == m.machine.ResultCursor, th))
	}
	return strings.Join(lines, "\n")
}

func (m Model) chaptersView(height int) string {
	th := m.theme
	lines := []string{th.Section.Render("Chapters for: " + m.machine.Title.Name), ""}
	chapters := m.machine.Chapters
	start, end := state.CenteredWindow(len(chapters), m.machine.ChapterCursor, height-len(lines))
	for i := start; i < end; i++ {
		lines = append(lines, view.RenderChapterLine(chapters[i], m.listWidth(), i == m.machine.ChapterCursor, th))
	}
	return strings.Join(lines, "\n")
}

func (m Model) listWidth() int {
	if m.width <= 0 {
		return 80
	}
	return m.width
}

// renderPanel draws one side of the spread: the page's text protocol, a
// blank area for graphics drawn out of band, or a placeholder.
func (m Model) renderPanel(side reader.Side) string {
	rect := m.reader.Panel(side)
	if rect.Empty() {
		return ""
	}
	page, ok := m.reader.Visible(side)
	if !ok {
		return view.Blank(rect.Width, rect.Height)
	}
	if p, _, ok := m.visibleProtocol(side); ok {
		out := p.Render()
		if view.IsGraphics(out) {
			return view.Blank(rect.Width, rect.Height)
		}
		return view.Panel(out, rect.Width, rect.Height, side)
	}
	switch m.reader.PageStatus(page) {
	case reader.PageFailed:
		return view.Placeholder("✗ page failed", rect.Width, rect.Height, m.theme.Failure)
	case reader.PageReady:
		return view.Placeholder("Rendering…", rect.Width, rect.Height, m.theme.Placeholder)
	default:
		return view.Placeholder("Loading…", rect.Width, rect.Height, m.theme.Placeholder)
	}
}

func (m Model) messageLine() string {
	status := m.status
	if status == "" {
		status = m.machine.Status
	}
	err := m.err
	if err == nil {
		err = m.machine.Err
	}
	line := view.Message(m.machine.Busy(), status, err, m.spinner.View(), m.theme)
	if m.width > 0 {
		line = view.Truncate(line, m.width)
	}
	return line
}

func (m Model) footer() string {
	renderer := m.renderer
	if m.asciiMode {
		renderer = "ascii"
	}
	line := view.Footer(view.FooterParams{
		Screen:    m.machine.Screen,
		Title:     m.machine.Title.Name,
		Chapter:   m.machine.Chapter.Label(),
		Current:   m.machine.Current,
		PageCount: m.machine.PageCount(),
		Direction: m.reader.Direction().String(),
		Renderer:  renderer,
		Cached:    m.reader.Pages().Len(),
		InFlight:  m.reader.InFlight(),
	}, m.theme)
	if m.width > 0 {
		line = view.Truncate(line, m.width)
	}
	return line
}
