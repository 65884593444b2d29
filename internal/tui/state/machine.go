package state

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glabrego/yomu-cli/internal/mangadex"
	"github.com/glabrego/yomu-cli/internal/reader"
)

// ErrState marks a navigation that cannot be carried out, such as opening a
// chapter without pages.
var ErrState = errors.New("invalid navigation")

type Screen int

const (
	ScreenSplash Screen = iota
	ScreenSearch
	ScreenChapters
	ScreenReading
)

func (s Screen) String() string {
	switch s {
	case ScreenSearch:
		return "search"
	case ScreenChapters:
		return "chapters"
	case ScreenReading:
		return "reading"
	default:
		return "splash"
	}
}

type Key int

const (
	KeyNone Key = iota
	KeyRune
	KeyBackspace
	KeyUp
	KeyDown
	KeyPageUp
	KeyPageDown
	KeyEnter
	KeyBack
	KeyAdvance
	KeyRetreat
	KeyFirst
	KeyLast
	KeyReload
)

// Input is a key press already translated for the current screen.
type Input struct {
	Key  Key
	Rune rune
}

func Rune(r rune) Input { return Input{Key: KeyRune, Rune: r} }

func Press(k Key) Input { return Input{Key: k} }

// Remote is the catalog the machine navigates.
type Remote interface {
	Search(ctx context.Context, query string) ([]mangadex.Title, error)
	ListChapters(ctx context.Context, titleID string) ([]mangadex.Chapter, error)
	OpenChapter(ctx context.Context, chapterID string) ([]string, error)
}

// Pipeline is the page prefetcher driven while reading.
type Pipeline interface {
	Load(urls []string)
	EnsureSpread(current int)
}

type RequestKind int

const (
	RequestSearch RequestKind = iota
	RequestChapters
	RequestOpen
)

func (k RequestKind) String() string {
	switch k {
	case RequestSearch:
		return "search"
	case RequestChapters:
		return "chapters"
	case RequestOpen:
		return "open"
	default:
		return fmt.Sprintf("RequestKind(%d)", int(k))
	}
}

// Request is remote work a transition depends on. The transition only
// happens once its Result is applied.
type Request struct {
	Seq     int
	Kind    RequestKind
	Query   string
	Title   mangadex.Title
	Chapter mangadex.Chapter
	// Spread restores the reading position when a chapter is reopened.
	Spread int
}

type Result struct {
	Request  Request
	Titles   []mangadex.Title
	Chapters []mangadex.Chapter
	Pages    []string
	Err      error
}

// Run performs the request against remote.
func (r Request) Run(ctx context.Context, remote Remote) Result {
	res := Result{Request: r}
	switch r.Kind {
	case RequestSearch:
		res.Titles, res.Err = remote.Search(ctx, r.Query)
	case RequestChapters:
		res.Chapters, res.Err = remote.ListChapters(ctx, r.Title.ID)
	case RequestOpen:
		res.Pages, res.Err = remote.OpenChapter(ctx, r.Chapter.ID)
	}
	return res
}

// Machine is the screen and selection state of the reader. It is not safe
// for concurrent use.
type Machine struct {
	Screen Screen

	Query        string
	lastQuery    string
	Results      []mangadex.Title
	ResultCursor int

	Title         mangadex.Title
	Chapters      []mangadex.Chapter
	ChapterCursor int

	Chapter mangadex.Chapter
	Pages   []string
	Current int

	// ListHeight sizes PageUp/PageDown jumps.
	ListHeight int
	Status     string
	Err        error

	remote   Remote
	pipeline Pipeline
	seq      int
	pending  *Request
}

func NewMachine(remote Remote, pipeline Pipeline) *Machine {
	return &Machine{remote: remote, pipeline: pipeline}
}

// Handle applies one input, performing any remote call synchronously. A
// failed call leaves the machine where it was and is returned.
func (m *Machine) Handle(ctx context.Context, in Input) error {
	req := m.Step(in)
	if req == nil {
		return nil
	}
	return m.Apply(req.Run(ctx, m.remote))
}

// Busy reports whether a request issued by Step has not been applied yet.
func (m *Machine) Busy() bool {
	return m.pending != nil
}

func (m *Machine) Pending() (Request, bool) {
	if m.pending == nil {
		return Request{}, false
	}
	return *m.pending, true
}

// Step applies the local part of a transition. When remote work is needed
// it returns the request to run and Apply completes the transition. While a
// request is outstanding only KeyBack is accepted, and it abandons the
// request.
func (m *Machine) Step(in Input) *Request {
	if m.pending != nil {
		if in.Key != KeyBack {
			return nil
		}
		m.pending = nil
		m.Status = ""
	}

	switch m.Screen {
	case ScreenSplash:
		m.Screen = ScreenSearch
		return nil
	case ScreenSearch:
		return m.stepSearch(in)
	case ScreenChapters:
		return m.stepChapters(in)
	case ScreenReading:
		return m.stepReading(in)
	}
	return nil
}

func (m *Machine) stepSearch(in Input) *Request {
	switch in.Key {
	case KeyRune:
		m.Query += string(in.Rune)
	case KeyBackspace:
		if r := []rune(m.Query); len(r) > 0 {
			m.Query = string(r[:len(r)-1])
		}
	case KeyUp:
		m.ResultCursor = ClampCursor(m.ResultCursor-1, len(m.Results))
	case KeyDown:
		m.ResultCursor = ClampCursor(m.ResultCursor+1, len(m.Results))
	case KeyPageUp:
		m.ResultCursor = ClampCursor(m.ResultCursor-PageStep(m.ListHeight, true), len(m.Results))
	case KeyPageDown:
		m.ResultCursor = ClampCursor(m.ResultCursor+PageStep(m.ListHeight, true), len(m.Results))
	case KeyEnter:
		query := strings.TrimSpace(m.Query)
		if query == "" {
			return nil
		}
		if query != m.lastQuery {
			return m.issue(Request{Kind: RequestSearch, Query: query}, fmt.Sprintf("Searching %q...", query))
		}
		if len(m.Results) == 0 {
			return nil
		}
		title := m.Results[ClampCursor(m.ResultCursor, len(m.Results))]
		return m.issue(Request{Kind: RequestChapters, Title: title}, "Loading chapters...")
	}
	return nil
}

func (m *Machine) stepChapters(in Input) *Request {
	switch in.Key {
	case KeyUp:
		m.ChapterCursor = ClampCursor(m.ChapterCursor-1, len(m.Chapters))
	case KeyDown:
		m.ChapterCursor = ClampCursor(m.ChapterCursor+1, len(m.Chapters))
	case KeyPageUp:
		m.ChapterCursor = ClampCursor(m.ChapterCursor-PageStep(m.ListHeight, true), len(m.Chapters))
	case KeyPageDown:
		m.ChapterCursor = ClampCursor(m.ChapterCursor+PageStep(m.ListHeight, true), len(m.Chapters))
	case KeyFirst:
		m.ChapterCursor = 0
	case KeyLast:
		m.ChapterCursor = ClampCursor(len(m.Chapters)-1, len(m.Chapters))
	case KeyBack:
		m.Screen = ScreenSearch
		m.Err = nil
	case KeyEnter:
		if len(m.Chapters) == 0 {
			return nil
		}
		chapter := m.Chapters[ClampCursor(m.ChapterCursor, len(m.Chapters))]
		return m.issue(Request{Kind: RequestOpen, Chapter: chapter}, "Opening chapter...")
	}
	return nil
}

func (m *Machine) stepReading(in Input) *Request {
	n := len(m.Pages)
	switch in.Key {
	case KeyBack:
		m.Screen = ScreenChapters
		m.Err = nil
	case KeyAdvance:
		if m.Current+2 < n {
			m.goTo(m.Current + 2)
		}
	case KeyRetreat:
		if m.Current >= 2 {
			m.goTo(m.Current - 2)
		}
	case KeyFirst:
		if m.Current != 0 {
			m.goTo(0)
		}
	case KeyLast:
		if last := reader.ClampSpread(n-1, n); last != m.Current {
			m.goTo(last)
		}
	case KeyReload:
		return m.issue(Request{Kind: RequestOpen, Chapter: m.Chapter, Spread: m.Current}, "Reopening chapter...")
	}
	return nil
}

func (m *Machine) goTo(spread int) {
	m.Current = spread
	if m.pipeline != nil {
		m.pipeline.EnsureSpread(m.Current)
	}
}

func (m *Machine) issue(req Request, status string) *Request {
	m.seq++
	req.Seq = m.seq
	m.pending = &req
	m.Err = nil
	m.Status = status
	return &req
}

// Apply completes the transition started by the request res answers.
// Results of abandoned requests are ignored.
func (m *Machine) Apply(res Result) error {
	if m.pending == nil || res.Request.Seq != m.pending.Seq {
		return nil
	}
	m.pending = nil
	m.Status = ""
	if res.Err != nil {
		m.Err = res.Err
		return res.Err
	}

	req := res.Request
	switch req.Kind {
	case RequestSearch:
		m.Results = res.Titles
		m.ResultCursor = 0
		m.lastQuery = req.Query
		if len(res.Titles) == 0 {
			m.Status = fmt.Sprintf("No results for %q", req.Query)
		} else {
			m.Status = fmt.Sprintf("%d results", len(res.Titles))
		}
	case RequestChapters:
		if len(res.Chapters) == 0 {
			m.Err = fmt.Errorf("%w: %s has no readable chapters", ErrState, req.Title.Name)
			return m.Err
		}
		m.Title = req.Title
		m.Chapters = res.Chapters
		m.ChapterCursor = 0
		m.Screen = ScreenChapters
	case RequestOpen:
		if len(res.Pages) == 0 {
			m.Err = fmt.Errorf("%w: chapter has no pages", ErrState)
			return m.Err
		}
		m.Chapter = req.Chapter
		m.Pages = res.Pages
		m.Current = reader.ClampSpread(req.Spread, len(res.Pages))
		if m.pipeline != nil {
			m.pipeline.Load(res.Pages)
			m.pipeline.EnsureSpread(m.Current)
		}
		m.Screen = ScreenReading
	}
	return nil
}

// PageCount is the number of pages in the open chapter.
func (m *Machine) PageCount() int {
	return len(m.Pages)
}
