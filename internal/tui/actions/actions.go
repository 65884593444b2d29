package actions

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/yomu-cli/internal/tui/state"
)

// RequestTimeout bounds one catalog call, retries included.
const RequestTimeout = 30 * time.Second

type RequestResultMsg struct {
	Result   state.Result
	Duration time.Duration
}

// FrameMsg asks the model to drain finished pipeline work and redraw.
type FrameMsg struct{}

type ClearStatusMsg struct {
	ID int
}

type OpenURLSuccessMsg struct {
	Status string
	Opened bool
}

type OpenURLErrorMsg struct {
	Err error
}

type GraphicsErrorMsg struct {
	Err error
}

func RunRequestCmd(remote state.Remote, req state.Request) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()
		start := time.Now()

		res := req.Run(ctx, remote)
		return RequestResultMsg{Result: res, Duration: time.Since(start)}
	}
}

func FrameCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return FrameMsg{}
	})
}

func ClearStatusCmd(id int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return ClearStatusMsg{ID: id}
	})
}

// DrawGraphicsCmd writes positioned graphics sequences straight to the
// terminal, outside the text frame, once the frame has had settle to paint.
func DrawGraphicsCmd(w io.Writer, seq string, settle time.Duration) tea.Cmd {
	if w == nil || seq == "" {
		return nil
	}
	return tea.Tick(settle, func(time.Time) tea.Msg {
		if _, err := io.WriteString(w, seq); err != nil {
			return GraphicsErrorMsg{Err: fmt.Errorf("draw graphics: %w", err)}
		}
		return nil
	})
}

func OpenURLCmd(url string, openFn, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if openFn != nil {
			if err := openFn(url); err == nil {
				return OpenURLSuccessMsg{Status: "Opened chapter in browser", Opened: true}
			}
		}
		if copyFn != nil {
			if err := copyFn(url); err == nil {
				return OpenURLSuccessMsg{Status: "Could not open browser, URL copied to clipboard"}
			}
		}
		return OpenURLErrorMsg{Err: fmt.Errorf("could not open URL or copy to clipboard")}
	}
}

func CopyURLCmd(url string, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if copyFn != nil {
			if err := copyFn(url); err == nil {
				return OpenURLSuccessMsg{Status: "URL copied to clipboard"}
			}
		}
		return OpenURLErrorMsg{Err: fmt.Errorf("could not copy URL to clipboard")}
	}
}
