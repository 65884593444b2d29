package actions

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glabrego/yomu-cli/internal/mangadex"
	"github.com/glabrego/yomu-cli/internal/tui/state"
)

type fakeRemote struct {
	titles   []mangadex.Title
	chapters []mangadex.Chapter
	pages    []string
	err      error

	lastDeadline time.Time
	lastQuery    string
	lastTitleID  string
	lastChapter  string
}

func (f *fakeRemote) record(ctx context.Context) {
	if dl, ok := ctx.Deadline(); ok {
		f.lastDeadline = dl
	}
}

func (f *fakeRemote) Search(ctx context.Context, query string) ([]mangadex.Title, error) {
	f.record(ctx)
	f.lastQuery = query
	return f.titles, f.err
}

func (f *fakeRemote) ListChapters(ctx context.Context, titleID string) ([]mangadex.Chapter, error) {
	f.record(ctx)
	f.lastTitleID = titleID
	return f.chapters, f.err
}

func (f *fakeRemote) OpenChapter(ctx context.Context, chapterID string) ([]string, error) {
	f.record(ctx)
	f.lastChapter = chapterID
	return f.pages, f.err
}

func TestRunRequestCmd_Search(t *testing.T) {
	remote := &fakeRemote{titles: []mangadex.Title{{ID: "t1", Name: "Dorohedoro"}}}
	req := state.Request{Seq: 3, Kind: state.RequestSearch, Query: "doro"}

	msg := RunRequestCmd(remote, req)()
	res, ok := msg.(RequestResultMsg)
	if !ok {
		t.Fatalf("expected RequestResultMsg, got %T", msg)
	}
	if res.Result.Request.Seq != 3 || len(res.Result.Titles) != 1 {
		t.Fatalf("unexpected result payload: %+v", res.Result)
	}
	if remote.lastQuery != "doro" {
		t.Fatalf("expected query doro, got %q", remote.lastQuery)
	}
	if remote.lastDeadline.IsZero() {
		t.Fatal("expected request context deadline to be set")
	}
}

func TestRunRequestCmd_ChaptersAndOpen(t *testing.T) {
	remote := &fakeRemote{
		chapters: []mangadex.Chapter{{ID: "c1", Pages: 2}},
		pages:    []string{"https://x/1", "https://x/2"},
	}

	msg := RunRequestCmd(remote, state.Request{Kind: state.RequestChapters, Title: mangadex.Title{ID: "t1"}})()
	res := msg.(RequestResultMsg)
	if len(res.Result.Chapters) != 1 || remote.lastTitleID != "t1" {
		t.Fatalf("unexpected chapters result: %+v (title %q)", res.Result, remote.lastTitleID)
	}

	msg = RunRequestCmd(remote, state.Request{Kind: state.RequestOpen, Chapter: mangadex.Chapter{ID: "c1"}})()
	res = msg.(RequestResultMsg)
	if len(res.Result.Pages) != 2 || remote.lastChapter != "c1" {
		t.Fatalf("unexpected open result: %+v (chapter %q)", res.Result, remote.lastChapter)
	}
}

func TestRunRequestCmd_Error(t *testing.T) {
	remote := &fakeRemote{err: errors.New("boom")}
	msg := RunRequestCmd(remote, state.Request{Kind: state.RequestSearch, Query: "x"})()
	res := msg.(RequestResultMsg)
	if res.Result.Err == nil || res.Result.Err.Error() != "boom" {
		t.Fatalf("expected error to be carried in the result, got %v", res.Result.Err)
	}
}

func TestFrameAndClearStatusCmd(t *testing.T) {
	if FrameCmd(time.Millisecond) == nil {
		t.Fatal("expected frame command")
	}
	if ClearStatusCmd(1, time.Millisecond) == nil {
		t.Fatal("expected clear status command")
	}
}

func TestDrawGraphicsCmd(t *testing.T) {
	var buf bytes.Buffer
	if DrawGraphicsCmd(&buf, "", 0) != nil {
		t.Fatal("expected no command for an empty sequence")
	}
	if DrawGraphicsCmd(nil, "x", 0) != nil {
		t.Fatal("expected no command without a writer")
	}

	msg := DrawGraphicsCmd(&buf, "\x1b_Ga=T\x1b\\", time.Millisecond)()
	if msg != nil {
		t.Fatalf("expected nil message on success, got %T", msg)
	}
	if buf.String() != "\x1b_Ga=T\x1b\\" {
		t.Fatalf("unexpected bytes written: %q", buf.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestDrawGraphicsCmd_Error(t *testing.T) {
	msg := DrawGraphicsCmd(failingWriter{}, "x", 0)()
	if _, ok := msg.(GraphicsErrorMsg); !ok {
		t.Fatalf("expected GraphicsErrorMsg, got %T", msg)
	}
}

func TestOpenURLCmd_Fallbacks(t *testing.T) {
	msg := OpenURLCmd("https://example.com",
		func(string) error { return nil },
		func(string) error { return nil },
	)()
	success, ok := msg.(OpenURLSuccessMsg)
	if !ok || !success.Opened {
		t.Fatalf("expected opened success, got %T %+v", msg, success)
	}

	msg = OpenURLCmd("https://example.com",
		func(string) error { return errors.New("open failed") },
		func(string) error { return nil },
	)()
	success, ok = msg.(OpenURLSuccessMsg)
	if !ok || success.Opened {
		t.Fatalf("expected copy fallback success, got %T %+v", msg, success)
	}

	msg = OpenURLCmd("https://example.com",
		func(string) error { return errors.New("open failed") },
		func(string) error { return errors.New("copy failed") },
	)()
	if _, ok := msg.(OpenURLErrorMsg); !ok {
		t.Fatalf("expected OpenURLErrorMsg, got %T", msg)
	}
}

func TestCopyURLCmd(t *testing.T) {
	msg := CopyURLCmd("https://example.com", func(string) error { return nil })()
	if _, ok := msg.(OpenURLSuccessMsg); !ok {
		t.Fatalf("expected OpenURLSuccessMsg, got %T", msg)
	}
	msg = CopyURLCmd("https://example.com", func(string) error { return errors.New("copy failed") })()
	if _, ok := msg.(OpenURLErrorMsg); !ok {
		t.Fatalf("expected OpenURLErrorMsg, got %T", msg)
	}
}
