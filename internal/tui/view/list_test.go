package view

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/glabrego/yomu-cli/internal/mangadex"
	tuitheme "github.com/glabrego/yomu-cli/internal/tui/theme"
)

func TestRenderLine_DetailAtRightEdge(t *testing.T) {
	th := tuitheme.Default()
	line := stripANSI(RenderLine("Dorohedoro", "2000", 40, false, th))
	if !strings.HasSuffix(line, "2000") {
		t.Fatalf("expected detail at right edge, got %q", line)
	}
	if ansi.StringWidth(line) != 40 {
		t.Fatalf("expected line width 40, got %d (%q)", ansi.StringWidth(line), line)
	}
	if !strings.HasPrefix(line, "  Dorohedoro") {
		t.Fatalf("expected inactive marker, got %q", line)
	}
}

func TestRenderLine_ActiveMarkerAndTruncation(t *testing.T) {
	th := tuitheme.Default()
	line := stripANSI(RenderLine("A very long manga title that will not fit", "2021", 24, true, th))
	if !strings.HasPrefix(line, "> ") {
		t.Fatalf("expected active marker, got %q", line)
	}
	if !strings.Contains(line, "...") {
		t.Fatalf("expected truncated label, got %q", line)
	}
	if !strings.HasSuffix(line, "2021") {
		t.Fatalf("expected detail kept after truncation, got %q", line)
	}
}

func TestTitleDetail(t *testing.T) {
	got := TitleDetail(mangadex.Title{Year: 2000, Status: "completed", Demographic: "seinen"})
	if got != "2000 · completed · seinen" {
		t.Fatalf("unexpected detail %q", got)
	}
	if got := TitleDetail(mangadex.Title{}); got != "" {
		t.Fatalf("expected empty detail, got %q", got)
	}
}

func TestRenderChapterLine(t *testing.T) {
	th := tuitheme.Default()
	line := stripANSI(RenderChapterLine(mangadex.Chapter{Volume: "1", Number: "3", Language: "en", Pages: 18}, 60, false, th))
	if !strings.Contains(line, "Vol. 1 Ch. 3 (18 pages)") {
		t.Fatalf("expected chapter label, got %q", line)
	}
	if !strings.HasSuffix(line, "en") {
		t.Fatalf("expected language at right edge, got %q", line)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("expected unchanged string, got %q", got)
	}
	if got := Truncate("abcdefghij", 6); got != "abc..." {
		t.Fatalf("expected abc..., got %q", got)
	}
	if got := Truncate("abcdef", 2); got != ".." {
		t.Fatalf("expected dots, got %q", got)
	}
	if got := Truncate("abc", 0); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}
