package view

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/glabrego/yomu-cli/internal/reader"
	tuitheme "github.com/glabrego/yomu-cli/internal/tui/theme"
)

func TestPanel_AlignsAgainstSpine(t *testing.T) {
	left := strings.Split(Panel("ab", 6, 2, reader.SideLeft), "\n")
	if len(left) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(left))
	}
	if left[0] != "    ab" {
		t.Fatalf("expected left page pushed right, got %q", left[0])
	}

	right := strings.Split(Panel("ab", 6, 2, reader.SideRight), "\n")
	if right[0] != "ab    " {
		t.Fatalf("expected right page pushed left, got %q", right[0])
	}
	if right[1] != "      " {
		t.Fatalf("expected padded second row, got %q", right[1])
	}
}

func TestSpineOffset(t *testing.T) {
	if got := SpineOffset(reader.SideLeft, 40, 30); got != 10 {
		t.Fatalf("expected offset 10 on the left panel, got %d", got)
	}
	if got := SpineOffset(reader.SideRight, 40, 30); got != 0 {
		t.Fatalf("expected offset 0 on the right panel, got %d", got)
	}
	if got := SpineOffset(reader.SideLeft, 20, 30); got != 0 {
		t.Fatalf("expected no offset for an oversized page, got %d", got)
	}
}

func TestPlaceholder_Centered(t *testing.T) {
	lines := strings.Split(stripANSI(Placeholder("Loading", 11, 3, lipgloss.NewStyle())), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(lines))
	}
	if lines[1] != "  Loading  " {
		t.Fatalf("expected centered placeholder, got %q", lines[1])
	}
}

func TestBlank(t *testing.T) {
	got := Blank(3, 2)
	if got != "   \n   " {
		t.Fatalf("unexpected blank block %q", got)
	}
	if Blank(0, 3) != "" {
		t.Fatal("expected empty block for zero width")
	}
}

func TestIsGraphics(t *testing.T) {
	if !IsGraphics("\x1b_Ga=T;AAAA\x1b\\") {
		t.Fatal("expected kitty output to be graphics")
	}
	if !IsGraphics("\x1bPq#0;2;0;0;0\x1b\\") {
		t.Fatal("expected sixel output to be graphics")
	}
	if IsGraphics("\x1b[38;2;1;2;3m▀\x1b[0m") {
		t.Fatal("did not expect halfblock output to be graphics")
	}
}

func TestGraphicsAt(t *testing.T) {
	got := GraphicsAt(4, 1, "IMG")
	if got != "\x1b7\x1b[2;5HIMG\x1b8" {
		t.Fatalf("unexpected positioned sequence %q", got)
	}
}

func TestSplash(t *testing.T) {
	got := stripANSI(Splash(120, 40, tuitheme.Default()))
	for _, want := range []string{"Directions", "Press any key to start searching"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in splash, got %q", want, got)
		}
	}
	lines := strings.Split(got, "\n")
	if len(lines) != 40 {
		t.Fatalf("expected splash to fill 40 rows, got %d", len(lines))
	}
	if w := ansi.StringWidth(lines[0]); w != 120 {
		t.Fatalf("expected splash rows 120 wide, got %d", w)
	}
}
