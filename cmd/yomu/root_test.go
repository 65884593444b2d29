package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glabrego/yomu-cli/internal/config"
	"github.com/glabrego/yomu-cli/internal/termimage"
)

func TestOpenLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "yomu.log")
	logger, closeLog := openLogger(path, slog.LevelDebug)
	logger.Debug("hello", "page", 3)
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "msg=hello") || !strings.Contains(string(data), "page=3") {
		t.Fatalf("unexpected log contents: %q", data)
	}
}

func TestOpenLogger_DiscardsWhenUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	logger, closeLog := openLogger(filepath.Join(blocker, "yomu.log"), slog.LevelInfo)
	defer closeLog()
	if logger == nil {
		t.Fatal("expected a discarding logger")
	}
	logger.Info("dropped")
}

func TestNewBuilder_ASCII(t *testing.T) {
	cfg := config.Default()
	cfg.RenderMode = "ascii"
	b, name, err := newBuilder(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "ascii" {
		t.Fatalf("expected ascii renderer, got %q", name)
	}
	if _, ok := b.(termimage.ASCIIBuilder); !ok {
		t.Fatalf("expected ASCIIBuilder, got %T", b)
	}
}

func TestNewBuilder_HalfblocksFallsBackToASCII(t *testing.T) {
	cfg := config.Default()
	cfg.RenderMode = "halfblocks"
	b, name, err := newBuilder(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "halfblocks" {
		t.Fatalf("expected halfblocks renderer, got %q", name)
	}
	fb, ok := b.(termimage.Fallback)
	if !ok {
		t.Fatalf("expected Fallback, got %T", b)
	}
	if _, ok := fb.Secondary.(termimage.ASCIIBuilder); !ok {
		t.Fatalf("expected ascii secondary, got %T", fb.Secondary)
	}
}

func TestRootCmd_RegistersFlags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"config", "language", "data-saver", "concurrency", "cache-pages", "render-mode", "scale-filter", "direction", "log-file", "log-level"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Fatalf("expected flag --%s", name)
		}
	}
}

func TestRootCmd_RejectsInvalidConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--direction", "sideways", "--log-file", filepath.Join(t.TempDir(), "y.log")})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "direction") {
		t.Fatalf("expected direction validation error, got %v", err)
	}
}
