package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// isolate keeps host config files and YOMU_* variables out of a test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	for _, kv := range os.Environ() {
		if key, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(key, "YOMU_") {
			t.Setenv(key, "")
		}
	}
	t.Chdir(t.TempDir())
}

func TestLoad_UsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBaseURL != defaultAPIBaseURL {
		t.Fatalf("unexpected API base URL: %s", cfg.APIBaseURL)
	}
	if cfg.Concurrency != 8 || cfg.CachePages != 64 {
		t.Fatalf("unexpected pipeline defaults: %+v", cfg)
	}
	if cfg.FrameInterval != 33*time.Millisecond {
		t.Fatalf("unexpected frame interval: %s", cfg.FrameInterval)
	}
	if cfg.MaxImageBytes != 50<<20 {
		t.Fatalf("unexpected max image bytes: %d", cfg.MaxImageBytes)
	}
	if !cfg.AltScreen || cfg.Direction != "rtl" {
		t.Fatalf("unexpected ui defaults: %+v", cfg)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "yomu.yaml")
	body := "language: fr\nconcurrency: 4\nframe_interval: 50ms\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("YOMU_LANGUAGE", "es")

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Language != "es" {
		t.Fatalf("expected env to win, got %s", cfg.Language)
	}
	if cfg.Concurrency != 4 || cfg.FrameInterval != 50*time.Millisecond {
		t.Fatalf("expected file values, got %+v", cfg)
	}
}

func TestLoad_FindsConfigInWorkingDirectory(t *testing.T) {
	isolate(t)
	if err := os.WriteFile("yomu.yaml", []byte("direction: ltr\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Direction != "ltr" {
		t.Fatalf("expected direction from ./yomu.yaml, got %s", cfg.Direction)
	}
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("YOMU_CONCURRENCY", "6")

	fs := pflag.NewFlagSet("yomu", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse([]string{"--concurrency=3", "--render-mode=ascii"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	v := viper.New()
	if err := BindFlags(v, fs); err != nil {
		t.Fatalf("BindFlags returned error: %v", err)
	}

	cfg, err := Load(v, "")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Concurrency != 3 || cfg.RenderMode != "ascii" {
		t.Fatalf("expected flag values, got %+v", cfg)
	}
	if cfg.Language != "en" {
		t.Fatalf("expected unchanged flag to keep default, got %s", cfg.Language)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("language: [unterminated"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(viper.New(), path); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "trailing slash", mutate: func(c *Config) { c.APIBaseURL = "https://api.mangadex.org/" }},
		{name: "plain http", mutate: func(c *Config) { c.APIBaseURL = "http://api.mangadex.org" }},
		{name: "empty language", mutate: func(c *Config) { c.Language = "" }},
		{name: "zero concurrency", mutate: func(c *Config) { c.Concurrency = 0 }},
		{name: "tiny cache", mutate: func(c *Config) { c.CachePages = 3 }},
		{name: "render mode", mutate: func(c *Config) { c.RenderMode = "iterm" }},
		{name: "filter", mutate: func(c *Config) { c.ScaleFilter = "bicubic" }},
		{name: "direction", mutate: func(c *Config) { c.Direction = "ttb" }},
		{name: "frame interval", mutate: func(c *Config) { c.FrameInterval = time.Millisecond }},
		{name: "log level", mutate: func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "debug"
	if cfg.SlogLevel().String() != "DEBUG" {
		t.Fatalf("unexpected level: %s", cfg.SlogLevel())
	}
}
