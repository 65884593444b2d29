package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultAPIBaseURL = "https://api.mangadex.org"
	envPrefix         = "YOMU"
	minCachePages     = 4
	minFrameInterval  = 5 * time.Millisecond
)

// Config holds runtime settings for the reader.
type Config struct {
	APIBaseURL       string        `mapstructure:"api_base_url"`
	Language         string        `mapstructure:"language"`
	DataSaver        bool          `mapstructure:"data_saver"`
	Concurrency      int           `mapstructure:"concurrency"`
	BuildConcurrency int           `mapstructure:"build_concurrency"`
	CachePages       int           `mapstructure:"cache_pages"`
	MaxImageBytes    int64         `mapstructure:"max_image_bytes"`
	HTTPTimeout      time.Duration `mapstructure:"http_timeout"`
	RenderMode       string        `mapstructure:"render_mode"`
	ScaleFilter      string        `mapstructure:"scale_filter"`
	Direction        string        `mapstructure:"direction"`
	FrameInterval    time.Duration `mapstructure:"frame_interval"`
	LogFile          string        `mapstructure:"log_file"`
	LogLevel         string        `mapstructure:"log_level"`
	AltScreen        bool          `mapstructure:"alt_screen"`
}

func Default() Config {
	return Config{
		APIBaseURL:       defaultAPIBaseURL,
		Language:         "en",
		Concurrency:      8,
		BuildConcurrency: runtime.NumCPU(),
		CachePages:       64,
		MaxImageBytes:    50 << 20,
		HTTPTimeout:      30 * time.Second,
		RenderMode:       "auto",
		ScaleFilter:      "triangle",
		Direction:        "rtl",
		FrameInterval:    33 * time.Millisecond,
		LogFile:          defaultLogFile(),
		LogLevel:         "info",
		AltScreen:        true,
	}
}

func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("api_base_url", d.APIBaseURL)
	v.SetDefault("language", d.Language)
	v.SetDefault("data_saver", d.DataSaver)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("build_concurrency", d.BuildConcurrency)
	v.SetDefault("cache_pages", d.CachePages)
	v.SetDefault("max_image_bytes", d.MaxImageBytes)
	v.SetDefault("http_timeout", d.HTTPTimeout)
	v.SetDefault("render_mode", d.RenderMode)
	v.SetDefault("scale_filter", d.ScaleFilter)
	v.SetDefault("direction", d.Direction)
	v.SetDefault("frame_interval", d.FrameInterval)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("alt_screen", d.AltScreen)
}

// RegisterFlags declares the command-line overrides.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("language", d.Language, "chapter language (ISO code)")
	fs.Bool("data-saver", d.DataSaver, "download compressed pages")
	fs.Int("concurrency", d.Concurrency, "parallel page downloads")
	fs.Int("cache-pages", d.CachePages, "decoded pages kept in memory")
	fs.String("render-mode", d.RenderMode, "auto, halfblocks, kitty, sixel or ascii")
	fs.String("scale-filter", d.ScaleFilter, "nearest, triangle, catmullrom or lanczos")
	fs.String("direction", d.Direction, "reading direction: rtl or ltr")
	fs.String("log-file", d.LogFile, "log file path")
	fs.String("log-level", d.LogLevel, "debug, info, warn or error")
}

// BindFlags maps flags registered by RegisterFlags onto config keys.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			errs = append(errs, fmt.Errorf("bind flag %s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

// Load resolves defaults, the config file, YOMU_* environment variables and
// bound flags, in increasing precedence.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if cfgFile == "" {
		cfgFile = findConfigFile()
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.APIBaseURL = strings.TrimSpace(cfg.APIBaseURL)
	cfg.Language = strings.TrimSpace(cfg.Language)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("api_base_url is required")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("api_base_url must be an https URL: %s", c.APIBaseURL)
	}
	if strings.HasSuffix(c.APIBaseURL, "/") {
		return fmt.Errorf("api_base_url must not end with '/': %s", c.APIBaseURL)
	}
	if c.Language == "" {
		return errors.New("language is required")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1: %d", c.Concurrency)
	}
	if c.BuildConcurrency < 1 {
		return fmt.Errorf("build_concurrency must be at least 1: %d", c.BuildConcurrency)
	}
	if c.CachePages < minCachePages {
		return fmt.Errorf("cache_pages must be at least %d: %d", minCachePages, c.CachePages)
	}
	if c.MaxImageBytes < 1 {
		return fmt.Errorf("max_image_bytes must be positive: %d", c.MaxImageBytes)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive: %s", c.HTTPTimeout)
	}
	if !oneOf(c.RenderMode, "auto", "halfblocks", "kitty", "sixel", "ascii") {
		return fmt.Errorf("render_mode must be auto, halfblocks, kitty, sixel or ascii: %s", c.RenderMode)
	}
	if !oneOf(c.ScaleFilter, "nearest", "triangle", "catmullrom", "lanczos") {
		return fmt.Errorf("scale_filter must be nearest, triangle, catmullrom or lanczos: %s", c.ScaleFilter)
	}
	if !oneOf(c.Direction, "rtl", "ltr") {
		return fmt.Errorf("direction must be rtl or ltr: %s", c.Direction)
	}
	if c.FrameInterval < minFrameInterval {
		return fmt.Errorf("frame_interval must be at least %s: %s", minFrameInterval, c.FrameInterval)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// SlogLevel returns the configured log level.
func (c Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level must be debug, info, warn or error: %s", s)
	}
	return level, nil
}

func findConfigFile() string {
	candidates := []string{"yomu.yaml"}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "yomu", "config.yaml"))
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func defaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "yomu", "yomu.log")
}

func oneOf(s string, options ...string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}
