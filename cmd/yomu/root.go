package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/blacktop/go-termimg"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/glabrego/yomu-cli/internal/app"
	"github.com/glabrego/yomu-cli/internal/config"
	"github.com/glabrego/yomu-cli/internal/mangadex"
	"github.com/glabrego/yomu-cli/internal/pageimage"
	"github.com/glabrego/yomu-cli/internal/reader"
	"github.com/glabrego/yomu-cli/internal/termimage"
	"github.com/glabrego/yomu-cli/internal/tui"
	"github.com/glabrego/yomu-cli/internal/tui/view"
)

var version = "0.1.0"

func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "yomu",
		Short: "Read manga from MangaDex in your terminal",
		Long: `yomu searches the MangaDex catalog, lists a title's chapters and shows
them as two-page spreads using kitty or sixel graphics, unicode half blocks
or ASCII art.

Settings are read from ./yomu.yaml or <config dir>/yomu/config.yaml, then
YOMU_* environment variables, then flags.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := viper.New()
			if err := config.BindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			return run(cmd, cfg)
		},
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (default: ./yomu.yaml or <config dir>/yomu/config.yaml)")
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func run(cmd *cobra.Command, cfg config.Config) error {
	logger, closeLog := openLogger(cfg.LogFile, cfg.SlogLevel())
	defer closeLog()

	httpClient, err := mangadex.NewHTTPClient(cfg.HTTPTimeout, cfg.Concurrency)
	if err != nil {
		return fmt.Errorf("http client: %w", err)
	}
	client := mangadex.NewClient(cfg.APIBaseURL, mangadex.DefaultUserAgent, httpClient,
		mangadex.WithMaxBytes(cfg.MaxImageBytes),
		mangadex.WithLanguage(cfg.Language),
		mangadex.WithLogger(logger.With("component", "mangadex")),
	)
	service := app.NewService(client, cfg.Language, cfg.DataSaver)

	builder, renderer, err := newBuilder(cfg)
	if err != nil {
		return err
	}
	dir, err := reader.ParseDirection(cfg.Direction)
	if err != nil {
		return err
	}
	coord, err := reader.NewCoordinator(reader.Config{
		Concurrency:      cfg.Concurrency,
		BuildConcurrency: cfg.BuildConcurrency,
		CachePages:       cfg.CachePages,
		Direction:        dir,
		Logger:           logger.With("component", "reader"),
	}, client, pageimage.Decoder{}, builder)
	if err != nil {
		return fmt.Errorf("reader init error: %w", err)
	}
	defer coord.Close()

	logger.Info("starting",
		"version", version,
		"renderer", renderer,
		"direction", dir,
		"kitty", view.SupportsKittyGraphics(),
		"passthrough", view.KittyPassthroughMode(),
	)

	model := tui.NewModel(service, coord, tui.Options{
		Builder:       builder,
		ASCIIBuilder:  termimage.ASCIIBuilder{},
		Renderer:      renderer,
		FrameInterval: cfg.FrameInterval,
		Graphics:      os.Stdout,
		Logger:        logger.With("component", "tui"),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if _, err := tea.NewProgram(model, opts...).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

// newBuilder picks the page encoder. Graphics encoders fall back to ASCII
// for pages they cannot encode. Cell metrics are probed here, before the
// program owns the terminal.
func newBuilder(cfg config.Config) (reader.ProtocolBuilder, string, error) {
	mode, err := termimage.ParseMode(cfg.RenderMode)
	if err != nil {
		return nil, "", err
	}
	if mode == termimage.ModeASCII {
		return termimage.ASCIIBuilder{}, "ascii", nil
	}
	filter, err := termimage.ParseFilter(cfg.ScaleFilter)
	if err != nil {
		return nil, "", err
	}
	b := termimage.NewBuilder(mode, filter, termimage.DefaultCell)
	if b.Protocol != termimg.Halfblocks {
		b.Cell = termimage.DetectCellSize()
	}
	return termimage.Fallback{Primary: b, Secondary: termimage.ASCIIBuilder{}}, termimage.ProtocolName(b.Protocol), nil
}

// openLogger logs to path. The UI owns the terminal, so when the file cannot
// be opened logging is discarded.
func openLogger(path string, level slog.Level) (*slog.Logger, func()) {
	discard := slog.New(slog.DiscardHandler)
	if path == "" {
		return discard, func() {}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not create log directory (%v), logging disabled\n", err)
		return discard, func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not open log file (%v), logging disabled\n", err)
		return discard, func() {}
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, func() { _ = f.Close() }
}
