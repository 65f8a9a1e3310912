package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docbake/internal/config"
	ferrors "git.home.luguber.info/inful/docbake/internal/foundation/errors"
)

const (
	defaultConfigFile = "docbake.yaml"
	logLevelEnv       = "DOCBAKE_LOG_LEVEL"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docbake.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Copy  CopyCmd  `cmd:"" help:"Copy assets and content attachments into the destination folder"`
	Watch WatchCmd `cmd:"" help:"Copy, then keep copying changed files until interrupted"`
	Init  InitCmd  `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; sets up logging until a configuration is loaded.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(NewLogger(os.Stderr, config.LoggingConfig{}, c.Verbose))
	return nil
}

// NewLogger builds the process logger. The level comes from the configuration,
// then DOCBAKE_LOG_LEVEL, then --verbose, each overriding the previous one.
func NewLogger(w io.Writer, lc config.LoggingConfig, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if lc.Level != "" {
		level = lc.Level.SlogLevel()
	}
	if env := os.Getenv(logLevelEnv); env != "" {
		level = config.NormalizeLogLevel(env).SlogLevel()
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// SourceFlags are the configuration overrides shared by copy and watch.
type SourceFlags struct {
	Source       string `short:"s" help:"Source directory (overrides source_dir)"`
	Destination  string `short:"d" help:"Destination directory (overrides destination)"`
	IgnoreHidden bool   `name:"ignore-hidden" help:"Skip hidden files in the asset folder"`
}

func (f SourceFlags) overrides() []config.Override {
	ovs := []config.Override{
		config.WithSourceDir(f.Source),
		config.WithDestination(f.Destination),
	}
	if f.IgnoreHidden {
		ovs = append(ovs, config.WithIgnoreHidden(true))
	}
	return ovs
}

// loadConfig loads root.Config with the flag overrides. When the default
// configuration file is absent the built-in defaults are used instead.
func loadConfig(root *CLI, flags SourceFlags) (*config.Config, error) {
	cfg, err := config.Load(root.Config, flags.overrides()...)
	if err == nil {
		return cfg, nil
	}
	if root.Config != defaultConfigFile || !ferrors.HasCategory(err, ferrors.CategoryNotFound) {
		return nil, err
	}
	slog.Debug("No configuration file found, using defaults", slog.String("path", root.Config))
	return config.FromDir(".", flags.overrides()...)
}

// configureLogging replaces the default logger with one honoring cfg.
func configureLogging(g *Global, cfg *config.Config, verbose bool) *slog.Logger {
	logger := NewLogger(os.Stderr, cfg.Logging, verbose)
	slog.SetDefault(logger)
	if g != nil {
		g.Logger = logger
	}
	return logger
}
