package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/docbake/internal/foundation/errors"
)

// Config is the resolved configuration consumed by the asset copier and the CLI.
// After Load (or FromDir) every folder field holds an absolute, cleaned path.
type Config struct {
	SourceDir       string        `yaml:"source_dir"`
	Destination     string        `yaml:"destination"`
	AssetFolder     string        `yaml:"asset_folder"`
	ContentFolder   string        `yaml:"content_folder"`
	OutputExtension string        `yaml:"output_extension"`
	Assets          AssetConfig   `yaml:"assets"`
	Content         ContentConfig `yaml:"content"`
	Watch           WatchConfig   `yaml:"watch"`
	Logging         LoggingConfig `yaml:"logging"`
}

// AssetConfig controls which entries of the asset folder are copied.
type AssetConfig struct {
	IgnoreHidden   bool     `yaml:"ignore_hidden"`
	IgnoreFile     string   `yaml:"ignore_file,omitempty"`     // marker file that excludes its directory
	ExcludeFolders []string `yaml:"exclude_folders,omitempty"` // directory base names never descended into
	IgnorePatterns []string `yaml:"ignore_patterns,omitempty"` // gitignore syntax, relative to the walk root
}

// ContentConfig controls copying of non-markup files that live next to content.
type ContentConfig struct {
	SkipAssets       bool     `yaml:"skip_assets"`
	MarkupExtensions []string `yaml:"markup_extensions,omitempty"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	Debounce       string `yaml:"debounce,omitempty"`
	ResyncInterval string `yaml:"resync_interval,omitempty"`
	MetricsAddr    string `yaml:"metrics_addr,omitempty"`
}

// LoggingConfig selects log verbosity and encoding.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// Load reads, defaults, resolves and validates the configuration file at configPath.
// Relative folders are resolved against the directory containing the file.
// Overrides are applied to the parsed file before any of that happens.
func Load(configPath string, overrides ...Override) (*Config, error) {
	loadEnvFile()

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to resolve config path").
			WithContext("path", configPath).Build()
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ferrors.NotFoundError(fmt.Sprintf("configuration file not found: %s", configPath)).
				WithCause(err).Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).Build()
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse config file").
			WithContext("path", configPath).Fatal().Build()
	}

	for _, o := range overrides {
		o(cfg)
	}
	if err := cfg.finalize(filepath.Dir(absPath)); err != nil {
		return nil, err
	}
	slog.Debug("Configuration loaded", slog.String("path", absPath), slog.String("source_dir", cfg.SourceDir))
	return cfg, nil
}

// FromDir returns the default configuration rooted at sourceDir, used when no
// configuration file exists.
func FromDir(sourceDir string, overrides ...Override) (*Config, error) {
	abs, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to resolve source directory").Build()
	}
	cfg := &Config{}
	for _, o := range overrides {
		o(cfg)
	}
	if err := cfg.finalize(abs); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) finalize(baseDir string) error {
	ApplyDefaults(c)
	c.Resolve(baseDir)
	return Validate(c)
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ValidationError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}

	example := Config{
		SourceDir:       ".",
		Destination:     defaultDestination,
		AssetFolder:     defaultAssetFolder,
		ContentFolder:   defaultContentFolder,
		OutputExtension: defaultOutputExtension,
		Assets: AssetConfig{
			IgnoreHidden:   true,
			IgnoreFile:     DefaultIgnoreFile,
			ExcludeFolders: []string{"node_modules"},
			IgnorePatterns: []string{"*.psd", "*.swp"},
		},
		Content: ContentConfig{
			MarkupExtensions: DefaultMarkupExtensions(),
		},
		Watch: WatchConfig{
			Debounce:       defaultDebounce.String(),
			ResyncInterval: "10m",
		},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
