package config

import (
	"slices"
	"strings"
	"time"
)

const (
	defaultDestination     = "output"
	defaultAssetFolder     = "assets"
	defaultContentFolder   = "content"
	defaultOutputExtension = ".html"
	defaultDebounce        = 300 * time.Millisecond

	// DefaultIgnoreFile marks a directory as ignored when present inside it.
	DefaultIgnoreFile = ".docbakeignore"
)

// DefaultMarkupExtensions lists content extensions that are rendered, never copied.
func DefaultMarkupExtensions() []string {
	return []string{".md", ".markdown", ".html", ".htm", ".ad", ".adoc", ".asciidoc"}
}

// ApplyDefaults fills unset fields and canonicalizes extensions and enums.
func ApplyDefaults(cfg *Config) {
	if cfg.SourceDir == "" {
		cfg.SourceDir = "."
	}
	if cfg.Destination == "" {
		cfg.Destination = defaultDestination
	}
	if cfg.AssetFolder == "" {
		cfg.AssetFolder = defaultAssetFolder
	}
	if cfg.ContentFolder == "" {
		cfg.ContentFolder = defaultContentFolder
	}

	if cfg.OutputExtension == "" {
		cfg.OutputExtension = defaultOutputExtension
	}
	cfg.OutputExtension = normalizeExtension(cfg.OutputExtension)

	if cfg.Assets.IgnoreFile == "" {
		cfg.Assets.IgnoreFile = DefaultIgnoreFile
	}

	if len(cfg.Content.MarkupExtensions) == 0 {
		cfg.Content.MarkupExtensions = DefaultMarkupExtensions()
	}
	exts := make([]string, 0, len(cfg.Content.MarkupExtensions))
	for _, e := range cfg.Content.MarkupExtensions {
		if n := normalizeExtension(e); n != "" && !slices.Contains(exts, n) {
			exts = append(exts, n)
		}
	}
	cfg.Content.MarkupExtensions = exts

	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = defaultDebounce.String()
	}

	// Unknown values are left in place so Validate can report them.
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	} else if lvl, err := logLevelNormalizer.Parse(string(cfg.Logging.Level)); err == nil {
		cfg.Logging.Level = lvl
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	} else if f, err := logFormatNormalizer.Parse(string(cfg.Logging.Format)); err == nil {
		cfg.Logging.Format = f
	}
}

// normalizeExtension lowercases ext and ensures a leading dot.
func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// IsMarkupExtension reports whether files with ext are rendered content rather
// than copyable assets. The output extension always counts as markup.
func (c *Config) IsMarkupExtension(ext string) bool {
	ext = normalizeExtension(ext)
	if ext == "" {
		return false
	}
	return ext == c.OutputExtension || slices.Contains(c.Content.MarkupExtensions, ext)
}

// DebounceDuration returns the parsed watch debounce, falling back to the default.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return defaultDebounce
	}
	return d
}

// ResyncInterval returns the parsed periodic resync interval; zero disables resync.
func (c *Config) ResyncInterval() time.Duration {
	if c.Watch.ResyncInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Watch.ResyncInterval)
	if err != nil {
		return 0
	}
	return d
}
