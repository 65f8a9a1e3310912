package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/docbake/internal/foundation/errors"
)

// Validate checks a defaulted and resolved configuration.
func Validate(cfg *Config) error {
	v := &validator{cfg: cfg}
	for _, check := range []func() error{
		v.validatePaths,
		v.validateAssets,
		v.validateWatch,
		v.validateLogging,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

type validator struct {
	cfg *Config
}

func (v *validator) validatePaths() error {
	c := v.cfg
	if c.Destination == "" {
		return invalid("destination must not be empty", "destination", c.Destination)
	}
	for _, folder := range []struct{ name, path string }{
		{"asset_folder", c.AssetFolder},
		{"content_folder", c.ContentFolder},
	} {
		// Copying a tree into itself would keep finding the files it just wrote.
		if folder.path == c.Destination || IsWithin(folder.path, c.Destination) {
			return invalid(fmt.Sprintf("destination must not be inside %s", folder.name), "destination", c.Destination)
		}
	}
	return nil
}

func (v *validator) validateAssets() error {
	a := v.cfg.Assets
	if strings.ContainsAny(a.IgnoreFile, `/\`) {
		return invalid("assets.ignore_file must be a file name, not a path", "assets.ignore_file", a.IgnoreFile)
	}
	for _, name := range a.ExcludeFolders {
		if name == "" || name != filepath.Base(name) {
			return invalid("assets.exclude_folders entries must be folder names", "assets.exclude_folders", name)
		}
	}
	return nil
}

func (v *validator) validateWatch() error {
	w := v.cfg.Watch
	if d, err := time.ParseDuration(w.Debounce); err != nil || d <= 0 {
		return invalid("watch.debounce must be a positive duration", "watch.debounce", w.Debounce)
	}
	if w.ResyncInterval != "" {
		d, err := time.ParseDuration(w.ResyncInterval)
		if err != nil || d < time.Second {
			return invalid("watch.resync_interval must be a duration of at least 1s", "watch.resync_interval", w.ResyncInterval)
		}
	}
	return nil
}

func (v *validator) validateLogging() error {
	if _, err := logLevelNormalizer.Parse(string(v.cfg.Logging.Level)); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryValidation, "invalid logging.level").Fatal().Build()
	}
	if _, err := logFormatNormalizer.Parse(string(v.cfg.Logging.Format)); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryValidation, "invalid logging.format").Fatal().Build()
	}
	return nil
}

func invalid(msg, field, value string) error {
	return ferrors.ValidationError(msg).
		WithContext("field", field).
		WithContext("value", value).
		Build()
}
