package config

import "path/filepath"

// Override adjusts a parsed configuration before defaults and resolution run.
// Command-line flags are applied this way.
type Override func(*Config)

// WithSourceDir replaces source_dir. A relative dir is taken relative to the
// working directory, not to the configuration file.
func WithSourceDir(dir string) Override {
	return func(c *Config) {
		if dir != "" {
			c.SourceDir = absOrClean(dir)
		}
	}
}

// WithDestination replaces destination. A relative dir is taken relative to
// the working directory.
func WithDestination(dir string) Override {
	return func(c *Config) {
		if dir != "" {
			c.Destination = absOrClean(dir)
		}
	}
}

// WithIgnoreHidden forces assets.ignore_hidden.
func WithIgnoreHidden(ignore bool) Override {
	return func(c *Config) { c.Assets.IgnoreHidden = ignore }
}

func absOrClean(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
