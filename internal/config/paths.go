package config

import (
	"path/filepath"
	"strings"
)

// Resolve turns the folder fields into absolute paths. SourceDir is resolved
// against baseDir; destination, asset and content folders against SourceDir.
func (c *Config) Resolve(baseDir string) {
	c.SourceDir = resolveAgainst(baseDir, c.SourceDir)
	c.Destination = resolveAgainst(c.SourceDir, c.Destination)
	c.AssetFolder = resolveAgainst(c.SourceDir, c.AssetFolder)
	c.ContentFolder = resolveAgainst(c.SourceDir, c.ContentFolder)
}

func resolveAgainst(base, p string) string {
	if p == "" {
		return ""
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(base, p)
	}
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return filepath.Clean(p)
}

// IsWithin reports whether path lies strictly below root. Both are compared
// after cleaning; no symlinks are evaluated.
func IsWithin(root, path string) bool {
	rel, ok := RelativeTo(root, path)
	return ok && rel != ""
}

// RelativeTo returns path relative to root when path lies below root. The
// result is "" when path equals root.
func RelativeTo(root, path string) (string, bool) {
	if root == "" || path == "" {
		return "", false
	}
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return "", false
	}
	if rel == "." {
		return "", true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", false
	}
	return rel, true
}
