package asset

import (
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/afero"

	"git.home.luguber.info/inful/docbake/internal/config"
)

// skipReason explains why the ignore policy rejected an entry; empty means keep.
type skipReason string

const (
	keep           skipReason = ""
	skipHidden     skipReason = "hidden"
	skipMarker     skipReason = "ignore marker"
	skipMarkerFile skipReason = "ignore marker file"
	skipExcluded   skipReason = "excluded folder"
	skipPattern    skipReason = "ignore pattern"
)

// IgnorePolicy decides which entries of a walk are left out.
type IgnorePolicy struct {
	ignoreHidden bool
	markerFile   string
	excluded     map[string]struct{}
	patterns     *ignore.GitIgnore
}

// NewIgnorePolicy builds the policy described by the assets section of the configuration.
func NewIgnorePolicy(cfg config.AssetConfig) *IgnorePolicy {
	p := &IgnorePolicy{
		ignoreHidden: cfg.IgnoreHidden,
		markerFile:   cfg.IgnoreFile,
		excluded:     make(map[string]struct{}, len(cfg.ExcludeFolders)),
	}
	for _, name := range cfg.ExcludeFolders {
		p.excluded[name] = struct{}{}
	}
	if len(cfg.IgnorePatterns) > 0 {
		p.patterns = ignore.CompileIgnoreLines(cfg.IgnorePatterns...)
	}
	return p
}

// withHidden returns a copy of p with the hidden check forced to hidden.
func (p *IgnorePolicy) withHidden(hidden bool) *IgnorePolicy {
	cp := *p
	cp.ignoreHidden = hidden
	return &cp
}

// dirReason evaluates the directory at path; rel is its path relative to the walk root.
func (p *IgnorePolicy) dirReason(fsys afero.Fs, path, rel string) skipReason {
	name := filepath.Base(path)
	if p.ignoreHidden && isHidden(name) {
		return skipHidden
	}
	if _, ok := p.excluded[name]; ok {
		return skipExcluded
	}
	if p.patterns != nil && p.patterns.MatchesPath(filepath.ToSlash(rel)+"/") {
		return skipPattern
	}
	if p.markerFile != "" {
		if ok, _ := afero.Exists(fsys, filepath.Join(path, p.markerFile)); ok {
			return skipMarker
		}
	}
	return keep
}

// fileReason evaluates a non-directory entry.
func (p *IgnorePolicy) fileReason(rel string) skipReason {
	name := filepath.Base(rel)
	if p.markerFile != "" && name == p.markerFile {
		return skipMarkerFile
	}
	if p.ignoreHidden && isHidden(name) {
		return skipHidden
	}
	if p.patterns != nil && p.patterns.MatchesPath(filepath.ToSlash(rel)) {
		return skipPattern
	}
	return keep
}

// pathReason walks every directory between root and the file at rel and
// returns the first reason that would have excluded it during a full walk.
func (p *IgnorePolicy) pathReason(fsys afero.Fs, root, rel string) skipReason {
	parts := strings.Split(rel, string(filepath.Separator))
	for i := 1; i < len(parts); i++ {
		dirRel := filepath.Join(parts[:i]...)
		if r := p.dirReason(fsys, filepath.Join(root, dirRel), dirRel); r != keep {
			return r
		}
	}
	return p.fileReason(rel)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
