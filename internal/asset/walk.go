package asset

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docbake/internal/logfields"
	"git.home.luguber.info/inful/docbake/internal/metrics"
)

type walkMode int

const (
	walkAssets walkMode = iota
	walkContent
)

func (m walkMode) source() metrics.SourceLabel {
	if m == walkContent {
		return metrics.SourceContent
	}
	return metrics.SourceAssets
}

// walk mirrors dir into target, depth-first in lexical order. root is the
// top of the walk and anchors relative paths for the ignore patterns.
func (a *Asset) walk(dir, target string, mode walkMode, root string) {
	source := mode.source()
	policy := a.assetPolicy
	if mode == walkContent {
		policy = a.contentPolicy
	}

	infos, err := a.readDir(dir)
	if err != nil {
		if dir == root && errors.Is(err, fs.ErrNotExist) {
			a.logger.Debug("Source folder does not exist, nothing to copy", logfields.Path(dir))
			return
		}
		a.record(CopyError{Source: dir, Op: OpList, Err: err}, source)
		return
	}

	for _, info := range infos {
		path := filepath.Join(dir, info.Name())
		dst := filepath.Join(target, info.Name())
		rel, _ := filepath.Rel(root, path)

		if info.Mode()&os.ModeSymlink != 0 {
			resolved, err := a.srcFs.Stat(path)
			if err != nil {
				a.record(CopyError{Source: path, Op: OpStat, Err: err}, source)
				continue
			}
			if resolved.IsDir() {
				a.logger.Debug("Not following symlinked directory", logfields.Path(path))
				continue
			}
			info = resolved
		}

		if info.IsDir() {
			// The destination may live inside the walked tree; never copy it into itself.
			if path == a.cfg.Destination {
				continue
			}
			if reason := policy.dirReason(a.srcFs, path, rel); reason != keep {
				a.skip(path, reason, source)
				continue
			}
			a.walk(path, dst, mode, root)
			continue
		}

		if !info.Mode().IsRegular() {
			a.logger.Debug("Skipping non-regular file", logfields.Path(path))
			continue
		}
		if reason := policy.fileReason(rel); reason != keep {
			a.skip(path, reason, source)
			continue
		}
		if mode == walkContent && a.cfg.IsMarkupExtension(filepath.Ext(path)) {
			continue
		}
		a.copyFile(path, dst, info, source)
	}
}

func (a *Asset) skip(path string, reason skipReason, source metrics.SourceLabel) {
	a.recorder.IncFileSkipped(source)
	a.logger.Debug("Skipping ignored entry", logfields.Path(path), logfields.Op(string(reason)))
}
