package asset

import (
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"git.home.luguber.info/inful/docbake/internal/config"
	ferrors "git.home.luguber.info/inful/docbake/internal/foundation/errors"
	"git.home.luguber.info/inful/docbake/internal/logfields"
	"git.home.luguber.info/inful/docbake/internal/metrics"
)

// Asset copies files from the configured asset and content folders into the
// destination folder. An Asset is one run: it owns its error list and is not
// safe for concurrent use.
type Asset struct {
	cfg      *config.Config
	srcFs    afero.Fs
	dstFs    afero.Fs
	logger   *slog.Logger
	recorder metrics.Recorder
	runID    string

	assetPolicy   *IgnorePolicy
	contentPolicy *IgnorePolicy

	errors []CopyError
	copied int
	bytes  int64
}

// Option customizes an Asset.
type Option func(*Asset)

// WithFs reads and writes through fsys.
func WithFs(fsys afero.Fs) Option {
	return func(a *Asset) {
		a.srcFs = fsys
		a.dstFs = fsys
	}
}

// WithDestinationFs writes through fsys while still reading from the source filesystem.
func WithDestinationFs(fsys afero.Fs) Option {
	return func(a *Asset) { a.dstFs = fsys }
}

// WithLogger sets the logger; the run id is attached to it.
func WithLogger(l *slog.Logger) Option {
	return func(a *Asset) { a.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(a *Asset) { a.recorder = r }
}

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(a *Asset) { a.runID = id }
}

// New creates a copier for cfg. cfg must be resolved (see config.Load).
func New(cfg *config.Config, opts ...Option) *Asset {
	a := &Asset{
		cfg:      cfg,
		srcFs:    afero.NewOsFs(),
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.dstFs == nil {
		a.dstFs = a.srcFs
	}
	if a.runID == "" {
		a.runID = uuid.NewString()
	}
	a.logger = a.logger.With(logfields.RunID(a.runID))
	a.assetPolicy = NewIgnorePolicy(cfg.Assets)
	// Hidden files next to content are never published.
	a.contentPolicy = a.assetPolicy.withHidden(true)
	return a
}

// RunID identifies this copy run in logs.
func (a *Asset) RunID() string { return a.runID }

// Copy copies the configured asset folder into the destination folder.
func (a *Asset) Copy() {
	a.CopyFrom(a.cfg.AssetFolder)
}

// CopyFrom recursively copies the contents of root into the destination
// folder, keeping paths relative to root. A missing root copies nothing and
// records nothing.
func (a *Asset) CopyFrom(root string) {
	root = absPath(root)
	a.logger.Debug("Copying assets", logfields.Path(root))
	a.walk(root, a.cfg.Destination, walkAssets, root)
}

// CopyAssetsFromContent copies every non-markup file below contentRoot into
// the destination folder, keeping paths relative to contentRoot.
func (a *Asset) CopyAssetsFromContent(contentRoot string) {
	contentRoot = absPath(contentRoot)
	a.logger.Debug("Copying assets from content", logfields.Path(contentRoot))
	a.walk(contentRoot, a.cfg.Destination, walkContent, contentRoot)
}

// CopySingleFile copies one file. Its destination is computed relative to the
// asset folder when the file lives there, otherwise relative to the content
// folder. Directories are skipped with a notice.
func (a *Asset) CopySingleFile(path string) {
	path = absPath(path)

	info, err := a.srcFs.Stat(path)
	if err != nil {
		a.record(CopyError{Source: path, Op: OpStat, Err: err}, metrics.SourceSingle)
		return
	}
	if info.IsDir() {
		a.logger.Info("Skip copying single asset file. Is a directory.", logfields.Path(path))
		return
	}

	rel, ok := a.subPath(path)
	if !ok {
		a.record(CopyError{Source: path, Op: OpResolve, Err: ErrOutsideRoots}, metrics.SourceSingle)
		return
	}
	target := filepath.Join(a.cfg.Destination, rel)
	a.logger.Info("Copying single asset file", logfields.Path(path), logfields.Target(target))
	a.copyFile(path, target, info, metrics.SourceSingle)
}

// subPath strips the asset folder, or failing that the content folder, from path.
func (a *Asset) subPath(path string) (string, bool) {
	if rel, ok := config.RelativeTo(a.cfg.AssetFolder, path); ok && rel != "" {
		return rel, true
	}
	if rel, ok := config.RelativeTo(a.cfg.ContentFolder, path); ok && rel != "" {
		return rel, true
	}
	return "", false
}

// IsAssetFile reports whether path lies under the configured asset folder.
func (a *Asset) IsAssetFile(path string) bool {
	return config.IsWithin(a.cfg.AssetFolder, absPath(path))
}

// IsContentAsset reports whether path is a non-hidden, non-markup regular
// file under the configured content folder.
func (a *Asset) IsContentAsset(path string) bool {
	path = absPath(path)
	if !config.IsWithin(a.cfg.ContentFolder, path) {
		return false
	}
	if isHidden(filepath.Base(path)) || a.cfg.IsMarkupExtension(filepath.Ext(path)) {
		return false
	}
	info, err := a.srcFs.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ShouldCopy reports whether a full run would copy path: it must be an asset
// or content asset, and no folder between its root and itself may be ignored.
func (a *Asset) ShouldCopy(path string) bool {
	path = absPath(path)
	switch {
	case a.IsAssetFile(path):
		rel, _ := config.RelativeTo(a.cfg.AssetFolder, path)
		return a.assetPolicy.pathReason(a.srcFs, a.cfg.AssetFolder, rel) == keep
	case a.IsContentAsset(path):
		rel, _ := config.RelativeTo(a.cfg.ContentFolder, path)
		return a.contentPolicy.pathReason(a.srcFs, a.cfg.ContentFolder, rel) == keep
	default:
		return false
	}
}

// Errors returns the failures recorded so far.
func (a *Asset) Errors() []CopyError {
	out := make([]CopyError, len(a.errors))
	copy(out, a.errors)
	return out
}

// Copied returns the number of files written.
func (a *Asset) Copied() int { return a.copied }

// BytesCopied returns the number of bytes written.
func (a *Asset) BytesCopied() int64 { return a.bytes }

// Err summarizes the recorded failures as one classified filesystem error, or
// returns nil when there are none.
func (a *Asset) Err() error {
	if len(a.errors) == 0 {
		return nil
	}
	causes := make([]error, len(a.errors))
	for i, rec := range a.errors {
		causes[i] = rec
	}
	return ferrors.FileSystemError("asset copy finished with errors").
		WithCause(errors.Join(causes...)).
		WithContext("errors", len(a.errors)).
		WithContext("copied", a.copied).
		WithContext("run_id", a.runID).
		Build()
}

func (a *Asset) record(rec CopyError, source metrics.SourceLabel) {
	a.errors = append(a.errors, rec)
	a.recorder.IncCopyError(source)
	attrs := []any{logfields.Path(rec.Source), logfields.Op(string(rec.Op)), logfields.Error(rec.Err)}
	if rec.Target != "" {
		attrs = append(attrs, logfields.Target(rec.Target))
	}
	a.logger.Error("Copy failed", attrs...)
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
