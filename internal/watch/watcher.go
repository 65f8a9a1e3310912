// Package watch keeps the destination folder in sync with the asset and
// content folders while files change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/docbake/internal/asset"
	"git.home.luguber.info/inful/docbake/internal/config"
	ferrors "git.home.luguber.info/inful/docbake/internal/foundation/errors"
	"git.home.luguber.info/inful/docbake/internal/logfields"
)

// Copier is the part of asset.Asset the watcher drives.
type Copier interface {
	CopySingleFile(path string)
	ShouldCopy(path string) bool
	Errors() []asset.CopyError
}

// CopierFactory returns a fresh Copier for every batch, so each batch owns
// its error list.
type CopierFactory func() Copier

// Watcher copies settled file changes below the watched roots.
type Watcher struct {
	roots    []string
	debounce time.Duration
	factory  CopierFactory
	logger   *slog.Logger

	resyncEvery time.Duration
	resync      func()

	// runMu serializes batches and resyncs.
	runMu sync.Mutex

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	flushCh chan struct{}
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides the debounce delay from the configuration.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithResync runs fn every interval while the watcher runs. A zero interval
// disables it.
func WithResync(interval time.Duration, fn func()) Option {
	return func(w *Watcher) {
		w.resyncEvery = interval
		w.resync = fn
	}
}

// New creates a watcher over the asset and content folders of cfg. The
// content folder is only watched when content assets are copied.
func New(cfg *config.Config, factory CopierFactory, opts ...Option) *Watcher {
	roots := []string{cfg.AssetFolder}
	if !cfg.Content.SkipAssets {
		roots = append(roots, cfg.ContentFolder)
	}
	w := &Watcher{
		roots:       roots,
		debounce:    cfg.DebounceDuration(),
		factory:     factory,
		logger:      slog.Default(),
		resyncEvery: cfg.ResyncInterval(),
		pending:     make(map[string]struct{}),
		flushCh:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is done. Pending changes are flushed before it returns.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return ferrors.WatchError("failed to create filesystem watcher").WithCause(err).Build()
	}
	defer func() { _ = fsw.Close() }()

	watched := 0
	for _, root := range w.roots {
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			w.logger.Warn("Folder does not exist, not watching", logfields.Path(root))
			continue
		}
		w.addDirsRecursive(fsw, root)
		watched++
	}
	if watched == 0 {
		return ferrors.WatchError("nothing to watch").
			WithContext("roots", fmt.Sprint(w.roots)).Build()
	}

	if w.resync != nil && w.resyncEvery > 0 {
		sched, err := NewScheduler(w.logger)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryWatch, "failed to start resync scheduler").Build()
		}
		if _, err := sched.ScheduleResync(w.resyncEvery, w.runResync); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryWatch, "failed to schedule resync").Build()
		}
		sched.Start(ctx)
		defer func() {
			if err := sched.Stop(ctx); err != nil {
				w.logger.Warn("Scheduler shutdown error", logfields.Error(err))
			}
		}()
	}

	w.logger.Info("Watching for changes",
		logfields.Count(watched),
		slog.Duration("debounce", w.debounce))

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			w.flush()
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		case <-w.flushCh:
			w.flush()
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	if isEditorArtifact(ev.Name) {
		return
	}
	w.logger.Debug("File change detected", logfields.Path(ev.Name), logfields.Event(ev.Op.String()))

	info, err := os.Stat(ev.Name)
	if err != nil {
		return
	}
	if !info.IsDir() {
		w.queue(ev.Name)
		return
	}
	if !ev.Has(fsnotify.Create) {
		return
	}
	// Files may land in a new directory before its watch is registered.
	w.addDirsRecursive(fsw, ev.Name)
	_ = filepath.WalkDir(ev.Name, func(path string, d fs.DirEntry, err error) error {
		if err == nil && d.Type().IsRegular() {
			w.queue(path)
		}
		return nil
	})
}

// queue records a changed path and restarts the debounce timer.
func (w *Watcher) queue(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.flushCh <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// takePending drains the pending set in lexical order.
func (w *Watcher) takePending() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	clear(w.pending)
	slices.Sort(paths)
	return paths
}

// flush copies every settled path the copier accepts.
func (w *Watcher) flush() {
	paths := w.takePending()
	if len(paths) == 0 {
		return
	}

	w.runMu.Lock()
	defer w.runMu.Unlock()

	c := w.factory()
	copied := 0
	for _, p := range paths {
		if !c.ShouldCopy(p) {
			w.logger.Debug("Change not copied", logfields.Path(p))
			continue
		}
		c.CopySingleFile(p)
		copied++
	}

	errs := c.Errors()
	for _, e := range errs {
		w.logger.Error("Copy failed", logfields.Path(e.Source), logfields.Op(string(e.Op)), logfields.Error(e.Err))
	}
	w.logger.Info("Copied changed files",
		logfields.Count(copied-len(errs)),
		slog.Int("errors", len(errs)))
}

func (w *Watcher) runResync() {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	w.resync()
}

func (w *Watcher) addDirsRecursive(fsw *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := fsw.Add(path); err != nil {
				w.logger.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}
