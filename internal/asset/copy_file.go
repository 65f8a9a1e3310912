package asset

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/docbake/internal/logfields"
	"git.home.luguber.info/inful/docbake/internal/metrics"
)

const dirPerm os.FileMode = 0o755

// copyFile writes src to dst, creating parent directories. The copy keeps the
// source permission bits plus owner write, and the source modification time.
func (a *Asset) copyFile(src, dst string, info os.FileInfo, source metrics.SourceLabel) {
	if err := a.dstFs.MkdirAll(filepath.Dir(dst), dirPerm); err != nil {
		a.record(CopyError{Source: src, Target: dst, Op: OpMkdir, Err: err}, source)
		return
	}

	in, err := a.srcFs.Open(src)
	if err != nil {
		a.record(CopyError{Source: src, Target: dst, Op: OpOpen, Err: err}, source)
		return
	}
	defer func() { _ = in.Close() }()

	perm := info.Mode().Perm() | 0o200
	out, err := a.dstFs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		a.record(CopyError{Source: src, Target: dst, Op: OpCreate, Err: err}, source)
		return
	}

	n, err := io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		a.record(CopyError{Source: src, Target: dst, Op: OpWrite, Err: err}, source)
		return
	}

	// An existing target keeps its old mode through OpenFile.
	if err := a.dstFs.Chmod(dst, perm); err != nil {
		a.logger.Debug("Failed to set file mode", logfields.Path(dst), logfields.Error(err))
	}
	if err := a.dstFs.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		a.logger.Debug("Failed to preserve modification time", logfields.Path(dst), logfields.Error(err))
	}

	a.copied++
	a.bytes += n
	a.recorder.IncFileCopied(source)
	a.recorder.AddBytesCopied(n)
	a.logger.Debug("Copied file", logfields.Path(src), logfields.Target(dst), logfields.Bytes(n))
}

// readDir lists dir sorted by name. OsFs reports symlinks unresolved.
func (a *Asset) readDir(dir string) ([]os.FileInfo, error) {
	infos, err := afero.ReadDir(a.srcFs, dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })
	return infos, nil
}
