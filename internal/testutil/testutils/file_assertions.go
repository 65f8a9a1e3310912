package helpers

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

// FileAssertions provides utilities for asserting file system state in tests.
type FileAssertions struct {
	t       *testing.T
	fs      afero.Fs
	baseDir string
}

// NewFileAssertions creates a new file assertions helper on the OS filesystem.
func NewFileAssertions(t *testing.T, baseDir string) *FileAssertions {
	return NewFsAssertions(t, afero.NewOsFs(), baseDir)
}

// NewFsAssertions creates a file assertions helper backed by fsys.
func NewFsAssertions(t *testing.T, fsys afero.Fs, baseDir string) *FileAssertions {
	return &FileAssertions{
		t:       t,
		fs:      fsys,
		baseDir: baseDir,
	}
}

// AssertFileExists validates that a regular file exists.
func (fa *FileAssertions) AssertFileExists(relativePath string) *FileAssertions {
	fa.t.Helper()
	fullPath := filepath.Join(fa.baseDir, relativePath)
	stat, err := fa.fs.Stat(fullPath)
	if err != nil {
		fa.t.Errorf("Expected file to exist: %s", fullPath)
	} else if stat.IsDir() {
		fa.t.Errorf("Expected %s to be a file, but it's a directory", fullPath)
	}
	return fa
}

// AssertNotExists validates that nothing exists at the path.
func (fa *FileAssertions) AssertNotExists(relativePath string) *FileAssertions {
	fa.t.Helper()
	fullPath := filepath.Join(fa.baseDir, relativePath)
	if ok, _ := afero.Exists(fa.fs, fullPath); ok {
		fa.t.Errorf("Expected %s not to exist", fullPath)
	}
	return fa
}

// AssertDirExists validates that a directory exists.
func (fa *FileAssertions) AssertDirExists(relativePath string) *FileAssertions {
	fa.t.Helper()
	fullPath := filepath.Join(fa.baseDir, relativePath)
	if stat, err := fa.fs.Stat(fullPath); os.IsNotExist(err) {
		fa.t.Errorf("Expected directory to exist: %s", fullPath)
	} else if err == nil && !stat.IsDir() {
		fa.t.Errorf("Expected %s to be a directory, but it's a file", fullPath)
	}
	return fa
}

// AssertFileContains validates that a file contains expected content.
func (fa *FileAssertions) AssertFileContains(relativePath, expectedContent string) *FileAssertions {
	fa.t.Helper()
	fullPath := filepath.Join(fa.baseDir, relativePath)

	content, err := afero.ReadFile(fa.fs, fullPath)
	if err != nil {
		fa.t.Errorf("Failed to read file %s: %v", fullPath, err)
		return fa
	}

	if !strings.Contains(string(content), expectedContent) {
		fa.t.Errorf("Expected file %s to contain %q\nActual content:\n%s",
			relativePath, expectedContent, string(content))
	}
	return fa
}

// AssertSameContent validates that relativePath holds exactly the bytes of
// the file at sourcePath, read through the same filesystem.
func (fa *FileAssertions) AssertSameContent(relativePath, sourcePath string) *FileAssertions {
	fa.t.Helper()
	fullPath := filepath.Join(fa.baseDir, relativePath)

	want, err := afero.ReadFile(fa.fs, sourcePath)
	if err != nil {
		fa.t.Errorf("Failed to read source %s: %v", sourcePath, err)
		return fa
	}
	got, err := afero.ReadFile(fa.fs, fullPath)
	if err != nil {
		fa.t.Errorf("Failed to read file %s: %v", fullPath, err)
		return fa
	}
	if !bytes.Equal(want, got) {
		fa.t.Errorf("Expected %s to match %s byte for byte", fullPath, sourcePath)
	}
	return fa
}

// AssertFileCount validates the number of regular files below relativePath,
// counted recursively.
func (fa *FileAssertions) AssertFileCount(relativePath string, count int) *FileAssertions {
	fa.t.Helper()
	if got := CountFiles(fa.t, fa.fs, filepath.Join(fa.baseDir, relativePath)); got != count {
		fa.t.Errorf("Expected %d files in %s, found %d", count, relativePath, got)
	}
	return fa
}

// CountFiles returns the number of regular files below root. A missing root
// counts as empty.
func CountFiles(t *testing.T, fsys afero.Fs, root string) int {
	t.Helper()
	if ok, _ := afero.DirExists(fsys, root); !ok {
		return 0
	}
	count := 0
	err := afero.Walk(fsys, root, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			count++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to walk %s: %v", root, err)
	}
	return count
}

// WriteTree creates files below root. Keys are slash separated relative
// paths; a key ending in "/" creates an empty directory.
func WriteTree(t *testing.T, fsys afero.Fs, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if strings.HasSuffix(rel, "/") {
			if err := fsys.MkdirAll(full, 0o755); err != nil {
				t.Fatalf("Failed to create %s: %v", full, err)
			}
			continue
		}
		if err := fsys.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("Failed to create %s: %v", filepath.Dir(full), err)
		}
		if err := afero.WriteFile(fsys, full, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", full, err)
		}
	}
}
