package asset

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docbake/internal/config"
	ferrors "git.home.luguber.info/inful/docbake/internal/foundation/errors"
	"git.home.luguber.info/inful/docbake/internal/metrics"
	testutils "git.home.luguber.info/inful/docbake/internal/testutil/testutils"
)

const siteRoot = "/site"

var fixture = map[string]string{
	"assets/css/bootstrap.min.css":              "body{}",
	"assets/img/glyphicons-halflings.png":       "png",
	"assets/js/bootstrap.min.js":                "var x;",
	"assets/media/favicon.ico":                  "ico",
	"assets/ignorablefolder/.docbakeignore":     "",
	"assets/ignorablefolder/test.txt":           "ignored",
	"assets/.DS_Store":                          "junk",
	"assets/.cache/state.txt":                   "cache",
	"content/about.html":                        "<p>about</p>",
	"content/blog/2012/first-post.md":           "# first",
	"content/blog/2012/images/custom-image.png": "png",
	"content/blog/2012/sample.json":             "{}",
	"content/blog/2013/second-post.html":        "<p>second</p>",
	"content/blog/2013/images/custom-image.jpg": "jpg",
	"content/blog/2013/.thumb.png":              "hidden",
	"content/drafts/.docbakeignore":             "",
	"content/drafts/preview.png":                "draft",
}

func newFixture(t *testing.T, mutate func(*config.Config)) (afero.Fs, *config.Config) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	testutils.WriteTree(t, fsys, siteRoot, fixture)

	cfg := &config.Config{SourceDir: siteRoot}
	if mutate != nil {
		mutate(cfg)
	}
	config.ApplyDefaults(cfg)
	cfg.Resolve(siteRoot)
	require.NoError(t, config.Validate(cfg))
	return fsys, cfg
}

func output(cfg *config.Config, rel string) string {
	return filepath.Join(cfg.Destination, filepath.FromSlash(rel))
}

func TestCopy(t *testing.T) {
	fsys, cfg := newFixture(t, func(c *config.Config) { c.Assets.IgnoreHidden = true })
	a := New(cfg, WithFs(fsys))

	a.Copy()

	assert.Empty(t, a.Errors())
	assert.Equal(t, 4, a.Copied())
	testutils.NewFsAssertions(t, fsys, cfg.Destination).
		AssertFileExists("css/bootstrap.min.css").
		AssertFileExists("img/glyphicons-halflings.png").
		AssertFileExists("js/bootstrap.min.js").
		AssertFileExists("media/favicon.ico").
		AssertSameContent("css/bootstrap.min.css", filepath.Join(cfg.AssetFolder, "css", "bootstrap.min.css")).
		AssertNotExists("ignorablefolder").
		AssertNotExists(".DS_Store").
		AssertNotExists(".cache").
		AssertFileCount("", 4)
}

func TestCopy_HiddenFilesKeptWhenNotIgnored(t *testing.T) {
	fsys, cfg := newFixture(t, nil)
	a := New(cfg, WithFs(fsys))

	a.Copy()

	assert.Empty(t, a.Errors())
	testutils.NewFsAssertions(t, fsys, cfg.Destination).
		AssertFileExists(".DS_Store").
		AssertFileExists(".cache/state.txt").
		AssertNotExists("ignorablefolder").
		AssertFileCount("", 6)
}

func TestCopy_ExcludedFoldersAndPatterns(t *testing.T) {
	fsys, cfg := newFixture(t, func(c *config.Config) {
		c.Assets.IgnoreHidden = true
		c.Assets.ExcludeFolders = []string{"media"}
		c.Assets.IgnorePatterns = []string{"*.js", "img/"}
	})
	a := New(cfg, WithFs(fsys))

	a.Copy()

	assert.Empty(t, a.Errors())
	testutils.NewFsAssertions(t, fsys, cfg.Destination).
		AssertFileExists("css/bootstrap.min.css").
		AssertNotExists("media").
		AssertNotExists("img").
		AssertNotExists("js/bootstrap.min.js").
		AssertFileCount("", 1)
}

func TestCopy_CustomAssetFolder(t *testing.T) {
	fsys, cfg := newFixture(t, func(c *config.Config) { c.AssetFolder = "media" })
	testutils.WriteTree(t, fsys, siteRoot, map[string]string{
		"media/fonts/glyph.woff": "woff",
		"media/favicon.ico":      "ico",
	})
	a := New(cfg, WithFs(fsys))

	a.Copy()

	assert.Empty(t, a.Errors())
	testutils.NewFsAssertions(t, fsys, cfg.Destination).
		AssertFileExists("fonts/glyph.woff").
		AssertFileExists("favicon.ico").
		AssertFileCount("", 2)
}

func TestCopy_MissingSourceFolder(t *testing.T) {
	fsys, cfg := newFixture(t, func(c *config.Config) { c.AssetFolder = "does-not-exist" })
	a := New(cfg, WithFs(fsys))

	a.Copy()

	assert.Empty(t, a.Errors())
	assert.Zero(t, a.Copied())
	assert.NoError(t, a.Err())
}

func TestCopy_WriteProtectedDestination(t *testing.T) {
	fsys, cfg := newFixture(t, nil)
	a := New(cfg, WithFs(fsys), WithDestinationFs(afero.NewReadOnlyFs(fsys)))

	a.Copy()

	errs := a.Errors()
	require.NotEmpty(t, errs)
	assert.Equal(t, OpMkdir, errs[0].Op)
	assert.Zero(t, a.Copied())
	testutils.NewFsAssertions(t, fsys, cfg.Destination).AssertNotExists("")
}

func TestCopy_OverwritesExistingTarget(t *testing.T) {
	fsys, cfg := newFixture(t, nil)
	testutils.WriteTree(t, fsys, cfg.Destination, map[string]string{
		"css/bootstrap.min.css": "stale content that is longer than the source",
	})
	a := New(cfg, WithFs(fsys))

	a.Copy()

	require.Empty(t, a.Errors())
	testutils.NewFsAssertions(t, fsys, cfg.Destination).
		AssertSameContent("css/bootstrap.min.css", filepath.Join(cfg.AssetFolder, "css", "bootstrap.min.css"))
}

func TestCopyFrom_SkipsDestination(t *testing.T) {
	fsys, cfg := newFixture(t, func(c *config.Config) { c.Assets.IgnoreHidden = true })
	a := New(cfg, WithFs(fsys))
	a.Copy()
	require.Empty(t, a.Errors())

	b := New(cfg, WithFs(fsys))
	b.CopyFrom(cfg.SourceDir)

	assert.Empty(t, b.Errors())
	testutils.NewFsAssertions(t, fsys, cfg.Destination).
		AssertFileExists("assets/css/bootstrap.min.css").
		AssertFileExists("content/blog/2012/sample.json").
		AssertNotExists("output")
}

func TestCopyAssetsFromContent(t *testing.T) {
	fsys, cfg := newFixture(t, nil)
	a := New(cfg, WithFs(fsys))

	a.CopyAssetsFromContent(cfg.ContentFolder)

	assert.Empty(t, a.Errors())
	assert.Equal(t, 3, a.Copied())
	testutils.NewFsAssertions(t, fsys, cfg.Destination).
		AssertFileExists("blog/2012/images/custom-image.png").
		AssertFileExists("blog/2013/images/custom-image.jpg").
		AssertFileExists("blog/2012/sample.json").
		AssertNotExists("about.html").
		AssertNotExists("blog/2012/first-post.md").
		AssertNotExists("blog/2013/.thumb.png").
		AssertNotExists("drafts").
		AssertFileCount("", 3)
}

func TestCopySingleFile(t *testing.T) {
	fsys, cfg := newFixture(t, nil)
	a := New(cfg, WithFs(fsys))

	a.CopySingleFile(filepath.Join(cfg.AssetFolder, "css", "bootstrap.min.css"))
	a.CopySingleFile(filepath.Join(cfg.ContentFolder, "blog", "2012", "images", "custom-image.png"))

	assert.Empty(t, a.Errors())
	assert.Equal(t, 2, a.Copied())
	testutils.NewFsAssertions(t, fsys, cfg.Destination).
		AssertFileExists("css/bootstrap.min.css").
		AssertFileExists("blog/2012/images/custom-image.png").
		AssertFileCount("", 2)
}

func TestCopySingleFile_Directory(t *testing.T) {
	fsys, cfg := newFixture(t, nil)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	a := New(cfg, WithFs(fsys), WithLogger(logger))

	a.CopySingleFile(filepath.Join(cfg.AssetFolder, "css"))

	assert.Empty(t, a.Errors())
	assert.Zero(t, a.Copied())
	assert.Equal(t, 1, strings.Count(buf.String(), "Skip copying single asset file. Is a directory."))
	testutils.NewFsAssertions(t, fsys, cfg.Destination).AssertNotExists("")
}

func TestCopySingleFile_Failures(t *testing.T) {
	fsys, cfg := newFixture(t, nil)
	testutils.WriteTree(t, fsys, "/elsewhere", map[string]string{"stray.css": "x"})
	a := New(cfg, WithFs(fsys))

	a.CopySingleFile(filepath.Join(cfg.AssetFolder, "missing.css"))
	a.CopySingleFile("/elsewhere/stray.css")

	errs := a.Errors()
	require.Len(t, errs, 2)
	assert.Equal(t, OpStat, errs[0].Op)
	assert.ErrorIs(t, errs[0], os.ErrNotExist)
	assert.Equal(t, OpResolve, errs[1].Op)
	assert.ErrorIs(t, errs[1], ErrOutsideRoots)
}

func TestIsAssetFile(t *testing.T) {
	_, cfg := newFixture(t, nil)
	a := New(cfg)

	assert.True(t, a.IsAssetFile(filepath.Join(cfg.AssetFolder, "css", "bootstrap.min.css")))
	assert.False(t, a.IsAssetFile(filepath.Join(cfg.ContentFolder, "about.html")))
	assert.False(t, a.IsAssetFile(cfg.AssetFolder))
	assert.False(t, a.IsAssetFile(cfg.AssetFolder+"-old/x.css"))
}

func TestIsContentAsset(t *testing.T) {
	fsys, cfg := newFixture(t, nil)
	a := New(cfg, WithFs(fsys))

	assert.True(t, a.IsContentAsset(filepath.Join(cfg.ContentFolder, "blog", "2012", "sample.json")))
	assert.False(t, a.IsContentAsset(filepath.Join(cfg.ContentFolder, "about.html")))
	assert.False(t, a.IsContentAsset(filepath.Join(cfg.ContentFolder, "blog", "2013", ".thumb.png")))
	assert.False(t, a.IsContentAsset(filepath.Join(cfg.ContentFolder, "blog")))
	assert.False(t, a.IsContentAsset(filepath.Join(cfg.AssetFolder, "media", "favicon.ico")))
}

func TestShouldCopy(t *testing.T) {
	fsys, cfg := newFixture(t, func(c *config.Config) { c.Assets.IgnoreHidden = true })
	a := New(cfg, WithFs(fsys))

	assert.True(t, a.ShouldCopy(filepath.Join(cfg.AssetFolder, "js", "bootstrap.min.js")))
	assert.True(t, a.ShouldCopy(filepath.Join(cfg.ContentFolder, "blog", "2013", "images", "custom-image.jpg")))
	assert.False(t, a.ShouldCopy(filepath.Join(cfg.AssetFolder, "ignorablefolder", "test.txt")))
	assert.False(t, a.ShouldCopy(filepath.Join(cfg.AssetFolder, "ignorablefolder", ".docbakeignore")))
	assert.False(t, a.ShouldCopy(filepath.Join(cfg.AssetFolder, ".cache", "state.txt")))
	assert.False(t, a.ShouldCopy(filepath.Join(cfg.ContentFolder, "drafts", "preview.png")))
	assert.False(t, a.ShouldCopy(filepath.Join(cfg.ContentFolder, "blog", "2012", "first-post.md")))
}

func TestErr(t *testing.T) {
	fsys, cfg := newFixture(t, nil)
	a := New(cfg, WithFs(fsys), WithRunID("run-1"))
	require.NoError(t, a.Err())

	a.CopySingleFile(filepath.Join(cfg.AssetFolder, "missing.css"))

	err := a.Err()
	require.Error(t, err)
	classified, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, ferrors.CategoryFileSystem, classified.Category())
	runID, _ := classified.Context().GetString("run_id")
	assert.Equal(t, "run-1", runID)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

type countingRecorder struct {
	metrics.NoopRecorder
	copied   map[metrics.SourceLabel]int
	skipped  int
	failed   int
	bytes    int64
	outcomes []metrics.OutcomeLabel
}

func (r *countingRecorder) IncFileCopied(s metrics.SourceLabel) {
	if r.copied == nil {
		r.copied = map[metrics.SourceLabel]int{}
	}
	r.copied[s]++
}
func (r *countingRecorder) IncFileSkipped(metrics.SourceLabel) { r.skipped++ }
func (r *countingRecorder) IncCopyError(metrics.SourceLabel)   { r.failed++ }
func (r *countingRecorder) AddBytesCopied(n int64)             { r.bytes += n }
func (r *countingRecorder) IncRunOutcome(o metrics.OutcomeLabel) {
	r.outcomes = append(r.outcomes, o)
}

func TestRun(t *testing.T) {
	fsys, cfg := newFixture(t, func(c *config.Config) { c.Assets.IgnoreHidden = true })
	rec := &countingRecorder{}
	a := New(cfg, WithFs(fsys), WithRecorder(rec))

	res := a.Run()

	assert.False(t, res.Failed())
	assert.Equal(t, 7, res.Copied)
	assert.Equal(t, a.RunID(), res.RunID)
	assert.Equal(t, 4, rec.copied[metrics.SourceAssets])
	assert.Equal(t, 3, rec.copied[metrics.SourceContent])
	assert.Equal(t, res.Bytes, rec.bytes)
	assert.Positive(t, rec.skipped)
	assert.Equal(t, []metrics.OutcomeLabel{metrics.OutcomeSuccess}, rec.outcomes)
}

func TestRun_SkipContentAssets(t *testing.T) {
	fsys, cfg := newFixture(t, func(c *config.Config) { c.Content.SkipAssets = true })
	a := New(cfg, WithFs(fsys))

	res := a.Run()

	assert.Equal(t, 6, res.Copied)
	testutils.NewFsAssertions(t, fsys, cfg.Destination).AssertNotExists("blog")
}

func TestRun_Failure(t *testing.T) {
	fsys, cfg := newFixture(t, nil)
	rec := &countingRecorder{}
	a := New(cfg, WithFs(fsys), WithDestinationFs(afero.NewReadOnlyFs(fsys)), WithRecorder(rec))

	res := a.Run()

	assert.True(t, res.Failed())
	assert.Equal(t, len(res.Errors), rec.failed)
	assert.Equal(t, []metrics.OutcomeLabel{metrics.OutcomeErrors}, rec.outcomes)
}

func TestCopy_OsFilesystem(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteTree(t, afero.NewOsFs(), dir, map[string]string{
		"assets/css/site.css":    "body{}",
		"assets/bin/run.sh":      "#!/bin/sh",
		"content/posts/a.md":     "# a",
		"content/posts/logo.svg": "<svg/>",
	})
	script := filepath.Join(dir, "assets", "bin", "run.sh")
	require.NoError(t, os.Chmod(script, 0o555))
	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(script, mtime, mtime))

	cfg, err := config.FromDir(dir)
	require.NoError(t, err)
	a := New(cfg)

	res := a.Run()

	require.Empty(t, res.Errors)
	testutils.NewFileAssertions(t, cfg.Destination).
		AssertSameContent("css/site.css", filepath.Join(cfg.AssetFolder, "css", "site.css")).
		AssertFileExists("posts/logo.svg").
		AssertNotExists("posts/a.md")

	info, err := os.Stat(filepath.Join(cfg.Destination, "bin", "run.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
	assert.True(t, info.ModTime().Equal(mtime))
}

func TestCopy_SymlinkedDirectoryNotFollowed(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteTree(t, afero.NewOsFs(), dir, map[string]string{
		"assets/real/a.css": "a",
		"shared/b.css":      "b",
	})
	if err := os.Symlink(filepath.Join(dir, "shared"), filepath.Join(dir, "assets", "linked")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(dir, "shared", "b.css"), filepath.Join(dir, "assets", "b.css")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	cfg, err := config.FromDir(dir)
	require.NoError(t, err)
	a := New(cfg)

	a.Copy()

	require.Empty(t, a.Errors())
	testutils.NewFileAssertions(t, cfg.Destination).
		AssertFileExists("real/a.css").
		AssertFileExists("b.css").
		AssertNotExists("linked")
}

func TestCopy_UnwritableOsDestination(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	dir := t.TempDir()
	testutils.WriteTree(t, afero.NewOsFs(), dir, map[string]string{
		"assets/css/site.css": "body{}",
		"output/":             "",
	})
	out := filepath.Join(dir, "output")
	require.NoError(t, os.Chmod(out, 0o555))
	t.Cleanup(func() { _ = os.Chmod(out, 0o755) })

	cfg, err := config.FromDir(dir)
	require.NoError(t, err)
	a := New(cfg)

	a.Copy()

	assert.NotEmpty(t, a.Errors())
}
