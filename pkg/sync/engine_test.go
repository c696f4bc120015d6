package sync

import (
	"context"
	"io"
	"os"
	"path/filepath"
	gosync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/treesync/pkg/compare"
	"github.com/sdejongh/treesync/pkg/fsops"
	"github.com/sdejongh/treesync/pkg/models"
	"github.com/sdejongh/treesync/pkg/output"
)

// countingProvider counts Copy and Remove calls on top of a real provider
type countingProvider struct {
	fsops.Provider
	copies  atomic.Int32
	removes atomic.Int32
}

func (p *countingProvider) Copy(ctx context.Context, src, dst string, opts fsops.CopyOptions) error {
	p.copies.Add(1)
	return p.Provider.Copy(ctx, src, dst, opts)
}

func (p *countingProvider) Remove(ctx context.Context, path string) error {
	p.removes.Add(1)
	return p.Provider.Remove(ctx, path)
}

// recordingFormatter keeps every progress update
type recordingFormatter struct {
	mu      gosync.Mutex
	updates []output.ProgressUpdate
}

func (f *recordingFormatter) Start(w io.Writer, op *models.SyncOperation) error {
	return nil
}

func (f *recordingFormatter) Progress(u output.ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, u)
	return nil
}

func (f *recordingFormatter) Complete(*models.SyncReport) error { return nil }
func (f *recordingFormatter) Error(error) error                 { return nil }
func (f *recordingFormatter) Name() string                      { return "recording" }

func (f *recordingFormatter) count(typ string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.updates {
		if u.Type == typ {
			n++
		}
	}
	return n
}

type fixture struct {
	src      string
	dst      string
	provider *countingProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := t.TempDir()
	f := &fixture{
		src:      filepath.Join(base, "src"),
		dst:      filepath.Join(base, "dst"),
		provider: &countingProvider{Provider: fsops.NewLocal(nil, fsops.LocalOptions{})},
	}
	require.NoError(t, os.MkdirAll(f.src, 0755))
	return f
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func (f *fixture) operation(files []string, dests ...string) *models.SyncOperation {
	if len(dests) == 0 {
		dests = []string{f.dst}
	}
	return &models.SyncOperation{
		ID:              "test-op",
		SourcePath:      f.src,
		DestPaths:       dests,
		Files:           files,
		ExcludePatterns: []string{"node_modules", ".git"},
		IgnorePatterns:  []string{"node_modules", ".git"},
		MaxWorkers:      4,
		BufferSize:      4096,
	}
}

func (f *fixture) run(t *testing.T, op *models.SyncOperation, formatter output.Formatter) (*models.SyncReport, error) {
	t.Helper()
	comparator := compare.NewTimeSizeComparator(compare.NewBinaryComparator(op.BufferSize))
	engine := NewEngine(f.provider, comparator, formatter, nil, op)
	return engine.Run(context.Background())
}

func TestEngine_CopiesListedFiles(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.src, "index.js"), "index")
	writeFile(t, filepath.Join(f.src, "lib/util.js"), "util")
	writeFile(t, filepath.Join(f.src, "unlisted.txt"), "nope")

	report, err := f.run(t, f.operation([]string{"index.js", "lib/util.js"}), nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusSuccess, report.Status)
	assert.Equal(t, 2, report.SourceFiles)
	assert.Equal(t, 1, report.SourceDirs)
	assert.Equal(t, "index", readFile(t, filepath.Join(f.dst, "index.js")))
	assert.Equal(t, "util", readFile(t, filepath.Join(f.dst, "lib/util.js")))
	assert.NoFileExists(t, filepath.Join(f.dst, "unlisted.txt"))

	srcInfo, err := os.Stat(filepath.Join(f.src, "index.js"))
	require.NoError(t, err)
	dstInfo, err := os.Stat(filepath.Join(f.dst, "index.js"))
	require.NoError(t, err)
	assert.True(t, srcInfo.ModTime().Equal(dstInfo.ModTime()), "modification time preserved")
}

func TestEngine_SecondRunIsNoop(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.src, "a.txt"), "a")
	writeFile(t, filepath.Join(f.src, "dir/b.txt"), "b")

	op := f.operation(nil)
	_, err := f.run(t, op, nil)
	require.NoError(t, err)
	require.Positive(t, f.provider.copies.Load())

	f.provider.copies.Store(0)
	report, err := f.run(t, op, nil)
	require.NoError(t, err)

	assert.Zero(t, f.provider.copies.Load())
	assert.Zero(t, f.provider.removes.Load())
	require.Len(t, report.Destinations, 1)
	assert.Equal(t, models.Statistics{Equal: 2}, report.Destinations[0].Stats)
	assert.Empty(t, report.Destinations[0].Differences)
}

func TestEngine_ChangedContentCopiedOnce(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.src, "a.txt")
	writeFile(t, path, "old")
	writeFile(t, filepath.Join(f.src, "same.txt"), "same")

	op := f.operation(nil)
	_, err := f.run(t, op, nil)
	require.NoError(t, err)

	writeFile(t, path, "new contents")
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	f.provider.copies.Store(0)
	report, err := f.run(t, op, nil)
	require.NoError(t, err)

	assert.EqualValues(t, 1, f.provider.copies.Load())
	assert.Equal(t, 1, report.Destinations[0].Stats.ChangedContents)
	assert.Equal(t, "new contents", readFile(t, filepath.Join(f.dst, "a.txt")))
}

func TestEngine_ExcludedPathsSurvive(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.src, "index.js"), "index")
	writeFile(t, filepath.Join(f.src, "node_modules/dep/index.js"), "source dep")
	writeFile(t, filepath.Join(f.dst, "node_modules/dep/index.js"), "installed dep")
	writeFile(t, filepath.Join(f.dst, "stale.js"), "stale")

	report, err := f.run(t, f.operation(nil), nil)
	require.NoError(t, err)

	assert.Equal(t, "installed dep", readFile(t, filepath.Join(f.dst, "node_modules/dep/index.js")))
	assert.NoFileExists(t, filepath.Join(f.dst, "stale.js"))
	assert.FileExists(t, filepath.Join(f.dst, "index.js"))

	stats := report.Destinations[0].Stats
	assert.Equal(t, 1, stats.Added)
	assert.Equal(t, 1, stats.Removed)
	assert.Equal(t, 1, stats.Excluded)
}

func TestEngine_DirectoryReplacedByFile(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.src, "x"), "now a file")
	writeFile(t, filepath.Join(f.dst, "x/inner.txt"), "was a dir")

	report, err := f.run(t, f.operation([]string{"x"}), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Destinations[0].Stats.ChangedTypes)
	info, err := os.Lstat(filepath.Join(f.dst, "x"))
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular())
	assert.Equal(t, "now a file", readFile(t, filepath.Join(f.dst, "x")))
}

func TestEngine_SymlinksIgnored(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.src, "real.txt"), "real")
	require.NoError(t, os.Symlink("real.txt", filepath.Join(f.src, "link.txt")))
	require.NoError(t, os.MkdirAll(f.dst, 0755))
	require.NoError(t, os.Symlink("/nowhere", filepath.Join(f.dst, "dangling")))

	report, err := f.run(t, f.operation(nil), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Destinations[0].Stats.Added)
	_, err = os.Lstat(filepath.Join(f.dst, "link.txt"))
	assert.True(t, os.IsNotExist(err), "source symlink not copied")
	_, err = os.Lstat(filepath.Join(f.dst, "dangling"))
	assert.NoError(t, err, "destination symlink left alone")
}

func TestEngine_DryRun(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.src, "a.txt"), "a")
	writeFile(t, filepath.Join(f.dst, "old.txt"), "old")

	op := f.operation(nil)
	op.DryRun = true
	report, err := f.run(t, op, nil)
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Zero(t, f.provider.copies.Load())
	assert.Zero(t, f.provider.removes.Load())
	assert.FileExists(t, filepath.Join(f.dst, "old.txt"))
	assert.NoFileExists(t, filepath.Join(f.dst, "a.txt"))
	assert.Equal(t, []models.Difference{
		{Path: "a.txt", Kind: "added"},
		{Path: "old.txt", Kind: "removed"},
	}, report.Destinations[0].Differences)
}

func TestEngine_MultipleDestinations(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.src, "a.txt"), "a")

	second := filepath.Join(filepath.Dir(f.dst), "second")
	blocked := filepath.Join(filepath.Dir(f.dst), "blocked")
	writeFile(t, blocked, "a file where a directory should be")

	formatter := &recordingFormatter{}
	report, err := f.run(t, f.operation(nil, f.dst, blocked, second), formatter)
	require.Error(t, err)
	assert.Contains(t, err.Error(), blocked)

	assert.Equal(t, models.StatusPartial, report.Status)
	require.Len(t, report.Destinations, 3)
	assert.Equal(t, models.StatusSuccess, report.Destinations[0].Status)
	assert.Equal(t, models.StatusFailed, report.Destinations[1].Status)
	assert.NotEmpty(t, report.Destinations[1].Error)
	assert.Equal(t, models.StatusSuccess, report.Destinations[2].Status)

	assert.FileExists(t, filepath.Join(f.dst, "a.txt"))
	assert.FileExists(t, filepath.Join(second, "a.txt"))

	assert.Equal(t, 2, formatter.count(output.UpdateDestinationComplete))
	assert.Equal(t, 1, formatter.count(output.UpdateDestinationError))
	assert.Equal(t, 2, formatter.count(output.UpdateItemComplete))
}

func TestEngine_SourceFailure(t *testing.T) {
	f := newFixture(t)
	op := f.operation(nil)
	op.SourcePath = filepath.Join(f.src, "file.txt")
	writeFile(t, op.SourcePath, "not a dir")

	report, err := f.run(t, op, nil)
	require.Error(t, err)
	assert.Equal(t, models.StatusFailed, report.Status)
	assert.Empty(t, report.Destinations)
}

func TestEngine_EmptySource(t *testing.T) {
	f := newFixture(t)

	report, err := f.run(t, f.operation(nil), nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, report.Status)
	assert.Zero(t, report.SourceFiles)
}

func TestEngine_EmptyFileListClearsDestination(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.src, "a.txt"), "a")
	writeFile(t, filepath.Join(f.dst, "a.txt"), "a")
	writeFile(t, filepath.Join(f.dst, "dir/b.txt"), "b")
	writeFile(t, filepath.Join(f.dst, ".git/HEAD"), "ref")

	report, err := f.run(t, f.operation([]string{}), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Destinations[0].Stats.Removed)
	assert.NoFileExists(t, filepath.Join(f.dst, "a.txt"))
	assert.NoDirExists(t, filepath.Join(f.dst, "dir"))
	assert.FileExists(t, filepath.Join(f.dst, ".git/HEAD"))
}

func TestEngine_ContextCancellation(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 10; i++ {
		writeFile(t, filepath.Join(f.src, "subdir", "file"+string(rune('0'+i))+".txt"), "content")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	op := f.operation(nil)
	engine := NewEngine(f.provider, compare.NewTimeSizeComparator(compare.NewBinaryComparator(4096)), nil, nil, op)
	report, err := engine.Run(ctx)

	require.Error(t, err)
	assert.Equal(t, models.StatusCancelled, report.Status)
	assert.NoDirExists(t, f.dst)
}
