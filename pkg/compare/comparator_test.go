package compare

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sdejongh/treesync/pkg/fsops"
	"github.com/sdejongh/treesync/pkg/fspath"
)

// TestHelper provides utilities for comparator tests
type TestHelper struct {
	t       *testing.T
	tempDir string
	fs      fsops.Provider
}

// NewTestHelper creates a new test helper with temporary directories
func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "treesync-compare-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	return &TestHelper{t: t, tempDir: tempDir, fs: fsops.NewLocal(nil, fsops.LocalOptions{})}
}

// File creates a file under side ("source" or "dest") and returns its path and stats
func (h *TestHelper) File(side, name string, content []byte, modTime time.Time) (fspath.Path, fsops.Stats) {
	h.t.Helper()
	full := filepath.Join(h.tempDir, side, name)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		h.t.Fatalf("failed to create parent dir: %v", err)
	}
	if err := os.WriteFile(full, content, 0644); err != nil {
		h.t.Fatalf("failed to create file: %v", err)
	}
	if err := os.Chtimes(full, modTime, modTime); err != nil {
		h.t.Fatalf("failed to set mod time: %v", err)
	}

	p, err := fspath.New(full, h.fs)
	if err != nil {
		h.t.Fatal(err)
	}
	stats, err := p.Stat(context.Background())
	if err != nil {
		h.t.Fatal(err)
	}
	return p, stats
}

func TestBinaryComparator(t *testing.T) {
	h := NewTestHelper(t)
	comparator := NewBinaryComparator(4096)
	ctx := context.Background()
	now := time.Now()

	tests := []struct {
		name   string
		source []byte
		dest   []byte
		want   Result
	}{
		{"Identical", []byte("identical content"), []byte("identical content"), Same},
		{"Empty", nil, nil, Same},
		{"DifferentContent", []byte("aaaaaaaaaa"), []byte("aaaaXaaaaa"), Different},
		{"DifferentAtStart", []byte("Xbcdefghij"), []byte("abcdefghij"), Different},
		{"DestLonger", []byte("short"), []byte("short and then some"), Different},
		{"SourceLonger", []byte("short and then some"), []byte("short"), Different},
		{"ExactBufferMultiple", []byte(strings.Repeat("z", 8192)), []byte(strings.Repeat("z", 8192)), Same},
		{"DiffersInSecondChunk", []byte(strings.Repeat("z", 5000)), []byte(strings.Repeat("z", 4999) + "y"), Different},
		{"DestContinuesPastChunk", []byte(strings.Repeat("z", 4096)), []byte(strings.Repeat("z", 4097)), Different},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, srcStats := h.File("source", tt.name, tt.source, now)
			dst, dstStats := h.File("dest", tt.name, tt.dest, now)

			result, err := comparator.Compare(ctx, src, dst, srcStats, dstStats)
			if err != nil {
				t.Fatalf("Compare() error = %v", err)
			}
			if result.Result != tt.want {
				t.Errorf("Result = %s, want %s (%s)", result.Result, tt.want, result.Reason)
			}
			if result.SourcePath != src.String() || result.DestPath != dst.String() {
				t.Errorf("paths = %s, %s", result.SourcePath, result.DestPath)
			}
		})
	}

	t.Run("MissingDestination", func(t *testing.T) {
		src, srcStats := h.File("source", "lonely.txt", []byte("x"), now)
		dst, err := fspath.New(filepath.Join(h.tempDir, "dest", "lonely.txt"), h.fs)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := comparator.Compare(ctx, src, dst, srcStats, fsops.Stats{}); err == nil {
			t.Error("Compare() should fail when the destination cannot be opened")
		}
	})
}

// countingComparator records whether the content check was reached
type countingComparator struct {
	calls int
}

func (c *countingComparator) Compare(ctx context.Context, source, dest fspath.Path, sourceStats, destStats fsops.Stats) (*Comparison, error) {
	c.calls++
	return &Comparison{Result: Same}, nil
}

func (c *countingComparator) Name() string { return "counting" }

func TestTimeSizeComparator(t *testing.T) {
	h := NewTestHelper(t)
	ctx := context.Background()
	base := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Name", func(t *testing.T) {
		c := NewTimeSizeComparator(NewBinaryComparator(0))
		if c.Name() != "time-size+binary" {
			t.Errorf("Name() = %s, want time-size+binary", c.Name())
		}
	})

	t.Run("DifferentModTimeSkipsContent", func(t *testing.T) {
		content := &countingComparator{}
		c := NewTimeSizeComparator(content)
		src, srcStats := h.File("source", "mtime.txt", []byte("same"), base)
		dst, dstStats := h.File("dest", "mtime.txt", []byte("same"), base.Add(time.Second))

		result, err := c.Compare(ctx, src, dst, srcStats, dstStats)
		if err != nil {
			t.Fatalf("Compare() error = %v", err)
		}
		if result.Result != Different || content.calls != 0 {
			t.Errorf("Result = %s, content calls = %d; want different without content check", result.Result, content.calls)
		}
	})

	t.Run("DifferentSizeSkipsContent", func(t *testing.T) {
		content := &countingComparator{}
		c := NewTimeSizeComparator(content)
		src, srcStats := h.File("source", "size.txt", []byte("a"), base)
		dst, dstStats := h.File("dest", "size.txt", []byte("ab"), base)

		result, _ := c.Compare(ctx, src, dst, srcStats, dstStats)
		if result.Result != Different || content.calls != 0 {
			t.Errorf("Result = %s, content calls = %d", result.Result, content.calls)
		}
	})

	t.Run("MatchingMetadataConfirmedByContent", func(t *testing.T) {
		c := NewTimeSizeComparator(NewBinaryComparator(4096))
		src, srcStats := h.File("source", "granularity.txt", []byte("aaaa"), base)
		dst, dstStats := h.File("dest", "granularity.txt", []byte("bbbb"), base)

		result, err := c.Compare(ctx, src, dst, srcStats, dstStats)
		if err != nil {
			t.Fatalf("Compare() error = %v", err)
		}
		if result.Result != Different {
			t.Errorf("Result = %s, want different when only content differs", result.Result)
		}
	})

	t.Run("Equal", func(t *testing.T) {
		c := NewTimeSizeComparator(NewBinaryComparator(4096))
		src, srcStats := h.File("source", "equal.txt", []byte("same"), base)
		dst, dstStats := h.File("dest", "equal.txt", []byte("same"), base)

		result, err := c.Compare(ctx, src, dst, srcStats, dstStats)
		if err != nil {
			t.Fatalf("Compare() error = %v", err)
		}
		if result.Result != Same {
			t.Errorf("Result = %s, want same", result.Result)
		}
	})
}

func TestComparatorInterface(t *testing.T) {
	var _ Comparator = NewBinaryComparator(4096)
	var _ Comparator = NewTimeSizeComparator(NewBinaryComparator(4096))
}
