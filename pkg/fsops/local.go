package fsops

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sdejongh/treesync/pkg/logging"
	"github.com/sdejongh/treesync/pkg/ratelimit"
)

// DefaultBufferSize is the copy buffer size used when none is configured
const DefaultBufferSize = 64 * 1024

// LocalOptions configures a Local provider
type LocalOptions struct {
	// BufferSize is the size of the buffer used to stream file contents
	BufferSize int
	// Limiter caps the read bandwidth of copies; nil means unlimited
	Limiter *ratelimit.Limiter
}

// Local is the Provider for the operating system filesystem
type Local struct {
	logger  logging.Logger
	limiter *ratelimit.Limiter
	bufPool sync.Pool
}

// NewLocal creates a local filesystem provider
func NewLocal(logger logging.Logger, opts LocalOptions) *Local {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	size := opts.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Local{
		logger:  logger,
		limiter: opts.Limiter,
		bufPool: sync.Pool{
			New: func() interface{} {
				buf := make([]byte, size)
				return &buf
			},
		},
	}
}

// Exists reports whether something exists at path, symlinks included
func (l *Local) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check existence: %w", err)
}

// Stat returns metadata without following symlinks
func (l *Local) Stat(ctx context.Context, path string) (Stats, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return Stats{}, err
	}
	return StatsFromFileInfo(info), nil
}

// ReadFile reads a whole file
func (l *Local) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Open opens a file for streaming reads
func (l *Local) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// WriteFile creates or replaces a file
func (l *Local) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Copy copies src to dst. Files are overwritten, directories are merged
// recursively and symlinks are recreated with the same target.
func (l *Local) Copy(ctx context.Context, src, dst string, opts CopyOptions) error {
	if err := l.copy(ctx, src, dst, opts); err != nil {
		l.logger.Error(ctx, "copy failed", err, logging.Fields{
			"source":      src,
			"destination": dst,
		})
		return err
	}
	return nil
}

func (l *Local) copy(ctx context.Context, src, dst string, opts CopyOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Lstat(src)
	if err != nil {
		return err
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		target, err := os.Readlink(src)
		if err != nil {
			return err
		}
		return l.EnsureSymlink(ctx, dst, target)

	case info.IsDir():
		if err := os.MkdirAll(dst, info.Mode().Perm()|0700); err != nil {
			return err
		}
		entries, err := os.ReadDir(src)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := l.copy(ctx, filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name()), opts); err != nil {
				return err
			}
		}

	default:
		if err := l.copyFile(ctx, src, dst, info.Mode().Perm()); err != nil {
			return err
		}
	}

	if opts.PreserveTimestamps {
		return os.Chtimes(dst, time.Now(), info.ModTime())
	}
	return nil
}

func (l *Local) copyFile(ctx context.Context, src, dst string, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	// Writing through a symlink would modify its target
	if existing, err := os.Lstat(dst); err == nil && existing.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(dst); err != nil {
			return err
		}
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	bufPtr := l.bufPool.Get().(*[]byte)
	defer l.bufPool.Put(bufPtr)

	if _, err := io.CopyBuffer(out, ratelimit.NewReader(ctx, in, l.limiter), *bufPtr); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Remove removes path recursively; a missing path is not an error
func (l *Local) Remove(ctx context.Context, path string) error {
	return os.RemoveAll(path)
}

// List returns the names of the entries of a directory in lexical order
func (l *Local) List(ctx context.Context, path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

// SetTimes sets the modification time of path and the access time to now
func (l *Local) SetTimes(ctx context.Context, path string, modTime time.Time) error {
	return os.Chtimes(path, time.Now(), modTime)
}

// EnsureDir creates a directory and all necessary parents
func (l *Local) EnsureDir(ctx context.Context, path string) error {
	return os.MkdirAll(path, 0755)
}

// EnsureSymlink makes linkPath a symlink to target, replacing whatever is there
func (l *Local) EnsureSymlink(ctx context.Context, linkPath, target string) error {
	if err := os.MkdirAll(filepath.Dir(linkPath), 0755); err != nil {
		return err
	}
	if current, err := os.Readlink(linkPath); err == nil && current == target {
		return nil
	}
	if err := os.RemoveAll(linkPath); err != nil {
		return err
	}
	return os.Symlink(target, linkPath)
}

// Access checks that path exists
func (l *Local) Access(ctx context.Context, path string) AccessResult {
	return accessPath(path)
}
