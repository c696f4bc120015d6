package fsops

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/sdejongh/treesync/pkg/logging"
)

// ErrSymlinkUnsupported is returned when the backing filesystem cannot
// create or read symlinks
var ErrSymlinkUnsupported = errors.New("filesystem does not support symlinks")

// Afero is a Provider backed by an afero.Fs
type Afero struct {
	fs     afero.Fs
	logger logging.Logger
}

// NewAfero wraps fs as a Provider
func NewAfero(fs afero.Fs, logger logging.Logger) *Afero {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Afero{fs: fs, logger: logger}
}

// NewMemory returns a Provider over a fresh in-memory filesystem
func NewMemory(logger logging.Logger) *Afero {
	return NewAfero(afero.NewMemMapFs(), logger)
}

// Fs returns the backing filesystem
func (a *Afero) Fs() afero.Fs {
	return a.fs
}

func (a *Afero) lstat(path string) (os.FileInfo, error) {
	if lst, ok := a.fs.(afero.Lstater); ok {
		info, _, err := lst.LstatIfPossible(path)
		return info, err
	}
	return a.fs.Stat(path)
}

// Exists reports whether something exists at path
func (a *Afero) Exists(ctx context.Context, path string) (bool, error) {
	_, err := a.lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check existence: %w", err)
}

// Stat returns metadata without following symlinks when the filesystem allows it
func (a *Afero) Stat(ctx context.Context, path string) (Stats, error) {
	info, err := a.lstat(path)
	if err != nil {
		return Stats{}, err
	}
	return StatsFromFileInfo(info), nil
}

// ReadFile reads a whole file
func (a *Afero) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return afero.ReadFile(a.fs, path)
}

// Open opens a file for streaming reads
func (a *Afero) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return a.fs.Open(path)
}

// WriteFile creates or replaces a file
func (a *Afero) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := a.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return afero.WriteFile(a.fs, path, data, 0644)
}

// Copy copies src to dst within the same filesystem
func (a *Afero) Copy(ctx context.Context, src, dst string, opts CopyOptions) error {
	if err := a.copy(ctx, src, dst, opts); err != nil {
		a.logger.Error(ctx, "copy failed", err, logging.Fields{
			"source":      src,
			"destination": dst,
		})
		return err
	}
	return nil
}

func (a *Afero) copy(ctx context.Context, src, dst string, opts CopyOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := a.lstat(src)
	if err != nil {
		return err
	}

	switch StatsFromFileInfo(info).Type {
	case TypeSymlink:
		reader, ok := a.fs.(afero.LinkReader)
		if !ok {
			return ErrSymlinkUnsupported
		}
		target, err := reader.ReadlinkIfPossible(src)
		if err != nil {
			return err
		}
		// Chtimes would follow the link
		return a.EnsureSymlink(ctx, dst, target)

	case TypeDirectory:
		if err := a.fs.MkdirAll(dst, 0755); err != nil {
			return err
		}
		children, err := afero.ReadDir(a.fs, src)
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := a.copy(ctx, filepath.Join(src, child.Name()), filepath.Join(dst, child.Name()), opts); err != nil {
				return err
			}
		}

	default:
		data, err := afero.ReadFile(a.fs, src)
		if err != nil {
			return err
		}
		if err := a.WriteFile(ctx, dst, data); err != nil {
			return err
		}
	}

	if opts.PreserveTimestamps {
		return a.fs.Chtimes(dst, time.Now(), info.ModTime())
	}
	return nil
}

// Remove removes path recursively
func (a *Afero) Remove(ctx context.Context, path string) error {
	return a.fs.RemoveAll(path)
}

// List returns the names of the entries of a directory in lexical order
func (a *Afero) List(ctx context.Context, path string) ([]string, error) {
	infos, err := afero.ReadDir(a.fs, path)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
	}
	return names, nil
}

// SetTimes sets the modification time of path and the access time to now
func (a *Afero) SetTimes(ctx context.Context, path string, modTime time.Time) error {
	return a.fs.Chtimes(path, time.Now(), modTime)
}

// EnsureDir creates a directory and all necessary parents
func (a *Afero) EnsureDir(ctx context.Context, path string) error {
	return a.fs.MkdirAll(path, 0755)
}

// EnsureSymlink makes linkPath a symlink to target
func (a *Afero) EnsureSymlink(ctx context.Context, linkPath, target string) error {
	linker, ok := a.fs.(afero.Linker)
	if !ok {
		return ErrSymlinkUnsupported
	}
	if err := a.fs.MkdirAll(filepath.Dir(linkPath), 0755); err != nil {
		return err
	}
	if err := a.fs.RemoveAll(linkPath); err != nil {
		return err
	}
	return linker.SymlinkIfPossible(target, linkPath)
}

// Access checks that path exists
func (a *Afero) Access(ctx context.Context, path string) AccessResult {
	_, err := a.lstat(path)
	return AccessResult{Code: accessCode(err)}
}
