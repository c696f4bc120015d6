package fsops

import (
	"context"
	"io"
	"os"
	"time"
)

// ItemType is the kind of filesystem item reported by a non-following stat
type ItemType string

const (
	// TypeFile is a regular file (or anything that is neither a directory nor a symlink)
	TypeFile ItemType = "file"
	// TypeDirectory is a directory
	TypeDirectory ItemType = "directory"
	// TypeSymlink is a symbolic link, never resolved
	TypeSymlink ItemType = "symlink"
)

// Stats holds the metadata the sync engine cares about
type Stats struct {
	Type    ItemType
	ModTime time.Time
	Size    int64
}

// StatsFromFileInfo converts the result of an lstat call into Stats
func StatsFromFileInfo(info os.FileInfo) Stats {
	typ := TypeFile
	switch {
	case info.IsDir():
		typ = TypeDirectory
	case info.Mode()&os.ModeSymlink != 0:
		typ = TypeSymlink
	}
	return Stats{
		Type:    typ,
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}
}

// Access error codes
const (
	CodeNotExist     = "ENOENT"
	CodeNotPermitted = "EPERM"
	CodeAccessDenied = "EACCES"
)

// AccessResult is the outcome of an access check. An empty Code means the
// path is accessible.
type AccessResult struct {
	Code string
}

// OK reports whether the access check succeeded
func (r AccessResult) OK() bool {
	return r.Code == ""
}

// NotExist reports whether the path does not exist
func (r AccessResult) NotExist() bool {
	return r.Code == CodeNotExist
}

// CopyOptions controls Copy behaviour
type CopyOptions struct {
	// PreserveTimestamps sets the modification time of every copied item to
	// the one of its source
	PreserveTimestamps bool
}

// Provider defines the filesystem capabilities the sync engine depends on.
// All paths are absolute. Implementations include the local filesystem and
// afero-backed filesystems.
type Provider interface {
	// Exists reports whether something (including a symlink) exists at path
	Exists(ctx context.Context, path string) (bool, error)

	// Stat returns metadata without following symlinks
	Stat(ctx context.Context, path string) (Stats, error)

	// ReadFile reads a whole file
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// Open opens a file for streaming reads
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// WriteFile creates or replaces a file, creating parent directories
	WriteFile(ctx context.Context, path string, data []byte) error

	// Copy copies a file, symlink or directory (recursively), creating
	// parent directories and overwriting existing files
	Copy(ctx context.Context, src, dst string, opts CopyOptions) error

	// Remove removes a file or a directory recursively. Removing a missing
	// path is not an error.
	Remove(ctx context.Context, path string) error

	// List returns the names of the immediate children of a directory
	List(ctx context.Context, path string) ([]string, error)

	// SetTimes sets the modification time of path; access time becomes now
	SetTimes(ctx context.Context, path string, modTime time.Time) error

	// EnsureDir creates a directory and all necessary parents
	EnsureDir(ctx context.Context, path string) error

	// EnsureSymlink creates a symlink at linkPath pointing to target
	EnsureSymlink(ctx context.Context, linkPath, target string) error

	// Access checks that path exists, returning a distinguishable code on failure
	Access(ctx context.Context, path string) AccessResult
}
