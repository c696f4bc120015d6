// Package fspath binds an absolute filesystem location to the Provider that
// serves it.
package fspath

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/sdejongh/treesync/pkg/fsops"
)

// Path is an absolute location on a Provider. The zero value is not usable.
type Path struct {
	abs string
	fs  fsops.Provider
}

// New resolves p to an absolute, cleaned path served by fs
func New(p string, fs fsops.Provider) (Path, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return Path{}, fmt.Errorf("failed to resolve path %q: %w", p, err)
	}
	return Path{abs: abs, fs: fs}, nil
}

// String returns the absolute path
func (p Path) String() string {
	return p.abs
}

// Base returns the last element of the path
func (p Path) Base() string {
	return filepath.Base(p.abs)
}

// Provider returns the bound filesystem
func (p Path) Provider() fsops.Provider {
	return p.fs
}

// Join resolves a relative path against p. Both separators are accepted.
func (p Path) Join(rel ...string) Path {
	elems := make([]string, 0, len(rel)+1)
	elems = append(elems, p.abs)
	for _, r := range rel {
		elems = append(elems, filepath.FromSlash(r))
	}
	return Path{abs: filepath.Join(elems...), fs: p.fs}
}

// RelFrom returns p relative to base
func (p Path) RelFrom(base Path) (string, error) {
	return filepath.Rel(base.abs, p.abs)
}

// Exists reports whether anything, including a symlink, is at p
func (p Path) Exists(ctx context.Context) (bool, error) {
	return p.fs.Exists(ctx, p.abs)
}

// Stat returns the non-following stats of p
func (p Path) Stat(ctx context.Context) (fsops.Stats, error) {
	return p.fs.Stat(ctx, p.abs)
}

// List returns the names of the entries of the directory at p
func (p Path) List(ctx context.Context) ([]string, error) {
	return p.fs.List(ctx, p.abs)
}

// Read reads the whole file at p
func (p Path) Read(ctx context.Context) ([]byte, error) {
	return p.fs.ReadFile(ctx, p.abs)
}

// Open opens the file at p for streaming reads
func (p Path) Open(ctx context.Context) (io.ReadCloser, error) {
	return p.fs.Open(ctx, p.abs)
}

// Write replaces the file at p with data
func (p Path) Write(ctx context.Context, data []byte) error {
	return p.fs.WriteFile(ctx, p.abs, data)
}

// CopyTo copies p to dst preserving timestamps. Both paths must be served by
// the same provider.
func (p Path) CopyTo(ctx context.Context, dst Path) error {
	return p.fs.Copy(ctx, p.abs, dst.abs, fsops.CopyOptions{PreserveTimestamps: true})
}

// Remove removes p recursively
func (p Path) Remove(ctx context.Context) error {
	return p.fs.Remove(ctx, p.abs)
}

// EnsureDir creates p as a directory along with its parents
func (p Path) EnsureDir(ctx context.Context) error {
	return p.fs.EnsureDir(ctx, p.abs)
}

// SetTimes sets the modification time of p
func (p Path) SetTimes(ctx context.Context, modTime time.Time) error {
	return p.fs.SetTimes(ctx, p.abs, modTime)
}

// Access checks p and reports a distinguishable code on failure
func (p Path) Access(ctx context.Context) fsops.AccessResult {
	return p.fs.Access(ctx, p.abs)
}
