// Package tree builds in-memory descriptions of directory trees, annotates
// them for replacement and overlays exclusions onto them.
package tree

import (
	"path"
	"sort"

	"github.com/sdejongh/treesync/pkg/fsops"
)

// Kind distinguishes file nodes from directory nodes
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
)

func (k Kind) String() string {
	if k == KindDirectory {
		return "directory"
	}
	return "file"
}

// Node is a file carrying a payload of type T or a directory holding
// further nodes. Symlinks are never represented.
type Node[T any] struct {
	Kind     Kind
	Info     T
	Contents Contents[T]
}

// Contents maps entry names to nodes for one directory
type Contents[T any] map[string]*Node[T]

// StatsInfo is the payload of a raw snapshot
type StatsInfo struct {
	fsops.Stats
}

// SourceInfo is the payload of an annotated source tree. Files with
// ShouldReplace false are left untouched in the destination.
type SourceInfo struct {
	ShouldReplace bool
	fsops.Stats
}

// NewFile returns a file node
func NewFile[T any](info T) *Node[T] {
	return &Node[T]{Kind: KindFile, Info: info}
}

// NewDir returns a directory node; nil contents become an empty map
func NewDir[T any](contents Contents[T]) *Node[T] {
	if contents == nil {
		contents = Contents[T]{}
	}
	return &Node[T]{Kind: KindDirectory, Contents: contents}
}

// IsDir reports whether n is a directory
func (n *Node[T]) IsDir() bool {
	return n.Kind == KindDirectory
}

// Clone returns a deep copy of n
func (n *Node[T]) Clone() *Node[T] {
	if n.IsDir() {
		return NewDir(n.Contents.Clone())
	}
	return NewFile(n.Info)
}

// Clone returns a deep copy of c
func (c Contents[T]) Clone() Contents[T] {
	out := make(Contents[T], len(c))
	for name, node := range c {
		out[name] = node.Clone()
	}
	return out
}

// Names returns the entry names in lexical order
func (c Contents[T]) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Walk calls fn for every node in lexical pre-order with its slash-separated
// path relative to c. Returning false from fn skips a directory's children.
func (c Contents[T]) Walk(fn func(rel string, n *Node[T]) bool) {
	c.walk("", fn)
}

func (c Contents[T]) walk(prefix string, fn func(rel string, n *Node[T]) bool) {
	for _, name := range c.Names() {
		node := c[name]
		rel := path.Join(prefix, name)
		if fn(rel, node) && node.IsDir() {
			node.Contents.walk(rel, fn)
		}
	}
}

// Files returns the relative paths of every file in lexical order
func (c Contents[T]) Files() []string {
	var files []string
	c.Walk(func(rel string, n *Node[T]) bool {
		if !n.IsDir() {
			files = append(files, rel)
		}
		return true
	})
	return files
}

// Count returns the number of files and directories below c
func (c Contents[T]) Count() (files, dirs int) {
	c.Walk(func(_ string, n *Node[T]) bool {
		if n.IsDir() {
			dirs++
		} else {
			files++
		}
		return true
	})
	return files, dirs
}

// Map converts every file payload with fn, keeping the shape
func Map[T, U any](c Contents[T], fn func(T) U) Contents[U] {
	out := make(Contents[U], len(c))
	for name, node := range c {
		if node.IsDir() {
			out[name] = NewDir(Map(node.Contents, fn))
		} else {
			out[name] = NewFile(fn(node.Info))
		}
	}
	return out
}
