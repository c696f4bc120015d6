// Package compare decides whether a destination file still matches its source.
package compare

import (
	"context"

	"github.com/sdejongh/treesync/pkg/fsops"
	"github.com/sdejongh/treesync/pkg/fspath"
)

// Result represents the outcome of comparing two files
type Result string

const (
	// Same indicates files are identical
	Same Result = "same"
	// Different indicates files differ
	Different Result = "different"
)

// Comparison holds the result of comparing two files
type Comparison struct {
	SourcePath string
	DestPath   string
	Result     Result
	Reason     string
}

// Comparator defines the interface for file comparison algorithms. The stats
// are the ones already collected by the snapshots of both trees.
type Comparator interface {
	// Compare compares two files and returns the result
	Compare(ctx context.Context, source, dest fspath.Path, sourceStats, destStats fsops.Stats) (*Comparison, error)

	// Name returns the name of the comparison method
	Name() string
}
