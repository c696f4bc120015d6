package compare

import (
	"context"
	"fmt"
	"time"

	"github.com/sdejongh/treesync/pkg/fsops"
	"github.com/sdejongh/treesync/pkg/fspath"
)

// TimeSizeComparator treats files as different unless modification time and
// size are equal, then confirms with a content comparison to guard against
// coarse timestamp granularity
type TimeSizeComparator struct {
	content Comparator
}

// NewTimeSizeComparator creates a comparator confirming matches with content
func NewTimeSizeComparator(content Comparator) *TimeSizeComparator {
	return &TimeSizeComparator{content: content}
}

// Compare compares two files by modification time and size, then content
func (c *TimeSizeComparator) Compare(ctx context.Context, source, dest fspath.Path, sourceStats, destStats fsops.Stats) (*Comparison, error) {
	if !sourceStats.ModTime.Equal(destStats.ModTime) {
		return &Comparison{
			SourcePath: source.String(),
			DestPath:   dest.String(),
			Result:     Different,
			Reason: fmt.Sprintf("modification times differ (source: %s, dest: %s)",
				sourceStats.ModTime.Format(time.RFC3339Nano), destStats.ModTime.Format(time.RFC3339Nano)),
		}, nil
	}

	if sourceStats.Size != destStats.Size {
		return &Comparison{
			SourcePath: source.String(),
			DestPath:   dest.String(),
			Result:     Different,
			Reason:     fmt.Sprintf("file sizes differ (source: %d, dest: %d)", sourceStats.Size, destStats.Size),
		}, nil
	}

	return c.content.Compare(ctx, source, dest, sourceStats, destStats)
}

// Name returns the comparator name
func (c *TimeSizeComparator) Name() string {
	return "time-size+" + c.content.Name()
}
