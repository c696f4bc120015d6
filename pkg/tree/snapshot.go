package tree

import (
	"context"
	"errors"
	"fmt"
	"path"

	"golang.org/x/sync/errgroup"

	"github.com/sdejongh/treesync/pkg/fsops"
	"github.com/sdejongh/treesync/pkg/fspath"
)

var (
	// ErrSymlinkRoot is returned when a snapshot root is a symlink
	ErrSymlinkRoot = errors.New("cannot operate on a symlink root")
	// ErrNotDirectory is returned when a snapshot root is not a directory
	ErrNotDirectory = errors.New("not a directory")
)

// SnapshotOptions controls Snapshot
type SnapshotOptions struct {
	// Include is called with the slash-separated path of every entry relative
	// to the root. Excluded directories are not descended into. Nil includes
	// everything.
	Include func(rel string) bool
}

// Snapshot walks root and describes every file and directory below it.
// A missing root yields empty contents. Symlinks are skipped.
func Snapshot(ctx context.Context, root fspath.Path, opts SnapshotOptions) (Contents[StatsInfo], error) {
	exists, err := root.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return Contents[StatsInfo]{}, nil
	}

	stats, err := root.Stat(ctx)
	if err != nil {
		return nil, err
	}
	switch stats.Type {
	case fsops.TypeSymlink:
		return nil, fmt.Errorf("%w: %s", ErrSymlinkRoot, root)
	case fsops.TypeDirectory:
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	include := opts.Include
	if include == nil {
		include = func(string) bool { return true }
	}
	return snapshotDir(ctx, root, "", include)
}

func snapshotDir(ctx context.Context, dir fspath.Path, rel string, include func(string) bool) (Contents[StatsInfo], error) {
	names, err := dir.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	nodes := make([]*Node[StatsInfo], len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		childRel := path.Join(rel, name)
		if !include(childRel) {
			continue
		}
		g.Go(func() error {
			child := dir.Join(name)
			stats, err := child.Stat(gctx)
			if err != nil {
				return fmt.Errorf("failed to stat %s: %w", child, err)
			}
			switch stats.Type {
			case fsops.TypeSymlink:
				return nil
			case fsops.TypeDirectory:
				sub, err := snapshotDir(gctx, child, childRel, include)
				if err != nil {
					return err
				}
				nodes[i] = NewDir(sub)
			default:
				nodes[i] = NewFile(StatsInfo{Stats: stats})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	contents := make(Contents[StatsInfo], len(names))
	for i, node := range nodes {
		if node != nil {
			contents[names[i]] = node
		}
	}
	return contents, nil
}
