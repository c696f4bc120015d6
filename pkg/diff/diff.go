// Package diff classifies every path of a source tree against a destination
// tree.
package diff

import (
	"context"
	"fmt"
	"path"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/sdejongh/treesync/pkg/compare"
	"github.com/sdejongh/treesync/pkg/fspath"
	"github.com/sdejongh/treesync/pkg/logging"
	"github.com/sdejongh/treesync/pkg/tree"
)

// Kind is the classification of one relative path
type Kind string

const (
	Added           Kind = "added"
	ChangedContents Kind = "changed-contents"
	ChangedTypes    Kind = "changed-types"
	Equal           Kind = "equal"
	Removed         Kind = "removed"
)

// Kinds lists every classification in apply order, equal last
var Kinds = []Kind{Added, ChangedContents, ChangedTypes, Removed, Equal}

// Result is the classification of one path. Source is set for added and
// changed entries.
type Result struct {
	Kind         Kind
	RelativePath string
	Source       *tree.Node[tree.SourceInfo]
}

// Differ compares source trees against destination trees
type Differ struct {
	comparator compare.Comparator
	logger     logging.Logger
}

// NewDiffer creates a differ deciding file equality with comparator
func NewDiffer(comparator compare.Comparator, logger logging.Logger) *Differ {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Differ{comparator: comparator, logger: logger}
}

// Diff returns one result per file path present in src and/or dst.
// Directories present on both sides are descended into and never produce a
// result of their own. Results are ordered by name at each directory level,
// so a/b comes before a.txt.
func (d *Differ) Diff(ctx context.Context, srcRoot, dstRoot fspath.Path, src tree.Contents[tree.SourceInfo], dst tree.Contents[tree.StatsInfo]) ([]Result, error) {
	results, err := d.diffDir(ctx, srcRoot, dstRoot, "", src, dst)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		d.logger.Debug(ctx, "diff result", logging.Fields{"path": r.RelativePath, "kind": string(r.Kind)})
	}
	return results, nil
}

func (d *Differ) diffDir(ctx context.Context, srcRoot, dstRoot fspath.Path, prefix string, src tree.Contents[tree.SourceInfo], dst tree.Contents[tree.StatsInfo]) ([]Result, error) {
	names := unionNames(src, dst)
	perName := make([][]Result, len(names))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			res, err := d.diffEntry(gctx, srcRoot, dstRoot, path.Join(prefix, name), src[name], dst[name])
			perName[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var results []Result
	for _, res := range perName {
		results = append(results, res...)
	}
	return results, nil
}

func (d *Differ) diffEntry(ctx context.Context, srcRoot, dstRoot fspath.Path, rel string, s *tree.Node[tree.SourceInfo], t *tree.Node[tree.StatsInfo]) ([]Result, error) {
	switch {
	case t == nil:
		return []Result{{Kind: Added, RelativePath: rel, Source: s}}, nil
	case s == nil:
		return []Result{{Kind: Removed, RelativePath: rel}}, nil
	case s.IsDir() && t.IsDir():
		return d.diffDir(ctx, srcRoot, dstRoot, rel, s.Contents, t.Contents)
	case !s.IsDir() && !s.Info.ShouldReplace:
		return nil, nil
	case !s.IsDir() && !t.IsDir():
		cmp, err := d.comparator.Compare(ctx, srcRoot.Join(rel), dstRoot.Join(rel), s.Info.Stats, t.Info.Stats)
		if err != nil {
			return nil, fmt.Errorf("failed to compare %s: %w", rel, err)
		}
		if cmp.Result == compare.Same {
			return []Result{{Kind: Equal, RelativePath: rel}}, nil
		}
		return []Result{{Kind: ChangedContents, RelativePath: rel, Source: s}}, nil
	default:
		return []Result{{Kind: ChangedTypes, RelativePath: rel, Source: s}}, nil
	}
}

func unionNames(src tree.Contents[tree.SourceInfo], dst tree.Contents[tree.StatsInfo]) []string {
	seen := make(map[string]struct{}, len(src)+len(dst))
	for name := range src {
		seen[name] = struct{}{}
	}
	for name := range dst {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Groups holds results bucketed by kind
type Groups map[Kind][]Result

// Group buckets results by kind, keeping their order
func Group(results []Result) Groups {
	groups := make(Groups, len(Kinds))
	for _, r := range results {
		groups[r.Kind] = append(groups[r.Kind], r)
	}
	return groups
}

// Count returns the number of results of kind k
func (g Groups) Count(k Kind) int {
	return len(g[k])
}

// Pending returns the number of results that require an operation
func (g Groups) Pending() int {
	return len(g[Added]) + len(g[ChangedContents]) + len(g[ChangedTypes]) + len(g[Removed])
}
