package tree

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/sdejongh/treesync/pkg/fspath"
	"github.com/sdejongh/treesync/pkg/logging"
)

// PathSet is a set of normalized relative paths
type PathSet map[string]struct{}

// Has reports whether p, once normalized, is in the set
func (s PathSet) Has(p string) bool {
	_, ok := s[NormalizePath(p)]
	return ok
}

// Sorted returns the members in lexical order
func (s PathSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// NormalizePath converts p to a clean slash-separated relative path.
// Both separators are accepted. An empty or "." path normalizes to "".
func NormalizePath(p string) string {
	p = path.Clean(strings.ReplaceAll(p, `\`, "/"))
	p = strings.TrimLeft(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// ExpandParents returns the given paths together with all of their ancestor
// directories
func ExpandParents(paths []string) PathSet {
	set := make(PathSet, len(paths))
	for _, p := range paths {
		p = NormalizePath(p)
		for p != "" && p != "." {
			if _, seen := set[p]; seen {
				break
			}
			set[p] = struct{}{}
			p = path.Dir(p)
		}
	}
	return set
}

// BuildSource snapshots the listed files of root, plus their parent
// directories, and marks every file for replacement
func BuildSource(ctx context.Context, root fspath.Path, files []string, logger logging.Logger) (Contents[SourceInfo], error) {
	logger.Info(ctx, "getting contents of source directory", logging.Fields{"source": root.String()})

	include := ExpandParents(files)
	raw, err := Snapshot(ctx, root, SnapshotOptions{Include: include.Has})
	if err != nil {
		return nil, err
	}

	source := Map(raw, func(info StatsInfo) SourceInfo {
		return SourceInfo{ShouldReplace: true, Stats: info.Stats}
	})

	nfiles, ndirs := source.Count()
	logger.Info(ctx, "got contents of source directory", logging.Fields{
		"files":       nfiles,
		"directories": ndirs,
	})
	return source, nil
}
