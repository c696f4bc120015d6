package tree

import (
	"errors"
	"fmt"
	"path"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrShapeConflict is returned when a file and a directory meet at the same
// path while merging trees
var ErrShapeConflict = errors.New("cannot merge a file and a directory at the same path")

// ValidateGlobs reports the first malformed pattern
func ValidateGlobs(globs []string) error {
	for _, g := range globs {
		if !doublestar.ValidatePattern(g) {
			return fmt.Errorf("invalid glob pattern %q: %w", g, doublestar.ErrBadPattern)
		}
	}
	return nil
}

// MatchAny reports whether the slash-separated path rel matches one of globs.
// Malformed patterns never match.
func MatchAny(globs []string, rel string) bool {
	for _, g := range globs {
		if ok, err := doublestar.Match(g, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// Filter keeps the entries of contents whose path, joined onto prefix,
// matches one of globs. A matching directory is kept whole; any other
// directory is kept only with its matching descendants.
func Filter[T any](globs []string, contents Contents[T], prefix string) Contents[T] {
	out := make(Contents[T])
	for name, node := range contents {
		rel := path.Join(prefix, name)
		if MatchAny(globs, rel) {
			out[name] = node.Clone()
			continue
		}
		if !node.IsDir() {
			continue
		}
		if sub := Filter(globs, node.Contents, rel); len(sub) > 0 {
			out[name] = NewDir(sub)
		}
	}
	return out
}

// ApplyExclusions returns a copy of source in which every path present in
// exclusions is marked ShouldReplace false. Excluded files missing from the
// source are added as placeholders with zero stats. The inputs are not
// modified.
func ApplyExclusions[E any](source Contents[SourceInfo], exclusions Contents[E]) (Contents[SourceInfo], error) {
	return mergeExclusions(source, exclusions, "")
}

func mergeExclusions[E any](base Contents[SourceInfo], exclusions Contents[E], prefix string) (Contents[SourceInfo], error) {
	out := make(Contents[SourceInfo], len(base)+len(exclusions))
	for name, node := range base {
		if _, excluded := exclusions[name]; !excluded {
			out[name] = node.Clone()
		}
	}

	for name, excl := range exclusions {
		rel := path.Join(prefix, name)
		current, inBase := base[name]
		if inBase && current.Kind != excl.Kind {
			return nil, fmt.Errorf("%w: %s is a %s in the source and a %s in the exclusions",
				ErrShapeConflict, rel, current.Kind, excl.Kind)
		}

		if !excl.IsDir() {
			out[name] = NewFile(SourceInfo{ShouldReplace: false})
			continue
		}

		var baseContents Contents[SourceInfo]
		if inBase {
			baseContents = current.Contents
		}
		merged, err := mergeExclusions(baseContents, excl.Contents, rel)
		if err != nil {
			return nil, err
		}
		out[name] = NewDir(merged)
	}
	return out, nil
}
