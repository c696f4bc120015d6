// Package filelist resolves the explicit list of source files a pass copies.
package filelist

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sdejongh/treesync/pkg/fspath"
	"github.com/sdejongh/treesync/pkg/tree"
)

// Stdin is the path that makes ReadFile read from its stdin argument
const Stdin = "-"

// ErrOutsideRoot is returned for a listed path that climbs above the source root
var ErrOutsideRoot = errors.New("path is outside the source root")

// Parse reads one relative path per line. Blank lines and lines starting
// with # are skipped. Paths are normalized to slash separators and
// duplicates are dropped, keeping the first occurrence.
func Parse(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	seen := make(map[string]struct{})
	var files []string

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		p := tree.NormalizePath(text)
		if p == "" {
			continue
		}
		if p == ".." || strings.HasPrefix(p, "../") {
			return nil, fmt.Errorf("line %d: %w: %s", line, ErrOutsideRoot, text)
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file list: %w", err)
	}
	return files, nil
}

// ReadFile parses the file list at path, or stdin when path is "-"
func ReadFile(path string, stdin io.Reader) ([]string, error) {
	if path == Stdin {
		return Parse(stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file list: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Walk lists every regular file below root whose relative path matches none
// of the ignore globs. Ignored directories are not descended into.
func Walk(ctx context.Context, root fspath.Path, ignore []string) ([]string, error) {
	if err := tree.ValidateGlobs(ignore); err != nil {
		return nil, err
	}

	contents, err := tree.Snapshot(ctx, root, tree.SnapshotOptions{
		Include: func(rel string) bool { return !tree.MatchAny(ignore, rel) },
	})
	if err != nil {
		return nil, err
	}
	return contents.Files(), nil
}
