package filelist

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/treesync/pkg/fsops"
	"github.com/sdejongh/treesync/pkg/fspath"
)

func TestParse(t *testing.T) {
	input := strings.Join([]string{
		"# generated",
		"pkg/index.js",
		"",
		"  pkg\\lib\\util.js  ",
		"./pkg/index.js",
		"/README.md",
	}, "\n")

	files, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg/index.js", "pkg/lib/util.js", "README.md"}, files)
}

func TestParse_Empty(t *testing.T) {
	files, err := Parse(strings.NewReader("\n# nothing\n"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestParse_OutsideRoot(t *testing.T) {
	_, err := Parse(strings.NewReader("ok.txt\n../secret\n"))
	require.ErrorIs(t, err, ErrOutsideRoot)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "files.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\nb/c\n"), 0644))

	files, err := ReadFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b/c"}, files)

	files, err = ReadFile(Stdin, strings.NewReader("from/stdin\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"from/stdin"}, files)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)
}

func TestWalk(t *testing.T) {
	ctx := context.Background()
	root, err := fspath.New("/src", fsops.NewMemory(nil))
	require.NoError(t, err)
	for _, rel := range []string{
		"index.js",
		"lib/a.js",
		"node_modules/dep/index.js",
		"lib/node_modules/nested.js",
		".git/HEAD",
	} {
		require.NoError(t, root.Join(rel).Write(ctx, []byte(rel)))
	}

	files, err := Walk(ctx, root, []string{"node_modules", ".git"})
	require.NoError(t, err)
	assert.Equal(t, []string{"index.js", "lib/a.js", "lib/node_modules/nested.js"}, files)

	files, err = Walk(ctx, root, []string{"**/node_modules", ".git"})
	require.NoError(t, err)
	assert.Equal(t, []string{"index.js", "lib/a.js"}, files)
}

func TestWalk_MissingRoot(t *testing.T) {
	root, err := fspath.New("/nothing", fsops.NewMemory(nil))
	require.NoError(t, err)

	files, err := Walk(context.Background(), root, nil)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestWalk_BadGlob(t *testing.T) {
	root, err := fspath.New("/src", fsops.NewMemory(nil))
	require.NoError(t, err)

	_, err = Walk(context.Background(), root, []string{"[bad"})
	assert.Error(t, err)
}
