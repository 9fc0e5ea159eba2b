package walk_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/CZERTAINLY/devwatch/internal/walk"

	"github.com/stretchr/testify/require"
)

func TestDirs(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{
		"easy",
		"easy/arrays",
		"hard",
		"node_modules/pkg",
		"hard/fixtures/big",
	} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.FromSlash(d)), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "easy", "a.ts"), []byte("export {}"), 0o644))

	collect := func(ignore []string) []string {
		var got []string
		for dir, err := range walk.Dirs(t.Context(), root, ignore) {
			require.NoError(t, err)
			got = append(got, dir)
		}
		return got
	}

	t.Run("all", func(t *testing.T) {
		require.ElementsMatch(t, []string{
			root,
			filepath.Join(root, "easy"),
			filepath.Join(root, "easy", "arrays"),
			filepath.Join(root, "hard"),
			filepath.Join(root, "hard", "fixtures"),
			filepath.Join(root, "hard", "fixtures", "big"),
			filepath.Join(root, "node_modules"),
			filepath.Join(root, "node_modules", "pkg"),
		}, collect(nil))
	})

	t.Run("ignored", func(t *testing.T) {
		require.ElementsMatch(t, []string{
			root,
			filepath.Join(root, "easy"),
			filepath.Join(root, "easy", "arrays"),
			filepath.Join(root, "hard"),
		}, collect([]string{"node_modules", "**/fixtures"}))
	})

	t.Run("stop early", func(t *testing.T) {
		n := 0
		for range walk.Dirs(t.Context(), root, nil) {
			n++
			break
		}
		require.Equal(t, 1, n)
	})

	t.Run("missing root", func(t *testing.T) {
		var errs int
		for _, err := range walk.Dirs(t.Context(), filepath.Join(root, "nope"), nil) {
			if err != nil {
				errs++
			}
		}
		require.Equal(t, 1, errs)
	})
}

func TestIgnored(t *testing.T) {
	patterns := []string{"**/*.spec.ts", "drafts", "**/node_modules"}
	require.True(t, walk.Ignored(patterns, "a.spec.ts"))
	require.True(t, walk.Ignored(patterns, "deep/dir/a.spec.ts"))
	require.True(t, walk.Ignored(patterns, "drafts/wip.ts"))
	require.True(t, walk.Ignored(patterns, "x/node_modules/y/z.ts"))
	require.False(t, walk.Ignored(patterns, "a.ts"))
	require.False(t, walk.Ignored(patterns, "x/drafts/wip.ts"))
	require.False(t, walk.Ignored(nil, "a.ts"))
}
