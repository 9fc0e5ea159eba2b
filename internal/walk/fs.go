package walk

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Dirs recursively walks the directory root and yields the absolute path of
// every directory found, root included. Directories matched by one of the
// ignore patterns are skipped together with their content. It does not
// follow symlinks.
func Dirs(ctx context.Context, root string, ignore []string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		fsys := os.DirFS(root)
		fn := func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return fs.SkipAll
			}
			abspath := filepath.Join(root, filepath.FromSlash(path))
			if err != nil {
				if !yield(abspath, err) {
					return fs.SkipAll
				}
				return nil
			}
			if !d.IsDir() {
				return nil
			}
			if path != "." && Ignored(ignore, path) {
				return fs.SkipDir
			}
			if !yield(abspath, nil) {
				return fs.SkipAll
			}
			return nil
		}
		_ = fs.WalkDir(fsys, ".", fn)
	}
}

// Ignored reports whether the slash separated path relative to the walked
// root matches one of the patterns. A directory pattern such as
// "**/node_modules" also matches everything below it.
func Ignored(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern+"/**", rel); ok {
			return true
		}
	}
	return false
}
