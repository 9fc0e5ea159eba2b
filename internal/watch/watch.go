// Package watch turns fsnotify notifications into change events for the
// entry file and the recursively watched auxiliary directory.
//
// fsnotify is not recursive, so every directory below the auxiliary
// directory is registered on start and directories created later are added
// when their Create event arrives. The entry file is watched through its
// parent directory, which keeps the watch alive when an editor replaces the
// file; events for other files in that directory are dropped.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/CZERTAINLY/devwatch/internal/walk"

	"github.com/fsnotify/fsnotify"
)

type Kind int

const (
	KindEntry Kind = iota + 1
	KindAuxiliary
)

func (k Kind) String() string {
	switch k {
	case KindEntry:
		return "entry"
	case KindAuxiliary:
		return "auxiliary"
	default:
		return "unknown"
	}
}

// Event is a change of a watched path.
type Event struct {
	Kind Kind
	Op   fsnotify.Op
	Path string // absolute path
	Name string // slash separated path relative to the auxiliary directory, empty for KindEntry
}

// Modified reports whether the content of the path was changed.
func (e Event) Modified() bool {
	return e.Op.Has(fsnotify.Write)
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s %s", e.Kind, e.Op, e.Path)
}

type Watcher struct {
	fsw    *fsnotify.Watcher
	entry  string
	auxDir string
	ignore []string
	events chan Event

	closeOnce sync.Once
	closeErr  error
}

// New registers the watches. entry and auxDir must be absolute and exist.
func New(ctx context.Context, entry, auxDir string, ignore []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("initializing fsnotify: %w", err)
	}
	w := &Watcher{
		fsw:    fsw,
		entry:  filepath.Clean(entry),
		auxDir: filepath.Clean(auxDir),
		ignore: ignore,
		events: make(chan Event, 16),
	}

	if err := fsw.Add(filepath.Dir(w.entry)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching entry file %s: %w", w.entry, err)
	}
	if err := w.addTree(ctx, w.auxDir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching auxiliary directory %s: %w", w.auxDir, err)
	}
	return w, nil
}

// Events returns the channel of change events. It is closed when Run returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// WatchList returns the registered directories.
func (w *Watcher) WatchList() []string {
	return w.fsw.WatchList()
}

// Run pumps fsnotify notifications until ctx is cancelled or Close is
// called. Watch errors are logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)
	defer func() {
		_ = w.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			event, ok := w.translate(ctx, ev)
			if !ok {
				continue
			}
			select {
			case w.events <- event:
			case <-ctx.Done():
				return nil
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "watch error", "error", err)
		}
	}
}

// Close releases the fsnotify watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		w.closeErr = w.fsw.Close()
	})
	return w.closeErr
}

func (w *Watcher) translate(ctx context.Context, ev fsnotify.Event) (Event, bool) {
	path := filepath.Clean(ev.Name)
	if path == w.entry {
		return Event{Kind: KindEntry, Op: ev.Op, Path: path}, true
	}

	rel, err := filepath.Rel(w.auxDir, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return Event{}, false
	}
	rel = filepath.ToSlash(rel)
	if walk.Ignored(w.ignore, rel) {
		slog.DebugContext(ctx, "ignored path changed", "path", path, "op", ev.Op.String())
		return Event{}, false
	}

	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Lstat(path); err == nil && info.IsDir() {
			if err := w.addTree(ctx, path); err != nil {
				slog.WarnContext(ctx, "watching new directory failed", "path", path, "error", err)
			}
		}
	}
	return Event{Kind: KindAuxiliary, Op: ev.Op, Path: path, Name: rel}, true
}

func (w *Watcher) addTree(ctx context.Context, root string) error {
	// pruning only works for patterns relative to the walked root
	var prune []string
	if root == w.auxDir {
		prune = w.ignore
	}
	var errs []error
	for dir, err := range walk.Dirs(ctx, root, prune) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if rel, err := filepath.Rel(w.auxDir, dir); err == nil && rel != "." && walk.Ignored(w.ignore, filepath.ToSlash(rel)) {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			errs = append(errs, err)
			continue
		}
		slog.DebugContext(ctx, "watching", "dir", dir)
	}
	return errors.Join(errs...)
}
