package service

import (
	"context"
	"path"
	"path/filepath"

	"github.com/CZERTAINLY/devwatch/internal/imports"
	"github.com/CZERTAINLY/devwatch/internal/watch"
)

// Decision is the outcome of classifying one change event.
type Decision struct {
	Reload  bool
	Message string // reload reason, or a note for a skipped change; empty means silent
}

// Classifier decides whether a change event warrants a reload.
type Classifier struct {
	entry     string
	auxDir    string
	extension string
	finder    imports.Finder
}

func NewClassifier(entry, auxDir, extension string, finder imports.Finder) Classifier {
	return Classifier{
		entry:     entry,
		auxDir:    auxDir,
		extension: extension,
		finder:    finder,
	}
}

// Classify reports a reload for content changes of the entry file and of
// auxiliary files with the canonical extension which the entry file
// currently imports. The import set is recomputed on every auxiliary change,
// so edits of the import list apply to the very next event.
func (c Classifier) Classify(ctx context.Context, ev watch.Event) Decision {
	if !ev.Modified() {
		return Decision{}
	}
	entryName := filepath.Base(c.entry)

	switch ev.Kind {
	case watch.KindEntry:
		return Decision{
			Reload:  true,
			Message: entryName + " changed, reloading...",
		}
	case watch.KindAuxiliary:
		if filepath.Ext(ev.Path) != c.extension {
			return Decision{}
		}
		name := path.Join(filepath.Base(c.auxDir), ev.Name)
		set, _ := c.finder.Find(ctx)
		if !set.Has(filepath.Clean(ev.Path)) {
			return Decision{Message: name + " changed (not imported, skipping reload)"}
		}
		return Decision{
			Reload:  true,
			Message: name + " changed (imported in " + entryName + "), reloading...",
		}
	default:
		return Decision{}
	}
}
