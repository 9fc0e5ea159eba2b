package service_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/CZERTAINLY/devwatch/internal/service"
	"github.com/CZERTAINLY/devwatch/internal/watch"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
)

func TestClassifier(t *testing.T) {
	t.Parallel()
	project := newProject(t, `import { foo } from "@challenges/foo";`+"\n", 0)
	classifier := service.NewClassifier(project.Entry, project.AuxDir, project.Extension, service.NewFinder(project))

	aux := func(name string, op fsnotify.Op) watch.Event {
		return watch.Event{
			Kind: watch.KindAuxiliary,
			Op:   op,
			Path: filepath.Join(project.AuxDir, filepath.FromSlash(name)),
			Name: name,
		}
	}

	var testCases = []struct {
		scenario string
		given    watch.Event
		then     service.Decision
	}{
		{
			scenario: "entry write",
			given:    watch.Event{Kind: watch.KindEntry, Op: fsnotify.Write, Path: project.Entry},
			then:     service.Decision{Reload: true, Message: "main.ts changed, reloading..."},
		},
		{
			scenario: "entry write and chmod",
			given:    watch.Event{Kind: watch.KindEntry, Op: fsnotify.Write | fsnotify.Chmod, Path: project.Entry},
			then:     service.Decision{Reload: true, Message: "main.ts changed, reloading..."},
		},
		{
			scenario: "entry create",
			given:    watch.Event{Kind: watch.KindEntry, Op: fsnotify.Create, Path: project.Entry},
		},
		{
			scenario: "imported",
			given:    aux("foo.ts", fsnotify.Write),
			then:     service.Decision{Reload: true, Message: "challenges/foo.ts changed (imported in main.ts), reloading..."},
		},
		{
			scenario: "not imported",
			given:    aux("bar.ts", fsnotify.Write),
			then:     service.Decision{Message: "challenges/bar.ts changed (not imported, skipping reload)"},
		},
		{
			scenario: "nested not imported",
			given:    aux("deep/baz.ts", fsnotify.Write),
			then:     service.Decision{Message: "challenges/deep/baz.ts changed (not imported, skipping reload)"},
		},
		{
			scenario: "other extension",
			given:    aux("notes.md", fsnotify.Write),
		},
		{
			scenario: "imported removed",
			given:    aux("foo.ts", fsnotify.Remove),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			require.Equal(t, tc.then, classifier.Classify(t.Context(), tc.given))
		})
	}
}

func TestClassifier_FreshImports(t *testing.T) {
	t.Parallel()
	project := newProject(t, "", 0)
	classifier := service.NewClassifier(project.Entry, project.AuxDir, project.Extension, service.NewFinder(project))
	ev := watch.Event{
		Kind: watch.KindAuxiliary,
		Op:   fsnotify.Write,
		Path: filepath.Join(project.AuxDir, "bar.ts"),
		Name: "bar.ts",
	}

	require.False(t, classifier.Classify(t.Context(), ev).Reload)

	require.NoError(t, os.WriteFile(project.Entry, []byte(`import "./challenges/bar";`+"\n"), 0o644))
	require.True(t, classifier.Classify(t.Context(), ev).Reload)

	require.NoError(t, os.Remove(project.Entry))
	require.False(t, classifier.Classify(t.Context(), ev).Reload)
}
