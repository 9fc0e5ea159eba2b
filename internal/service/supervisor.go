package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/CZERTAINLY/devwatch/internal/imports"
	"github.com/CZERTAINLY/devwatch/internal/log"
	"github.com/CZERTAINLY/devwatch/internal/model"
	"github.com/CZERTAINLY/devwatch/internal/watch"

	"github.com/google/uuid"
)

// shutdownTimeout bounds the wait for the last child when the supervisor stops.
const shutdownTimeout = 2 * waitDelay

type Supervisor struct {
	project    model.Project
	finder     imports.Finder
	classifier Classifier
	launcher   Launcher
	console    *Console

	// owned by the Do loop
	current Process
	exited  <-chan Result
	pending *time.Timer
	reason  string

	stats counters
}

type counters struct {
	restarts  atomic.Int64
	scheduled atomic.Int64
	skipped   atomic.Int64
	failures  atomic.Int64
}

// Stats is a snapshot of the supervisor activity.
type Stats struct {
	Restarts  int // child launches, the initial one included
	Scheduled int // relevant changes, each one (re)started the debounce timer
	Skipped   int // auxiliary changes of files not imported by the entry file
	Failures  int // launch errors and non-zero exits
}

// NewFinder returns the import finder configured for p.
func NewFinder(p model.Project) imports.Finder {
	var scanner imports.Scanner
	switch p.Scanner {
	case model.ScannerSyntax:
		scanner = imports.NewSyntaxScanner()
	default:
		scanner = imports.NewPatternScanner(p.Prefixes)
	}
	return imports.Finder{
		Entry:   p.Entry,
		Scanner: scanner,
		Resolver: imports.Resolver{
			Dir:       p.AuxDir,
			Prefixes:  p.Prefixes,
			Extension: p.Extension,
		},
	}
}

func NewSupervisor(p model.Project, finder imports.Finder, launcher Launcher, console *Console) *Supervisor {
	return &Supervisor{
		project:    p,
		finder:     finder,
		classifier: NewClassifier(p.Entry, p.AuxDir, p.Extension, finder),
		launcher:   launcher,
		console:    console,
	}
}

// SupervisorFromProject returns a supervisor running the configured command
// with the streams of the current process.
func SupervisorFromProject(p model.Project, console *Console) *Supervisor {
	launcher := CommandLauncher{
		Command: CommandFor(p),
	}
	return NewSupervisor(p, NewFinder(p), launcher, console)
}

// Do runs the supervisor event loop.
// On entry it prints the watch targets and launches the entry file once.
// Then it multiplexes:
//  1. Change events – classified, relevant ones (re)start the debounce timer.
//  2. Debounce timer – prints the reason of the last relevant change and restarts the child.
//  3. Exit of the current child – a non-zero exit status is reported, nothing is restarted.
//  4. Context cancellation – terminates the loop and the child.
//
// All supervisor state is owned by this loop. Do returns nil on cancellation.
func (s *Supervisor) Do(ctx context.Context, events <-chan watch.Event) error {
	slog.DebugContext(ctx, "starting a supervisor", "entry", s.project.Entry, "dir", s.project.AuxDir)
	defer s.shutdown(ctx)

	s.announce(ctx)
	s.restart(ctx)

	for {
		var fire <-chan time.Time
		if s.pending != nil {
			fire = s.pending.C
		}
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				slog.WarnContext(ctx, "watcher stopped: no more reloads")
				events = nil
				continue
			}
			s.handle(ctx, ev)
		case <-fire:
			s.pending = nil
			s.console.Warn("%s", s.reason)
			s.restart(ctx)
		case result := <-s.exited:
			s.handleExit(ctx, result)
		}
	}
}

// Stats returns the counters. It is safe to call while Do runs.
func (s *Supervisor) Stats() Stats {
	return Stats{
		Restarts:  int(s.stats.restarts.Load()),
		Scheduled: int(s.stats.scheduled.Load()),
		Skipped:   int(s.stats.skipped.Load()),
		Failures:  int(s.stats.failures.Load()),
	}
}

func (s *Supervisor) announce(ctx context.Context) {
	set, _ := s.finder.Find(ctx)
	s.console.OK("Watching for file changes...")
	s.console.Muted("   - %s", s.project.Entry)
	if len(set) > 0 {
		s.console.Muted("   - Imported files:")
		for _, path := range set.Sorted() {
			s.console.Muted("     • %s", s.project.Rel(path))
		}
	} else {
		s.console.Warn("   No imports found in %s", s.project.Rel(s.project.Entry))
	}
	s.console.Println()
}

func (s *Supervisor) handle(ctx context.Context, ev watch.Event) {
	slog.DebugContext(ctx, "change event", "kind", ev.Kind.String(), "op", ev.Op.String(), "path", ev.Path)
	decision := s.classifier.Classify(ctx, ev)
	switch {
	case decision.Reload:
		s.schedule(decision.Message)
	case decision.Message != "":
		s.console.Muted("%s", decision.Message)
		s.stats.skipped.Add(1)
	}
}

// schedule replaces any pending reload with a new one firing after the
// debounce delay.
func (s *Supervisor) schedule(reason string) {
	s.cancelPending()
	s.pending = time.NewTimer(s.project.Debounce)
	s.reason = reason
	s.stats.scheduled.Add(1)
}

func (s *Supervisor) cancelPending() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

// restart terminates the current child without waiting for it and starts a
// new one.
func (s *Supervisor) restart(ctx context.Context) {
	s.cancelPending()
	if s.current != nil {
		// the replacement is spawned before the old child is confirmed dead
		s.current.Terminate()
		s.current, s.exited = nil, nil
	}

	if s.project.Clear {
		s.console.Clear()
	}
	s.console.Info("Running %s...", s.project.Rel(s.project.Entry))
	s.console.Println()

	id := uuid.NewString()
	ctx = log.ContextAttrs(ctx, slog.String("run_id", id))
	s.stats.restarts.Add(1)
	p, err := s.launcher.Launch(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "launching entry file failed", "error", err)
		s.console.Error("Failed to start %s: %v", s.project.Rel(s.project.Entry), err)
		s.stats.failures.Add(1)
		return
	}
	s.current = p
	s.exited = p.WaitChan()
}

func (s *Supervisor) handleExit(ctx context.Context, result Result) {
	s.current, s.exited = nil, nil
	ctx = log.ContextAttrs(ctx, slog.String("run_id", result.ID))
	slog.DebugContext(ctx, "process exited", "exit_code", result.ExitCode(), "duration", result.Stopped.Sub(result.Started))
	switch {
	case result.Failed():
		s.console.Println()
		s.console.Error("Process exited with code %d", result.ExitCode())
		s.stats.failures.Add(1)
	case result.State == nil && result.Err != nil:
		s.console.Println()
		s.console.Error("Process failed: %v", result.Err)
		s.stats.failures.Add(1)
	}
}

func (s *Supervisor) shutdown(ctx context.Context) {
	s.cancelPending()
	if s.current == nil {
		return
	}
	s.current.Terminate()
	timer := time.NewTimer(shutdownTimeout)
	defer timer.Stop()
	select {
	case result := <-s.exited:
		slog.DebugContext(ctx, "process stopped", "run_id", result.ID, "exit_code", result.ExitCode())
	case <-timer.C:
		slog.WarnContext(ctx, "process did not stop in time", "run_id", s.current.ID())
	}
	s.current, s.exited = nil, nil
}
