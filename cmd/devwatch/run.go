package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/CZERTAINLY/devwatch/internal/log"
	"github.com/CZERTAINLY/devwatch/internal/service"
	"github.com/CZERTAINLY/devwatch/internal/watch"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func doRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	attrs := slog.Group("devwatch",
		slog.String("cmd", "run"),
		slog.Int("pid", os.Getpid()),
	)
	ctx = log.ContextAttrs(ctx, attrs)

	if err := project.Check(); err != nil {
		return err
	}

	w, err := watch.New(ctx, project.Entry, project.AuxDir, project.Ignore)
	if err != nil {
		return fmt.Errorf("watching %s: %w", project.Root, err)
	}
	slog.DebugContext(ctx, "watching", "dirs", w.WatchList())

	supervisor := service.SupervisorFromProject(project, service.NewConsole(os.Stdout))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx)
	})
	g.Go(func() error {
		return supervisor.Do(gctx, w.Events())
	})
	err = g.Wait()

	stats := supervisor.Stats()
	slog.DebugContext(ctx, "devwatch stopped",
		"restarts", stats.Restarts,
		"skipped", stats.Skipped,
		"failures", stats.Failures,
	)
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func doImports(cmd *cobra.Command, args []string) error {
	attrs := slog.Group("devwatch",
		slog.String("cmd", "imports"),
		slog.Int("pid", os.Getpid()),
	)
	ctx := log.ContextAttrs(cmd.Context(), attrs)

	set, err := service.NewFinder(project).Find(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, path := range set.Sorted() {
		if _, err := fmt.Fprintln(out, project.Rel(path)); err != nil {
			return err
		}
	}
	return nil
}
