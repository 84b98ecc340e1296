package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/milk9111/sentinel/prefabs"
	"github.com/milk9111/sentinel/record"
	"github.com/milk9111/sentinel/sim"
)

type runOptions struct {
	ticks    int
	realtime bool
	watch    bool
	record   string
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "Run a scenario for a fixed number of ticks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "skirmish"
			if len(args) == 1 {
				name = args[0]
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runScenario(ctx, name, opts)
		},
	}
	cmd.Flags().IntVar(&opts.ticks, "ticks", 0, "override the scenario tick count")
	cmd.Flags().BoolVar(&opts.realtime, "realtime", false, "pace ticks to the scenario tick rate")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "reload detector tunables when prefabs/ changes")
	cmd.Flags().StringVar(&opts.record, "record", "", "record every scan into this SQLite file")
	return cmd
}

func runScenario(ctx context.Context, name string, opts *runOptions) error {
	spec, err := prefabs.LoadScenario(name)
	if err != nil {
		return err
	}
	s, err := sim.New(spec)
	if err != nil {
		return err
	}

	if opts.record != "" {
		db, err := record.Open(opts.record)
		if err != nil {
			return err
		}
		defer db.Close()
		rec, err := db.BeginRun(spec.Name, spec.Seed)
		if err != nil {
			return err
		}
		s.Detection().SetObserver(rec)
		defer func() {
			if rec.Err() != nil {
				slog.Error("recording incomplete", "run", rec.RunID(), "error", rec.Err())
			}
		}()
	}

	if opts.watch {
		dirs := []string{filepath.Join("prefabs", "scenarios"), filepath.Join("prefabs", "scripts")}
		w, err := prefabs.NewWatcher(dirs...)
		if err != nil {
			return fmt.Errorf("watch prefabs: %w", err)
		}
		defer w.Close()
		reloads := make(chan string, 1)
		go forwardChanges(ctx, w, reloads)
		return runWatched(ctx, s, name, ticksFor(spec, opts), opts.realtime, reloads)
	}

	err = s.Run(ctx, ticksFor(spec, opts), opts.realtime, spec.TickRate, logProgress)
	summarize(s)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func ticksFor(spec *prefabs.ScenarioSpec, opts *runOptions) int {
	if opts.ticks > 0 {
		return opts.ticks
	}
	return spec.Ticks
}

func forwardChanges(ctx context.Context, w *prefabs.Watcher, out chan<- string) {
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-w.Events:
			if !ok {
				return
			}
			select {
			case out <- path:
			default:
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Warn("prefab watcher error", "error", err)
		}
	}
}

// runWatched steps the simulation one tick at a time so changes can be
// applied between ticks on the simulation goroutine.
func runWatched(ctx context.Context, s *sim.Sim, name string, ticks int, realtime bool, reloads <-chan string) error {
	every := s.Scenario.TickRate
	for i := 0; i < ticks; i++ {
		select {
		case path := <-reloads:
			applyChange(s, name, path)
		default:
		}
		if err := s.Run(ctx, 1, realtime, every, logProgress); err != nil {
			summarize(s)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
	summarize(s)
	return nil
}

func applyChange(s *sim.Sim, name, path string) {
	if prefabs.IsScript(path) {
		s.InvalidateScript(path)
		slog.Info("targeting script changed", "path", path)
		return
	}
	spec, err := prefabs.LoadScenario(name)
	if err != nil {
		slog.Warn("ignoring invalid scenario change", "path", path, "error", err)
		return
	}
	if _, err := s.Reload(spec); err != nil {
		slog.Warn("reload failed", "path", path, "error", err)
	}
}

func logProgress(s *sim.Sim) {
	st := s.Stats()
	slog.Info("progress",
		"tick", s.World().Tick(),
		"sim_time", fmt.Sprintf("%.1fs", s.World().Time()),
		"scans", st.Scans,
		"engagements", st.Engagements,
		"target_changes", st.TargetChanges,
	)
}

func summarize(s *sim.Sim) {
	for _, sq := range s.Stats().Squads() {
		if sq.Squad == "" {
			continue
		}
		slog.Info("squad summary", "squad", sq.Squad, "scans", sq.Scans, "engaged_ticks", sq.Engaged)
	}
}
