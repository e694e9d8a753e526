package mdmake

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"

	"github.com/yaklabco/mdmake/target"
)

// watchDebounce coalesces bursts of filesystem events (editors often write a
// file several times in quick succession) into a single re-run.
const watchDebounce = 200 * time.Millisecond

// watchLoop runs the requested targets once, then re-runs them whenever a
// dependency file changes. Build errors during a re-run are reported and the
// loop keeps watching; only context cancellation ends it.
func watchLoop(ctx context.Context, params RunParams, load func() (*target.Config, error), runOnce func(context.Context) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	rearm := func() (map[string]bool, error) {
		cfg, err := load()
		if err != nil {
			return nil, err
		}
		deps := dependencyFiles(cfg)
		for _, dir := range lo.Uniq(lo.Map(lo.Keys(deps), func(p string, _ int) string {
			return filepath.Dir(p)
		})) {
			// Watching a directory that does not exist yet is not fatal.
			if err := watcher.Add(dir); err != nil {
				slog.Debug("watch add failed", "dir", dir, "err", err)
			}
		}
		return deps, nil
	}

	report := func(err error) {
		if err != nil {
			fmt.Fprintln(params.Stderr, err)
		}
	}

	report(runOnce(ctx))
	deps, err := rearm()
	if err != nil {
		return err
	}

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !deps[filepath.Clean(ev.Name)] {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			slog.Debug("dependency changed", "file", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			report(runOnce(ctx))
			// Drop events produced by the run itself before re-arming.
			drain(watcher.Events)
			if deps, err = rearm(); err != nil {
				return err
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Debug("watcher error", "err", werr)
		}
	}
}

// dependencyFiles returns the set of file paths the build reads: every
// declared dependency that resolves to a file target.
func dependencyFiles(cfg *target.Config) map[string]bool {
	deps := map[string]bool{}
	for _, t := range cfg.All() {
		for _, name := range t.Deps {
			if dep, ok := cfg.Get(name); ok && dep.IsFile() && !dep.IsPattern() {
				deps[filepath.Clean(name)] = true
			}
		}
	}
	return deps
}

func drain(events chan fsnotify.Event) {
	for {
		select {
		case <-events:
		default:
			return
		}
	}
}
