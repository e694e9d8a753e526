// Package mdmake is the engine behind the mdmake command: it loads the
// Markdown build configuration, expands the requested targets into an
// execution order, and runs their recipes.
package mdmake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/samber/lo"

	"github.com/yaklabco/mdmake/config"
	"github.com/yaklabco/mdmake/graph"
	"github.com/yaklabco/mdmake/internal/dryrun"
	ilog "github.com/yaklabco/mdmake/internal/log"
	"github.com/yaklabco/mdmake/parse"
	"github.com/yaklabco/mdmake/sh"
	"github.com/yaklabco/mdmake/target"
	"github.com/yaklabco/mdmake/ui"
)

// RunParams contains the args for one invocation of mdmake.
type RunParams struct {
	BaseCtx context.Context

	Stdout io.Writer // writer for narration and recipe stdout
	Stderr io.Writer // writer for diagnostics and recipe stderr

	Files   []string // configuration sources, merged in order
	Dir     string   // change directory before doing anything else
	Targets []string // requested target names; empty means the default

	List     bool   // list available targets
	Generate string // print a starter configuration of the given style
	Readme   bool   // render the readme
	Force    bool   // ignore staleness, process everything reached
	DryRun   bool   // print commands without executing
	Script   bool   // run whole recipe blocks as one script
	Verbose  bool   // narrate up-to-date targets, trace scripts
	Quiet    bool   // suppress target/command narration
	Watch    bool   // re-run requested targets when dependencies change
	Debug    bool   // debug logging
	Color    string // color mode: auto, always, never

	// ReadmeText is the embedded readme passed down from main, since go:embed
	// cannot reach the repository root from this package.
	ReadmeText string
}

func preprocessRunParams(params *RunParams) {
	cfg := config.Global()
	if params.BaseCtx == nil {
		params.BaseCtx = context.Background()
	}
	if params.Stdout == nil {
		params.Stdout = os.Stdout
	}
	if params.Stderr == nil {
		params.Stderr = os.Stderr
	}
	if len(params.Files) == 0 {
		params.Files = []string{cfg.File}
	}
	if params.Color == "" {
		params.Color = cfg.Color
	}
	params.Verbose = params.Verbose || cfg.Verbose
	params.Quiet = params.Quiet || cfg.Quiet
}

// Run is the entrypoint for running mdmake. It exists external to main so
// the whole engine is drivable from tests and other programs.
func Run(params RunParams) error {
	preprocessRunParams(&params)
	ilog.Setup(params.Stderr, params.Debug)
	styles := ui.New(ui.Mode(params.Color))

	if params.Generate != "" {
		return generate(params.Stdout, params.Generate)
	}
	if params.Readme {
		return renderReadme(params.Stdout, params.ReadmeText, styles)
	}

	if params.Dir != "" {
		if err := os.Chdir(params.Dir); err != nil {
			return fmt.Errorf("changing directory: %w", err)
		}
	}
	dryrun.Set(params.DryRun)

	sources, err := resolveSources(params.Files)
	if err != nil {
		return err
	}
	// Recipes always run relative to the first configuration source, no
	// matter where mdmake was invoked from.
	if err := os.Chdir(filepath.Dir(sources[0])); err != nil {
		return exitErrf(ExitConfigUnreadable, "entering configuration directory: %v", err)
	}

	load := func() (*target.Config, error) {
		cfg, err := parse.Files(sources)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, &ExitError{Code: ExitConfigMissing, Err: err}
			}
			return nil, &ExitError{Code: ExitConfigUnreadable, Err: err}
		}
		return cfg, nil
	}

	if params.List {
		cfg, err := load()
		if err != nil {
			return err
		}
		return renderList(params.Stdout, cfg, styles, params.Verbose)
	}

	runOnce := func(ctx context.Context) error {
		cfg, err := load()
		if err != nil {
			return err
		}
		roots := params.Targets
		if len(roots) == 0 {
			first, ok := cfg.First()
			if !ok {
				return exitErrf(ExitUnknownTarget, "no targets defined")
			}
			roots = []string{first.Name}
		}
		slog.Debug("processing", "targets", roots, "sources", sources)

		order, err := graph.Build(cfg, roots, params.Force)
		if err != nil {
			return mapRunError(err)
		}
		slog.Debug("execution order", "targets", lo.Map(order, func(t *target.Target, _ int) string {
			return t.Name
		}))

		runner := &sh.Runner{
			Config:      cfg,
			Styles:      styles,
			Out:         params.Stdout,
			ErrOut:      params.Stderr,
			Force:       params.Force,
			Script:      params.Script,
			Verbose:     params.Verbose,
			Quiet:       params.Quiet,
			Interpreter: config.Global().ScriptShell,
		}
		for _, t := range order {
			if err := runner.Process(ctx, t); err != nil {
				return mapRunError(err)
			}
		}
		return nil
	}

	if params.Watch {
		return watchLoop(params.BaseCtx, params, load, runOnce)
	}
	return runOnce(params.BaseCtx)
}

// resolveSources verifies every configuration source exists and returns their
// absolute paths, so the working directory can move without losing them.
func resolveSources(files []string) ([]string, error) {
	sources := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, exitErrf(ExitConfigMissing, "please create a `%s`", f)
			}
			return nil, exitErrf(ExitConfigUnreadable, "reading %s: %v", f, err)
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, exitErrf(ExitConfigUnreadable, "resolving %s: %v", f, err)
		}
		sources = append(sources, abs)
	}
	return sources, nil
}

// TargetNames parses the configuration in dir and returns the declared
// target names, for shell completion.
func TargetNames(dir string) ([]string, error) {
	path := config.Global().File
	if dir != "" {
		path = filepath.Join(dir, path)
	}
	cfg, err := parse.Files([]string{path})
	if err != nil {
		return nil, err
	}
	return lo.Filter(cfg.Names(), func(name string, _ int) bool {
		t, _ := cfg.Get(name)
		return !t.IsFile() || len(t.Deps) > 0 || len(t.Recipes) > 0
	}), nil
}
