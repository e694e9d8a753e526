// Package mdmake wires the command-line surface of mdmake: flags, shell
// completion, and fang execution around the engine in pkg/mdmake.
package mdmake

import (
	"context"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/yaklabco/mdmake/cmd/mdmake/version"
	"github.com/yaklabco/mdmake/pkg/mdmake"
)

const shortDescription = "mdmake is a make-like build tool configured by a Markdown document. " +
	"See https://github.com/yaklabco/mdmake"

type rootCmdOptions struct {
	runFunc    func(params mdmake.RunParams) error
	readmeText string
}

type Option func(*rootCmdOptions)

// WithReadme supplies the embedded readme text for the -r flag. The readme
// lives at the repository root, so only package main can embed it.
func WithReadme(text string) Option {
	return func(opts *rootCmdOptions) {
		opts.readmeText = text
	}
}

// This is intentionally designed to be unusable from outside this package,
// as it exists purely for testing purposes.
func withRunFunc(fn func(params mdmake.RunParams) error) Option {
	return func(opts *rootCmdOptions) {
		opts.runFunc = fn
	}
}

func NewRootCmd(ctx context.Context, opts ...Option) *cobra.Command {
	rootCmdOpts := &rootCmdOptions{
		runFunc: mdmake.Run,
	}
	for _, opt := range opts {
		opt(rootCmdOpts)
	}

	var runParams mdmake.RunParams
	rootCmd := &cobra.Command{
		Use:   "mdmake [flags] [target...]",
		Short: shortDescription,
		Example: `	# Run the default (first declared) target
	mdmake

	# Run specific targets
	mdmake build
	mdmake clean all

	# See what would run without running it
	mdmake -n build

	# Print a starter Makefile.md
	mdmake -g rust`,
		Version: version.Effective(),
		ValidArgsFunction: func(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			dir, err := cmd.Root().PersistentFlags().GetString("directory")
			if err != nil {
				return nil, cobra.ShellCompDirectiveError
			}
			targets, err := mdmake.TargetNames(dir)
			if err != nil {
				return nil, cobra.ShellCompDirectiveError
			}
			return targets, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			runParams.Targets = args
			runParams.ReadmeText = rootCmdOpts.readmeText
			runParams.BaseCtx = cmd.Context() //nolint:fatcontext // intentionally setting context from cmd

			return rootCmdOpts.runFunc(runParams)
		},
	}

	// Flags.
	rootCmd.PersistentFlags().BoolVarP(&runParams.List, "list", "l", false, "list available targets")
	rootCmd.PersistentFlags().BoolVarP(&runParams.Force, "force", "B", false, "force processing, ignoring staleness")
	rootCmd.PersistentFlags().BoolVarP(&runParams.DryRun, "dry-run", "n", false, "print commands instead of executing them")
	rootCmd.PersistentFlags().BoolVarP(&runParams.Script, "script", "s", false, "run each recipe block as one script")
	rootCmd.PersistentFlags().StringVarP(&runParams.Dir, "directory", "C", "", "change directory before doing anything else")
	rootCmd.PersistentFlags().StringArrayVarP(&runParams.Files, "file", "f", nil, "configuration file (repeatable; later files override)")
	rootCmd.PersistentFlags().StringVarP(&runParams.Generate, "generate", "g", "", "print a starter Makefile.md of the given style")
	rootCmd.PersistentFlags().BoolVarP(&runParams.Readme, "readme", "r", false, "print the readme")
	rootCmd.PersistentFlags().BoolVarP(&runParams.Quiet, "quiet", "q", false, "suppress target and command narration")
	rootCmd.PersistentFlags().BoolVarP(&runParams.Verbose, "verbose", "v", false, "report up-to-date targets, trace scripts")
	rootCmd.PersistentFlags().StringVar(&runParams.Color, "color", "", "color mode: auto, always, or never")
	rootCmd.PersistentFlags().BoolVar(&runParams.Watch, "watch", false, "re-run targets when their file dependencies change")
	rootCmd.PersistentFlags().BoolVarP(&runParams.Debug, "debug", "d", false, "turn on debug messages")

	return rootCmd
}

// ExecuteWithFang runs the root Cobra command with Fang-specific options.
func ExecuteWithFang(ctx context.Context, rootCmd *cobra.Command) error {
	//nolint:wrapcheck // top-level error from cobra, wrapping not needed
	return fang.Execute(
		ctx, rootCmd, fang.WithVersion(rootCmd.Version), fang.WithoutManpage())
}
