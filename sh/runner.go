package sh

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/yaklabco/mdmake/internal/dryrun"
	"github.com/yaklabco/mdmake/target"
	"github.com/yaklabco/mdmake/ui"
)

// DefaultInterpreter is the script-mode interpreter command line. The -x
// flag is appended in verbose mode.
const DefaultInterpreter = "bash -eo pipefail"

// MissingFileError reports a file dependency without recipes that does not
// exist on disk.
type MissingFileError struct {
	Path string
}

func (e *MissingFileError) Error() string {
	return "file `" + e.Path + "` does not exist"
}

// RecipeError reports a recipe command or script that exited with a
// non-allowed, non-zero status.
type RecipeError struct {
	Target string
	Status int
}

func (e *RecipeError) Error() string {
	return fmt.Sprintf("recipe for `%s` failed with status %d", e.Target, e.Status)
}

// Runner executes the targets of one linearized build, strictly in sequence.
type Runner struct {
	Config *target.Config
	Styles ui.Styles
	Out    io.Writer
	ErrOut io.Writer

	Force   bool
	Script  bool
	Verbose bool
	Quiet   bool

	// Interpreter overrides DefaultInterpreter for script mode.
	Interpreter string
}

// Process runs one target through the skip/run state machine: fresh file
// targets are skipped (narrated only in verbose mode), everything else runs
// its recipes in order. Processing stops at the first failed recipe.
func (r *Runner) Process(ctx context.Context, t *target.Target) error {
	if t.IsFile() {
		exists := t.Exists()
		if len(t.Recipes) == 0 {
			if !exists {
				return &MissingFileError{Path: t.Name}
			}
			// A declared file dependency that exists needs no narration.
			return nil
		}
		if !r.Force && exists && !r.Config.Outdated(t, *t.DTG) {
			if r.Verbose && !r.Quiet {
				r.heading(t)
				fmt.Fprintf(r.Out, "%s\n\n", r.Styles.UpToDate.Render("*Up to date*"))
			}
			return nil
		}
	}
	if !r.Quiet {
		r.heading(t)
	}
	for _, rec := range t.Recipes {
		if err := r.runRecipe(ctx, t, rec); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runRecipe(ctx context.Context, t *target.Target, rec target.Recipe) error {
	switch {
	case rec.Shell != "":
		return r.runShell(ctx, t, rec)
	case r.Script:
		return r.runScript(ctx, t, rec)
	default:
		for _, cmd := range rec.Commands {
			if err := r.pipe(ctx, t, rec, nil, "sh", "-c", cmd); err != nil {
				return err
			}
		}
		return nil
	}
}

// runShell pipes the recipe's single command string to the declared
// interpreter on stdin.
func (r *Runner) runShell(ctx context.Context, t *target.Target, rec target.Recipe) error {
	argv := strings.Fields(rec.Shell)
	if len(argv) == 0 || len(rec.Commands) == 0 {
		return nil
	}
	script := rec.Commands[0]
	r.narrate(argv[0], strings.Split(strings.TrimRight(script, "\n"), "\n"))
	return r.spawn(ctx, t, rec, strings.NewReader(script), argv[0], argv[1:]...)
}

// runScript joins the recipe's commands into one script and pipes it to the
// default interpreter, enabling multi-line control constructs.
func (r *Runner) runScript(ctx context.Context, t *target.Target, rec target.Recipe) error {
	interp := r.Interpreter
	if interp == "" {
		interp = DefaultInterpreter
	}
	argv := strings.Fields(interp)
	if r.Verbose {
		argv = append(argv, "-x")
	}
	script := strings.Join(rec.Commands, "\n") + "\n"
	r.narrate(argv[0], rec.Commands)
	return r.spawn(ctx, t, rec, strings.NewReader(script), argv[0], argv[1:]...)
}

// pipe narrates and runs one standalone command line.
func (r *Runner) pipe(ctx context.Context, t *target.Target, rec target.Recipe, stdin io.Reader, name string, args ...string) error {
	r.narrate("", []string{args[len(args)-1]})
	return r.spawn(ctx, t, rec, stdin, name, args...)
}

func (r *Runner) spawn(ctx context.Context, t *target.Target, rec target.Recipe, stdin io.Reader, name string, args ...string) error {
	if dryrun.Active() {
		r.closeFence()
		return nil
	}
	_, err := Exec(ctx, stdin, r.Out, r.ErrOut, name, args...)
	r.closeFence()
	if err == nil {
		return nil
	}
	status := ExitStatus(err)
	if rec.AllowsStatus(status) {
		return nil
	}
	return &RecipeError{Target: t.Name, Status: status}
}

func (r *Runner) heading(t *target.Target) {
	name := t.Name
	if t.IsFile() {
		name = "`" + name + "`"
	}
	fmt.Fprintf(r.Out, "%s\n\n", r.Styles.Heading.Render("# "+name))
}

// narrate opens a fenced block and echoes the command lines about to run.
// The block is closed after the command's own output by closeFence.
func (r *Runner) narrate(interp string, lines []string) {
	if r.Quiet {
		return
	}
	fmt.Fprintln(r.Out, r.Styles.Fence.Render("```text"))
	prompt := "$"
	if interp != "" {
		prompt = interp + " <<<"
	}
	for i, l := range lines {
		if i > 0 {
			prompt = ">"
		}
		fmt.Fprintln(r.Out, r.Styles.Command.Render(prompt+" "+l))
	}
}

func (r *Runner) closeFence() {
	if r.Quiet {
		return
	}
	fmt.Fprintln(r.Out, r.Styles.Fence.Render("```"))
	fmt.Fprintln(r.Out)
}
