package mdmake

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/muesli/reflow/wordwrap"

	"github.com/yaklabco/mdmake/target"
	"github.com/yaklabco/mdmake/ui"
)

const (
	termWidthFloor    = 20
	fallbackTermWidth = 80
)

// renderList renders the output of `mdmake -l`. Targets that are bare file
// dependencies (no recipes, no dependencies) are omitted; they are inputs,
// not things you ask for.
func renderList(out io.Writer, cfg *target.Config, styles ui.Styles, verbose bool) error {
	fmt.Fprintf(out, "%s\n\n", styles.Title.Render("# Targets"))
	width := detectTermWidth()
	for _, t := range cfg.All() {
		if t.IsFile() && len(t.Deps) == 0 && len(t.Recipes) == 0 {
			continue
		}
		name := t.Name
		if t.IsFile() {
			name = styles.File.Render("`" + name + "`")
		}
		fmt.Fprintf(out, "%s %s\n", styles.Bullet.Render("*"), name)
		if verbose && len(t.Deps) > 0 {
			deps := wordwrap.String(strings.Join(t.Deps, " "), max(width-4, termWidthFloor))
			for line := range strings.SplitSeq(deps, "\n") {
				fmt.Fprintf(out, "    %s\n", styles.Bullet.Render(line))
			}
		}
	}
	fmt.Fprintln(out)
	return nil
}

// detectTermWidth returns the terminal width to use for wrapping. It prefers
// the actual stdout size, falls back to $COLUMNS, then 80.
func detectTermWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if w, err := strconv.Atoi(cols); err == nil && w > 0 {
			return w
		}
	}
	return fallbackTermWidth
}
