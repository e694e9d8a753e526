package mdmake

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/wordwrap"

	"github.com/yaklabco/mdmake/ui"
)

// renderReadme renders the embedded readme: through glamour on a color
// terminal, plain word-wrapped text otherwise.
func renderReadme(out io.Writer, readme string, styles ui.Styles) error {
	width := detectTermWidth()
	if !styles.Enabled() {
		fmt.Fprint(out, wordwrap.String(readme, width))
		return nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(min(width, fallbackTermWidth)),
	)
	if err != nil {
		fmt.Fprint(out, readme)
		return nil
	}
	rendered, err := r.Render(readme)
	if err != nil {
		fmt.Fprint(out, readme)
		return nil
	}
	fmt.Fprint(out, rendered)
	return nil
}
