package mdmake

import (
	"fmt"
	"io"
	"strings"

	"github.com/yaklabco/mdmake/pkg/mdmake/templates"
)

// generate prints the starter configuration for the given style.
func generate(out io.Writer, style string) error {
	s, ok := templates.Style(style)
	if !ok {
		return exitErrf(ExitBadStyle, "invalid style `%s` (available: %s)",
			style, strings.Join(templates.Styles(), ", "))
	}
	fmt.Fprint(out, s)
	return nil
}
