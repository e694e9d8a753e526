// Package templates embeds the starter configuration documents printed by
// `mdmake -g <style>`.
package templates

import (
	"embed"
	"io/fs"
	"slices"
	"strings"
)

//go:embed *.md
var files embed.FS

// Style returns the starter document for the given style name.
func Style(name string) (string, bool) {
	b, err := files.ReadFile("Makefile." + name + ".md")
	if err != nil {
		return "", false
	}
	return string(b), true
}

// Styles returns the available style names.
func Styles() []string {
	entries, err := fs.Glob(files, "Makefile.*.md")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		name := strings.TrimSuffix(strings.TrimPrefix(e, "Makefile."), ".md")
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
