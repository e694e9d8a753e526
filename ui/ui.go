// Package ui holds the lipgloss styles for mdmake's narration output. The
// style set is built once from the resolved color mode and threaded into the
// output layer as a value; there is no mutable global color state.
package ui

import (
	"os"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/term"
	"github.com/samber/lo"
)

// Mode is a color mode resolved from the --color flag or configuration.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeAlways Mode = "always"
	ModeNever  Mode = "never"
)

// noColorTERMs defines terminals that do not support ANSI color output.
// Keep this list small and conservative.
var noColorTERMs = lo.Keyify([]string{
	"dumb",
	"vt100",
	"cygwin",
	"xterm-mono",
})

// Styles is the immutable style set for one run.
type Styles struct {
	Heading  lipgloss.Style
	File     lipgloss.Style
	Command  lipgloss.Style
	Fence    lipgloss.Style
	UpToDate lipgloss.Style
	Bullet   lipgloss.Style
	Title    lipgloss.Style
	Error    lipgloss.Style

	enabled bool
}

// Enabled reports whether the style set renders color.
func (s Styles) Enabled() bool { return s.enabled }

// New resolves mode against the terminal and returns the style set for the
// run. ModeAuto enables color only on a TTY whose TERM is not known to be
// colorless; NO_COLOR always wins over auto.
func New(mode Mode) Styles {
	enabled := false
	switch mode {
	case ModeAlways:
		enabled = true
	case ModeNever:
	default:
		enabled = term.IsTerminal(os.Stdout.Fd()) && os.Getenv("NO_COLOR") == "" && termSupportsColor(os.Getenv("TERM"))
	}
	if !enabled {
		plain := lipgloss.NewStyle()
		return Styles{
			Heading: plain, File: plain, Command: plain, Fence: plain,
			UpToDate: plain, Bullet: plain, Title: plain, Error: plain,
		}
	}
	return Styles{
		Heading:  lipgloss.NewStyle().Foreground(lipgloss.Color("#ff22ff")).Bold(true),
		File:     lipgloss.NewStyle().Foreground(lipgloss.Color("#44ffff")),
		Command:  lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true),
		Fence:    lipgloss.NewStyle().Foreground(lipgloss.Color("#555555")),
		UpToDate: lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff00")).Italic(true),
		Bullet:   lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		Title:    lipgloss.NewStyle().Foreground(lipgloss.Color("#ffa500")).Bold(true),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#ff0000")).Bold(true),
		enabled:  true,
	}
}

func termSupportsColor(t string) bool {
	if t == "" {
		return true
	}
	_, blacklisted := noColorTERMs[t]
	return !blacklisted
}
