// Package log wires the charmbracelet logger into slog for mdmake's debug
// output.
package log

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// Setup installs a pretty console logger as the slog default and returns the
// handler so callers can adjust its level.
func Setup(w io.Writer, debug bool) *log.Logger {
	handler := log.NewWithOptions(w, log.Options{
		Level:           log.InfoLevel,
		ReportTimestamp: false,
	})
	if debug {
		handler.SetLevel(log.DebugLevel)
	}
	slog.SetDefault(slog.New(handler))
	return handler
}
