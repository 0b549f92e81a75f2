// Package logging provides the structured logger shared by every
// subsystem of the analysis engine.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Logger is the structured logger type used throughout the engine.
type Logger = log.Logger

// New builds the root logger. verbose lowers the level to Debug;
// otherwise only Info and above are emitted.
func New(verbose bool) *Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}

	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
	return l
}

// NewWithWriter builds a logger against an arbitrary writer, used by
// tests that want to inspect log output instead of writing to stderr.
func NewWithWriter(w io.Writer, verbose bool) *Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{Level: level})
}

// Component returns a child logger tagged with a subsystem name, mirroring
// the "[TAG] message" convention the rest of the codebase grew up with but
// as structured key/value pairs instead of a string prefix.
func Component(l *Logger, name string) *Logger {
	return l.With("component", name)
}
