// Package logging is the process-wide structured logger. Calls made before
// Init are dropped, which keeps library code quiet under test.
package logging

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Options configures the console backend.
type Options struct {
	Debug  bool
	Output io.Writer // Defaults to stderr
}

var current atomic.Pointer[log.Logger]

// Init installs the console logger.
func Init(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	level := log.InfoLevel
	if opts.Debug {
		level = log.DebugLevel
	}
	current.Store(log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Level:           level,
	}))
}

// Reset removes the installed logger.
func Reset() {
	current.Store(nil)
}

// Debug logs at DEBUG level.
func Debug(message string, keyvals ...any) {
	if l := current.Load(); l != nil {
		l.Debug(message, keyvals...)
	}
}

// Info logs at INFO level.
func Info(message string, keyvals ...any) {
	if l := current.Load(); l != nil {
		l.Info(message, keyvals...)
	}
}

// Warn logs at WARN level.
func Warn(message string, keyvals ...any) {
	if l := current.Load(); l != nil {
		l.Warn(message, keyvals...)
	}
}

// Error logs at ERROR level.
func Error(message string, keyvals ...any) {
	if l := current.Load(); l != nil {
		l.Error(message, keyvals...)
	}
}
