// Package logger provides verbose logging for archer.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr so users can follow the analysis pipeline.
// Warnings are always printed.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level tags a log line.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
)

var (
	mu      sync.Mutex
	verbose bool
	output  io.Writer = os.Stderr
	now               = time.Now
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether verbose mode is enabled.
func IsVerbose() bool {
	mu.Lock()
	defer mu.Unlock()
	return verbose
}

// SetOutput redirects log lines, os.Stderr by default.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func logf(level Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if level != LevelWarn && !verbose {
		return
	}
	fmt.Fprintf(output, "["+string(level)+"] "+format+"\n", args...)
}

// Debug prints a message in verbose mode.
func Debug(format string, args ...any) {
	logf(LevelDebug, format, args...)
}

// Info prints an informational message in verbose mode.
func Info(format string, args ...any) {
	logf(LevelInfo, format, args...)
}

// Warn prints a warning regardless of verbose mode.
func Warn(format string, args ...any) {
	logf(LevelWarn, format, args...)
}

// Stage prints a stage header in verbose mode and returns a func that
// prints the elapsed time when the stage ends:
//
//	defer logger.Stage("Analysis")()
func Stage(name string) func() {
	mu.Lock()
	start := now()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
	mu.Unlock()

	return func() {
		mu.Lock()
		defer mu.Unlock()
		if verbose {
			fmt.Fprintf(output, "=== %s done in %s ===\n", name, now().Sub(start).Round(time.Millisecond))
		}
	}
}
