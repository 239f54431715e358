// Package logger provides leveled logging for the geneax CLI.
// Debug, Info and Warn output is printed only in verbose mode (--verbose).
// Errors are always printed. Progress lines are printed only when the
// output is an interactive terminal, so CI logs stay clean.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr

	// progressLen is the width of the last progress line, for clearing.
	progressLen int
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	progressLen = 0
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logf(true, "[DEBUG] ", format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	logf(true, "[INFO] ", format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	logf(true, "[WARN] ", format, args...)
}

// Error prints an error message regardless of verbose mode.
func Error(format string, args ...any) {
	logf(false, "[ERROR] ", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Progress overwrites the current terminal line with a status message.
// Nothing is printed when the output is not a terminal.
func Progress(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !isTerminal(output) {
		return
	}
	line := fmt.Sprintf(format, args...)
	pad := progressLen - len(line)
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintf(output, "\r%s%*s", line, pad, "")
	progressLen = len(line)
}

// ProgressDone ends the current progress line.
func ProgressDone() {
	mu.Lock()
	defer mu.Unlock()
	if progressLen > 0 && isTerminal(output) {
		fmt.Fprintln(output)
	}
	progressLen = 0
}

func logf(verboseOnly bool, prefix, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if verboseOnly && !verbose {
		return
	}
	if progressLen > 0 {
		fmt.Fprintln(output)
		progressLen = 0
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
