// Package exit carries CLI termination results: an exit code, a message,
// and where to print it. Error messages are colorized when stderr is a
// terminal.
package exit

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var errColor = color.New(color.FgRed)

// ColorMode controls whether failure messages are colorized.
type ColorMode int

const (
	// ColorAuto defers to terminal detection.
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// SetColorMode forces colorization on or off process-wide. ColorAuto keeps
// the terminal detection done at startup.
func SetColorMode(m ColorMode) {
	switch m {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	}
}

// Result holds the output destination and exit code for program termination.
type Result struct {
	Output   io.Writer
	ExitCode int
	Message  string
	Colored  bool
}

// Print writes the result message to the configured output destination.
func (r *Result) Print() {
	if r.Colored {
		errColor.Fprint(r.Output, r.Message)
		return
	}
	fmt.Fprint(r.Output, r.Message)
}

// Success creates a successful exit result that outputs to stdout with exit code 0.
func Success(message string) *Result {
	return &Result{
		Output:   os.Stdout,
		ExitCode: 0,
		Message:  message,
	}
}

// Error creates an error exit result that outputs to stderr with exit code 1.
func Error(message string) *Result {
	return &Result{
		Output:   os.Stderr,
		ExitCode: 1,
		Message:  message,
		Colored:  true,
	}
}

// Errorf creates an error exit result with formatted message.
func Errorf(format string, a ...any) *Result {
	return Error(fmt.Sprintf(format, a...))
}

// Usage creates a usage-error exit result with exit code 2.
func Usage(message string) *Result {
	return &Result{
		Output:   os.Stderr,
		ExitCode: 2,
		Message:  message,
		Colored:  true,
	}
}
