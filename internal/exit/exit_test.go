package exit

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestSuccess(t *testing.T) {
	r := Success("all good")

	if r.ExitCode != 0 {
		t.Errorf("Success() exit code = %d, want 0", r.ExitCode)
	}
	if r.Output != os.Stdout {
		t.Error("Success() should print to stdout")
	}
	if r.Colored {
		t.Error("Success() output should not be colorized")
	}
}

func TestError(t *testing.T) {
	r := Error("boom")

	if r.ExitCode != 1 {
		t.Errorf("Error() exit code = %d, want 1", r.ExitCode)
	}
	if r.Output != os.Stderr {
		t.Error("Error() should print to stderr")
	}
	if !r.Colored {
		t.Error("Error() output should be colorized")
	}
}

func TestErrorf(t *testing.T) {
	r := Errorf("failed after %d of %d", 2, 5)

	if r.Message != "failed after 2 of 5" {
		t.Errorf("Errorf() message = %q", r.Message)
	}
	if r.ExitCode != 1 {
		t.Errorf("Errorf() exit code = %d, want 1", r.ExitCode)
	}
}

func TestUsage(t *testing.T) {
	r := Usage("bad flags")

	if r.ExitCode != 2 {
		t.Errorf("Usage() exit code = %d, want 2", r.ExitCode)
	}
	if r.Output != os.Stderr {
		t.Error("Usage() should print to stderr")
	}
}

func TestResult_Print(t *testing.T) {
	var buf bytes.Buffer
	r := &Result{Output: &buf, Message: "plain text"}

	r.Print()

	if buf.String() != "plain text" {
		t.Errorf("Print() wrote %q, want %q", buf.String(), "plain text")
	}
}

func TestResult_PrintColored(t *testing.T) {
	var buf bytes.Buffer
	r := &Result{Output: &buf, Message: "red text", Colored: true}

	r.Print()

	// Color codes may or may not be emitted depending on the environment;
	// the message itself must always be present.
	if !strings.Contains(buf.String(), "red text") {
		t.Errorf("Print() wrote %q, want it to contain the message", buf.String())
	}
}

func TestSetColorMode(t *testing.T) {
	saved := color.NoColor
	defer func() { color.NoColor = saved }()

	SetColorMode(ColorNever)
	var buf bytes.Buffer
	(&Result{Output: &buf, Message: "quiet", Colored: true}).Print()
	if buf.String() != "quiet" {
		t.Errorf("Print() with ColorNever wrote %q, want %q", buf.String(), "quiet")
	}

	SetColorMode(ColorAlways)
	buf.Reset()
	(&Result{Output: &buf, Message: "loud", Colored: true}).Print()
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("Print() with ColorAlways wrote %q, want escape codes", buf.String())
	}

	// Auto leaves the detected setting alone.
	color.NoColor = true
	SetColorMode(ColorAuto)
	if !color.NoColor {
		t.Error("SetColorMode(ColorAuto) should not override detection")
	}
}
