package errors

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/yndrdev/totalrecover/internal/phase"
	"github.com/yndrdev/totalrecover/internal/timeline"
	"github.com/yndrdev/totalrecover/internal/validation"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil error", err: nil, expected: ""},
		{name: "simple error", err: errors.New("something went wrong"), expected: "Error: something went wrong"},
		{
			name:     "day out of range",
			err:      &timeline.DayOutOfRangeError{Day: 250, Start: -45, End: 200},
			expected: "Error: " + (&timeline.DayOutOfRangeError{Day: 250, Start: -45, End: 200}).Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.err)
			if result != tt.expected {
				t.Errorf("Format(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatf(t *testing.T) {
	got := Formatf("patient %s has no protocol", "p-1")
	if got != "Error: patient p-1 has no protocol" {
		t.Errorf("Formatf() = %q", got)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", errors.New("disk full"), ExitFailure},
		{"day out of range", &timeline.DayOutOfRangeError{Day: -100, Start: -45, End: 200}, ExitInvalidInput},
		{"wrapped rule error", fmt.Errorf("import: %w", &validation.InvalidRecurrenceRuleError{TaskID: "walk", Reason: "bad"}), ExitInvalidInput},
		{"phase table", &phase.InvalidTableError{Table: "custom", Reason: "gap"}, ExitInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// TestFatal runs Fatal in a subprocess and checks the exit code and stderr.
func TestFatal(t *testing.T) {
	if os.Getenv("GO_TEST_FATAL") == "1" {
		Fatal(errors.New("test error"))
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestFatal$")
	cmd.Env = append(os.Environ(), "GO_TEST_FATAL=1")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if e, ok := err.(*exec.ExitError); ok && !e.Success() {
		if e.ExitCode() != ExitFailure {
			t.Errorf("Fatal() exit code = %d, want %d", e.ExitCode(), ExitFailure)
		}
		if !strings.Contains(stderr.String(), "Error: test error") {
			t.Errorf("Fatal() stderr = %q, want to contain %q", stderr.String(), "Error: test error")
		}
	} else {
		t.Errorf("Fatal() did not exit with error: %v", err)
	}
}

func TestFatalInvalidInput(t *testing.T) {
	if os.Getenv("GO_TEST_FATAL_INPUT") == "1" {
		Fatal(&timeline.DayOutOfRangeError{Day: 999, Start: -45, End: 200})
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestFatalInvalidInput$")
	cmd.Env = append(os.Environ(), "GO_TEST_FATAL_INPUT=1")

	err := cmd.Run()
	e, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("Fatal() did not exit with error: %v", err)
	}
	if e.ExitCode() != ExitInvalidInput {
		t.Errorf("Fatal() exit code = %d, want %d", e.ExitCode(), ExitInvalidInput)
	}
}

// TestFatal_NilError tests that Fatal does nothing when passed a nil error
func TestFatal_NilError(t *testing.T) {
	if os.Getenv("GO_TEST_FATAL_NIL") == "1" {
		Fatal(nil)
		os.Exit(0)
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestFatal_NilError$")
	cmd.Env = append(os.Environ(), "GO_TEST_FATAL_NIL=1")

	if err := cmd.Run(); err != nil {
		t.Errorf("Fatal(nil) should not exit, but got error: %v", err)
	}
}

func TestFatalf(t *testing.T) {
	if os.Getenv("GO_TEST_FATALF") == "1" {
		Fatalf("connection to %s:%d failed", "localhost", 5432)
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestFatalf$")
	cmd.Env = append(os.Environ(), "GO_TEST_FATALF=1")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if e, ok := err.(*exec.ExitError); ok && !e.Success() {
		if e.ExitCode() != ExitFailure {
			t.Errorf("Fatalf() exit code = %d, want %d", e.ExitCode(), ExitFailure)
		}
		if !strings.Contains(stderr.String(), "Error: connection to localhost:5432 failed") {
			t.Errorf("Fatalf() stderr = %q", stderr.String())
		}
	} else {
		t.Errorf("Fatalf() did not exit with error: %v", err)
	}
}
