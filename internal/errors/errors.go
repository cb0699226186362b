package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/yndrdev/totalrecover/internal/logger"
	"github.com/yndrdev/totalrecover/internal/phase"
	"github.com/yndrdev/totalrecover/internal/timeline"
	"github.com/yndrdev/totalrecover/internal/validation"
)

const (
	// ExitFailure is used for runtime failures such as storage errors
	ExitFailure = 1
	// ExitInvalidInput is used when the user supplied a day, rule, or table that cannot be used
	ExitInvalidInput = 2
)

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var (
		dayErr   *timeline.DayOutOfRangeError
		ruleErr  *validation.InvalidRecurrenceRuleError
		tableErr *phase.InvalidTableError
	)
	switch {
	case stderrors.As(err, &dayErr), stderrors.As(err, &ruleErr), stderrors.As(err, &tableErr):
		return ExitInvalidInput
	default:
		return ExitFailure
	}
}

// Fatal logs an error and exits the program with the code from ExitCode
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(ExitCode(err))
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(ExitFailure)
}
