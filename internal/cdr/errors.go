package cdr

import (
	"fmt"
	"strings"
)

// ValidationError reports an export whose shape is wrong, such as missing
// required columns. It is a client error; nothing is persisted when it is
// returned.
type ValidationError struct {
	msg string

	// MissingColumns is populated when the export lacks required columns.
	MissingColumns []string
}

func (e *ValidationError) Error() string { return e.msg }

func newMissingColumnsError(missing []string) *ValidationError {
	return &ValidationError{
		msg:            fmt.Sprintf("CSV file missing required columns: %s", strings.Join(missing, ", ")),
		MissingColumns: missing,
	}
}

// ProcessingError reports a file that was present but could not be parsed or
// transformed. It wraps the underlying cause.
type ProcessingError struct {
	cause error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("error processing CSV file: %v", e.cause)
}

func (e *ProcessingError) Unwrap() error { return e.cause }
