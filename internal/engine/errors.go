package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/patchstore/internal/patch"
)

// ProcessError reports why an execution stopped early.
//
// ProcessError includes structured fields for diagnostics: which process,
// which execution, which unit and which command.
type ProcessError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Process is the name of the failing process.
	Process string

	// ExecutionID identifies the failing execution.
	ExecutionID string

	// Unit is the index of the failing unit, or -1 when no unit ran.
	Unit int

	// Command names the failing command. For a rejected group batch it is
	// the group name.
	Command string

	// Err is the underlying cause.
	Err error
}

// ErrorCode categorizes process errors.
type ErrorCode string

const (
	// ErrCodeCommandFailed indicates a command returned an error or panicked.
	ErrCodeCommandFailed ErrorCode = "COMMAND_FAILED"

	// ErrCodeTestFailed indicates a test operation in a unit's batch failed.
	ErrCodeTestFailed ErrorCode = "TEST_FAILED"

	// ErrCodeInvalidTarget indicates a unit's batch addressed an unwritable path.
	ErrCodeInvalidTarget ErrorCode = "INVALID_TARGET"

	// ErrCodeDepthExceeded indicates nested executions went deeper than allowed.
	ErrCodeDepthExceeded ErrorCode = "DEPTH_EXCEEDED"
)

// Error implements the error interface.
func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("%s: %s (process=%s", e.Code, e.Message, e.Process)
	if e.Command != "" {
		msg += fmt.Sprintf(", command=%s", e.Command)
	}
	if e.Err != nil {
		return msg + "): " + e.Err.Error()
	}
	return msg + ")"
}

// Unwrap returns the underlying cause.
func (e *ProcessError) Unwrap() error {
	return e.Err
}

// Code returns the ProcessError code in err's chain, or "".
func Code(err error) ErrorCode {
	var pe *ProcessError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsCommandFailed returns true if a command body failed.
// Uses errors.As to handle wrapped errors.
func IsCommandFailed(err error) bool {
	return Code(err) == ErrCodeCommandFailed
}

// IsTestFailed returns true if a test operation failed, whether reported
// by the engine or directly by the patch layer.
func IsTestFailed(err error) bool {
	return Code(err) == ErrCodeTestFailed || patch.IsTestFailed(err)
}

// IsDepthExceeded returns true if nested executions went too deep.
func IsDepthExceeded(err error) bool {
	return Code(err) == ErrCodeDepthExceeded
}

// commitErrorCode maps a rejected batch onto the process taxonomy.
// Malformed operations are the command's fault.
func commitErrorCode(err error) ErrorCode {
	switch patch.ErrorCode(err) {
	case patch.CodeTestFailed:
		return ErrCodeTestFailed
	case patch.CodeInvalidTarget:
		return ErrCodeInvalidTarget
	default:
		return ErrCodeCommandFailed
	}
}
