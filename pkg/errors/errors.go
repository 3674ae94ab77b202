// Package errors provides structured error types for towerpath.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library, CLI and API
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The organizer fails fast with one of three domain codes:
//   - INVALID_CONFIGURATION: input of the wrong shape or unknown options,
//     reported before any computation starts
//   - UNSUPPORTED_TOPOLOGY: a segment that rests on nothing printable
//   - INVALID_DATA: empty paths, empty boundaries or a failed correspondence
//
// The remaining codes cover file handling and the outer surfaces.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeTopology, "segment %d has no support", id)
//	if errors.Is(err, errors.ErrCodeTopology) {
//	    // Handle unsupported geometry
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidFormat, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Organizer errors
	ErrCodeConfiguration Code = "INVALID_CONFIGURATION"
	ErrCodeTopology      Code = "UNSUPPORTED_TOPOLOGY"
	ErrCodeDataValidity  Code = "INVALID_DATA"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// ExitCode maps an error to a process exit status.
// Configuration, topology and data errors get distinct codes so scripts can
// tell an unprintable model apart from a bad invocation.
func ExitCode(err error) int {
	switch GetCode(err) {
	case ErrCodeConfiguration:
		return 2
	case ErrCodeTopology:
		return 3
	case ErrCodeDataValidity:
		return 4
	default:
		return 1
	}
}
