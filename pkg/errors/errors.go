// Package errors provides structured error types for execsummary.
//
// Errors carry a machine-readable [Code] so the pipeline can tell the three
// failure classes apart:
//
//   - Fatal: the derivatives root is missing or the report tree cannot be
//     written. The run aborts before any artifact is attempted.
//   - Skip: an optional input is absent. Only the dependent artifact is
//     omitted and the pipeline continues.
//   - Tool failure: an external renderer, slicer or registration call
//     failed. The artifact is recorded as failed and the pipeline continues.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeDirectoryNotFound, "directory does not exist: %s", root)
//	if errors.IsFatal(err) {
//	    return err
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeToolFailed, origErr, "wb_command -show-scene %s", scene)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Fatal filesystem errors
	ErrCodeDirectoryNotFound Code = "DIRECTORY_NOT_FOUND"
	ErrCodeNotWritable       Code = "NOT_WRITABLE"

	// Missing optional inputs
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// External tool errors
	ErrCodeToolNotFound Code = "TOOL_NOT_FOUND"
	ErrCodeToolFailed   Code = "TOOL_FAILED"

	// Image assembly errors
	ErrCodeEmptySequence      Code = "EMPTY_SEQUENCE"
	ErrCodeIncompleteSequence Code = "INCOMPLETE_SEQUENCE"
	ErrCodeImageDecode        Code = "IMAGE_DECODE"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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

// IsFatal reports whether err aborts a whole run.
func IsFatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeDirectoryNotFound, ErrCodeNotWritable, ErrCodeInvalidConfig:
		return true
	}
	return false
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
