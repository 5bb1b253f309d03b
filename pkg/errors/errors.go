// Package errors provides structured error types for archviz.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the API and the build core
//   - Machine-readable error codes that survive the dispatch boundary
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes group into three families:
//   - INVALID_*: command parameters, analysis input and output formats
//   - build lifecycle: NOT_INITIALIZED, COMMAND_NOT_FOUND, RENDERING_FAILED,
//     EXECUTION_FAILED
//   - NOT_FOUND / INTERNAL_ERROR / UNSUPPORTED for everything else
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidParameter, "missing required parameter: %s", key)
//	if errors.Is(err, errors.ErrCodeInvalidParameter) {
//	    // reject the command, keep the build alive
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeRendering, cause, "render %s", format)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidParameter Code = "INVALID_PARAMETER"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidAnalysis  Code = "INVALID_ANALYSIS"
	ErrCodeInvalidPlan      Code = "INVALID_PLAN"

	// Build lifecycle errors
	ErrCodeNotInitialized  Code = "NOT_INITIALIZED"
	ErrCodeCommandNotFound Code = "COMMAND_NOT_FOUND"
	ErrCodeRendering       Code = "RENDERING_FAILED"
	ErrCodeExecution       Code = "EXECUTION_FAILED"

	// Resource errors
	ErrCodeNotFound Code = "NOT_FOUND"

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

// coder is implemented by typed errors that carry a code without being *Error.
type coder interface {
	Code() Code
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or a typed error with a
// matching code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if no error in the chain carries a code.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// As is [errors.As] from the standard library, re-exported so callers need
// only one errors import.
func As(err error, target any) bool {
	return errors.As(err, target)
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

// CommandNotFoundError is returned when a plan names a command the registry
// does not know. Available lists the registered names at lookup time.
type CommandNotFoundError struct {
	Name      string
	Available []string
}

// Error implements the error interface.
func (e *CommandNotFoundError) Error() string {
	return fmt.Sprintf("command %q not found; available commands: [%s]", e.Name, strings.Join(e.Available, ", "))
}

// Code returns the error code for this error type.
func (e *CommandNotFoundError) Code() Code {
	return ErrCodeCommandNotFound
}

// NotInitialized reports a declaration or materialization attempted before
// the build was opened.
func NotInitialized(op string) *Error {
	return New(ErrCodeNotInitialized, "%s called before initialize", op)
}

// Parameter reports a missing or malformed command parameter.
func Parameter(format string, args ...any) *Error {
	return New(ErrCodeInvalidParameter, format, args...)
}
