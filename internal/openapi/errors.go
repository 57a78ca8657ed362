package openapi

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrMalformedInput indicates the input is not parseable structured data.
	ErrMalformedInput = errors.New("malformed input")

	// ErrMissingField indicates a required top-level field is absent or empty.
	ErrMissingField = errors.New("missing required field")

	// ErrVersionMismatch indicates an openapi version other than the expected one.
	ErrVersionMismatch = errors.New("openapi version mismatch")

	// ErrValidation indicates a strict validation failure.
	ErrValidation = errors.New("validation error")
)

// ParseError reports input that could not be decoded.
type ParseError struct {
	// Path is the file path or source identifier
	Path string
	// Line is the line number where the error occurred (0 if unknown)
	Line int
	// Column is the column number where the error occurred (0 if unknown)
	Column  int
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	msg := "parse error"
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
		if e.Column > 0 {
			msg += fmt.Sprintf(", column %d", e.Column)
		}
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrMalformedInput.
func (e *ParseError) Is(target error) bool { return target == ErrMalformedInput }

// MissingFieldError names the required top-level field that is absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// Is reports whether target is ErrMissingField.
func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// VersionMismatchError is a non-fatal report about the openapi field.
type VersionMismatchError struct {
	Found    string
	Expected string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("openapi version %q is not %q, conversion may be incomplete", e.Found, e.Expected)
}

// Is reports whether target is ErrVersionMismatch.
func (e *VersionMismatchError) Is(target error) bool { return target == ErrVersionMismatch }

// ValidationError wraps a strict validation failure.
type ValidationError struct {
	Path    string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	msg := "validation error"
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
