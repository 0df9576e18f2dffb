// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package descsroa

import "fmt"

// ErrorKind categorizes descriptor scalar replacement errors.
type ErrorKind uint8

const (
	// ErrUnsupportedShape indicates an index path that does not fit the
	// variable's type. The variable is left untouched.
	ErrUnsupportedShape ErrorKind = iota

	// ErrUnsupportedUse indicates a use of the variable, or of a value
	// derived from it, that cannot be redirected to the new variables. The
	// variable is left untouched.
	ErrUnsupportedUse

	// ErrInternal indicates a broken invariant of the pass. The module may be
	// partially rewritten and must be discarded.
	ErrInternal
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrUnsupportedShape:
		return "UnsupportedShape"
	case ErrUnsupportedUse:
		return "UnsupportedUse"
	case ErrInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error represents a failure to replace one variable.
type Error struct {
	// Kind categorizes the error.
	Kind ErrorKind

	// Variable is the result id of the variable being replaced.
	Variable uint32

	// Message provides details about the error.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("descriptor scalar replacement %s (variable %%%d): %s", e.Kind, e.Variable, e.Message)
}

// newError creates an error for variable with a formatted message.
func newError(kind ErrorKind, variable uint32, format string, args ...any) *Error {
	return &Error{
		Kind:     kind,
		Variable: variable,
		Message:  fmt.Sprintf(format, args...),
	}
}

// IsInternal returns true if the error is ErrInternal.
func (e *Error) IsInternal() bool {
	return e.Kind == ErrInternal
}
