// Package errs defines the Error and StatusCode types shared by every
// layer of the interpreter. It is kept dependency-free so that parser,
// ns, opregion and vm can all report failures through it without
// creating an import cycle back to the root amlvm package, which is
// itself built on top of them.
//
// Failures are package-level sentinel *Error values compared with
// errors.Is, optionally wrapping an underlying Cause.
package errs

import "fmt"

// Error describes a failure raised by the interpreter. Package-level
// sentinel errors are defined as global *Error values: every failure
// carries the module that raised it plus a short message, and the same
// value can be compared with errors.Is.
type Error struct {
	// Module names the component that raised the error, e.g. "aml_parser"
	// or "aml_vm".
	Module string

	// Message is a short, human readable description of the failure.
	Message string

	// Cause optionally wraps an underlying error for additional context.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Module, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Module, e.Message)
}

// Unwrap allows errors.Is/errors.As to see through to Cause.
func (e *Error) Unwrap() error { return e.Cause }

// WithCause attaches additional context to a sentinel error without
// mutating the shared sentinel value.
func WithCause(sentinel *Error, cause error) *Error {
	return &Error{Module: sentinel.Module, Message: sentinel.Message, Cause: cause}
}

// StatusCode is the typed result code returned by the public object-access
// helpers so callers can branch on failure without parsing an error string.
type StatusCode uint8

// The set of status codes that public helpers (ObjGetInteger, ObjGetPkg,
// ObjGetHandle, PCIRoutePin, ...) may return.
const (
	StatusNone StatusCode = iota
	StatusTypeMismatch
	StatusOutOfBounds
	StatusNoSuchNode
	StatusExecutionFailure
	StatusUnexpectedResult
	StatusEndReached
)

// String implements fmt.Stringer.
func (s StatusCode) String() string {
	switch s {
	case StatusNone:
		return "None"
	case StatusTypeMismatch:
		return "TypeMismatch"
	case StatusOutOfBounds:
		return "OutOfBounds"
	case StatusNoSuchNode:
		return "NoSuchNode"
	case StatusExecutionFailure:
		return "ExecutionFailure"
	case StatusUnexpectedResult:
		return "UnexpectedResult"
	case StatusEndReached:
		return "EndReached"
	default:
		return "Unknown"
	}
}
