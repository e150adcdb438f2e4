// Package aml implements a lightweight interpreter for the ACPI Machine
// Language (AML) bytecode embedded in platform firmware tables.
package aml

import "amlvm/errs"

// Error describes a failure raised by the interpreter: every failure
// carries the module that raised it plus a short message, and the same
// value can be compared with errors.Is. It is an alias of errs.Error so
// that parser/ns/opregion/vm can report the same error type without
// importing this root package back.
type Error = errs.Error

// WithCause attaches additional context to a sentinel error without
// mutating the shared sentinel value.
func WithCause(sentinel *Error, cause error) *Error { return errs.WithCause(sentinel, cause) }

// StatusCode is the typed result code returned by the public object-access
// helpers (ObjGetInteger, ObjGetPkg, ObjGetHandle, PCIRoutePin, ...),
// letting callers branch on failure without parsing an error string.
type StatusCode = errs.StatusCode

// The set of status codes that public helpers (ObjGetInteger, ObjGetPkg,
// ObjGetHandle, PCIRoutePin, ...) may return.
const (
	StatusNone             = errs.StatusNone
	StatusTypeMismatch     = errs.StatusTypeMismatch
	StatusOutOfBounds      = errs.StatusOutOfBounds
	StatusNoSuchNode       = errs.StatusNoSuchNode
	StatusExecutionFailure = errs.StatusExecutionFailure
	StatusUnexpectedResult = errs.StatusUnexpectedResult
	StatusEndReached       = errs.StatusEndReached
)
