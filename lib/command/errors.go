// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error identifier. Clients branch
// on the code and show the message to humans.
type Code string

const (
	// CodeUnknownCommand: no handler is registered for the command type.
	CodeUnknownCommand Code = "UNKNOWN_COMMAND"

	// CodeInvalidFields: a parameter is missing, has the wrong type, or
	// holds a value outside its allowed range.
	CodeInvalidFields Code = "INVALID_FIELDS"

	// CodeInvalidRegex: a regex-mode log query carried a pattern that
	// does not compile.
	CodeInvalidRegex Code = "INVALID_REGEX"

	// CodeNotFound: a referenced root, node, or keyed component does
	// not exist.
	CodeNotFound Code = "NOT_FOUND"

	// CodePropertyNotFound: a named property does not exist on the
	// target object.
	CodePropertyNotFound Code = "PROPERTY_NOT_FOUND"

	// CodeStaleValue: an optimistic oldValue check failed; the live
	// value was left untouched.
	CodeStaleValue Code = "STALE_VALUE"

	// CodePluginConflict: two plugins tried to register the same
	// command type.
	CodePluginConflict Code = "PLUGIN_CONFLICT"

	// CodeRuntimeError: a handler failed with an uncategorized error or
	// panicked.
	CodeRuntimeError Code = "RUNTIME_ERROR"

	// CodeNotReady: a command arrived before plugin loading finished
	// or after shutdown began.
	CodeNotReady Code = "NOT_READY"

	// CodeIndexOutOfRange: a match index does not address any match.
	CodeIndexOutOfRange Code = "INDEX_OUT_OF_RANGE"

	// CodeCannotDeleteRoot: the root node of a graph cannot be removed.
	CodeCannotDeleteRoot Code = "CANNOT_DELETE_ROOT"

	// CodeInvalidMove: a move or copy would place a node under itself
	// or duplicate it in place.
	CodeInvalidMove Code = "INVALID_MOVE"

	// CodeInvalidJSON: a batch document could not be parsed.
	CodeInvalidJSON Code = "INVALID_JSON"

	// CodeTimeout: a batch command ran past its time allowance.
	CodeTimeout Code = "TIMEOUT"

	// CodeSkipped: a batch command was not run because the batch
	// deadline had already passed.
	CodeSkipped Code = "SKIPPED"
)

// Coded is implemented by errors that carry their own error code.
// Packages outside command (the plugin loader, the log query engine)
// implement it so the dispatcher can report their codes without this
// package importing them.
type Coded interface {
	error
	ErrorCode() string
}

// Error is the typed failure a handler returns. Detail is optional
// supplementary text (the offending value, the list of valid choices).
type Error struct {
	Code    Code
	Message string
	Detail  string

	// Err is the underlying cause, if any. It is not serialized but
	// keeps the chain intact for errors.Is and errors.As.
	Err error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// ErrorCode satisfies [Coded].
func (e *Error) ErrorCode() string { return string(e.Code) }

// WithDetail sets Detail and returns the receiver for chaining.
func (e *Error) WithDetail(format string, args ...any) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Errorf creates an *Error with the given code and formatted message.
// A %w verb in format is honored: the wrapped error becomes Err.
func Errorf(code Code, format string, args ...any) *Error {
	formatted := fmt.Errorf(format, args...)
	return &Error{
		Code:    code,
		Message: formatted.Error(),
		Err:     errors.Unwrap(formatted),
	}
}

// InvalidFields creates an INVALID_FIELDS error.
func InvalidFields(format string, args ...any) *Error {
	return Errorf(CodeInvalidFields, format, args...)
}

// NotFound creates a NOT_FOUND error.
func NotFound(format string, args ...any) *Error {
	return Errorf(CodeNotFound, format, args...)
}

// PropertyNotFound creates a PROPERTY_NOT_FOUND error for the named
// property.
func PropertyNotFound(property string) *Error {
	return Errorf(CodePropertyNotFound, "property %q not found", property)
}

// RuntimeError creates a RUNTIME_ERROR wrapping err.
func RuntimeError(err error) *Error {
	return &Error{Code: CodeRuntimeError, Message: err.Error(), Err: err}
}

// MissingField creates the INVALID_FIELDS error reported when a
// required parameter is absent.
func MissingField(field string) *Error {
	return InvalidFields("missing required field %q", field)
}

// DuplicateCommandError is returned by [Registry.Register] when the
// command type already has a handler.
type DuplicateCommandError struct {
	CommandType string
}

func (e *DuplicateCommandError) Error() string {
	return fmt.Sprintf("command %q is already registered", e.CommandType)
}

// ErrorCode satisfies [Coded]. A duplicate registration is an
// attempt by two owners to claim one command type.
func (e *DuplicateCommandError) ErrorCode() string { return string(CodePluginConflict) }

// UnknownCommandError is returned by [Registry.Resolve] when no handler
// is registered for the command type.
type UnknownCommandError struct {
	CommandType string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q", e.CommandType)
}

// ErrorCode satisfies [Coded].
func (e *UnknownCommandError) ErrorCode() string { return string(CodeUnknownCommand) }

// CodeOf returns the error code carried anywhere in err's chain, or
// RUNTIME_ERROR when no link in the chain implements [Coded]. Returns
// the empty code for a nil error.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var coded Coded
	if errors.As(err, &coded) {
		return Code(coded.ErrorCode())
	}
	return CodeRuntimeError
}

// Envelope is the serialized form of a failed command.
type Envelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// EnvelopeOf folds any error into an Envelope. A *Error keeps its
// message and detail; other coded errors keep their code and use
// their Error() text; uncoded errors become RUNTIME_ERROR.
func EnvelopeOf(err error) *Envelope {
	if err == nil {
		return nil
	}
	var commandError *Error
	if errors.As(err, &commandError) {
		return &Envelope{
			Code:    string(commandError.Code),
			Message: commandError.Message,
			Detail:  commandError.Detail,
		}
	}
	return &Envelope{
		Code:    string(CodeOf(err)),
		Message: err.Error(),
	}
}

func (e *Envelope) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
