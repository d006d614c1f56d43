// Package errors provides structured error types for qlogtree.
//
// Every fatal condition of the snapshot pipeline carries a machine-readable
// [Code] so that the CLI, the HTTP API, and tests can tell the failure kinds
// apart without matching on message text:
//
//   - INVALID_ARGUMENTS: wrong command-line arity
//   - TRACE_FORMAT: the (possibly repaired) trace is not valid JSON or lacks events
//   - TREE_PARSE: a PRIORITY_CHANGE payload is not a valid dependency tree
//   - CLASSIFICATION_LOOKUP: a Request node has no color assignment
//
// Each code also knows its HTTP status, see [Code.HTTPStatus].
//
// # Usage
//
//	err := errors.New(errors.ErrCodeTreeParse, "snapshot %d: missing id", idx)
//	if errors.Is(err, errors.ErrCodeTreeParse) {
//	    // Handle malformed tree
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeTraceFormat, origErr, "decode %s", path)
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable failure kind.
type Code string

const (
	ErrCodeInvalidArguments Code = "INVALID_ARGUMENTS"
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeFileNotFound     Code = "FILE_NOT_FOUND"

	ErrCodeTraceFormat          Code = "TRACE_FORMAT"
	ErrCodeTreeParse            Code = "TREE_PARSE"
	ErrCodeClassificationLookup Code = "CLASSIFICATION_LOOKUP"

	ErrCodeRender   Code = "RENDER"
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// codeInfo describes how a code surfaces. data marks failures caused by
// the submitted trace rather than by the environment.
var codeInfo = map[Code]struct {
	status int
	data   bool
}{
	ErrCodeInvalidArguments:     {http.StatusBadRequest, false},
	ErrCodeInvalidInput:         {http.StatusBadRequest, true},
	ErrCodeInvalidFormat:        {http.StatusBadRequest, false},
	ErrCodeFileNotFound:         {http.StatusNotFound, false},
	ErrCodeTraceFormat:          {http.StatusBadRequest, true},
	ErrCodeTreeParse:            {http.StatusBadRequest, true},
	ErrCodeClassificationLookup: {http.StatusBadRequest, true},
	ErrCodeRender:               {http.StatusInternalServerError, false},
	ErrCodeInternal:             {http.StatusInternalServerError, false},
}

// HTTPStatus returns the status the HTTP API answers with. Unknown codes
// map to 500.
func (c Code) HTTPStatus() int {
	if info, ok := codeInfo[c]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Error carries a [Code], a message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an *Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an *Error with a formatted message and cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// find returns the outermost *Error in err's chain.
func find(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	e, ok := find(err)
	return ok && e.Code == code
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	if e, ok := find(err); ok {
		return e.Code
	}
	return ""
}

// UserMessage returns err's text without the code prefix.
func UserMessage(err error) string {
	e, ok := find(err)
	switch {
	case !ok:
		return err.Error()
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	default:
		return e.Message
	}
}

// ExitCode maps err to a process exit status: 0 on success, 130 when the
// run was interrupted, 1 for every other failure.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}

// HTTPStatus maps err to the status the HTTP API answers with.
func HTTPStatus(err error) int {
	return GetCode(err).HTTPStatus()
}

// IsDataError reports whether err stems from the trace contents rather than
// from the environment.
func IsDataError(err error) bool {
	return codeInfo[GetCode(err)].data
}
