// Package odataerr defines the error type raised while translating OData
// requests into SQL. Each error carries the HTTP status the protocol layer
// should answer with.
package odataerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is an OData error code.
type Code string

const (
	CodeBadRequest          Code = "BadRequest"
	CodeInternalServerError Code = "InternalServerError"
	CodeNotImplemented      Code = "NotImplemented"
	CodeRangeNotSatisfiable Code = "RangeNotSatisfiable"
)

// Sentinel errors usable with errors.Is. An *Error matches the sentinel of its code.
var (
	ErrBadRequest          = errors.New("odata: bad request")
	ErrInternal            = errors.New("odata: internal server error")
	ErrNotImplemented      = errors.New("odata: not implemented")
	ErrRangeNotSatisfiable = errors.New("odata: requested range not satisfiable")
)

// Error is a translation failure with an HTTP status code.
type Error struct {
	// StatusCode is the HTTP status code to answer with.
	StatusCode int

	// Code is the OData error code.
	Code Code

	// Message is the error message returned to the client.
	Message string

	// Err is an optional wrapped error for additional context.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}

// Unwrap returns the wrapped error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's code.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrBadRequest:
		return e.Code == CodeBadRequest
	case ErrInternal:
		return e.Code == CodeInternalServerError
	case ErrNotImplemented:
		return e.Code == CodeNotImplemented
	case ErrRangeNotSatisfiable:
		return e.Code == CodeRangeNotSatisfiable
	}
	return false
}

// BadRequest reports unsupported or malformed user input.
func BadRequest(format string, args ...any) *Error {
	return &Error{StatusCode: http.StatusBadRequest, Code: CodeBadRequest, Message: fmt.Sprintf(format, args...)}
}

// Internal reports a modeling inconsistency that the client cannot fix.
func Internal(format string, args ...any) *Error {
	return &Error{StatusCode: http.StatusInternalServerError, Code: CodeInternalServerError, Message: fmt.Sprintf(format, args...)}
}

// NotImplemented reports an operator or method that is deliberately unsupported.
func NotImplemented(format string, args ...any) *Error {
	return &Error{StatusCode: http.StatusNotImplemented, Code: CodeNotImplemented, Message: fmt.Sprintf(format, args...)}
}

// RangeNotSatisfiable reports an unusable paging token.
func RangeNotSatisfiable(format string, args ...any) *Error {
	return &Error{StatusCode: http.StatusRequestedRangeNotSatisfiable, Code: CodeRangeNotSatisfiable, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches err as the cause of e and returns e.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// StatusCode returns the HTTP status carried by err, or 500 when err is not an *Error.
func StatusCode(err error) int {
	var oerr *Error
	if errors.As(err, &oerr) && oerr.StatusCode != 0 {
		return oerr.StatusCode
	}
	return http.StatusInternalServerError
}
