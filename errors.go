package odatasql

import (
	"errors"
	"net/http"

	"github.com/nlstn/go-odata-sql/internal/odataerr"
)

// Sentinel errors for the translation failure classes.
// These can be used with errors.Is() for error handling.
var (
	// ErrBadRequest indicates unsupported or malformed user input, such as an
	// unknown property in $filter or a $skiptoken that is not a number.
	// Maps to HTTP 400 Bad Request.
	ErrBadRequest = odataerr.ErrBadRequest

	// ErrInternal indicates a modeling error: an unmapped property, a
	// mismatched many-to-many mapping table or a missing table binding.
	// Maps to HTTP 500 Internal Server Error.
	ErrInternal = odataerr.ErrInternal

	// ErrNotImplemented indicates a valid request the translator does not
	// support, such as arithmetic operators or method calls in $orderby.
	// Maps to HTTP 501 Not Implemented.
	ErrNotImplemented = odataerr.ErrNotImplemented

	// ErrRangeNotSatisfiable indicates an invalid $skiptoken.
	// Maps to HTTP 416 Requested Range Not Satisfiable.
	ErrRangeNotSatisfiable = odataerr.ErrRangeNotSatisfiable
)

// ErrorCode represents OData error codes.
type ErrorCode = odataerr.Code

// OData error codes raised by the translator.
const (
	ErrorCodeBadRequest          = odataerr.CodeBadRequest
	ErrorCodeInternalServerError = odataerr.CodeInternalServerError
	ErrorCodeNotImplemented      = odataerr.CodeNotImplemented
	ErrorCodeRangeNotSatisfiable = odataerr.CodeRangeNotSatisfiable
)

// ODataError is a translation failure with an HTTP status code, an OData
// error code and a message for the client. Every error returned by the
// translator is, or wraps, an *ODataError.
//
// Example usage in an HTTP handler:
//
//	stmt, err := tr.Translate(r.Context(), path, r.URL.Query())
//	if err != nil {
//	    var oe *odatasql.ODataError
//	    if errors.As(err, &oe) {
//	        http.Error(w, oe.Message, oe.StatusCode)
//	        return
//	    }
//	    http.Error(w, err.Error(), http.StatusInternalServerError)
//	    return
//	}
type ODataError = odataerr.Error

// MapErrorToHTTPStatus returns the appropriate HTTP status code for an error
// returned by the translator or by a read interceptor.
//
// Example usage:
//
//	status := odatasql.MapErrorToHTTPStatus(err)
//	w.WriteHeader(status)
func MapErrorToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var interceptorErr *InterceptorError
	if errors.As(err, &interceptorErr) && interceptorErr.StatusCode != 0 {
		return interceptorErr.StatusCode
	}

	var odataErr *ODataError
	if errors.As(err, &odataErr) && odataErr.StatusCode != 0 {
		return odataErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotImplemented):
		return http.StatusNotImplemented
	case errors.Is(err, ErrRangeNotSatisfiable):
		return http.StatusRequestedRangeNotSatisfiable
	}

	return http.StatusInternalServerError
}

// IsBadRequest returns true if the error was caused by the request.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest)
}

// IsNotImplemented returns true if the request uses a construct the
// translator does not support.
func IsNotImplemented(err error) bool {
	return errors.Is(err, ErrNotImplemented)
}

// errorCode returns the OData error code of err for metrics and logs.
func errorCode(err error) string {
	var interceptorErr *InterceptorError
	if errors.As(err, &interceptorErr) {
		return http.StatusText(MapErrorToHTTPStatus(err))
	}
	var odataErr *ODataError
	if errors.As(err, &odataErr) {
		return string(odataErr.Code)
	}
	return string(ErrorCodeInternalServerError)
}
