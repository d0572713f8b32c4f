package odatasql

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/nlstn/go-odata-sql/internal/odataerr"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		expectedMatch error
	}{
		{"BadRequest", odataerr.BadRequest("Unknown property Foo"), ErrBadRequest},
		{"Internal", odataerr.Internal("Property %s is not mapped", "Foo"), ErrInternal},
		{"NotImplemented", odataerr.NotImplemented("Binary operator add is not supported"), ErrNotImplemented},
		{"RangeNotSatisfiable", odataerr.RangeNotSatisfiable("$skiptoken must be a number"), ErrRangeNotSatisfiable},
		{"Wrapped", fmt.Errorf("translate: %w", odataerr.BadRequest("x")), ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.expectedMatch) {
				t.Errorf("errors.Is(%v, %v) = false, want true", tt.err, tt.expectedMatch)
			}
		})
	}
}

func TestMapErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, http.StatusOK},
		{"bad request", odataerr.BadRequest("Invalid like syntax"), http.StatusBadRequest},
		{"internal", odataerr.Internal("No binding for %s", "Entity9"), http.StatusInternalServerError},
		{"not implemented", odataerr.NotImplemented("Method call substringof"), http.StatusNotImplemented},
		{"range", odataerr.RangeNotSatisfiable("$skiptoken must be a number"), http.StatusRequestedRangeNotSatisfiable},
		{"bare sentinel", ErrNotImplemented, http.StatusNotImplemented},
		{"wrapped", fmt.Errorf("build: %w", odataerr.BadRequest("x")), http.StatusBadRequest},
		{"interceptor", NewInterceptorError(http.StatusForbidden, "denied"), http.StatusForbidden},
		{"interceptor without status", &InterceptorError{Message: "denied"}, http.StatusInternalServerError},
		{
			"interceptor wrapping odata error",
			&InterceptorError{Err: odataerr.BadRequest("Invalid filter")},
			http.StatusBadRequest,
		},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapErrorToHTTPStatus(tt.err); got != tt.expected {
				t.Errorf("MapErrorToHTTPStatus() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestODataError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ODataError
		expected string
	}{
		{
			name: "simple error",
			err: &ODataError{
				StatusCode: http.StatusBadRequest,
				Code:       ErrorCodeBadRequest,
				Message:    "Unknown property Foo",
			},
			expected: "Unknown property Foo",
		},
		{
			name: "error with wrapped error",
			err: &ODataError{
				StatusCode: http.StatusRequestedRangeNotSatisfiable,
				Code:       ErrorCodeRangeNotSatisfiable,
				Message:    "$skiptoken must be a number",
				Err:        errors.New("invalid syntax"),
			},
			expected: "$skiptoken must be a number: invalid syntax",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestIsHelpers(t *testing.T) {
	if !IsBadRequest(odataerr.BadRequest("x")) {
		t.Error("IsBadRequest() = false for a bad request")
	}
	if IsBadRequest(odataerr.NotImplemented("x")) {
		t.Error("IsBadRequest() = true for not implemented")
	}
	if !IsNotImplemented(odataerr.NotImplemented("x")) {
		t.Error("IsNotImplemented() = false for not implemented")
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{odataerr.BadRequest("x"), "BadRequest"},
		{odataerr.NotImplemented("x"), "NotImplemented"},
		{NewInterceptorError(http.StatusForbidden, "denied"), "Forbidden"},
		{errors.New("boom"), "InternalServerError"},
	}
	for _, tt := range tests {
		if got := errorCode(tt.err); got != tt.expected {
			t.Errorf("errorCode(%v) = %q, want %q", tt.err, got, tt.expected)
		}
	}
}
