package odatasql

import "fmt"

// InterceptorError is an error type that can be returned from read
// interceptors to reject a request with a custom HTTP status code and
// message.
//
// Example usage in a read interceptor:
//
//	tr.AddInterceptor(odatasql.ReadInterceptorFunc(func(ctx context.Context, rc *odatasql.ReadContext) error {
//	    if tenantFromContext(ctx) == "" {
//	        return &odatasql.InterceptorError{
//	            StatusCode: http.StatusUnauthorized,
//	            Message:    "User is not authorized to access this resource",
//	        }
//	    }
//	    return nil
//	}))
type InterceptorError struct {
	// StatusCode is the HTTP status code to answer with.
	StatusCode int

	// Message is the error message returned to the client.
	Message string

	// Err is an optional wrapped error for additional context.
	Err error
}

// Error implements the error interface.
func (e *InterceptorError) Error() string {
	if e.Err != nil {
		if e.Message != "" {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	return "read rejected by interceptor"
}

// Unwrap returns the wrapped error, if any.
func (e *InterceptorError) Unwrap() error {
	return e.Err
}

// NewInterceptorError creates a new InterceptorError with the specified
// status code and message.
func NewInterceptorError(statusCode int, message string) *InterceptorError {
	return &InterceptorError{
		StatusCode: statusCode,
		Message:    message,
	}
}
