package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the booking flow. Handlers translate them to HTTP
// status codes with FromError.
var (
	// ErrConflict means the store rejected an insert or update because it
	// would overlap a confirmed booking. The caller must refresh
	// availability and re-select; the request is never retried blindly.
	ErrConflict = errors.New("time slot no longer available")

	// ErrAuthRequired means a booking operation was attempted without an
	// authenticated user.
	ErrAuthRequired = errors.New("authentication required")

	// ErrNotFound means the requested resource or booking does not exist
	// or is not visible to the caller.
	ErrNotFound = errors.New("not found")
)

// ValidationError is a request rejected before any network call: empty
// selection, end before start, or a policy violation such as cancelling
// inside the minimum-notice window.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TransientError wraps a network or store failure that the user may retry.
// Selection state is preserved across transient failures.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s temporarily failed: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err as retryable, tagged with the failing operation.
func Transient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// FromError maps a booking-flow error onto the HTTP status it should be
// reported with. Unknown errors map to 500.
func FromError(err error) *HTTPError {
	var httpErr *HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, ErrConflict):
		return NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrAuthRequired):
		return NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error())
	case IsValidation(err):
		return NewHTTPError(http.StatusBadRequest, err.Error())
	case IsTransient(err):
		return NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
