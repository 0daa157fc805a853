// Package apperr defines the error kinds surfaced by the service layer and
// their mapping onto HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels. Test with errors.Is.
var (
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrUnavailable     = errors.New("unavailable")
	ErrInternal        = errors.New("internal error")
)

// AppError carries a user-facing message alongside the error kind.
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	HTTPStatus int               `json:"-"`
	Details    map[string]string `json:"details,omitempty"`
	// Cause is the underlying failure, if any. It is never sent to clients.
	Cause error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is / As.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// Conflict reports a uniqueness violation on write.
func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Message:    message,
		Code:       "CONFLICT",
		HTTPStatus: http.StatusConflict,
	}
}

// NotFound reports a missing resource.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		Code:       "NOT_FOUND",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]string{"resource": resource, "id": id},
	}
}

// Validation reports unparsable or missing input. field may be empty.
func Validation(field, message string) *AppError {
	e := &AppError{
		Err:        ErrValidation,
		Message:    message,
		Code:       "VALIDATION_FAILED",
		HTTPStatus: http.StatusUnprocessableEntity,
	}
	if field != "" {
		e.Details = map[string]string{"field": field}
	}
	return e
}

// Unauthenticated tells the caller to log in.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthenticated,
		Message:    message,
		Code:       "UNAUTHENTICATED",
		HTTPStatus: http.StatusUnauthorized,
		Details:    map[string]string{"login": "/api/v1/auth/login"},
	}
}

// Forbidden reports an authenticated caller lacking the admin flag.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:        ErrForbidden,
		Message:    message,
		Code:       "FORBIDDEN",
		HTTPStatus: http.StatusForbidden,
	}
}

// Unavailable reports a store timeout or connection failure.
func Unavailable(cause error) *AppError {
	return &AppError{
		Err:        ErrUnavailable,
		Message:    "service temporarily unavailable, please retry later",
		Code:       "UNAVAILABLE",
		HTTPStatus: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

// Internal wraps an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Message:    "internal server error",
		Code:       "INTERNAL_ERROR",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// From extracts the AppError in err's chain. Anything else is reported as
// Internal.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
