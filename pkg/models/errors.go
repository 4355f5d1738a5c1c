package models

import (
	"errors"
	"fmt"
)

// Error category codes returned in JSON error responses
const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeUpstream     = "UPSTREAM_ERROR"
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
)

// Common errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrMaterialNotFound   = errors.New("material not found")
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrForbidden          = errors.New("forbidden access")
	ErrInvalidInput       = errors.New("invalid input")
	ErrLessonUnpublished  = errors.New("lesson is not published")
	ErrAccountDisabled    = errors.New("account is disabled")
)

// AppError carries a stable machine-readable category plus an HTTP status.
// Details hold the wrapped cause and are suppressed in release mode.
type AppError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	cause      error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the original error for errors.Is/As
func (e *AppError) Unwrap() error {
	return e.cause
}

// NewAppError constructs a categorized error wrapping its cause
func NewAppError(code, message string, statusCode int, err error) *AppError {
	appErr := &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		cause:      err,
	}
	if err != nil {
		appErr.Details = map[string]interface{}{"original_error": err.Error()}
	}
	return appErr
}

// NewValidationError flags malformed or missing input
func NewValidationError(message string) *AppError {
	return NewAppError(ErrCodeValidation, message, 422, nil)
}

// NewNotFoundError flags an absent resource
func NewNotFoundError(message string, err error) *AppError {
	return NewAppError(ErrCodeNotFound, message, 404, err)
}

// NewForbiddenError flags an authorization failure
func NewForbiddenError(message string) *AppError {
	return NewAppError(ErrCodeForbidden, message, 403, nil)
}

// NewUnauthorizedError flags an authentication failure
func NewUnauthorizedError(message string) *AppError {
	return NewAppError(ErrCodeUnauthorized, message, 401, nil)
}

// NewUpstreamError flags a storage-provider or datastore failure
func NewUpstreamError(message string, err error) *AppError {
	return NewAppError(ErrCodeUpstream, message, 502, err)
}

// AsAppError extracts an *AppError if err carries one
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HTTPStatus resolves the status code for any error, defaulting to 500
func HTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}
	if _, status, ok := categorizeSentinel(err); ok {
		return status
	}
	return 500
}

// ErrorCode resolves the category code for any error
func ErrorCode(err error) string {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	if code, _, ok := categorizeSentinel(err); ok {
		return code
	}
	return ErrCodeInternal
}

// categorizeSentinel maps the shared sentinel errors to their category
// and status so services can return them bare.
func categorizeSentinel(err error) (string, int, bool) {
	switch {
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrLessonNotFound),
		errors.Is(err, ErrMaterialNotFound),
		errors.Is(err, ErrTicketNotFound),
		errors.Is(err, ErrNotFound):
		return ErrCodeNotFound, 404, true
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrUnauthorized):
		return ErrCodeUnauthorized, 401, true
	case errors.Is(err, ErrForbidden),
		errors.Is(err, ErrAccountDisabled),
		errors.Is(err, ErrLessonUnpublished):
		return ErrCodeForbidden, 403, true
	case errors.Is(err, ErrEmailExists):
		return ErrCodeConflict, 409, true
	case errors.Is(err, ErrInvalidInput):
		return ErrCodeValidation, 422, true
	default:
		return "", 0, false
	}
}
