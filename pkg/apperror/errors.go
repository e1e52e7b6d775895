package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrAuthenticationFailed = errors.New("invalid credentials")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrNotFound             = errors.New("resource not found")
	ErrBadRequest           = errors.New("bad request")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidCredential    = errors.New("invalid credential")
	ErrDuplicate            = errors.New("resource already exists")
	ErrMethodNotAllowed     = errors.New("method not allowed")
	ErrMailDelivery         = errors.New("mail delivery failed")
	ErrInternal             = errors.New("internal server error")
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")

	// ErrDuplicateApplication is returned when a student applies twice to the same offer.
	ErrDuplicateApplication = &duplicateError{msg: "you have already applied to this offer"}
)

type duplicateError struct {
	msg string
}

func (e *duplicateError) Error() string { return e.msg }

func (e *duplicateError) Unwrap() error { return ErrDuplicate }

// AppError is a custom error type that can hold an HTTP status code
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// MapErrorToStatus maps common errors to HTTP status codes.
// Missing resources surface as 400 because lookups are driven by client input.
func MapErrorToStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}

	switch {
	case errors.Is(err, ErrAuthenticationFailed), errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	case errors.Is(err, ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrMailDelivery), errors.Is(err, ErrInternal):
		return http.StatusInternalServerError
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidCredential),
		errors.Is(err, ErrDuplicate):
		return http.StatusBadRequest
	}

	// Default to internal server error
	return http.StatusInternalServerError
}
