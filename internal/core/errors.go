// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrUpstream     = errors.New("upstream service failure")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// AuthFailureMessage is returned for every failed authentication, whatever
// the underlying reason.
const AuthFailureMessage = "Authentication Error. Please check your credentials and try again."

type AppError struct {
	Err        error    `json:"-"`
	Message    string   `json:"message"`
	StatusCode int      `json:"-"`
	Code       string   `json:"code"`
	Details    []string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(err error, message string, status int, code string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: status,
		Code:       code,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func NotFoundError(resource string) *AppError {
	return NewAppError(
		ErrNotFound,
		resource+" not found",
		http.StatusNotFound,
		"NOT_FOUND",
	)
}

func DuplicateError(field string) *AppError {
	return NewAppError(
		ErrDuplicateKey,
		field+" already exists",
		http.StatusConflict,
		"DUPLICATE",
	)
}

func ConflictError(message string) *AppError {
	return NewAppError(ErrConflict, message, http.StatusConflict, "CONFLICT")
}

func ValidationError(message string, details ...string) *AppError {
	e := NewAppError(
		ErrInvalidInput,
		message,
		http.StatusBadRequest,
		"VALIDATION_ERROR",
	)
	e.Details = details
	return e
}

func UnauthorizedError(message string) *AppError {
	if message == "" {
		message = AuthFailureMessage
	}
	return NewAppError(
		ErrUnauthorized,
		message,
		http.StatusUnauthorized,
		"UNAUTHORIZED",
	)
}

func ForbiddenError(message string) *AppError {
	return NewAppError(ErrForbidden, message, http.StatusForbidden, "FORBIDDEN")
}

func UpstreamError(service string, err error) *AppError {
	msg := service + " request failed"
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return NewAppError(ErrUpstream, msg, http.StatusBadGateway, "BAD_GATEWAY")
}

// PersistenceError surfaces the database failure to the caller.
func PersistenceError(err error) *AppError {
	msg := "Server Error"
	if err != nil {
		msg = fmt.Sprintf("Server Error: %v", err)
	}
	return NewAppError(
		err,
		msg,
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
	)
}

// HTTPStatus maps a wrapped sentinel to the status code handlers answer with.
func HTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
