package apperror

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrRateLimited     = errors.New("rate limited")
)

type AppError struct {
	Err     error  // sentinel from the list above
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound is used for both truly absent and expired tresses. The message
// is identical in both cases so a prober cannot distinguish them.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden. Keep the message generic —
// it must not reveal more about the resource than a 404 would.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized returns an AppError for requests missing valid credentials.
// HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// PayloadTooLarge reports a content body over the applicable size ceiling.
// Both sizes are included in the message so the client knows the limit it hit.
func PayloadTooLarge(size, limit int) *AppError {
	return &AppError{
		Err:     ErrPayloadTooLarge,
		Field:   "content",
		Message: fmt.Sprintf("content size %d bytes exceeds the %d byte limit", size, limit),
	}
}

// RateLimitError carries the quota hints the 429 response headers need.
// It wraps ErrRateLimited so errors.Is still works, and handlers use
// errors.As to pull out Remaining/Reset.
type RateLimitError struct {
	AppError
	Remaining int       // requests left in the current window (usually 0)
	Reset     time.Time // when the oldest recorded request leaves the window
}

// RateLimited builds a RateLimitError with the standard client-facing message.
func RateLimited(remaining int, reset time.Time) *RateLimitError {
	return &RateLimitError{
		AppError: AppError{
			Err:     ErrRateLimited,
			Message: "Rate limit exceeded. Please try again later.",
		},
		Remaining: remaining,
		Reset:     reset,
	}
}
