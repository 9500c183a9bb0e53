package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tressa/tressa/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API
// endpoints, so clients always know what fields to expect regardless of
// the status code.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable error type, e.g. "not_found"
	Message string `json:"message"` // human-readable description
}

// writeJSON sends a JSON response. Headers and status must be set before
// the first body write — WriteHeader flushes them.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already gone; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its HTTP shape. This is the only place
// in the repo where apperror sentinels meet status codes.
//
// Rate-limit errors additionally carry the standard quota headers:
// X-RateLimit-Remaining, X-RateLimit-Reset (unix seconds), and Retry-After.
func writeError(w http.ResponseWriter, err error) {
	var rlErr *apperror.RateLimitError
	if errors.As(err, &rlErr) {
		retryAfter := int(time.Until(rlErr.Reset).Seconds()) + 1
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", rlErr.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", rlErr.Reset.Unix()))
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
			Error:   "rate_limited",
			Message: rlErr.Message,
		})
		return
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrPayloadTooLarge):
			status = http.StatusRequestEntityTooLarge
			errorType = "payload_too_large"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	// Unknown error — never expose internals (they may contain SQL or paths).
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
