package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"CryptoSentinel/internal/board"
	"CryptoSentinel/internal/collector"
)

// AppError represents application-level error with HTTP status.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

// WithError wraps an underlying error.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// NotFoundErrorf creates a 404 error with formatting.
func NotFoundErrorf(format string, a ...interface{}) *AppError {
	return NewAppError("ERR_NOT_FOUND", fmt.Sprintf(format, a...), http.StatusNotFound)
}

// UpstreamError creates a 502 error for market data failures.
func UpstreamError(err error) *AppError {
	return NewAppError("ERR_UPSTREAM", "market data provider unavailable", http.StatusBadGateway).WithError(err)
}

// NotReadyError creates a 503 error for a board that has not been collected.
func NotReadyError() *AppError {
	return NewAppError("ERR_NOT_READY", board.ErrEmpty.Error(), http.StatusServiceUnavailable)
}

// RateLimitedError creates a 429 error for a client over its request budget.
func RateLimitedError() *AppError {
	return NewAppError("ERR_RATE_LIMITED", "too many requests", http.StatusTooManyRequests)
}

// mapError classifies pipeline errors into API errors.
func mapError(err error) *AppError {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, collector.ErrNotFound):
		return NewAppError("ERR_NOT_FOUND", "asset not found", http.StatusNotFound).WithError(err)
	case errors.Is(err, board.ErrEmpty):
		return NotReadyError()
	case errors.Is(err, context.DeadlineExceeded):
		return NewAppError("ERR_TIMEOUT", "market data request timed out", http.StatusGatewayTimeout).WithError(err)
	default:
		return UpstreamError(err)
	}
}
