// Package common provides shared utilities used across all features
package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy of the planning pipeline. Callers match with errors.Is.
var (
	// ErrConfiguration covers invalid scenario parameters, non-positive prices or
	// amounts and out-of-range decimals. Never retried or corrected.
	ErrConfiguration = errors.New("configuration error")

	// ErrArithmeticOverflow is returned when a fixed-point value does not fit its
	// target width. Amounts are never silently truncated.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
)

// ConfigErrorf wraps ErrConfiguration with a formatted detail.
func ConfigErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// OverflowErrorf wraps ErrArithmeticOverflow with a formatted detail.
func OverflowErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrArithmeticOverflow, fmt.Sprintf(format, args...))
}

// HttpError represents an HTTP error with status code and message
type HttpError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s %s", e.StatusCode, e.Code, e.Message)
}

func messageOrDefault(msg string, defaultMsg string) string {
	if msg != "" {
		return msg
	}
	return defaultMsg
}

// HTTP Error constructors

func HTTPErrorBadRequest(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    messageOrDefault(msg, "Bad request"),
	}
}

func HTTPErrorNotFound(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    messageOrDefault(msg, "Not found"),
	}
}

func HTTPErrorUnprocessable(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusUnprocessableEntity,
		Code:       "UNPROCESSABLE_ENTITY",
		Message:    messageOrDefault(msg, "Unprocessable entity"),
	}
}

func HTTPErrorInternalError(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    messageOrDefault(msg, "Internal server error"),
	}
}

// HTTPErrorFrom maps a pipeline error onto its HTTP representation.
// notFound lists sentinels that should surface as 404.
func HTTPErrorFrom(err error, notFound ...error) *HttpError {
	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	for _, nf := range notFound {
		if errors.Is(err, nf) {
			return HTTPErrorNotFound(err.Error())
		}
	}
	switch {
	case errors.Is(err, ErrConfiguration):
		return HTTPErrorBadRequest(err.Error())
	case errors.Is(err, ErrArithmeticOverflow):
		return HTTPErrorUnprocessable(err.Error())
	default:
		return HTTPErrorInternalError("")
	}
}
