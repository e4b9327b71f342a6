package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the pipeline.
type ErrorCode string

// Run-level error codes. These are the terminal classifications the
// engine records when a run fails.
const (
	ErrAdapterFailure    ErrorCode = "ADAPTER_FAILURE"
	ErrInferenceFailure  ErrorCode = "INFERENCE_FAILURE"
	ErrValidationFailure ErrorCode = "VALIDATION_FAILURE"
	ErrCancelled         ErrorCode = "CANCELLED"
	ErrTimeout           ErrorCode = "TIMEOUT"
)

// Evidence source error codes. Stage-node retry policy depends on
// distinguishing these, so adapters must never surface opaque errors.
const (
	ErrSourceRateLimited ErrorCode = "SOURCE_RATE_LIMITED"
	ErrSourceNotFound    ErrorCode = "SOURCE_NOT_FOUND"
	ErrSourceTransient   ErrorCode = "SOURCE_TRANSIENT"
	ErrSourceMalformed   ErrorCode = "SOURCE_MALFORMED"
)

// Inference client error codes.
const (
	ErrQuotaExceeded      ErrorCode = "QUOTA_EXCEEDED"
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"
	ErrInferenceTransient ErrorCode = "INFERENCE_TRANSIENT"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Source    string    `json:"source,omitempty"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithSource sets the originating evidence source or provider name.
func (e *Error) WithSource(source string) *Error {
	e.Source = source
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
