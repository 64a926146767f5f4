package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PipelineError represents an error that occurred during pipeline execution.
// It carries the stage that failed, a stable error code, and the underlying
// cause for unwrapping.
type PipelineError struct {
	// Code is a machine-readable error code (e.g. "timeout", "rate_limit").
	Code string

	// Stage is the pipeline stage where the error occurred
	// (e.g. "transcribe", "analyze", "distribute").
	Stage string

	// Message is a human-readable description of the error.
	Message string

	// Duration is how long the operation ran before failing, if known.
	Duration time.Duration

	// Timeout indicates the error was caused by a deadline expiring.
	Timeout bool

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	var b strings.Builder
	if e.Stage != "" {
		fmt.Fprintf(&b, "[%s] ", e.Stage)
	}
	b.WriteString(e.Message)
	if e.Code != "" {
		fmt.Fprintf(&b, " (code=%s)", e.Code)
	}
	if e.Duration > 0 {
		fmt.Fprintf(&b, " after %s", e.Duration)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// NewPipelineError creates a PipelineError for the given stage and cause,
// classifying the cause into an error code.
func NewPipelineError(stage, message string, cause error) *PipelineError {
	return &PipelineError{
		Code:    ClassifyError(cause),
		Stage:   stage,
		Message: message,
		Timeout: errors.Is(cause, context.DeadlineExceeded),
		Cause:   cause,
	}
}

// ClassifyError maps an error to a stable error code by inspecting the error
// chain and message. Returns CodeProcessingError when no more specific code
// applies.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case errors.Is(err, context.Canceled):
		return CodeContextCancelled
	case errors.Is(err, ErrInvalidLocator):
		return CodeInvalidLocator
	case errors.Is(err, ErrUnsupportedMedia):
		return CodeUnsupportedMedia
	case errors.Is(err, ErrUnauthorized):
		return CodeAuthError
	case errors.Is(err, ErrValidation):
		return CodeInputError
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429") ||
		strings.Contains(msg, "too many requests"):
		return CodeRateLimit
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return CodeTimeout
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") ||
		strings.Contains(msg, "unauthorized") || strings.Contains(msg, "invalid api key"):
		return CodeAuthError
	case strings.Contains(msg, "unavailable") || strings.Contains(msg, "503") ||
		strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host"):
		return CodeTransportError
	default:
		return CodeProcessingError
	}
}
