package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for Roundtable core errors.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// Database error codes
const (
	DB_OPEN_FAILED      ErrorCode = "DB_OPEN_FAILED"
	DB_MIGRATION_FAILED ErrorCode = "DB_MIGRATION_FAILED"
	DB_QUERY_FAILED     ErrorCode = "DB_QUERY_FAILED"
)

// Entity error codes
const (
	PERSONA_NOT_FOUND      ErrorCode = "PERSONA_NOT_FOUND"
	PERSONA_INVALID        ErrorCode = "PERSONA_INVALID"
	CONVERSATION_NOT_FOUND ErrorCode = "CONVERSATION_NOT_FOUND"
	CONVERSATION_INVALID   ErrorCode = "CONVERSATION_INVALID"
	MEMORY_NOT_FOUND       ErrorCode = "MEMORY_NOT_FOUND"
	MEMORY_INVALID         ErrorCode = "MEMORY_INVALID"
)

// RoundtableError represents a structured error with error code, message,
// and optional cause. It supports error wrapping and retryability hints.
type RoundtableError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *RoundtableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *RoundtableError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
func (e *RoundtableError) Is(target error) bool {
	var rtErr *RoundtableError
	if errors.As(target, &rtErr) {
		return e.Code == rtErr.Code
	}
	return false
}

// NewError creates a new non-retryable RoundtableError with the given code and message.
func NewError(code ErrorCode, message string) *RoundtableError {
	return &RoundtableError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     nil,
	}
}

// NewRetryableError creates a new retryable RoundtableError with the given code and message.
// Use this for transient errors that may succeed on retry (e.g., network timeouts).
func NewRetryableError(code ErrorCode, message string) *RoundtableError {
	return &RoundtableError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     nil,
	}
}

// WrapError creates a new non-retryable RoundtableError that wraps an existing error.
// The wrapped error is accessible via Unwrap() for error chain inspection.
func WrapError(code ErrorCode, message string, cause error) *RoundtableError {
	return &RoundtableError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     cause,
	}
}

// CodeOf extracts the error code from an error chain.
// Returns an empty code if the chain contains no RoundtableError.
func CodeOf(err error) ErrorCode {
	var rtErr *RoundtableError
	if errors.As(err, &rtErr) {
		return rtErr.Code
	}
	return ""
}
