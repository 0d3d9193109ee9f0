package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roundtable-ai/roundtable/internal/types"
)

// LLM error codes follow the Roundtable error pattern
const (
	// Provider errors
	ErrProviderNotFound      types.ErrorCode = "LLM_PROVIDER_NOT_FOUND"
	ErrProviderInitFailed    types.ErrorCode = "LLM_PROVIDER_INIT_FAILED"
	ErrProviderUnavailable   types.ErrorCode = "LLM_PROVIDER_UNAVAILABLE"
	ErrProviderUnauthorized  types.ErrorCode = "LLM_PROVIDER_UNAUTHORIZED"
	ErrProviderRateLimited   types.ErrorCode = "LLM_PROVIDER_RATE_LIMITED"
	ErrProviderAlreadyExists types.ErrorCode = "LLM_PROVIDER_ALREADY_EXISTS"
	ErrProviderInvalidInput  types.ErrorCode = "LLM_PROVIDER_INVALID_INPUT"
	ErrInvalidSlotConfig     types.ErrorCode = "LLM_INVALID_SLOT_CONFIG"

	// Request errors
	ErrInvalidRequest types.ErrorCode = "LLM_INVALID_REQUEST"

	// Completion errors
	ErrCompletionFailed types.ErrorCode = "LLM_COMPLETION_FAILED"
	ErrMalformedOutput  types.ErrorCode = "LLM_MALFORMED_OUTPUT"
	ErrTimeoutExceeded  types.ErrorCode = "LLM_TIMEOUT_EXCEEDED"
	ErrContextCanceled  types.ErrorCode = "LLM_CONTEXT_CANCELED"

	// Network errors
	ErrNetworkFailed types.ErrorCode = "LLM_NETWORK_FAILED"
)

// IsRetryable determines if an error is transient and may succeed on retry.
func IsRetryable(err error) bool {
	var rtErr *types.RoundtableError
	if !errors.As(err, &rtErr) {
		return false
	}

	if rtErr.Retryable {
		return true
	}

	switch rtErr.Code {
	case ErrNetworkFailed, ErrProviderRateLimited, ErrProviderUnavailable, ErrTimeoutExceeded:
		return true
	default:
		return false
	}
}

// IsMalformedOutput reports whether the error chain contains a structured
// output parse failure. These are soft failures: the model responded, but
// not in the expected shape.
func IsMalformedOutput(err error) bool {
	return errors.Is(err, types.NewError(ErrMalformedOutput, ""))
}

// NewProviderNotFoundError creates an error for when a provider is not found
func NewProviderNotFoundError(providerName string) *types.RoundtableError {
	return types.NewError(ErrProviderNotFound, "provider not found: "+providerName)
}

// NewProviderUnavailableError creates a retryable error for when a provider is temporarily unavailable
func NewProviderUnavailableError(providerName string, cause error) *types.RoundtableError {
	return &types.RoundtableError{
		Code:      ErrProviderUnavailable,
		Message:   "provider temporarily unavailable: " + providerName,
		Retryable: true,
		Cause:     cause,
	}
}

// NewRateLimitError creates a retryable error for rate limiting
func NewRateLimitError(providerName string) *types.RoundtableError {
	return &types.RoundtableError{
		Code:      ErrProviderRateLimited,
		Message:   "rate limit exceeded for provider: " + providerName,
		Retryable: true,
	}
}

// NewAuthError creates an authentication error for provider integration
func NewAuthError(providerName string, cause error) *types.RoundtableError {
	return &types.RoundtableError{
		Code:    ErrProviderUnauthorized,
		Message: fmt.Sprintf("provider '%s' authentication failed", providerName),
		Cause:   cause,
	}
}

// NewInvalidRequestError creates an error for invalid requests
func NewInvalidRequestError(message string) *types.RoundtableError {
	return types.NewError(ErrInvalidRequest, message)
}

// NewCompletionError creates an error for completion failures
func NewCompletionError(message string, cause error) *types.RoundtableError {
	return types.WrapError(ErrCompletionFailed, message, cause)
}

// NewMalformedOutputError creates an error for responses that could not be
// parsed into the expected structured shape.
func NewMalformedOutputError(message string, cause error) *types.RoundtableError {
	return types.WrapError(ErrMalformedOutput, message, cause)
}

// NewNetworkError creates a retryable error for network failures
func NewNetworkError(message string, cause error) *types.RoundtableError {
	return &types.RoundtableError{
		Code:      ErrNetworkFailed,
		Message:   message,
		Retryable: true,
		Cause:     cause,
	}
}

// NewTimeoutError creates a retryable error for timeout failures
func NewTimeoutError(message string) *types.RoundtableError {
	return &types.RoundtableError{
		Code:      ErrTimeoutExceeded,
		Message:   message,
		Retryable: true,
	}
}

// TranslateError translates generic transport errors into Roundtable errors
// based on error message content. Used to normalize langchaingo errors.
func TranslateError(provider string, err error) error {
	if err == nil {
		return nil
	}

	var rtErr *types.RoundtableError
	if errors.As(err, &rtErr) {
		return err
	}

	lowerMsg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(lowerMsg, "unauthorized") || strings.Contains(lowerMsg, "authentication") || strings.Contains(lowerMsg, "api key"):
		return NewAuthError(provider, err)
	case strings.Contains(lowerMsg, "rate limit") || strings.Contains(lowerMsg, "too many requests"):
		return NewRateLimitError(provider)
	case strings.Contains(lowerMsg, "timeout") || strings.Contains(lowerMsg, "deadline"):
		return NewTimeoutError(err.Error())
	case strings.Contains(lowerMsg, "network") || strings.Contains(lowerMsg, "connection"):
		return NewNetworkError(err.Error(), err)
	default:
		return NewProviderUnavailableError(provider, err)
	}
}
