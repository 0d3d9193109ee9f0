package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roundtable-ai/roundtable/internal/types"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"rate limited", NewRateLimitError("anthropic"), true},
		{"unavailable", NewProviderUnavailableError("openai", errors.New("503")), true},
		{"timeout", NewTimeoutError("deadline exceeded"), true},
		{"network", NewNetworkError("connection reset", nil), true},
		{"auth", NewAuthError("anthropic", nil), false},
		{"invalid request", NewInvalidRequestError("bad temperature"), false},
		{"malformed output", NewMalformedOutputError("not json", nil), false},
		{"plain error", errors.New("whatever"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}

func TestIsMalformedOutput(t *testing.T) {
	err := NewMalformedOutputError("no json", nil)
	assert.True(t, IsMalformedOutput(err))
	assert.True(t, IsMalformedOutput(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsMalformedOutput(NewTimeoutError("slow")))
	assert.False(t, IsMalformedOutput(nil))
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code types.ErrorCode
	}{
		{"auth", errors.New("401 unauthorized"), ErrProviderUnauthorized},
		{"api key", errors.New("missing API key"), ErrProviderUnauthorized},
		{"rate limit", errors.New("429 too many requests"), ErrProviderRateLimited},
		{"timeout", errors.New("context deadline exceeded"), ErrTimeoutExceeded},
		{"network", errors.New("connection refused"), ErrNetworkFailed},
		{"other", errors.New("boom"), ErrProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			translated := TranslateError("test", tt.err)
			assert.Equal(t, tt.code, types.CodeOf(translated))
		})
	}
}

func TestTranslateError_PassThrough(t *testing.T) {
	assert.Nil(t, TranslateError("test", nil))

	already := NewRateLimitError("test")
	assert.Same(t, error(already), TranslateError("test", already))
}

func TestCompletionRequest_Validate(t *testing.T) {
	valid := NewCompletionRequest("model-a",
		[]Message{NewSystemMessage("be brief"), NewUserMessage("hi")},
		WithTemperature(0.5), WithMaxTokens(100))
	assert.NoError(t, valid.Validate())

	noModel := valid
	noModel.Model = ""
	assert.Error(t, noModel.Validate())

	noMessages := valid
	noMessages.Messages = nil
	assert.Error(t, noMessages.Validate())

	badTemp := valid
	badTemp.Temperature = 1.5
	assert.Error(t, badTemp.Validate())

	emptyContent := valid
	emptyContent.Messages = []Message{{Role: RoleUser}}
	assert.Error(t, emptyContent.Validate())
}
