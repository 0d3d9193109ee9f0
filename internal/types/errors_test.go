package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundtableError_Error(t *testing.T) {
	err := NewError(PERSONA_NOT_FOUND, "persona missing")
	assert.Equal(t, "[PERSONA_NOT_FOUND] persona missing", err.Error())

	wrapped := WrapError(DB_QUERY_FAILED, "query failed", errors.New("disk io"))
	assert.Equal(t, "[DB_QUERY_FAILED] query failed: disk io", wrapped.Error())
}

func TestRoundtableError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := WrapError(DB_OPEN_FAILED, "open failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestRoundtableError_IsMatchesByCode(t *testing.T) {
	a := NewError(MEMORY_NOT_FOUND, "first")
	b := NewError(MEMORY_NOT_FOUND, "second")
	c := NewError(PERSONA_NOT_FOUND, "other")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestRoundtableError_IsThroughWrapping(t *testing.T) {
	inner := NewError(CONVERSATION_NOT_FOUND, "gone")
	outer := fmt.Errorf("handling turn: %w", inner)

	assert.True(t, errors.Is(outer, NewError(CONVERSATION_NOT_FOUND, "")))
	assert.Equal(t, CONVERSATION_NOT_FOUND, CodeOf(outer))
}

func TestNewRetryableError(t *testing.T) {
	err := NewRetryableError(DB_QUERY_FAILED, "busy")
	assert.True(t, err.Retryable)

	err = NewError(DB_QUERY_FAILED, "bad sql")
	assert.False(t, err.Retryable)
}

func TestCodeOf_NonRoundtableError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
}

func TestID_RoundTrip(t *testing.T) {
	id := NewID()
	require.NoError(t, id.Validate())

	parsed, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseID_Invalid(t *testing.T) {
	_, err := ParseID("")
	assert.Error(t, err)

	_, err = ParseID("not-a-uuid")
	assert.Error(t, err)
}

func TestID_IsZero(t *testing.T) {
	var id ID
	assert.True(t, id.IsZero())
	assert.False(t, NewID().IsZero())
}
