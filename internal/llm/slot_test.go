package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roundtable-ai/roundtable/internal/types"
)

func newTestClient(t *testing.T, slots map[string]SlotConfig) (*Client, *stubProvider) {
	t.Helper()

	stub := &stubProvider{name: "stub", response: "ok"}
	r := NewRegistry()
	require.NoError(t, r.Register(stub))

	c, err := NewClient(r, slots)
	require.NoError(t, err)
	return c, stub
}

func TestClient_CompletePrimary(t *testing.T) {
	c, _ := newTestClient(t, map[string]SlotConfig{
		SlotPrimary: {Provider: "stub", Model: "stub-large", Temperature: 0.7, MaxTokens: 1024},
	})

	resp, err := c.Complete(context.Background(), SlotPrimary, []Message{NewUserMessage("hello")})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Message.Content)
	assert.Equal(t, "stub-large", resp.Model)
}

func TestClient_FastFallsBackToPrimary(t *testing.T) {
	c, _ := newTestClient(t, map[string]SlotConfig{
		SlotPrimary: {Provider: "stub", Model: "stub-large", MaxTokens: 512},
	})

	resp, err := c.Complete(context.Background(), SlotFast, []Message{NewUserMessage("route this")})
	require.NoError(t, err)
	assert.Equal(t, "stub-large", resp.Model)
}

func TestClient_UnknownSlot(t *testing.T) {
	c, _ := newTestClient(t, map[string]SlotConfig{
		SlotPrimary: {Provider: "stub", Model: "stub-large"},
	})

	_, err := c.Complete(context.Background(), "review", []Message{NewUserMessage("x")})
	require.Error(t, err)
	assert.Equal(t, ErrInvalidSlotConfig, types.CodeOf(err))
}

func TestClient_OptionsOverrideSlotDefaults(t *testing.T) {
	c, stub := newTestClient(t, map[string]SlotConfig{
		SlotPrimary: {Provider: "stub", Model: "stub-large", Temperature: 0.7},
	})
	_ = stub

	resp, err := c.Complete(context.Background(), SlotPrimary,
		[]Message{NewUserMessage("hello")}, WithModel("stub-small"))
	require.NoError(t, err)
	assert.Equal(t, "stub-small", resp.Model)
}

func TestNewClient_RequiresPrimary(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubProvider{name: "stub"}))

	_, err := NewClient(r, map[string]SlotConfig{
		SlotFast: {Provider: "stub", Model: "stub-small"},
	})
	require.Error(t, err)
	assert.Equal(t, ErrInvalidSlotConfig, types.CodeOf(err))
}

func TestNewClient_RejectsUnregisteredProvider(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubProvider{name: "stub"}))

	_, err := NewClient(r, map[string]SlotConfig{
		SlotPrimary: {Provider: "ghost", Model: "m"},
	})
	assert.Error(t, err)
}

func TestNewClient_ValidatesSlotConfig(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubProvider{name: "stub"}))

	_, err := NewClient(r, map[string]SlotConfig{
		SlotPrimary: {Provider: "stub", Model: ""},
	})
	assert.Error(t, err)
}
