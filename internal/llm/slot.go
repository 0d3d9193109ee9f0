package llm

import (
	"context"
	"fmt"

	"github.com/roundtable-ai/roundtable/internal/types"
)

// Slot names used by the orchestration core. The primary slot handles
// persona responses and synthesis; the fast slot handles routing, conflict
// classification, and summarization, where a cheaper model is acceptable.
const (
	SlotPrimary = "primary"
	SlotFast    = "fast"
)

// SlotConfig binds a logical slot to a provider, model, and default
// sampling parameters.
type SlotConfig struct {
	Provider    string  `yaml:"provider" json:"provider"`
	Model       string  `yaml:"model" json:"model"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`
}

// Validate checks that the slot config names a provider and model.
func (c SlotConfig) Validate() error {
	if c.Provider == "" {
		return types.NewError(ErrInvalidSlotConfig, "provider cannot be empty")
	}
	if c.Model == "" {
		return types.NewError(ErrInvalidSlotConfig, "model cannot be empty")
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return types.NewError(ErrInvalidSlotConfig,
			fmt.Sprintf("temperature must be between 0 and 1, got %f", c.Temperature))
	}
	return nil
}

// Client resolves logical slots to registered providers and issues
// completion requests with the slot's defaults applied.
type Client struct {
	registry *Registry
	slots    map[string]SlotConfig
}

// NewClient creates a Client over the given registry and slot bindings.
// Every slot config is validated up front so misconfiguration fails at
// construction rather than mid-turn.
func NewClient(registry *Registry, slots map[string]SlotConfig) (*Client, error) {
	if registry == nil {
		return nil, types.NewError(ErrProviderInvalidInput, "registry cannot be nil")
	}
	if _, ok := slots[SlotPrimary]; !ok {
		return nil, types.NewError(ErrInvalidSlotConfig, "primary slot is required")
	}

	for name, cfg := range slots {
		if err := cfg.Validate(); err != nil {
			return nil, types.WrapError(ErrInvalidSlotConfig,
				fmt.Sprintf("slot %q is invalid", name), err)
		}
		if _, err := registry.Get(cfg.Provider); err != nil {
			return nil, types.WrapError(ErrInvalidSlotConfig,
				fmt.Sprintf("slot %q references unregistered provider %q", name, cfg.Provider), err)
		}
	}

	copied := make(map[string]SlotConfig, len(slots))
	for name, cfg := range slots {
		copied[name] = cfg
	}

	return &Client{registry: registry, slots: copied}, nil
}

// Complete issues a completion request on the named slot. The fast slot
// falls back to primary when not configured.
func (c *Client) Complete(ctx context.Context, slot string, messages []Message, opts ...CompletionOption) (*CompletionResponse, error) {
	cfg, ok := c.slots[slot]
	if !ok {
		if slot != SlotFast {
			return nil, types.NewError(ErrInvalidSlotConfig, fmt.Sprintf("unknown slot %q", slot))
		}
		cfg = c.slots[SlotPrimary]
	}

	provider, err := c.registry.Get(cfg.Provider)
	if err != nil {
		return nil, err
	}

	req := NewCompletionRequest(cfg.Model, messages,
		WithTemperature(cfg.Temperature),
		WithMaxTokens(cfg.MaxTokens),
	)
	ApplyOptions(&req, opts...)

	if err := req.Validate(); err != nil {
		return nil, NewInvalidRequestError(err.Error())
	}

	resp, err := provider.Complete(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, types.WrapError(ErrContextCanceled, "completion canceled", ctx.Err())
		}
		return nil, err
	}

	return resp, nil
}
