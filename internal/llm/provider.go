package llm

import (
	"context"
)

// Provider defines the interface that all model providers must implement.
// It provides a unified abstraction over different completion services
// (Anthropic Claude, OpenAI GPT, local models, etc.). The orchestration
// core treats this as opaque: ordered messages in, text out.
type Provider interface {
	// Name returns the provider name (e.g., "anthropic", "openai", "ollama")
	Name() string

	// Complete sends a completion request and returns the full response.
	// This is a blocking call that waits for the entire response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// ProviderConfig holds provider connection configuration.
type ProviderConfig struct {
	// APIKey authenticates against the provider. Falls back to the
	// provider's conventional environment variable when empty.
	APIKey string `yaml:"api_key" json:"api_key"`

	// DefaultModel is used when a request does not name a model.
	DefaultModel string `yaml:"default_model" json:"default_model"`

	// BaseURL overrides the provider endpoint (used for ollama and proxies).
	BaseURL string `yaml:"base_url" json:"base_url"`
}
