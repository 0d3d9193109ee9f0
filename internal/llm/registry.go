package llm

import (
	"fmt"
	"sort"
	"sync"

	"github.com/roundtable-ai/roundtable/internal/types"
)

// Registry manages model provider registration and discovery.
// All operations are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register registers a provider with the registry.
// Returns ErrProviderAlreadyExists if a provider with the same name is
// already registered, or ErrProviderInvalidInput for a nil or unnamed provider.
func (r *Registry) Register(provider Provider) error {
	if provider == nil {
		return types.NewError(ErrProviderInvalidInput, "provider cannot be nil")
	}

	name := provider.Name()
	if name == "" {
		return types.NewError(ErrProviderInvalidInput, "provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return types.NewError(ErrProviderAlreadyExists, fmt.Sprintf("provider %q already registered", name))
	}

	r.providers[name] = provider

	return nil
}

// Unregister removes a provider from the registry by name.
// Returns ErrProviderNotFound if the provider doesn't exist.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; !exists {
		return types.NewError(ErrProviderNotFound, fmt.Sprintf("provider %q not found", name))
	}

	delete(r.providers, name)

	return nil
}

// Get retrieves a provider by name.
// Returns ErrProviderNotFound if the provider doesn't exist.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, types.NewError(ErrProviderNotFound, fmt.Sprintf("provider %q not found", name))
	}

	return provider, nil
}

// List returns the names of all registered providers, sorted alphabetically.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
