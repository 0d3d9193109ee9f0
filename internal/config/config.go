package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/roundtable-ai/roundtable/internal/llm"
	"github.com/roundtable-ai/roundtable/internal/memory"
	"github.com/roundtable-ai/roundtable/internal/observability"
	"github.com/roundtable-ai/roundtable/internal/orchestrator"
	"github.com/roundtable-ai/roundtable/internal/types"
)

// RateLimitConfig bounds outbound completion calls per provider.
type RateLimitConfig struct {
	// RequestsPerSecond of zero disables rate limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`
	Burst             int     `yaml:"burst" validate:"gte=0"`
}

// LLMConfig wires providers to the logical slots the core calls through.
type LLMConfig struct {
	// Providers holds connection settings keyed by provider name
	// (anthropic, openai, ollama, mock).
	Providers map[string]llm.ProviderConfig `yaml:"providers" validate:"required,min=1"`

	// Slots binds the primary and fast slots to providers and models.
	Slots map[string]llm.SlotConfig `yaml:"slots" validate:"required,min=1"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// DatabaseConfig locates the sqlite database.
type DatabaseConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

// Config is the full service configuration.
type Config struct {
	LLM          LLMConfig                   `yaml:"llm"`
	Database     DatabaseConfig              `yaml:"database"`
	Memory       memory.Config               `yaml:"memory"`
	Orchestrator orchestrator.Config         `yaml:"orchestrator"`
	Logging      LoggingConfig               `yaml:"logging"`
	Tracing      observability.TracingConfig `yaml:"tracing"`
}

// ApplyDefaults fills zero-valued fields across every section.
func (c *Config) ApplyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "roundtable.db"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	c.Memory.ApplyDefaults()
	c.Orchestrator.ApplyDefaults()
}

// Validate checks the full configuration: struct tags first, then the
// section-level invariants the tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return types.WrapError(types.CONFIG_VALIDATION_FAILED, "invalid configuration", err)
	}

	if _, ok := c.LLM.Slots[llm.SlotPrimary]; !ok {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "llm.slots must define the primary slot")
	}
	for name, slot := range c.LLM.Slots {
		if err := slot.Validate(); err != nil {
			return types.WrapError(types.CONFIG_VALIDATION_FAILED,
				fmt.Sprintf("llm slot %q is invalid", name), err)
		}
		if _, ok := c.LLM.Providers[slot.Provider]; !ok {
			return types.NewError(types.CONFIG_VALIDATION_FAILED,
				fmt.Sprintf("llm slot %q references unconfigured provider %q", name, slot.Provider))
		}
	}

	if err := c.Memory.Validate(); err != nil {
		return err
	}
	return c.Orchestrator.Validate()
}

// Load reads, parses, defaults, and validates a yaml config file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED,
			fmt.Sprintf("failed to read config file %s", path), err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED,
			fmt.Sprintf("failed to parse config file %s", path), err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
