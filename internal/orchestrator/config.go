package orchestrator

import (
	"time"

	"github.com/roundtable-ai/roundtable/internal/types"
)

// Config carries the orchestration policy knobs.
type Config struct {
	// MaxRelevant caps how many personas participate in one turn even when
	// routing returns more.
	MaxRelevant int `yaml:"max_relevant"`

	// DebateRounds is the number of debate rounds including the initial
	// position round; every round past the first adds a rebuttal round.
	// The default protocol is two: positions, then rebuttals.
	DebateRounds int `yaml:"debate_rounds"`

	// PerCallTimeout bounds each individual model call during fan-out so a
	// single straggler cannot stall the turn.
	PerCallTimeout time.Duration `yaml:"per_call_timeout"`

	// MaxParallel bounds concurrent model calls during fan-out.
	MaxParallel int `yaml:"max_parallel"`
}

// DefaultConfig returns the standard orchestration policy.
func DefaultConfig() Config {
	return Config{
		MaxRelevant:    3,
		DebateRounds:   2,
		PerCallTimeout: 30 * time.Second,
		MaxParallel:    4,
	}
}

// ApplyDefaults fills any zero-valued field from DefaultConfig.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.MaxRelevant == 0 {
		c.MaxRelevant = defaults.MaxRelevant
	}
	if c.DebateRounds == 0 {
		c.DebateRounds = defaults.DebateRounds
	}
	if c.PerCallTimeout == 0 {
		c.PerCallTimeout = defaults.PerCallTimeout
	}
	if c.MaxParallel == 0 {
		c.MaxParallel = defaults.MaxParallel
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.MaxRelevant < 1 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "max relevant personas must be positive")
	}
	if c.DebateRounds < 1 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "debate rounds must be positive")
	}
	if c.PerCallTimeout <= 0 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "per-call timeout must be positive")
	}
	if c.MaxParallel < 1 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "max parallel calls must be positive")
	}
	return nil
}
