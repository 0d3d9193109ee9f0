package memory

import (
	"fmt"

	"github.com/roundtable-ai/roundtable/internal/types"
)

// Config carries the policy constants for both memory tiers. The caps and
// thresholds are deliberate policy knobs, not hard invariants; defaults
// match the shipped product behavior.
type Config struct {
	// ProjectMemoryCap is the maximum number of non-expired medium-term
	// records per project. Insertions beyond the cap evict the
	// lowest-importance record.
	ProjectMemoryCap int `yaml:"project_memory_cap"`

	// RecentWindow is how many of the newest messages stay verbatim in
	// short-term context instead of being folded into the summary.
	RecentWindow int `yaml:"recent_window"`

	// SummaryThreshold is how many unsummarized messages must accumulate
	// before the rolling summary is regenerated.
	SummaryThreshold int `yaml:"summary_threshold"`

	// ShortTermTokenBudget bounds the rendered short-term block.
	ShortTermTokenBudget int `yaml:"short_term_token_budget"`

	// SummaryTokenBudget is the share of the short-term budget reserved
	// for the rolling summary. The summary is never truncated; this only
	// sizes the summarization request.
	SummaryTokenBudget int `yaml:"summary_token_budget"`

	// RecentTokenBudget bounds the rendered recent-message window. Oldest
	// messages are dropped first when over budget.
	RecentTokenBudget int `yaml:"recent_token_budget"`

	// MediumTermTokenBudget bounds the rendered medium-term block.
	MediumTermTokenBudget int `yaml:"medium_term_token_budget"`

	// ImportanceFloor marks records that budget trimming never drops.
	// Entries below the floor are dropped lowest-importance first; entries
	// at or above it are kept even when rendering them exceeds the budget.
	ImportanceFloor int `yaml:"importance_floor"`
}

// DefaultConfig returns the standard memory policy.
func DefaultConfig() Config {
	return Config{
		ProjectMemoryCap:      30,
		RecentWindow:          10,
		SummaryThreshold:      20,
		ShortTermTokenBudget:  2000,
		SummaryTokenBudget:    500,
		RecentTokenBudget:     1500,
		MediumTermTokenBudget: 500,
		ImportanceFloor:       8,
	}
}

// ApplyDefaults fills any zero-valued field from DefaultConfig.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.ProjectMemoryCap == 0 {
		c.ProjectMemoryCap = defaults.ProjectMemoryCap
	}
	if c.RecentWindow == 0 {
		c.RecentWindow = defaults.RecentWindow
	}
	if c.SummaryThreshold == 0 {
		c.SummaryThreshold = defaults.SummaryThreshold
	}
	if c.ShortTermTokenBudget == 0 {
		c.ShortTermTokenBudget = defaults.ShortTermTokenBudget
	}
	if c.SummaryTokenBudget == 0 {
		c.SummaryTokenBudget = defaults.SummaryTokenBudget
	}
	if c.RecentTokenBudget == 0 {
		c.RecentTokenBudget = defaults.RecentTokenBudget
	}
	if c.MediumTermTokenBudget == 0 {
		c.MediumTermTokenBudget = defaults.MediumTermTokenBudget
	}
	if c.ImportanceFloor == 0 {
		c.ImportanceFloor = defaults.ImportanceFloor
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.ProjectMemoryCap < 1 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "project memory cap must be positive")
	}
	if c.RecentWindow < 1 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "recent window must be positive")
	}
	if c.SummaryThreshold <= c.RecentWindow {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("summary threshold (%d) must exceed recent window (%d)",
				c.SummaryThreshold, c.RecentWindow))
	}
	if c.ShortTermTokenBudget < 1 || c.MediumTermTokenBudget < 1 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "token budgets must be positive")
	}
	if c.ImportanceFloor < 1 || c.ImportanceFloor > 10 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "importance floor must be in [1,10]")
	}
	return nil
}
