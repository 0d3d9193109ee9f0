package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roundtable-ai/roundtable/internal/types"
)

const validYAML = `
llm:
  providers:
    anthropic:
      api_key: test-key
      default_model: claude-sonnet-4-20250514
  slots:
    primary:
      provider: anthropic
      model: claude-sonnet-4-20250514
      temperature: 0.7
      max_tokens: 2048
    fast:
      provider: anthropic
      model: claude-3-5-haiku-20241022
      max_tokens: 512
database:
  path: /tmp/roundtable-test.db
memory:
  project_memory_cap: 25
logging:
  level: debug
  format: text
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Valid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/roundtable-test.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "anthropic", cfg.LLM.Slots["primary"].Provider)

	// Explicit values survive, unset values are defaulted.
	assert.Equal(t, 25, cfg.Memory.ProjectMemoryCap)
	assert.Equal(t, 10, cfg.Memory.RecentWindow)
	assert.Equal(t, 2, cfg.Orchestrator.DebateRounds)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Equal(t, types.CONFIG_LOAD_FAILED, types.CodeOf(err))
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "llm: [not: valid"))
	assert.Equal(t, types.CONFIG_PARSE_FAILED, types.CodeOf(err))
}

func TestLoad_MissingPrimarySlot(t *testing.T) {
	_, err := Load(writeConfig(t, `
llm:
  providers:
    anthropic:
      api_key: k
  slots:
    fast:
      provider: anthropic
      model: m
`))
	assert.Equal(t, types.CONFIG_VALIDATION_FAILED, types.CodeOf(err))
}

func TestLoad_SlotReferencesUnknownProvider(t *testing.T) {
	_, err := Load(writeConfig(t, `
llm:
  providers:
    anthropic:
      api_key: k
  slots:
    primary:
      provider: openai
      model: m
`))
	assert.Equal(t, types.CONFIG_VALIDATION_FAILED, types.CodeOf(err))
}

func TestLoad_BadLogLevel(t *testing.T) {
	_, err := Load(writeConfig(t, validYAML+`
logging:
  level: loud
  format: json
`))
	assert.Equal(t, types.CONFIG_VALIDATION_FAILED, types.CodeOf(err))
}
