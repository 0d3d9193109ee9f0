package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roundtable-ai/roundtable/internal/llm"
	"github.com/roundtable-ai/roundtable/internal/llm/providers"
	"github.com/roundtable-ai/roundtable/internal/persona"
)

const growthAdvisorExtraction = `{
	"archetype": "advisor",
	"display_name": "Dana",
	"specialization": "B2B SaaS growth",
	"voice": "analytical",
	"intervention_style": "reactive",
	"focus_area": "strategy",
	"domain_knowledge": ["pricing", "churn"],
	"domain_metrics": ["MRR", "NRR"],
	"preferences": {"tone": "blunt", "verbosity": "brief",
	                "allow_emoji": false, "allow_platitudes": false}
}`

func TestCreateCustomPersona_StructuredExtraction(t *testing.T) {
	mock := providers.NewMockProvider()
	mock.RespondWhen("Extract a", growthAdvisorExtraction)
	h := newHarness(t, mock, DefaultConfig())

	description := "I want a no-nonsense growth advisor who knows SaaS pricing cold"
	p, err := h.orch.CreateCustomPersona(context.Background(), h.projectID, h.userID, description)
	require.NoError(t, err)

	assert.Equal(t, persona.ArchetypeAdvisor, p.Archetype)
	assert.Equal(t, "Dana", p.DisplayName)
	assert.Equal(t, "B2B SaaS growth", p.Specialization)
	assert.Equal(t, persona.VoiceAnalytical, p.Behavior.Voice)
	assert.Equal(t, []string{"pricing", "churn"}, p.DomainKnowledge)
	require.NotNil(t, p.Preferences)
	assert.Equal(t, persona.ToneBlunt, p.Preferences.Tone)
	assert.False(t, p.Preferences.AllowPlatitudes)

	// The original description always survives verbatim.
	assert.Equal(t, description, p.CustomInstructions)
	assert.True(t, p.Active)

	// The persona is persisted.
	stored, err := h.personas.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dana", stored.DisplayName)
}

func TestCreateCustomPersona_MalformedExtractionFallsBack(t *testing.T) {
	mock := providers.NewMockProvider()
	mock.RespondWhen("Extract a", "Sounds like you want someone strategic!")
	h := newHarness(t, mock, DefaultConfig())

	description := "someone strategic to keep me honest"
	p, err := h.orch.CreateCustomPersona(context.Background(), h.projectID, h.userID, description)
	require.NoError(t, err)

	assert.Equal(t, persona.ArchetypeCustom, p.Archetype)
	assert.Equal(t, "Custom Advisor", p.DisplayName)
	assert.Equal(t, description, p.CustomInstructions)

	stored, err := h.personas.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, description, stored.CustomInstructions)
}

func TestCreateCustomPersona_InvalidEnumValuesFallBackToDefaults(t *testing.T) {
	mock := providers.NewMockProvider()
	mock.RespondWhen("Extract a", `{
		"archetype": "wizard",
		"display_name": "Merlin",
		"voice": "mystical",
		"intervention_style": "whenever",
		"focus_area": "magic"
	}`)
	h := newHarness(t, mock, DefaultConfig())

	p, err := h.orch.CreateCustomPersona(context.Background(), h.projectID, h.userID, "a wizard advisor")
	require.NoError(t, err)

	assert.Equal(t, persona.ArchetypeCustom, p.Archetype)
	assert.Equal(t, "Merlin", p.DisplayName)
	assert.Equal(t, persona.DefaultBehavior(persona.ArchetypeCustom), p.Behavior)
}

func TestCreateCustomPersona_TransportFailurePropagates(t *testing.T) {
	mock := providers.NewMockProvider()
	mock.FailWhen("Extract a", llm.NewTimeoutError("model unreachable"))
	h := newHarness(t, mock, DefaultConfig())

	_, err := h.orch.CreateCustomPersona(context.Background(), h.projectID, h.userID, "any advisor")
	require.Error(t, err)
	assert.True(t, llm.IsRetryable(err))

	// One retry after the first retryable failure.
	assert.Equal(t, 2, mock.CallCount())
}

func TestCreateCustomPersona_RequiresDescription(t *testing.T) {
	h := newHarness(t, providers.NewMockProvider(), DefaultConfig())

	_, err := h.orch.CreateCustomPersona(context.Background(), h.projectID, h.userID, "  ")
	require.Error(t, err)
}
