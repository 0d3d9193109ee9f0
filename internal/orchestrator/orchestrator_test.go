package orchestrator

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roundtable-ai/roundtable/internal/conversation"
	"github.com/roundtable-ai/roundtable/internal/llm"
	"github.com/roundtable-ai/roundtable/internal/llm/providers"
	"github.com/roundtable-ai/roundtable/internal/memory"
	"github.com/roundtable-ai/roundtable/internal/observability"
	"github.com/roundtable-ai/roundtable/internal/persona"
	"github.com/roundtable-ai/roundtable/internal/types"
)

type testHarness struct {
	orch      *Orchestrator
	mock      *providers.MockProvider
	personas  *persona.InMemoryStore
	messages  *conversation.InMemoryMessageStore
	summaries *conversation.InMemorySummaryStore

	projectID      types.ID
	conversationID types.ID
	userID         types.ID
}

func newHarness(t *testing.T, mock *providers.MockProvider, cfg Config) *testHarness {
	t.Helper()

	registry := llm.NewRegistry()
	require.NoError(t, registry.Register(mock))

	client, err := llm.NewClient(registry, map[string]llm.SlotConfig{
		llm.SlotPrimary: {Provider: "mock", Model: "mock-large", MaxTokens: 2048},
		llm.SlotFast:    {Provider: "mock", Model: "mock-small", MaxTokens: 512},
	})
	require.NoError(t, err)

	personas := persona.NewInMemoryStore()
	messages := conversation.NewInMemoryMessageStore()
	summaries := conversation.NewInMemorySummaryStore()

	shortTerm := memory.NewShortTermManager(messages, summaries, client, memory.DefaultConfig(), nil)
	mediumTerm := memory.NewMediumTermManager(memory.NewInMemoryStore(), memory.DefaultConfig(), nil)

	orch, err := New(Deps{
		Personas:   personas,
		Messages:   messages,
		ShortTerm:  shortTerm,
		MediumTerm: mediumTerm,
		Client:     client,
		Config:     cfg,
	})
	require.NoError(t, err)

	return &testHarness{
		orch:           orch,
		mock:           mock,
		personas:       personas,
		messages:       messages,
		summaries:      summaries,
		projectID:      types.NewID(),
		conversationID: types.NewID(),
		userID:         types.NewID(),
	}
}

func (h *testHarness) addPersona(t *testing.T, archetype persona.Archetype, name string) *persona.Persona {
	t.Helper()
	p := persona.New(h.projectID, archetype, name)
	require.NoError(t, h.personas.Save(context.Background(), p))
	return p
}

func (h *testHarness) handle(t *testing.T, text string) *ResponsePayload {
	t.Helper()
	payload, err := h.orch.HandleUserMessage(context.Background(),
		h.projectID, h.conversationID, h.userID, text)
	require.NoError(t, err)
	return payload
}

func routeTo(ids ...types.ID) string {
	out := `{"persona_ids": [`
	for i, id := range ids {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%q", id)
	}
	return out + `]}`
}

func perspectiveJSON(position, rationale string, confidence float64) string {
	return fmt.Sprintf(`{"position": %q, "rationale": %q, "confidence": %g}`,
		position, rationale, confidence)
}

func TestHandleUserMessage_NoActivePersonas(t *testing.T) {
	h := newHarness(t, providers.NewMockProvider(), DefaultConfig())

	payload := h.handle(t, "anyone there?")
	assert.Equal(t, KindNoPersona, payload.Kind)
	// No personas means no routing call at all.
	assert.Equal(t, 0, h.mock.CallCount())
}

func TestHandleUserMessage_RoutingFailureDegradesToNoPersona(t *testing.T) {
	mock := providers.NewMockProvider()
	mock.FailWhen("route an incoming message", llm.NewTimeoutError("routing timed out"))
	h := newHarness(t, mock, DefaultConfig())
	h.addPersona(t, persona.ArchetypeCoach, "Riley")

	payload := h.handle(t, "what should I do next?")
	assert.Equal(t, KindNoPersona, payload.Kind)
}

func TestHandleUserMessage_MalformedRoutingDegradesToNoPersona(t *testing.T) {
	mock := providers.NewMockProvider()
	mock.RespondWhen("route an incoming message", "probably Riley should take this one")
	h := newHarness(t, mock, DefaultConfig())
	h.addPersona(t, persona.ArchetypeCoach, "Riley")

	payload := h.handle(t, "what should I do next?")
	assert.Equal(t, KindNoPersona, payload.Kind)
}

func TestHandleUserMessage_SinglePersonaYieldsSingle(t *testing.T) {
	mock := providers.NewMockProvider()
	h := newHarness(t, mock, DefaultConfig())
	coach := h.addPersona(t, persona.ArchetypeCoach, "Riley")
	h.addPersona(t, persona.ArchetypeAdvisor, "Morgan")

	mock.RespondWhen("route an incoming message", routeTo(coach.ID))
	mock.RespondWhen("Your name is Riley", "Start with the smallest shippable piece.")

	payload := h.handle(t, "I keep stalling on the big refactor")

	assert.Equal(t, KindSingle, payload.Kind)
	assert.Equal(t, coach.ID, payload.PersonaID)
	assert.Equal(t, "Riley", payload.PersonaName)
	assert.Equal(t, "Start with the smallest shippable piece.", payload.Text)

	// One relevant persona never triggers the conflict check.
	assert.Empty(t, h.mock.CallsContaining("Decide whether the perspectives"))
}

func TestHandleUserMessage_SinglePersistsUserAndPersonaMessages(t *testing.T) {
	mock := providers.NewMockProvider()
	h := newHarness(t, mock, DefaultConfig())
	coach := h.addPersona(t, persona.ArchetypeCoach, "Riley")

	mock.RespondWhen("route an incoming message", routeTo(coach.ID))
	mock.RespondWhen("Your name is Riley", "One step at a time.")

	h.handle(t, "feeling overwhelmed")

	stored, err := h.messages.Recent(context.Background(), h.conversationID, 10)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	assert.Equal(t, conversation.SenderUser, stored[0].SenderType)
	assert.Equal(t, h.userID, stored[0].SenderID)
	assert.Equal(t, "feeling overwhelmed", stored[0].Content)

	assert.Equal(t, conversation.SenderPersona, stored[1].SenderType)
	assert.Equal(t, coach.ID, stored[1].SenderID)
	assert.Equal(t, stored[0].ID, stored[1].ReplyTo)
}

func compatibleScript(t *testing.T, h *testHarness) (*persona.Persona, *persona.Persona) {
	t.Helper()
	strategist := h.addPersona(t, persona.ArchetypeStrategist, "Quinn")
	manager := h.addPersona(t, persona.ArchetypeManager, "Jordan")

	h.mock.RespondWhen("route an incoming message", routeTo(strategist.ID, manager.ID))
	h.mock.RespondWhen("Your name is Quinn",
		perspectiveJSON("Sequence the launch after the audit", "derisk first", 0.8))
	h.mock.RespondWhen("Your name is Jordan",
		perspectiveJSON("Lock the date and work back from it", "forcing function", 0.7))
	return strategist, manager
}

func TestHandleUserMessage_CompatiblePerspectivesYieldMultiPerspective(t *testing.T) {
	mock := providers.NewMockProvider()
	h := newHarness(t, mock, DefaultConfig())
	strategist, manager := compatibleScript(t, h)

	mock.RespondWhen("Decide whether the perspectives", `{"verdict": "compatible"}`)

	payload := h.handle(t, "when should we launch?")

	assert.Equal(t, KindMultiPerspective, payload.Kind)
	require.Len(t, payload.Perspectives, 2)
	assert.Equal(t, strategist.ID, payload.Perspectives[0].PersonaID)
	assert.Equal(t, manager.ID, payload.Perspectives[1].PersonaID)

	// Compatible means no rebuttal round.
	assert.Empty(t, h.mock.CallsContaining("Write a short rebuttal"))
	assert.Nil(t, payload.Debate)
}

func conflictScript(t *testing.T, h *testHarness) (*persona.Persona, *persona.Persona) {
	t.Helper()
	strategist, manager := compatibleScript(t, h)
	h.mock.RespondWhen("Decide whether the perspectives", `{"verdict": "conflicting"}`)
	return strategist, manager
}

func TestHandleUserMessage_ConflictingPerspectivesYieldDebate(t *testing.T) {
	mock := providers.NewMockProvider()
	// Rebuttal rule first: rebuttal prompts also contain the persona
	// identity blocks that the perspective rules match on.
	mock.RespondWhen("Write a short rebuttal", "Your date-first plan ignores the audit risk.")
	mock.RespondWhen("neutral moderator",
		`{"summary": "timing vs forcing function", "tradeoffs": "risk vs momentum",
		  "recommendation": "set the date, gate on the audit", "rationale": "keeps both"}`)

	h := newHarness(t, mock, DefaultConfig())
	strategist, manager := conflictScript(t, h)

	payload := h.handle(t, "when should we launch?")

	require.Equal(t, KindDebate, payload.Kind)
	require.NotNil(t, payload.Debate)

	transcript := payload.Debate.Transcript
	require.Len(t, transcript.Perspectives, 2)
	assert.Equal(t, strategist.ID, transcript.Perspectives[0].PersonaID)
	assert.Equal(t, manager.ID, transcript.Perspectives[1].PersonaID)

	// At most one rebuttal per persona with an opposing view.
	require.Len(t, transcript.Rebuttals, 2)

	require.NotNil(t, payload.Debate.Synthesis)
	assert.Equal(t, "set the date, gate on the audit", payload.Debate.Synthesis.Recommendation)
	assert.Equal(t, "set the date, gate on the audit", payload.Debate.RecommendedAction)
	assert.True(t, payload.Debate.DecisionRequired)
}

func TestHandleUserMessage_ExtraDebateRoundsAddRebuttals(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DebateRounds = 3

	mock := providers.NewMockProvider()
	mock.RespondWhen("Write a short rebuttal", "I still disagree with the other plan.")
	mock.RespondWhen("neutral moderator",
		`{"summary": "s", "tradeoffs": "t", "recommendation": "r", "rationale": "why"}`)

	h := newHarness(t, mock, cfg)
	conflictScript(t, h)

	payload := h.handle(t, "when should we launch?")

	require.Equal(t, KindDebate, payload.Kind)
	require.NotNil(t, payload.Debate)

	// Three rounds: positions, then two rebuttal rounds of two personas each.
	assert.Len(t, payload.Debate.Transcript.Rebuttals, 4)

	// Only the second rebuttal round carries the earlier rebuttals.
	assert.Len(t, h.mock.CallsContaining("Earlier rebuttals"), 2)
}

func TestHandleUserMessage_WarnsThroughScopedLogger(t *testing.T) {
	mock := providers.NewMockProvider()
	mock.FailWhen("route an incoming message", llm.NewTimeoutError("routing timed out"))

	registry := llm.NewRegistry()
	require.NoError(t, registry.Register(mock))
	client, err := llm.NewClient(registry, map[string]llm.SlotConfig{
		llm.SlotPrimary: {Provider: "mock", Model: "mock-large", MaxTokens: 2048},
		llm.SlotFast:    {Provider: "mock", Model: "mock-small", MaxTokens: 512},
	})
	require.NoError(t, err)

	personas := persona.NewInMemoryStore()
	messages := conversation.NewInMemoryMessageStore()
	summaries := conversation.NewInMemorySummaryStore()

	var buf bytes.Buffer
	orch, err := New(Deps{
		Personas:   personas,
		Messages:   messages,
		ShortTerm:  memory.NewShortTermManager(messages, summaries, client, memory.DefaultConfig(), nil),
		MediumTerm: memory.NewMediumTermManager(memory.NewInMemoryStore(), memory.DefaultConfig(), nil),
		Client:     client,
		Config:     DefaultConfig(),
		Logger: observability.NewTracedLogger(
			observability.NewJSONHandler(&buf, slog.LevelDebug), "", "orchestrator"),
	})
	require.NoError(t, err)

	projectID := types.NewID()
	p := persona.New(projectID, persona.ArchetypeCoach, "Riley")
	require.NoError(t, personas.Save(context.Background(), p))

	payload, err := orch.HandleUserMessage(context.Background(),
		projectID, types.NewID(), types.NewID(), "what should I do next?")
	require.NoError(t, err)
	assert.Equal(t, KindNoPersona, payload.Kind)

	logged := buf.String()
	assert.Contains(t, logged, "routing call failed")
	assert.Contains(t, logged, `"component":"orchestrator"`)
}

func TestHandleUserMessage_SynthesisFailureKeepsTranscript(t *testing.T) {
	mock := providers.NewMockProvider()
	mock.RespondWhen("Write a short rebuttal", "That plan ignores the audit.")
	mock.FailWhen("neutral moderator", llm.NewTimeoutError("synthesis timed out"))

	h := newHarness(t, mock, DefaultConfig())
	conflictScript(t, h)

	payload := h.handle(t, "when should we launch?")

	require.Equal(t, KindDebate, payload.Kind)
	require.NotNil(t, payload.Debate)
	assert.Len(t, payload.Debate.Transcript.Perspectives, 2)
	assert.Len(t, payload.Debate.Transcript.Rebuttals, 2)
	assert.Nil(t, payload.Debate.Synthesis)
	assert.Empty(t, payload.Debate.RecommendedAction)
	assert.True(t, payload.Debate.DecisionRequired)
}

func TestHandleUserMessage_ClassificationFailureDefaultsToDebate(t *testing.T) {
	mock := providers.NewMockProvider()
	mock.RespondWhen("Write a short rebuttal", "rebuttal")
	mock.RespondWhen("neutral moderator",
		`{"summary": "s", "tradeoffs": "t", "recommendation": "r", "rationale": "why"}`)
	mock.FailWhen("Decide whether the perspectives", llm.NewTimeoutError("classifier down"))

	h := newHarness(t, mock, DefaultConfig())
	compatibleScript(t, h)

	payload := h.handle(t, "when should we launch?")
	assert.Equal(t, KindDebate, payload.Kind)
}

func TestHandleUserMessage_StragglerDoesNotStallTurn(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PerCallTimeout = 50 * time.Millisecond

	mock := providers.NewMockProvider()
	h := newHarness(t, mock, cfg)
	strategist := h.addPersona(t, persona.ArchetypeStrategist, "Quinn")
	manager := h.addPersona(t, persona.ArchetypeManager, "Jordan")

	mock.RespondWhen("route an incoming message", routeTo(strategist.ID, manager.ID))
	mock.RespondWhen("Your name is Quinn",
		perspectiveJSON("Sequence after the audit", "derisk", 0.8))
	// Jordan's perspective hangs past the per-call timeout.
	mock.DelayWhen("Your name is Jordan",
		perspectiveJSON("never arrives", "too slow", 0.5), 5*time.Second)

	start := time.Now()
	payload := h.handle(t, "when should we launch?")
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 2*time.Second, "turn must not wait out the straggler")
	assert.Equal(t, KindMultiPerspective, payload.Kind)
	require.Len(t, payload.Perspectives, 1)
	assert.Equal(t, strategist.ID, payload.Perspectives[0].PersonaID)
}

func TestHandleUserMessage_AllPerspectivesFailDegradesToNoPersona(t *testing.T) {
	mock := providers.NewMockProvider()
	h := newHarness(t, mock, DefaultConfig())
	strategist := h.addPersona(t, persona.ArchetypeStrategist, "Quinn")
	manager := h.addPersona(t, persona.ArchetypeManager, "Jordan")

	mock.RespondWhen("route an incoming message", routeTo(strategist.ID, manager.ID))
	mock.FailWhen("Your name is Quinn", llm.NewTimeoutError("down"))
	mock.FailWhen("Your name is Jordan", llm.NewTimeoutError("down"))

	payload := h.handle(t, "when should we launch?")
	assert.Equal(t, KindNoPersona, payload.Kind)
}

func TestHandleUserMessage_RoutingFiltersInventedIDs(t *testing.T) {
	mock := providers.NewMockProvider()
	h := newHarness(t, mock, DefaultConfig())
	coach := h.addPersona(t, persona.ArchetypeCoach, "Riley")

	invented := types.NewID()
	mock.RespondWhen("route an incoming message", routeTo(invented, coach.ID))
	mock.RespondWhen("Your name is Riley", "A direct answer.")

	payload := h.handle(t, "help me plan the week")

	// The invented ID drops out, leaving one persona and a Single response.
	assert.Equal(t, KindSingle, payload.Kind)
	assert.Equal(t, coach.ID, payload.PersonaID)
}

func TestHandleUserMessage_DebatePersistsFullTranscript(t *testing.T) {
	mock := providers.NewMockProvider()
	mock.RespondWhen("Write a short rebuttal", "rebuttal content")
	mock.RespondWhen("neutral moderator",
		`{"summary": "s", "tradeoffs": "t", "recommendation": "do it", "rationale": "why"}`)

	h := newHarness(t, mock, DefaultConfig())
	conflictScript(t, h)

	h.handle(t, "when should we launch?")

	stored, err := h.messages.Recent(context.Background(), h.conversationID, 20)
	require.NoError(t, err)
	// user + 2 positions + 2 rebuttals + 1 synthesis
	require.Len(t, stored, 6)

	assert.Equal(t, conversation.SenderUser, stored[0].SenderType)
	assert.Equal(t, conversation.IntentSuggestion, stored[1].Intent)
	assert.Equal(t, conversation.IntentSuggestion, stored[2].Intent)
	assert.Equal(t, conversation.IntentObjection, stored[3].Intent)
	assert.Equal(t, conversation.IntentObjection, stored[4].Intent)
	assert.Equal(t, conversation.SenderSystem, stored[5].SenderType)
	assert.Equal(t, conversation.IntentSynthesis, stored[5].Intent)
}

func TestHandleUserMessage_TriggersSummaryUpdateAfterThreshold(t *testing.T) {
	mock := providers.NewMockProvider()
	mock.RespondWhen("route an incoming message", `{"persona_ids": []}`)
	mock.RespondWhen("rolling summary", "a condensed account of the conversation")

	h := newHarness(t, mock, DefaultConfig())
	h.addPersona(t, persona.ArchetypeCoach, "Riley")

	ctx := context.Background()
	for i := 0; i < 24; i++ {
		m := conversation.NewUserMessage(h.conversationID, fmt.Sprintf("backlog %d", i))
		require.NoError(t, h.messages.Append(ctx, m))
	}

	h.handle(t, "one more message tips the threshold")

	sum, err := h.summaries.Get(ctx, h.conversationID)
	require.NoError(t, err)
	require.NotNil(t, sum)
	assert.Equal(t, "a condensed account of the conversation", sum.Text)
	assert.Equal(t, 25, sum.MessageCountAtSummary)
}

func TestHandleUserMessage_RejectsEmptyText(t *testing.T) {
	h := newHarness(t, providers.NewMockProvider(), DefaultConfig())

	_, err := h.orch.HandleUserMessage(context.Background(),
		h.projectID, h.conversationID, h.userID, "   ")
	assert.Equal(t, types.CONVERSATION_INVALID, types.CodeOf(err))
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Deps{})
	assert.Equal(t, types.CONFIG_VALIDATION_FAILED, types.CodeOf(err))
}

func TestConfig_Defaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())

	bad := DefaultConfig()
	bad.MaxParallel = -1
	assert.Error(t, bad.Validate())
}
