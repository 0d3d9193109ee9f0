package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/roundtable-ai/roundtable/internal/conversation"
	"github.com/roundtable-ai/roundtable/internal/llm"
	"github.com/roundtable-ai/roundtable/internal/memory"
	"github.com/roundtable-ai/roundtable/internal/observability"
	"github.com/roundtable-ai/roundtable/internal/persona"
	"github.com/roundtable-ai/roundtable/internal/prompt"
	"github.com/roundtable-ai/roundtable/internal/types"
)

// ProjectStateProvider supplies the project snapshot rendered into persona
// prompts. Project CRUD lives outside this core; the orchestrator only reads.
type ProjectStateProvider interface {
	ProjectState(ctx context.Context, projectID types.ID) (*prompt.ProjectState, error)
}

// Deps carries the orchestrator's collaborators. Personas, Messages,
// ShortTerm, MediumTerm, and Client are required; the rest have defaults.
type Deps struct {
	Personas   persona.Store
	Messages   conversation.MessageStore
	ShortTerm  *memory.ShortTermManager
	MediumTerm *memory.MediumTermManager
	Client     *llm.Client
	Projects   ProjectStateProvider
	Config     Config
	Logger     *observability.TracedLogger
	Tracer     trace.Tracer
}

// Orchestrator routes inbound user messages to personas, arbitrates
// disagreement through the debate protocol, and produces the final response
// payload. It holds no per-turn state; everything durable flows through the
// injected stores.
type Orchestrator struct {
	personas   persona.Store
	messages   conversation.MessageStore
	shortTerm  *memory.ShortTermManager
	mediumTerm *memory.MediumTermManager
	client     *llm.Client
	projects   ProjectStateProvider
	config     Config
	logger     *observability.TracedLogger
	tracer     trace.Tracer
}

// New creates an Orchestrator, validating required collaborators.
func New(deps Deps) (*Orchestrator, error) {
	if deps.Personas == nil || deps.Messages == nil || deps.ShortTerm == nil ||
		deps.MediumTerm == nil || deps.Client == nil {
		return nil, types.NewError(types.CONFIG_VALIDATION_FAILED,
			"orchestrator requires persona store, message store, both memory managers, and an llm client")
	}

	deps.Config.ApplyDefaults()
	if err := deps.Config.Validate(); err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = observability.NewTracedLogger(nil, "", "orchestrator")
	}
	if deps.Tracer == nil {
		deps.Tracer = noop.NewTracerProvider().Tracer("orchestrator")
	}

	return &Orchestrator{
		personas:   deps.Personas,
		messages:   deps.Messages,
		shortTerm:  deps.ShortTerm,
		mediumTerm: deps.MediumTerm,
		client:     deps.Client,
		projects:   deps.Projects,
		config:     deps.Config,
		logger:     deps.Logger,
		tracer:     deps.Tracer,
	}, nil
}

// turnContext is the per-turn snapshot shared by every persona prompt:
// rendered memory blocks and the project state.
type turnContext struct {
	project     *prompt.ProjectState
	mediumBlock string
	shortBlock  string
}

func (tc *turnContext) composeInput(p *persona.Persona, userMessage string) prompt.Input {
	return prompt.Input{
		Persona:         p,
		Project:         tc.project,
		MediumTermBlock: tc.mediumBlock,
		ShortTermBlock:  tc.shortBlock,
		UserMessage:     userMessage,
	}
}

// HandleUserMessage processes one conversational turn: route the message to
// relevant personas, arbitrate disagreement, and return the tagged response
// payload. The user always gets a payload for model-side failures; only
// store failures and exhausted model transport propagate as errors. Nothing
// is persisted until the turn finalizes, so cancellation mid-turn leaves no
// partial state.
func (o *Orchestrator) HandleUserMessage(ctx context.Context, projectID, conversationID, userID types.ID, text string) (*ResponsePayload, error) {
	if strings.TrimSpace(text) == "" {
		return nil, types.NewError(types.CONVERSATION_INVALID, "message text is required")
	}

	ctx, span := o.tracer.Start(ctx, "orchestrator.handle_user_message",
		trace.WithAttributes(
			attribute.String("project_id", projectID.String()),
			attribute.String("conversation_id", conversationID.String()),
		))
	defer span.End()

	active, err := o.personas.ListActive(ctx, projectID)
	if err != nil {
		return nil, err
	}

	tc := o.buildTurnContext(ctx, projectID, conversationID)

	payload := o.respond(ctx, active, tc, text)
	span.SetAttributes(attribute.String("response_kind", string(payload.Kind)))

	if err := o.persistTurn(ctx, conversationID, userID, text, payload); err != nil {
		return nil, err
	}

	// Summary refresh rides after the turn; its failures are logged and
	// dropped so they never block the user-facing response.
	if err := o.shortTerm.UpdateSummaryIfNeeded(ctx, conversationID); err != nil {
		o.logger.Warn(ctx, "summary update failed", "conversation_id", conversationID, "error", err)
	}

	return payload, nil
}

// respond runs Routing through Debate and returns the payload, applying the
// degradation ladder at each stage.
func (o *Orchestrator) respond(ctx context.Context, active []*persona.Persona, tc *turnContext, text string) *ResponsePayload {
	relevant := o.route(ctx, active, text)

	switch len(relevant) {
	case 0:
		return NoPersonaPayload()
	case 1:
		return o.respondDirect(ctx, relevant[0], tc, text)
	}

	perspectives := o.generatePerspectives(ctx, relevant, tc, text)
	switch len(perspectives) {
	case 0:
		o.logger.Warn(ctx, "no perspective call succeeded, degrading to no-persona fallback")
		return NoPersonaPayload()
	case 1:
		// Only one view survived; nothing to arbitrate.
		return &ResponsePayload{Kind: KindMultiPerspective, Perspectives: perspectives}
	}

	if o.classifyPerspectives(ctx, perspectives) == verdictCompatible {
		return &ResponsePayload{Kind: KindMultiPerspective, Perspectives: perspectives}
	}

	return &ResponsePayload{
		Kind:   KindDebate,
		Debate: o.runDebate(ctx, relevant, perspectives, tc, text),
	}
}

// respondDirect produces a single persona's plain answer. A retryable model
// failure gets one local retry; a second failure degrades the turn to the
// no-persona fallback rather than erroring it.
func (o *Orchestrator) respondDirect(ctx context.Context, p *persona.Persona, tc *turnContext, text string) *ResponsePayload {
	segments, err := prompt.Compose(tc.composeInput(p, text))
	if err != nil {
		o.logger.Warn(ctx, "prompt composition failed", "persona_id", p.ID, "error", err)
		return NoPersonaPayload()
	}
	messages := prompt.ToMessages(segments)

	callCtx, cancel := context.WithTimeout(ctx, o.config.PerCallTimeout)
	defer cancel()

	resp, err := o.client.Complete(callCtx, llm.SlotPrimary, messages)
	if err != nil && llm.IsRetryable(err) && ctx.Err() == nil {
		o.logger.Warn(ctx, "direct response failed, retrying once", "persona_id", p.ID, "error", err)
		retryCtx, retryCancel := context.WithTimeout(ctx, o.config.PerCallTimeout)
		defer retryCancel()
		resp, err = o.client.Complete(retryCtx, llm.SlotPrimary, messages)
	}
	if err != nil {
		o.logger.Warn(ctx, "direct response failed, degrading turn", "persona_id", p.ID, "error", err)
		return NoPersonaPayload()
	}

	return &ResponsePayload{
		Kind:        KindSingle,
		PersonaID:   p.ID,
		PersonaName: p.DisplayName,
		Text:        strings.TrimSpace(resp.Message.Content),
	}
}

// buildTurnContext renders both memory tiers and the project state. Each
// piece is best-effort; a missing piece leaves its block empty.
func (o *Orchestrator) buildTurnContext(ctx context.Context, projectID, conversationID types.ID) *turnContext {
	tc := &turnContext{}

	if o.projects != nil {
		state, err := o.projects.ProjectState(ctx, projectID)
		if err != nil {
			o.logger.Warn(ctx, "project state unavailable", "project_id", projectID, "error", err)
		} else {
			tc.project = state
		}
	}

	records, err := o.mediumTerm.GetMemories(ctx, projectID)
	if err != nil {
		o.logger.Warn(ctx, "medium-term memory unavailable", "project_id", projectID, "error", err)
	} else {
		tc.mediumBlock = o.mediumTerm.FormatForPrompt(records)
	}

	shortCtx, err := o.shortTerm.GetContext(ctx, conversationID)
	if err != nil {
		o.logger.Warn(ctx, "short-term memory unavailable", "conversation_id", conversationID, "error", err)
	} else {
		tc.shortBlock = o.shortTerm.FormatForPrompt(shortCtx)
	}

	return tc
}

// persistTurn appends the user message and the payload's response messages
// in submission order.
func (o *Orchestrator) persistTurn(ctx context.Context, conversationID, userID types.ID, text string, payload *ResponsePayload) error {
	userMsg := conversation.NewUserMessage(conversationID, text)
	userMsg.SenderID = userID
	if err := o.messages.Append(ctx, userMsg); err != nil {
		return err
	}

	for _, m := range o.responseMessages(conversationID, userMsg.ID, payload) {
		if err := o.messages.Append(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) responseMessages(conversationID, userMsgID types.ID, payload *ResponsePayload) []*conversation.Message {
	var out []*conversation.Message

	switch payload.Kind {
	case KindSingle:
		m := conversation.NewPersonaMessage(conversationID, payload.PersonaID, "", payload.Text)
		out = append(out, m.WithReplyTo(userMsgID))

	case KindMultiPerspective:
		for _, p := range payload.Perspectives {
			m := conversation.NewPersonaMessage(conversationID, p.PersonaID,
				conversation.IntentSuggestion, renderPerspectiveMessage(p)).
				WithConfidence(p.Confidence).
				WithReplyTo(userMsgID)
			out = append(out, m)
		}

	case KindDebate:
		for _, p := range payload.Debate.Transcript.Perspectives {
			m := conversation.NewPersonaMessage(conversationID, p.PersonaID,
				conversation.IntentSuggestion, renderPerspectiveMessage(p)).
				WithConfidence(p.Confidence).
				WithReplyTo(userMsgID)
			out = append(out, m)
		}
		for _, r := range payload.Debate.Transcript.Rebuttals {
			m := conversation.NewPersonaMessage(conversationID, r.PersonaID,
				conversation.IntentObjection, r.Content)
			out = append(out, m)
		}
		if s := payload.Debate.Synthesis; s != nil {
			m := conversation.NewSystemMessage(conversationID, renderSynthesisMessage(s))
			m.Intent = conversation.IntentSynthesis
			out = append(out, m)
		}
	}

	return out
}

func renderPerspectiveMessage(p Perspective) string {
	if p.Rationale == "" {
		return p.Position
	}
	return fmt.Sprintf("%s\n\n%s", p.Position, p.Rationale)
}

func renderSynthesisMessage(s *Synthesis) string {
	var b strings.Builder
	if s.Summary != "" {
		b.WriteString(s.Summary)
		b.WriteString("\n\n")
	}
	if s.Tradeoffs != "" {
		b.WriteString("Tradeoffs: " + s.Tradeoffs + "\n\n")
	}
	if s.Recommendation != "" {
		b.WriteString("Recommendation: " + s.Recommendation)
		if s.Rationale != "" {
			b.WriteString("\n" + s.Rationale)
		}
	}
	return strings.TrimSpace(b.String())
}
