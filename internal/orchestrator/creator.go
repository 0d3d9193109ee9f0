package orchestrator

import (
	"context"
	"strings"

	"github.com/roundtable-ai/roundtable/internal/llm"
	"github.com/roundtable-ai/roundtable/internal/persona"
	"github.com/roundtable-ai/roundtable/internal/types"
)

type extractedPreferences struct {
	Tone            string `json:"tone"`
	Verbosity       string `json:"verbosity"`
	AllowEmoji      bool   `json:"allow_emoji"`
	AllowPlatitudes bool   `json:"allow_platitudes"`
}

type extractedPersona struct {
	Archetype         string                `json:"archetype"`
	DisplayName       string                `json:"display_name"`
	Specialization    string                `json:"specialization"`
	Voice             string                `json:"voice"`
	InterventionStyle string                `json:"intervention_style"`
	FocusArea         string                `json:"focus_area"`
	DomainKnowledge   []string              `json:"domain_knowledge"`
	DomainMetrics     []string              `json:"domain_metrics"`
	Preferences       *extractedPreferences `json:"preferences"`
}

// CreateCustomPersona synthesizes a persona from a free-text description
// with one structured extraction call, then persists it. The original
// description is always stored verbatim as CustomInstructions, so even an
// imperfect extraction never loses the user's intent. Malformed extraction
// output degrades to a plain custom-archetype persona; only store failures
// and exhausted model transport surface as errors.
func (o *Orchestrator) CreateCustomPersona(ctx context.Context, projectID, userID types.ID, description string) (*persona.Persona, error) {
	if strings.TrimSpace(description) == "" {
		return nil, types.NewError(types.PERSONA_INVALID, "persona description is required")
	}

	p, err := o.extractPersona(ctx, projectID, description)
	if err != nil {
		return nil, err
	}

	if err := o.personas.Save(ctx, p); err != nil {
		return nil, err
	}

	o.logger.Info(ctx, "custom persona created",
		"project_id", projectID,
		"persona_id", p.ID,
		"archetype", p.Archetype,
		"created_by", userID)

	return p, nil
}

func (o *Orchestrator) extractPersona(ctx context.Context, projectID types.ID, description string) (*persona.Persona, error) {
	messages := []llm.Message{llm.NewUserMessage(extractionPrompt(description))}

	callCtx, cancel := context.WithTimeout(ctx, o.config.PerCallTimeout)
	defer cancel()

	resp, err := o.client.Complete(callCtx, llm.SlotPrimary, messages)
	if err != nil && llm.IsRetryable(err) && ctx.Err() == nil {
		o.logger.Warn(ctx, "persona extraction failed, retrying once", "error", err)
		retryCtx, retryCancel := context.WithTimeout(ctx, o.config.PerCallTimeout)
		defer retryCancel()
		resp, err = o.client.Complete(retryCtx, llm.SlotPrimary, messages)
	}
	if err != nil {
		return nil, err
	}

	extracted, err := llm.ExtractJSONAs[extractedPersona](resp.Message.Content)
	if err != nil {
		// The model answered but not in shape. The description alone still
		// makes a working persona.
		o.logger.Warn(ctx, "persona extraction output malformed, falling back to plain custom persona", "error", err)
		return fallbackPersona(projectID, description), nil
	}

	return buildPersona(projectID, description, extracted), nil
}

func fallbackPersona(projectID types.ID, description string) *persona.Persona {
	p := persona.New(projectID, persona.ArchetypeCustom, "Custom Advisor")
	p.CustomInstructions = description
	return p
}

func buildPersona(projectID types.ID, description string, e extractedPersona) *persona.Persona {
	archetype := persona.Archetype(strings.ToLower(e.Archetype))
	if !archetype.IsValid() {
		archetype = persona.ArchetypeCustom
	}

	name := strings.TrimSpace(e.DisplayName)
	if name == "" {
		name = "Custom Advisor"
	}

	p := persona.New(projectID, archetype, name)
	p.Specialization = e.Specialization
	p.DomainKnowledge = e.DomainKnowledge
	p.DomainMetrics = e.DomainMetrics
	p.CustomInstructions = description

	if voice := persona.Voice(strings.ToLower(e.Voice)); voiceValid(voice) {
		p.Behavior.Voice = voice
	}
	if style := persona.InterventionStyle(strings.ToLower(e.InterventionStyle)); styleValid(style) {
		p.Behavior.InterventionStyle = style
	}
	if focus := persona.FocusArea(strings.ToLower(e.FocusArea)); focusValid(focus) {
		p.Behavior.FocusArea = focus
	}

	if e.Preferences != nil {
		prefs := &persona.CommunicationPreferences{
			Tone:            persona.ToneNeutral,
			Verbosity:       persona.VerbosityBalanced,
			AllowEmoji:      e.Preferences.AllowEmoji,
			AllowPlatitudes: e.Preferences.AllowPlatitudes,
		}
		if tone := persona.Tone(strings.ToLower(e.Preferences.Tone)); toneValid(tone) {
			prefs.Tone = tone
		}
		if verbosity := persona.Verbosity(strings.ToLower(e.Preferences.Verbosity)); verbosityValid(verbosity) {
			prefs.Verbosity = verbosity
		}
		p.Preferences = prefs
	}

	return p
}

func voiceValid(v persona.Voice) bool {
	switch v {
	case persona.VoiceDirect, persona.VoiceSupportive, persona.VoiceAnalytical, persona.VoiceCollaborative:
		return true
	}
	return false
}

func styleValid(s persona.InterventionStyle) bool {
	switch s {
	case persona.InterventionProactive, persona.InterventionReactive, persona.InterventionBalanced:
		return true
	}
	return false
}

func focusValid(f persona.FocusArea) bool {
	switch f {
	case persona.FocusAccountability, persona.FocusStrategy, persona.FocusExecution,
		persona.FocusAlignment, persona.FocusCoordination:
		return true
	}
	return false
}

func toneValid(t persona.Tone) bool {
	switch t {
	case persona.ToneWarm, persona.ToneNeutral, persona.ToneBlunt:
		return true
	}
	return false
}

func verbosityValid(v persona.Verbosity) bool {
	switch v {
	case persona.VerbosityBrief, persona.VerbosityBalanced, persona.VerbosityDetailed:
		return true
	}
	return false
}
