package prompt

import (
	"fmt"
	"strings"

	"github.com/roundtable-ai/roundtable/internal/llm"
	"github.com/roundtable-ai/roundtable/internal/persona"
	"github.com/roundtable-ai/roundtable/internal/types"
)

// ProjectState is the caller-supplied snapshot of the project the persona is
// advising on. All fields are optional except Title.
type ProjectState struct {
	Title       string
	Description string
	Outcome     string
	Status      string
	HealthScore *float64
}

// Input carries everything Compose needs for one persona and one turn. The
// memory blocks arrive pre-rendered by the memory managers so composition
// stays a pure function with no store or model access.
type Input struct {
	Persona         *persona.Persona
	Project         *ProjectState
	MediumTermBlock string
	ShortTermBlock  string
	UserMessage     string
}

// Compose assembles the ordered instruction segments for a single turn.
// Block order is fixed and deliberate: identity first, then context, then
// memory, with the user message last so the most conversation-relevant
// content sits closest to the generation point. Empty optional blocks are
// skipped; present blocks never reorder.
func Compose(in Input) ([]Segment, error) {
	if in.Persona == nil {
		return nil, types.NewError(types.PERSONA_INVALID, "compose requires a persona")
	}
	if in.UserMessage == "" {
		return nil, types.NewError(types.CONVERSATION_INVALID, "compose requires a user message")
	}

	segments := []Segment{
		{Role: llm.RoleSystem, Content: preamble},
		{Role: llm.RoleSystem, Content: identityBlock(in.Persona)},
	}

	if block := specializationBlock(in.Persona); block != "" {
		segments = append(segments, Segment{Role: llm.RoleSystem, Content: block})
	}
	if block := preferencesBlock(in.Persona.Preferences); block != "" {
		segments = append(segments, Segment{Role: llm.RoleSystem, Content: block})
	}
	if block := projectBlock(in.Project); block != "" {
		segments = append(segments, Segment{Role: llm.RoleSystem, Content: block})
	}
	if in.MediumTermBlock != "" {
		segments = append(segments, Segment{Role: llm.RoleSystem, Content: in.MediumTermBlock})
	}
	if in.ShortTermBlock != "" {
		segments = append(segments, Segment{Role: llm.RoleSystem, Content: in.ShortTermBlock})
	}

	segments = append(segments, Segment{Role: llm.RoleUser, Content: in.UserMessage})

	return segments, nil
}

func identityBlock(p *persona.Persona) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your name is %s.\n\n", p.DisplayName)
	b.WriteString(ArchetypeBlock(p.Archetype))

	fmt.Fprintf(&b, "\n\nVoice: %s. Intervention style: %s. Focus area: %s.",
		p.Behavior.Voice, p.Behavior.InterventionStyle, p.Behavior.FocusArea)

	return b.String()
}

func specializationBlock(p *persona.Persona) string {
	var parts []string

	if p.Specialization != "" {
		parts = append(parts, fmt.Sprintf("Your specialization is %s.", p.Specialization))
	}
	if len(p.DomainKnowledge) > 0 {
		parts = append(parts, "Domain knowledge you draw on: "+strings.Join(p.DomainKnowledge, ", ")+".")
	}
	if len(p.DomainMetrics) > 0 {
		parts = append(parts, "Metrics you track: "+strings.Join(p.DomainMetrics, ", ")+".")
	}
	if p.PrimaryFocus != "" {
		parts = append(parts, "Your primary focus right now: "+p.PrimaryFocus+".")
	}
	if p.CustomInstructions != "" {
		// Custom instructions are appended verbatim; they are the user's
		// own words and always override imperfect structured extraction.
		parts = append(parts, "Additional instructions from the user:\n"+p.CustomInstructions)
	}

	return strings.Join(parts, "\n")
}

func preferencesBlock(prefs *persona.CommunicationPreferences) string {
	if prefs == nil {
		return ""
	}

	var parts []string

	switch prefs.Tone {
	case persona.ToneWarm:
		parts = append(parts, "Keep a warm, personal tone.")
	case persona.ToneBlunt:
		parts = append(parts, "Be blunt; skip the softening.")
	case persona.ToneNeutral:
		parts = append(parts, "Keep a neutral, professional tone.")
	}

	switch prefs.Verbosity {
	case persona.VerbosityBrief:
		parts = append(parts, "Keep responses brief, a few sentences at most.")
	case persona.VerbosityDetailed:
		parts = append(parts, "Give thorough, detailed responses when the topic warrants it.")
	case persona.VerbosityBalanced:
		parts = append(parts, "Keep responses at moderate length.")
	}

	if prefs.AllowEmoji {
		parts = append(parts, "Emoji are fine where natural.")
	} else {
		parts = append(parts, "Do not use emoji.")
	}

	if !prefs.AllowPlatitudes {
		// An explicit prohibition, not just an omission: models default to
		// filler encouragement unless told otherwise.
		parts = append(parts, "Never use platitudes or generic encouragement"+
			` ("great question!", "you've got this"). If you have nothing`+
			" substantive to add, say so.")
	}

	return strings.Join(parts, " ")
}

func projectBlock(p *ProjectState) string {
	if p == nil || p.Title == "" {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", p.Title)
	if p.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", p.Description)
	}
	if p.Outcome != "" {
		fmt.Fprintf(&b, "Stated outcome: %s\n", p.Outcome)
	}
	if p.Status != "" {
		fmt.Fprintf(&b, "Status: %s\n", p.Status)
	}
	if p.HealthScore != nil {
		fmt.Fprintf(&b, "Health score: %.0f/100\n", *p.HealthScore)
	}
	return strings.TrimRight(b.String(), "\n")
}
