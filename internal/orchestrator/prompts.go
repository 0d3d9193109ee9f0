package orchestrator

import (
	"fmt"
	"strings"

	"github.com/roundtable-ai/roundtable/internal/persona"
)

const routingPromptHeader = `You route an incoming message on a project workspace to the advisors who
should respond. Pick only advisors whose expertise or role is genuinely
relevant; it is normal to pick none.

Advisors:
`

const routingPromptFooter = `
User message:
%s

Respond with JSON only: {"persona_ids": ["<id>", ...]}. Use an empty array
when no advisor is relevant.`

func routingPrompt(personas []*persona.Persona, text string) string {
	var b strings.Builder
	b.WriteString(routingPromptHeader)
	for _, p := range personas {
		fmt.Fprintf(&b, "- id: %s | name: %s | archetype: %s", p.ID, p.DisplayName, p.Archetype)
		if p.Specialization != "" {
			fmt.Fprintf(&b, " | specialization: %s", p.Specialization)
		}
		if p.PrimaryFocus != "" {
			fmt.Fprintf(&b, " | focus: %s", p.PrimaryFocus)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, routingPromptFooter, text)
	return b.String()
}

// perspectiveDirective turns a persona turn into a structured position
// statement for the conflict check.
const perspectiveDirective = `State your perspective on this message as JSON only:
{"position": "<your stance in one or two sentences>",
 "rationale": "<why, grounded in the project context>",
 "confidence": <0.0-1.0>}`

const classifyPrompt = `Several project advisors gave their perspectives on the same user message.
Decide whether the perspectives are compatible (different emphases of the
same direction) or conflicting (they recommend incompatible courses of
action).

Perspectives:
%s

Respond with JSON only: {"verdict": "compatible"} or {"verdict": "conflicting"}.`

func classificationPrompt(perspectives []Perspective) string {
	return fmt.Sprintf(classifyPrompt, renderPerspectives(perspectives))
}

func renderPerspectives(perspectives []Perspective) string {
	var b strings.Builder
	for _, p := range perspectives {
		fmt.Fprintf(&b, "%s: %s\nRationale: %s\n\n", p.PersonaName, p.Position, p.Rationale)
	}
	return strings.TrimRight(b.String(), "\n")
}

const rebuttalTemplate = `The other advisors took positions that conflict with yours.

Your stated position:
%s

The other positions:
%s

Write a short rebuttal addressed to the other advisors' positions. Engage
with their strongest point; do not simply restate your position. Respond
with the rebuttal text only.`

func rebuttalPrompt(own Perspective, others []Perspective, prior []Rebuttal) string {
	body := renderPerspectives(others)
	if len(prior) > 0 {
		var b strings.Builder
		b.WriteString(body)
		b.WriteString("\n\nEarlier rebuttals:\n")
		for _, r := range prior {
			fmt.Fprintf(&b, "%s: %s\n", r.PersonaName, r.Content)
		}
		body = strings.TrimRight(b.String(), "\n")
	}
	return fmt.Sprintf(rebuttalTemplate, own.Position, body)
}

const synthesisTemplate = `You are a neutral moderator. Project advisors debated a user's message and
could not agree. Synthesize the debate for the user. You are not one of the
advisors; do not take a side out of loyalty, only on the merits.

User message:
%s

Debate transcript:
%s

Respond with JSON only:
{"summary": "<what the disagreement is about>",
 "tradeoffs": "<what choosing each path costs>",
 "recommendation": "<the single action you would take>",
 "rationale": "<why that recommendation>"}`

func synthesisPrompt(text string, transcript Transcript) string {
	var b strings.Builder
	b.WriteString("Positions:\n")
	b.WriteString(renderPerspectives(transcript.Perspectives))
	if len(transcript.Rebuttals) > 0 {
		b.WriteString("\n\nRebuttals, in order:\n")
		for _, r := range transcript.Rebuttals {
			fmt.Fprintf(&b, "%s: %s\n", r.PersonaName, r.Content)
		}
	}
	return fmt.Sprintf(synthesisTemplate, text, b.String())
}

const extractionTemplate = `A user described the advisor they want added to their project. Extract a
structured persona definition from the description.

Description:
%s

Respond with JSON only:
{"archetype": "<coach|advisor|strategist|partner|manager|coordinator|custom>",
 "display_name": "<a short name for the advisor>",
 "specialization": "<free-text domain label, may be empty>",
 "voice": "<direct|supportive|analytical|collaborative>",
 "intervention_style": "<proactive|reactive|balanced>",
 "focus_area": "<accountability|strategy|execution|alignment|coordination>",
 "domain_knowledge": ["<tag>", ...],
 "domain_metrics": ["<tag>", ...],
 "preferences": {"tone": "<warm|neutral|blunt>",
                 "verbosity": "<brief|balanced|detailed>",
                 "allow_emoji": <bool>,
                 "allow_platitudes": <bool>}}`

func extractionPrompt(description string) string {
	return fmt.Sprintf(extractionTemplate, description)
}
