package orchestrator

import "github.com/roundtable-ai/roundtable/internal/types"

// ResponseKind tags the variant of a ResponsePayload.
type ResponseKind string

const (
	// KindNoPersona means routing matched nothing. Not an error; the
	// caller decides the fallback (default persona, clarification prompt).
	KindNoPersona ResponseKind = "no_persona"

	// KindSingle is one persona's direct answer.
	KindSingle ResponseKind = "single"

	// KindMultiPerspective lists each relevant persona's view; used when
	// perspectives are compatible or when a debate degraded.
	KindMultiPerspective ResponseKind = "multi_perspective"

	// KindDebate carries the full two-round transcript plus, when the
	// synthesis call succeeded, a neutral synthesis.
	KindDebate ResponseKind = "debate"
)

// Perspective is one persona's position on the user's message.
type Perspective struct {
	PersonaID   types.ID `json:"persona_id"`
	PersonaName string   `json:"persona_name"`
	Position    string   `json:"position"`
	Rationale   string   `json:"rationale"`
	Confidence  float64  `json:"confidence"`
}

// Rebuttal is one persona's second-round response to the others' positions.
type Rebuttal struct {
	PersonaID   types.ID `json:"persona_id"`
	PersonaName string   `json:"persona_name"`
	Content     string   `json:"content"`
}

// Synthesis is the neutral arbitration produced after a debate. It is
// deliberately not attributed to any persona.
type Synthesis struct {
	Summary        string `json:"summary"`
	Tradeoffs      string `json:"tradeoffs"`
	Recommendation string `json:"recommendation"`
	Rationale      string `json:"rationale"`
}

// Transcript is the ordered debate record: round one positions, then round
// two rebuttals.
type Transcript struct {
	Perspectives []Perspective `json:"perspectives"`
	Rebuttals    []Rebuttal    `json:"rebuttals,omitempty"`
}

// DebateResult packages a finished (or degraded) debate. Synthesis is nil
// when the synthesis call failed; the transcript is always present.
type DebateResult struct {
	Transcript        Transcript `json:"transcript"`
	Synthesis         *Synthesis `json:"synthesis,omitempty"`
	DecisionRequired  bool       `json:"decision_required"`
	RecommendedAction string     `json:"recommended_action,omitempty"`
}

// ResponsePayload is the tagged result of one conversational turn. Exactly
// the fields for the tagged Kind are populated.
type ResponsePayload struct {
	Kind ResponseKind `json:"kind"`

	// Single
	PersonaID   types.ID `json:"persona_id,omitempty"`
	PersonaName string   `json:"persona_name,omitempty"`
	Text        string   `json:"text,omitempty"`

	// MultiPerspective
	Perspectives []Perspective `json:"perspectives,omitempty"`

	// Debate
	Debate *DebateResult `json:"debate,omitempty"`
}

// NoPersonaPayload builds the routing-matched-nothing result.
func NoPersonaPayload() *ResponsePayload {
	return &ResponsePayload{Kind: KindNoPersona}
}
