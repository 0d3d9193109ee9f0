package orchestrator

import (
	"context"
	"strings"

	"github.com/roundtable-ai/roundtable/internal/llm"
	"github.com/roundtable-ai/roundtable/internal/persona"
	"github.com/roundtable-ai/roundtable/internal/prompt"
)

// conflictVerdict is the classification outcome over a perspective set.
type conflictVerdict string

const (
	verdictCompatible  conflictVerdict = "compatible"
	verdictConflicting conflictVerdict = "conflicting"
)

type classificationResult struct {
	Verdict string `json:"verdict"`
}

type perspectiveResult struct {
	Position   string  `json:"position"`
	Rationale  string  `json:"rationale"`
	Confidence float64 `json:"confidence"`
}

// generatePerspectives asks each relevant persona for a structured position
// in parallel and keeps whatever settled successfully. A straggler that
// outlives the per-call timeout counts as failed for this turn.
func (o *Orchestrator) generatePerspectives(ctx context.Context, personas []*persona.Persona, tc *turnContext, text string) []Perspective {
	results := fanOut(ctx, personas, o.config.MaxParallel, o.config.PerCallTimeout,
		func(callCtx context.Context, p *persona.Persona) (Perspective, error) {
			return o.generatePerspective(callCtx, p, tc, text)
		})

	var perspectives []Perspective
	for i, r := range results {
		if r.err != nil {
			o.logger.Warn(ctx, "perspective generation failed",
				"persona_id", personas[i].ID,
				"error", r.err)
			continue
		}
		perspectives = append(perspectives, r.value)
	}
	return perspectives
}

func (o *Orchestrator) generatePerspective(ctx context.Context, p *persona.Persona, tc *turnContext, text string) (Perspective, error) {
	segments, err := prompt.Compose(tc.composeInput(p, text))
	if err != nil {
		return Perspective{}, err
	}

	messages := append(prompt.ToMessages(segments), llm.NewUserMessage(perspectiveDirective))

	resp, err := o.client.Complete(ctx, llm.SlotPrimary, messages)
	if err != nil {
		return Perspective{}, err
	}

	parsed, err := llm.ExtractJSONAs[perspectiveResult](resp.Message.Content)
	if err != nil {
		return Perspective{}, err
	}

	return Perspective{
		PersonaID:   p.ID,
		PersonaName: p.DisplayName,
		Position:    parsed.Position,
		Rationale:   parsed.Rationale,
		Confidence:  clampConfidence(parsed.Confidence),
	}, nil
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// classifyPerspectives decides Compatible vs Conflicting with one fast-slot
// call. Classification is itself a fallible external call; when it fails the
// default is Conflicting, the safer branch, since a debate at least surfaces
// the disagreement instead of papering over it.
func (o *Orchestrator) classifyPerspectives(ctx context.Context, perspectives []Perspective) conflictVerdict {
	resp, err := o.client.Complete(ctx, llm.SlotFast,
		[]llm.Message{llm.NewUserMessage(classificationPrompt(perspectives))},
	)
	if err != nil {
		o.logger.Warn(ctx, "conflict classification failed, defaulting to conflicting", "error", err)
		return verdictConflicting
	}

	result, err := llm.ExtractJSONAs[classificationResult](resp.Message.Content)
	if err != nil {
		o.logger.Warn(ctx, "conflict classification output malformed, defaulting to conflicting", "error", err)
		return verdictConflicting
	}

	if strings.EqualFold(strings.TrimSpace(result.Verdict), string(verdictCompatible)) {
		return verdictCompatible
	}
	return verdictConflicting
}

// runDebate executes the rebuttal rounds and synthesis over the round-one
// positions. Rebuttal failures drop that persona's rebuttal; synthesis
// failure returns the transcript with a nil synthesis. Nothing here errors
// the turn.
func (o *Orchestrator) runDebate(ctx context.Context, personas []*persona.Persona, perspectives []Perspective, tc *turnContext, text string) *DebateResult {
	transcript := Transcript{Perspectives: perspectives}

	// Round one is the position round; each further configured round adds
	// rebuttals conditioned on everything said so far.
	for round := 1; round < o.config.DebateRounds; round++ {
		transcript.Rebuttals = append(transcript.Rebuttals,
			o.generateRebuttals(ctx, personas, perspectives, transcript.Rebuttals, tc)...)
	}

	result := &DebateResult{
		Transcript:       transcript,
		DecisionRequired: true,
	}

	synthesis, err := o.generateSynthesis(ctx, text, transcript)
	if err != nil {
		o.logger.Warn(ctx, "synthesis failed, returning transcript without synthesis", "error", err)
		return result
	}

	result.Synthesis = synthesis
	result.RecommendedAction = synthesis.Recommendation
	return result
}

// generateRebuttals produces at most one rebuttal per persona that holds a
// perspective, each conditioned on all round-one positions plus any
// rebuttals from earlier rounds.
func (o *Orchestrator) generateRebuttals(ctx context.Context, personas []*persona.Persona, perspectives []Perspective, prior []Rebuttal, tc *turnContext) []Rebuttal {
	byID := make(map[string]*persona.Persona, len(personas))
	for _, p := range personas {
		byID[p.ID.String()] = p
	}

	// Only personas whose perspective actually landed get a rebuttal slot;
	// everyone in a conflicting set opposes at least one other position.
	type rebuttalInput struct {
		persona *persona.Persona
		own     Perspective
		others  []Perspective
	}

	var inputs []rebuttalInput
	for i, own := range perspectives {
		p, ok := byID[own.PersonaID.String()]
		if !ok {
			continue
		}
		others := make([]Perspective, 0, len(perspectives)-1)
		others = append(others, perspectives[:i]...)
		others = append(others, perspectives[i+1:]...)
		if len(others) == 0 {
			continue
		}
		inputs = append(inputs, rebuttalInput{persona: p, own: own, others: others})
	}

	results := fanOut(ctx, inputs, o.config.MaxParallel, o.config.PerCallTimeout,
		func(callCtx context.Context, in rebuttalInput) (Rebuttal, error) {
			segments, err := prompt.Compose(tc.composeInput(in.persona, rebuttalPrompt(in.own, in.others, prior)))
			if err != nil {
				return Rebuttal{}, err
			}

			resp, err := o.client.Complete(callCtx, llm.SlotPrimary, prompt.ToMessages(segments))
			if err != nil {
				return Rebuttal{}, err
			}

			return Rebuttal{
				PersonaID:   in.persona.ID,
				PersonaName: in.persona.DisplayName,
				Content:     strings.TrimSpace(resp.Message.Content),
			}, nil
		})

	var rebuttals []Rebuttal
	for i, r := range results {
		if r.err != nil {
			o.logger.Warn(ctx, "rebuttal generation failed",
				"persona_id", inputs[i].persona.ID,
				"error", r.err)
			continue
		}
		rebuttals = append(rebuttals, r.value)
	}
	return rebuttals
}

// generateSynthesis runs the neutral arbitration call over the transcript.
// The prompt deliberately carries no persona identity.
func (o *Orchestrator) generateSynthesis(ctx context.Context, text string, transcript Transcript) (*Synthesis, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.config.PerCallTimeout)
	defer cancel()

	resp, err := o.client.Complete(callCtx, llm.SlotPrimary,
		[]llm.Message{llm.NewUserMessage(synthesisPrompt(text, transcript))},
	)
	if err != nil {
		return nil, err
	}

	synthesis, err := llm.ExtractJSONAs[Synthesis](resp.Message.Content)
	if err != nil {
		return nil, err
	}
	return &synthesis, nil
}
