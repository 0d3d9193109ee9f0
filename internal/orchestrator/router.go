package orchestrator

import (
	"context"

	"github.com/roundtable-ai/roundtable/internal/llm"
	"github.com/roundtable-ai/roundtable/internal/persona"
	"github.com/roundtable-ai/roundtable/internal/types"
)

type routingResult struct {
	PersonaIDs []types.ID `json:"persona_ids"`
}

// route asks the fast slot which active personas should handle the message.
// Any failure, transport or malformed output, degrades to an empty result:
// routing never fails a turn.
func (o *Orchestrator) route(ctx context.Context, personas []*persona.Persona, text string) []*persona.Persona {
	if len(personas) == 0 {
		return nil
	}

	resp, err := o.client.Complete(ctx, llm.SlotFast,
		[]llm.Message{llm.NewUserMessage(routingPrompt(personas, text))},
	)
	if err != nil {
		o.logger.Warn(ctx, "routing call failed, treating as no persona matched", "error", err)
		return nil
	}

	result, err := llm.ExtractJSONAs[routingResult](resp.Message.Content)
	if err != nil {
		o.logger.Warn(ctx, "routing output malformed, treating as no persona matched", "error", err)
		return nil
	}

	byID := make(map[types.ID]*persona.Persona, len(personas))
	for _, p := range personas {
		byID[p.ID] = p
	}

	// Keep routing output order, drop IDs the model invented, dedupe.
	seen := make(map[types.ID]bool)
	var relevant []*persona.Persona
	for _, id := range result.PersonaIDs {
		p, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		relevant = append(relevant, p)
		if len(relevant) == o.config.MaxRelevant {
			break
		}
	}

	return relevant
}
