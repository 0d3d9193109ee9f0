package persona

import (
	"context"

	"github.com/roundtable-ai/roundtable/internal/types"
)

// Store is the persistence contract for personas. Implementations must be
// safe for concurrent use.
type Store interface {
	// Get returns the persona by id, active or not.
	// Returns PERSONA_NOT_FOUND if the id is unknown.
	Get(ctx context.Context, id types.ID) (*Persona, error)

	// ListActive returns all active personas for a project, in creation order.
	ListActive(ctx context.Context, projectID types.ID) ([]*Persona, error)

	// Save upserts a persona by id.
	Save(ctx context.Context, p *Persona) error

	// Deactivate clears the active flag. Personas are never deleted.
	// Returns PERSONA_NOT_FOUND if the id is unknown.
	Deactivate(ctx context.Context, id types.ID) error
}

// NewNotFoundError creates a PERSONA_NOT_FOUND error for the given id.
func NewNotFoundError(id types.ID) *types.RoundtableError {
	return types.NewError(types.PERSONA_NOT_FOUND, "persona not found: "+id.String())
}
