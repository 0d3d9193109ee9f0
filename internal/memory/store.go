package memory

import (
	"context"

	"github.com/roundtable-ai/roundtable/internal/types"
)

// Store is the persistence contract for medium-term memory records.
// Listing operations exclude expired records; Get does not, so managers can
// overwrite an expired record under the same key.
type Store interface {
	// Get returns the record for (projectID, key), expired or not.
	// Returns MEMORY_NOT_FOUND if the key is absent.
	Get(ctx context.Context, projectID types.ID, key string) (*Record, error)

	// List returns all non-expired records for a project, unordered.
	List(ctx context.Context, projectID types.ID) ([]*Record, error)

	// ListByType returns non-expired records of one type, unordered.
	ListByType(ctx context.Context, projectID types.ID, t Type) ([]*Record, error)

	// Save upserts a record by (projectID, key).
	Save(ctx context.Context, r *Record) error

	// Delete removes the record for (projectID, key). Deleting an absent
	// key is a no-op, not an error.
	Delete(ctx context.Context, projectID types.ID, key string) error
}

// NewNotFoundError creates a MEMORY_NOT_FOUND error for the given key.
func NewNotFoundError(key string) *types.RoundtableError {
	return types.NewError(types.MEMORY_NOT_FOUND, "memory not found: "+key)
}
