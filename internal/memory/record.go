package memory

import (
	"fmt"
	"time"

	"github.com/roundtable-ai/roundtable/internal/types"
)

// Type classifies a medium-term memory record.
type Type string

const (
	TypeFact       Type = "fact"
	TypeDecision   Type = "decision"
	TypeBlocker    Type = "blocker"
	TypePreference Type = "preference"
	TypeInsight    Type = "insight"
)

// IsValid checks if the memory type is a valid value
func (t Type) IsValid() bool {
	switch t {
	case TypeFact, TypeDecision, TypeBlocker, TypePreference, TypeInsight:
		return true
	default:
		return false
	}
}

// DefaultImportance returns the default importance score for a memory type.
// Callers that pass an explicit importance always override these.
func DefaultImportance(t Type) int {
	switch t {
	case TypeFact:
		return 7
	case TypeDecision:
		return 8
	case TypeBlocker:
		return 9
	case TypePreference:
		return 6
	case TypeInsight:
		return 7
	default:
		return 5
	}
}

// ClampImportance bounds an importance score to the valid [1,10] range.
func ClampImportance(importance int) int {
	if importance < 1 {
		return 1
	}
	if importance > 10 {
		return 10
	}
	return importance
}

// Record is one durable medium-term memory entry, unique per (project, key).
type Record struct {
	ID         types.ID   `json:"id"`
	ProjectID  types.ID   `json:"project_id"`
	Type       Type       `json:"type"`
	Key        string     `json:"key"`
	Value      string     `json:"value"`
	Importance int        `json:"importance"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// IsExpired reports whether the record has passed its expiry.
func (r *Record) IsExpired(now time.Time) bool {
	return r.ExpiresAt != nil && !r.ExpiresAt.After(now)
}

// Validate checks that the record is well-formed.
func (r *Record) Validate() error {
	if r.ProjectID.IsZero() {
		return types.NewError(types.MEMORY_INVALID, "memory must belong to a project")
	}
	if !r.Type.IsValid() {
		return types.NewError(types.MEMORY_INVALID,
			fmt.Sprintf("invalid memory type: %s", r.Type))
	}
	if r.Key == "" {
		return types.NewError(types.MEMORY_INVALID, "memory key is required")
	}
	if r.Value == "" {
		return types.NewError(types.MEMORY_INVALID, "memory value is required")
	}
	if r.Importance < 1 || r.Importance > 10 {
		return types.NewError(types.MEMORY_INVALID,
			fmt.Sprintf("importance must be in [1,10], got %d", r.Importance))
	}
	return nil
}
