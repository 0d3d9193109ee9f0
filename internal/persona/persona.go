package persona

import (
	"fmt"
	"time"

	"github.com/roundtable-ai/roundtable/internal/types"
)

// Archetype is a fixed behavioral pattern for a persona. It determines the
// default voice, intervention style, and focus area unless explicitly
// overridden at creation or by a later user edit.
type Archetype string

const (
	ArchetypeCoach       Archetype = "coach"
	ArchetypeAdvisor     Archetype = "advisor"
	ArchetypeStrategist  Archetype = "strategist"
	ArchetypePartner     Archetype = "partner"
	ArchetypeManager     Archetype = "manager"
	ArchetypeCoordinator Archetype = "coordinator"
	ArchetypeCustom      Archetype = "custom"
)

// IsValid checks if the archetype is a valid value
func (a Archetype) IsValid() bool {
	switch a {
	case ArchetypeCoach, ArchetypeAdvisor, ArchetypeStrategist,
		ArchetypePartner, ArchetypeManager, ArchetypeCoordinator, ArchetypeCustom:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Archetype
func (a Archetype) String() string {
	return string(a)
}

// Voice describes how a persona phrases its responses
type Voice string

const (
	VoiceDirect        Voice = "direct"
	VoiceSupportive    Voice = "supportive"
	VoiceAnalytical    Voice = "analytical"
	VoiceCollaborative Voice = "collaborative"
)

// InterventionStyle describes when a persona chooses to speak up
type InterventionStyle string

const (
	InterventionProactive InterventionStyle = "proactive"
	InterventionReactive  InterventionStyle = "reactive"
	InterventionBalanced  InterventionStyle = "balanced"
)

// FocusArea describes what a persona pays attention to
type FocusArea string

const (
	FocusAccountability FocusArea = "accountability"
	FocusStrategy       FocusArea = "strategy"
	FocusExecution      FocusArea = "execution"
	FocusAlignment      FocusArea = "alignment"
	FocusCoordination   FocusArea = "coordination"
)

// Behavior bundles the three behavioral knobs defaulted by archetype.
type Behavior struct {
	Voice             Voice             `json:"voice"`
	InterventionStyle InterventionStyle `json:"intervention_style"`
	FocusArea         FocusArea         `json:"focus_area"`
}

// DefaultBehavior returns the default behavior for an archetype.
func DefaultBehavior(a Archetype) Behavior {
	switch a {
	case ArchetypeCoach:
		return Behavior{VoiceSupportive, InterventionProactive, FocusAccountability}
	case ArchetypeAdvisor:
		return Behavior{VoiceAnalytical, InterventionReactive, FocusStrategy}
	case ArchetypeStrategist:
		return Behavior{VoiceAnalytical, InterventionBalanced, FocusStrategy}
	case ArchetypePartner:
		return Behavior{VoiceCollaborative, InterventionBalanced, FocusExecution}
	case ArchetypeManager:
		return Behavior{VoiceDirect, InterventionProactive, FocusExecution}
	case ArchetypeCoordinator:
		return Behavior{VoiceCollaborative, InterventionProactive, FocusCoordination}
	default:
		return Behavior{VoiceCollaborative, InterventionBalanced, FocusAlignment}
	}
}

// Tone describes the emotional register of a persona's responses
type Tone string

const (
	ToneWarm    Tone = "warm"
	ToneNeutral Tone = "neutral"
	ToneBlunt   Tone = "blunt"
)

// Verbosity describes how long a persona's responses should run
type Verbosity string

const (
	VerbosityBrief    Verbosity = "brief"
	VerbosityBalanced Verbosity = "balanced"
	VerbosityDetailed Verbosity = "detailed"
)

// CommunicationPreferences carries per-persona communication settings.
type CommunicationPreferences struct {
	Tone            Tone      `json:"tone"`
	Verbosity       Verbosity `json:"verbosity"`
	AllowEmoji      bool      `json:"allow_emoji"`
	AllowPlatitudes bool      `json:"allow_platitudes"`
}

// Persona is a named behavioral configuration bound to one project.
// Personas are never deleted; they are deactivated via the Active flag.
type Persona struct {
	ID          types.ID  `json:"id"`
	ProjectID   types.ID  `json:"project_id"`
	DisplayName string    `json:"display_name"`
	Archetype   Archetype `json:"archetype"`

	// Specialization is a free-text domain label narrowing the archetype
	// to a concrete expertise area (e.g. "B2B SaaS growth").
	Specialization string `json:"specialization,omitempty"`

	Behavior Behavior `json:"behavior"`

	DomainKnowledge []string `json:"domain_knowledge,omitempty"`
	DomainMetrics   []string `json:"domain_metrics,omitempty"`

	// CustomInstructions is a verbatim free-text override layered on top of
	// the archetype behavior. For custom personas it preserves the user's
	// original description even when structured extraction was imperfect.
	CustomInstructions string `json:"custom_instructions,omitempty"`

	Preferences *CommunicationPreferences `json:"preferences,omitempty"`

	Collaborators []types.ID          `json:"collaborators,omitempty"`
	PrimaryFocus  string              `json:"primary_focus,omitempty"`
	DeferTo       map[string]types.ID `json:"defer_to,omitempty"`

	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a persona from a preset archetype with archetype-default
// behavior applied and the persona marked active.
func New(projectID types.ID, archetype Archetype, displayName string) *Persona {
	now := time.Now().UTC()
	return &Persona{
		ID:          types.NewID(),
		ProjectID:   projectID,
		DisplayName: displayName,
		Archetype:   archetype,
		Behavior:    DefaultBehavior(archetype),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks that the persona is well-formed.
func (p *Persona) Validate() error {
	if p.ID.IsZero() {
		return types.NewError(types.PERSONA_INVALID, "persona id is required")
	}
	if p.ProjectID.IsZero() {
		return types.NewError(types.PERSONA_INVALID, "persona must belong to a project")
	}
	if p.DisplayName == "" {
		return types.NewError(types.PERSONA_INVALID, "display name is required")
	}
	if !p.Archetype.IsValid() {
		return types.NewError(types.PERSONA_INVALID,
			fmt.Sprintf("invalid archetype: %s", p.Archetype))
	}
	return nil
}
