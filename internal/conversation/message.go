package conversation

import (
	"fmt"
	"time"

	"github.com/roundtable-ai/roundtable/internal/types"
)

// SenderType identifies who produced a message.
type SenderType string

const (
	SenderUser    SenderType = "user"
	SenderPersona SenderType = "persona"
	SenderSystem  SenderType = "system"
)

// IsValid checks if the sender type is a valid value
func (s SenderType) IsValid() bool {
	switch s {
	case SenderUser, SenderPersona, SenderSystem:
		return true
	default:
		return false
	}
}

// Intent classifies the conversational role of a persona message.
type Intent string

const (
	IntentQuestion   Intent = "question"
	IntentSuggestion Intent = "suggestion"
	IntentObjection  Intent = "objection"
	IntentAgreement  Intent = "agreement"
	IntentDecision   Intent = "decision"
	IntentSynthesis  Intent = "synthesis"
)

// IsValid checks if the intent is a valid value
func (i Intent) IsValid() bool {
	switch i {
	case IntentQuestion, IntentSuggestion, IntentObjection,
		IntentAgreement, IntentDecision, IntentSynthesis:
		return true
	default:
		return false
	}
}

// Message is a single turn in a conversation. Seq is assigned by the store
// on append and breaks ordering ties between messages created in the same
// instant.
type Message struct {
	ID             types.ID   `json:"id"`
	ConversationID types.ID   `json:"conversation_id"`
	SenderID       types.ID   `json:"sender_id,omitempty"`
	SenderType     SenderType `json:"sender_type"`
	Content        string     `json:"content"`

	// Intent and Confidence are set only on persona messages.
	Intent     Intent   `json:"intent,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`

	// ReplyTo links a rebuttal or answer back to the message it addresses.
	ReplyTo types.ID `json:"reply_to,omitempty"`

	Seq       int64     `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserMessage creates a user-authored message.
func NewUserMessage(conversationID types.ID, content string) *Message {
	return &Message{
		ID:             types.NewID(),
		ConversationID: conversationID,
		SenderType:     SenderUser,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
}

// NewPersonaMessage creates a persona-authored message with an intent.
func NewPersonaMessage(conversationID, personaID types.ID, intent Intent, content string) *Message {
	return &Message{
		ID:             types.NewID(),
		ConversationID: conversationID,
		SenderID:       personaID,
		SenderType:     SenderPersona,
		Content:        content,
		Intent:         intent,
		CreatedAt:      time.Now().UTC(),
	}
}

// NewSystemMessage creates a system message, used for synthesis output and
// degradation notices.
func NewSystemMessage(conversationID types.ID, content string) *Message {
	return &Message{
		ID:             types.NewID(),
		ConversationID: conversationID,
		SenderType:     SenderSystem,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
}

// WithConfidence sets the confidence score and returns the message.
func (m *Message) WithConfidence(c float64) *Message {
	m.Confidence = &c
	return m
}

// WithReplyTo links the message to the one it responds to.
func (m *Message) WithReplyTo(id types.ID) *Message {
	m.ReplyTo = id
	return m
}

// Validate checks that the message is well-formed.
func (m *Message) Validate() error {
	if m.ID.IsZero() {
		return types.NewError(types.CONVERSATION_INVALID, "message id is required")
	}
	if m.ConversationID.IsZero() {
		return types.NewError(types.CONVERSATION_INVALID, "message must belong to a conversation")
	}
	if !m.SenderType.IsValid() {
		return types.NewError(types.CONVERSATION_INVALID,
			fmt.Sprintf("invalid sender type: %s", m.SenderType))
	}
	if m.SenderType == SenderPersona && m.SenderID.IsZero() {
		return types.NewError(types.CONVERSATION_INVALID, "persona message requires a sender id")
	}
	if m.Intent != "" && !m.Intent.IsValid() {
		return types.NewError(types.CONVERSATION_INVALID,
			fmt.Sprintf("invalid intent: %s", m.Intent))
	}
	if m.Content == "" {
		return types.NewError(types.CONVERSATION_INVALID, "message content is required")
	}
	return nil
}
