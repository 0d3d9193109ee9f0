package conversation

import (
	"context"
	"time"

	"github.com/roundtable-ai/roundtable/internal/types"
)

// Summary is the rolling condensed history of one conversation.
// MessageCountAtSummary records how many messages existed when the summary
// was produced; it is the compare-and-set token that prevents concurrent
// summarizers from clobbering each other's work.
type Summary struct {
	ConversationID       types.ID  `json:"conversation_id"`
	Text                 string    `json:"text"`
	LastSummaryAt        time.Time `json:"last_summary_at"`
	MessageCountAtSummary int      `json:"message_count_at_summary"`
}

// MessageStore persists conversation messages in append order.
// Implementations must be safe for concurrent use.
type MessageStore interface {
	// Append stores the message and assigns its Seq. The assigned Seq is
	// written back to the message.
	Append(ctx context.Context, m *Message) error

	// Recent returns the newest n messages in chronological order
	// (oldest of the window first).
	Recent(ctx context.Context, conversationID types.ID, n int) ([]*Message, error)

	// Count returns the total number of messages in the conversation.
	Count(ctx context.Context, conversationID types.ID) (int, error)

	// Between returns messages with Seq in (afterSeq, uptoSeq], in order.
	// Used to collect the span covered by a new summary.
	Between(ctx context.Context, conversationID types.ID, afterSeq, uptoSeq int64) ([]*Message, error)
}

// SummaryStore persists rolling conversation summaries.
type SummaryStore interface {
	// Get returns the summary for a conversation, or nil if none exists yet.
	Get(ctx context.Context, conversationID types.ID) (*Summary, error)

	// CompareAndSet writes the summary only if the stored
	// MessageCountAtSummary still equals expectedCount (0 when no summary
	// exists yet). Returns false without error when the token has moved,
	// meaning another writer summarized first.
	CompareAndSet(ctx context.Context, s *Summary, expectedCount int) (bool, error)
}
