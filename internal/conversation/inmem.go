package conversation

import (
	"context"
	"sync"

	"github.com/roundtable-ai/roundtable/internal/types"
)

// InMemoryMessageStore implements MessageStore with per-conversation slices.
type InMemoryMessageStore struct {
	mu       sync.RWMutex
	nextSeq  int64
	messages map[types.ID][]*Message
}

// NewInMemoryMessageStore creates an empty in-memory message store.
func NewInMemoryMessageStore() *InMemoryMessageStore {
	return &InMemoryMessageStore{
		messages: make(map[types.ID][]*Message),
	}
}

// Append stores the message and assigns its Seq.
func (s *InMemoryMessageStore) Append(ctx context.Context, m *Message) error {
	if err := m.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSeq++
	m.Seq = s.nextSeq

	clone := *m
	s.messages[m.ConversationID] = append(s.messages[m.ConversationID], &clone)

	return nil
}

// Recent returns the newest n messages in chronological order.
func (s *InMemoryMessageStore) Recent(ctx context.Context, conversationID types.ID, n int) ([]*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.messages[conversationID]
	if n <= 0 || len(all) == 0 {
		return nil, nil
	}
	if n > len(all) {
		n = len(all)
	}

	window := all[len(all)-n:]
	out := make([]*Message, 0, n)
	for _, m := range window {
		clone := *m
		out = append(out, &clone)
	}
	return out, nil
}

// Count returns the total number of messages in the conversation.
func (s *InMemoryMessageStore) Count(ctx context.Context, conversationID types.ID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages[conversationID]), nil
}

// Between returns messages with Seq in (afterSeq, uptoSeq], in order.
func (s *InMemoryMessageStore) Between(ctx context.Context, conversationID types.ID, afterSeq, uptoSeq int64) ([]*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Message
	for _, m := range s.messages[conversationID] {
		if m.Seq > afterSeq && m.Seq <= uptoSeq {
			clone := *m
			out = append(out, &clone)
		}
	}
	return out, nil
}

// InMemorySummaryStore implements SummaryStore with a map.
type InMemorySummaryStore struct {
	mu        sync.Mutex
	summaries map[types.ID]*Summary
}

// NewInMemorySummaryStore creates an empty in-memory summary store.
func NewInMemorySummaryStore() *InMemorySummaryStore {
	return &InMemorySummaryStore{
		summaries: make(map[types.ID]*Summary),
	}
}

// Get returns the summary for a conversation, or nil if none exists yet.
func (s *InMemorySummaryStore) Get(ctx context.Context, conversationID types.ID) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum, ok := s.summaries[conversationID]
	if !ok {
		return nil, nil
	}
	clone := *sum
	return &clone, nil
}

// CompareAndSet writes the summary only if the stored token still matches.
func (s *InMemorySummaryStore) CompareAndSet(ctx context.Context, sum *Summary, expectedCount int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := 0
	if existing, ok := s.summaries[sum.ConversationID]; ok {
		current = existing.MessageCountAtSummary
	}
	if current != expectedCount {
		return false, nil
	}

	clone := *sum
	s.summaries[sum.ConversationID] = &clone
	return true, nil
}
