package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roundtable-ai/roundtable/internal/conversation"
	"github.com/roundtable-ai/roundtable/internal/llm"
	"github.com/roundtable-ai/roundtable/internal/observability"
	"github.com/roundtable-ai/roundtable/internal/types"
)

// Context is the short-term memory snapshot for one conversation: the
// rolling summary of everything older than the window, plus the retained
// recent messages oldest-to-newest.
type Context struct {
	Summary        string
	RecentMessages []*conversation.Message
}

// ShortTermManager maintains per-conversation short-term memory: a recent
// message window plus a rolling summary regenerated once enough unsummarized
// messages accumulate. Summary writes go through compare-and-set on the
// message count so concurrent triggers produce at most one write per
// threshold crossing.
type ShortTermManager struct {
	messages  conversation.MessageStore
	summaries conversation.SummaryStore
	client    *llm.Client
	config    Config
	logger    *observability.TracedLogger
}

// NewShortTermManager creates a short-term memory manager.
func NewShortTermManager(
	messages conversation.MessageStore,
	summaries conversation.SummaryStore,
	client *llm.Client,
	config Config,
	logger *observability.TracedLogger,
) *ShortTermManager {
	config.ApplyDefaults()
	if logger == nil {
		logger = observability.NewTracedLogger(nil, "", "memory")
	}
	return &ShortTermManager{
		messages:  messages,
		summaries: summaries,
		client:    client,
		config:    config,
		logger:    logger,
	}
}

// GetContext returns the stored summary (possibly empty) plus the most
// recent messages within the configured window.
func (m *ShortTermManager) GetContext(ctx context.Context, conversationID types.ID) (*Context, error) {
	summary, err := m.summaries.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	recent, err := m.messages.Recent(ctx, conversationID, m.config.RecentWindow)
	if err != nil {
		return nil, err
	}

	out := &Context{RecentMessages: recent}
	if summary != nil {
		out.Summary = summary.Text
	}
	return out, nil
}

// FormatForPrompt renders a short-term context into the configured token
// budgets: the recent window must fit its own budget and the whole block
// must fit the combined short-term budget. The summary is never truncated;
// when either budget overflows, the oldest recent messages are dropped
// first.
func (m *ShortTermManager) FormatForPrompt(c *Context) string {
	if c == nil {
		return ""
	}

	var summaryBlock string
	if c.Summary != "" {
		summaryBlock = "Conversation so far:\n" + c.Summary + "\n"
	}

	kept := c.RecentMessages
	for len(kept) > 0 {
		rendered := renderMessages(kept)
		text := joinBlocks(summaryBlock, "Recent messages:\n"+rendered)
		if EstimateTokens(rendered) <= m.config.RecentTokenBudget &&
			EstimateTokens(text) <= m.config.ShortTermTokenBudget {
			return text
		}
		kept = kept[1:]
	}

	return summaryBlock
}

func joinBlocks(a, b string) string {
	if a == "" {
		return b
	}
	return a + "\n" + b
}

func renderMessages(messages []*conversation.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		switch msg.SenderType {
		case conversation.SenderUser:
			fmt.Fprintf(&b, "User: %s\n", msg.Content)
		case conversation.SenderPersona:
			fmt.Fprintf(&b, "Advisor %s: %s\n", msg.SenderID.Short(), msg.Content)
		default:
			fmt.Fprintf(&b, "System: %s\n", msg.Content)
		}
	}
	return b.String()
}

const summarizePrompt = `You maintain a rolling summary of a project conversation.

Previous summary (may be empty):
%s

New messages since that summary:
%s

Write an updated summary that folds the new messages into the previous
summary. Keep decisions, open questions, blockers, and commitments. Stay
under roughly %d words. Respond with the summary text only.`

// UpdateSummaryIfNeeded regenerates the rolling summary when the
// unsummarized backlog exceeds the threshold. It is idempotent under
// concurrent triggers: a lost compare-and-set means another writer already
// summarized this crossing, which is not an error. Summarization failure
// leaves the prior summary untouched and returns a retryable error so
// callers can log it without blocking the user-facing turn.
func (m *ShortTermManager) UpdateSummaryIfNeeded(ctx context.Context, conversationID types.ID) error {
	count, err := m.messages.Count(ctx, conversationID)
	if err != nil {
		return err
	}

	prior, err := m.summaries.Get(ctx, conversationID)
	if err != nil {
		return err
	}

	priorCount := 0
	priorText := ""
	if prior != nil {
		priorCount = prior.MessageCountAtSummary
		priorText = prior.Text
	}

	if count-priorCount < m.config.SummaryThreshold {
		return nil
	}

	backlog, err := m.unsummarizedBacklog(ctx, conversationID, count, priorCount)
	if err != nil {
		return err
	}
	if len(backlog) == 0 {
		return nil
	}

	prompt := fmt.Sprintf(summarizePrompt,
		orPlaceholder(priorText, "(none)"),
		renderMessages(backlog),
		m.config.SummaryTokenBudget/2,
	)

	resp, err := m.client.Complete(ctx, llm.SlotFast,
		[]llm.Message{llm.NewUserMessage(prompt)},
		llm.WithMaxTokens(m.config.SummaryTokenBudget),
	)
	if err != nil {
		return &types.RoundtableError{
			Code:      llm.ErrCompletionFailed,
			Message:   "summarization failed, keeping prior summary",
			Retryable: true,
			Cause:     err,
		}
	}

	summary := &conversation.Summary{
		ConversationID:        conversationID,
		Text:                  strings.TrimSpace(resp.Message.Content),
		LastSummaryAt:         time.Now().UTC(),
		MessageCountAtSummary: count,
	}

	swapped, err := m.summaries.CompareAndSet(ctx, summary, priorCount)
	if err != nil {
		return err
	}
	if !swapped {
		m.logger.Debug(ctx, "summary already refreshed by a concurrent writer",
			"conversation_id", conversationID)
	}

	return nil
}

// unsummarizedBacklog returns the messages newer than the previous summary
// coverage but older than the retained recent window. The window itself is
// excluded so the summary always describes strictly older history.
func (m *ShortTermManager) unsummarizedBacklog(ctx context.Context, conversationID types.ID, count, priorCount int) ([]*conversation.Message, error) {
	delta := count - priorCount
	if delta <= 0 {
		return nil, nil
	}

	// Fetch the new messages plus the window behind them, then cut the
	// window off the tail.
	fetched, err := m.messages.Recent(ctx, conversationID, delta+m.config.RecentWindow)
	if err != nil {
		return nil, err
	}

	cut := len(fetched) - m.config.RecentWindow
	if cut <= 0 {
		return nil, nil
	}
	return fetched[:cut], nil
}

func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}
