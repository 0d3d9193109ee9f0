package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roundtable-ai/roundtable/internal/llm"
)

// MockCall records a request made against the mock provider
type MockCall struct {
	Request llm.CompletionRequest
}

// mockRule pairs a substring matcher with a scripted outcome. Rules are
// matched against the concatenated message contents of a request, which
// lets tests script behavior per call site even when calls run in parallel.
type mockRule struct {
	match    string
	response string
	err      error
	delay    time.Duration
}

// MockProvider implements llm.Provider for testing. Responses can be
// scripted as an ordered queue or as substring-matched rules; rules win.
type MockProvider struct {
	mu        sync.Mutex
	responses []string
	index     int
	rules     []mockRule
	calls     []MockCall
}

// NewMockProvider creates a mock provider with an ordered response queue.
// The queue wraps around when exhausted.
func NewMockProvider(responses ...string) *MockProvider {
	return &MockProvider{
		responses: responses,
	}
}

// RespondWhen scripts a response for any request whose prompt contains match.
func (p *MockProvider) RespondWhen(match, response string) *MockProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rules = append(p.rules, mockRule{match: match, response: response})
	return p
}

// FailWhen scripts an error for any request whose prompt contains match.
func (p *MockProvider) FailWhen(match string, err error) *MockProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rules = append(p.rules, mockRule{match: match, err: err})
	return p
}

// DelayWhen makes matching requests block for d before responding, or until
// the context is canceled. Used to simulate stragglers.
func (p *MockProvider) DelayWhen(match, response string, d time.Duration) *MockProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rules = append(p.rules, mockRule{match: match, response: response, delay: d})
	return p
}

// Name returns the provider name
func (p *MockProvider) Name() string {
	return "mock"
}

// Complete generates a scripted completion
func (p *MockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.calls = append(p.calls, MockCall{Request: req})

	prompt := promptText(req)
	var matched *mockRule
	for i := range p.rules {
		if strings.Contains(prompt, p.rules[i].match) {
			matched = &p.rules[i]
			break
		}
	}

	var response string
	var delay time.Duration
	switch {
	case matched != nil && matched.err != nil:
		p.mu.Unlock()
		return nil, matched.err
	case matched != nil:
		response = matched.response
		delay = matched.delay
	case len(p.responses) > 0:
		response = p.responses[p.index%len(p.responses)]
		p.index++
	default:
		p.mu.Unlock()
		return nil, llm.NewCompletionError("mock: no responses configured", fmt.Errorf("unmatched prompt"))
	}
	p.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, llm.TranslateError("mock", ctx.Err())
		case <-time.After(delay):
		}
	}

	return &llm.CompletionResponse{
		ID:    uuid.New().String(),
		Model: req.Model,
		Message: llm.Message{
			Role:    llm.RoleAssistant,
			Content: response,
		},
		FinishReason: llm.FinishReasonStop,
		Usage: llm.TokenUsage{
			PromptTokens:     len(prompt) / 4,
			CompletionTokens: len(response) / 4,
			TotalTokens:      (len(prompt) + len(response)) / 4,
		},
	}, nil
}

// Calls returns a copy of all recorded calls.
func (p *MockProvider) Calls() []MockCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	calls := make([]MockCall, len(p.calls))
	copy(calls, p.calls)
	return calls
}

// CallCount returns the number of recorded calls.
func (p *MockProvider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// CallsContaining returns recorded calls whose prompt contains match.
func (p *MockProvider) CallsContaining(match string) []MockCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []MockCall
	for _, c := range p.calls {
		if strings.Contains(promptText(c.Request), match) {
			out = append(out, c)
		}
	}
	return out
}

func promptText(req llm.CompletionRequest) string {
	var b strings.Builder
	for _, m := range req.Messages {
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}
