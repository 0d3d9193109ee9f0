package prompt

import "github.com/roundtable-ai/roundtable/internal/llm"

// Segment is one ordered instruction block of a composed prompt. Keeping
// blocks as discrete segments rather than one concatenated string makes each
// block independently testable and makes reordering a deliberate code
// change.
type Segment struct {
	Role    llm.Role
	Content string
}

// ToMessages converts ordered segments into the completion message list.
func ToMessages(segments []Segment) []llm.Message {
	out := make([]llm.Message, 0, len(segments))
	for _, s := range segments {
		out = append(out, llm.Message{Role: s.Role, Content: s.Content})
	}
	return out
}
