package providers

import (
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/roundtable-ai/roundtable/internal/llm"
)

// toLangchainMessages converts core messages to langchaingo MessageContent
func toLangchainMessages(messages []llm.Message) []llms.MessageContent {
	result := make([]llms.MessageContent, 0, len(messages))

	for _, msg := range messages {
		role := schema.ChatMessageTypeHuman
		switch msg.Role {
		case llm.RoleSystem:
			role = schema.ChatMessageTypeSystem
		case llm.RoleAssistant:
			role = schema.ChatMessageTypeAI
		case llm.RoleUser:
			role = schema.ChatMessageTypeHuman
		}

		result = append(result, llms.MessageContent{
			Role: role,
			Parts: []llms.ContentPart{
				llms.TextPart(msg.Content),
			},
		})
	}

	return result
}

// fromLangchainResponse converts a langchaingo response to a core response
func fromLangchainResponse(resp *llms.ContentResponse, model string) *llm.CompletionResponse {
	if resp == nil {
		return &llm.CompletionResponse{
			ID:    uuid.New().String(),
			Model: model,
		}
	}

	var content string
	finishReason := llm.FinishReasonStop
	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		content = choice.Content

		switch choice.StopReason {
		case "length", "max_tokens":
			finishReason = llm.FinishReasonLength
		case "content_filter":
			finishReason = llm.FinishReasonContentFilter
		default:
			finishReason = llm.FinishReasonStop
		}
	}

	return &llm.CompletionResponse{
		ID:    uuid.New().String(),
		Model: model,
		Message: llm.Message{
			Role:    llm.RoleAssistant,
			Content: content,
		},
		FinishReason: finishReason,
	}
}

// buildCallOptions converts a core request to langchaingo call options
func buildCallOptions(req llm.CompletionRequest) []llms.CallOption {
	callOpts := make([]llms.CallOption, 0)

	if req.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(req.Temperature))
	}

	if req.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(req.MaxTokens))
	}

	if len(req.StopSequences) > 0 {
		callOpts = append(callOpts, llms.WithStopWords(req.StopSequences))
	}

	if req.Model != "" {
		callOpts = append(callOpts, llms.WithModel(req.Model))
	}

	return callOpts
}
