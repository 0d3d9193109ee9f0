package llm

// CompletionOption is a functional option for configuring completion requests.
type CompletionOption func(*CompletionRequest)

// WithTemperature sets the temperature for the completion request.
// Temperature controls randomness in the output (0.0 - 1.0).
func WithTemperature(temperature float64) CompletionOption {
	return func(req *CompletionRequest) {
		req.Temperature = temperature
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(maxTokens int) CompletionOption {
	return func(req *CompletionRequest) {
		req.MaxTokens = maxTokens
	}
}

// WithModel overrides the model for the completion request.
func WithModel(model string) CompletionOption {
	return func(req *CompletionRequest) {
		req.Model = model
	}
}

// WithStopSequences sets sequences that will stop generation when encountered.
func WithStopSequences(sequences ...string) CompletionOption {
	return func(req *CompletionRequest) {
		req.StopSequences = sequences
	}
}

// ApplyOptions applies a list of options to a completion request.
func ApplyOptions(req *CompletionRequest, opts ...CompletionOption) {
	for _, opt := range opts {
		opt(req)
	}
}

// NewCompletionRequest creates a new completion request with the given model
// and messages. Additional options can be applied using the functional
// options pattern.
func NewCompletionRequest(model string, messages []Message, opts ...CompletionOption) CompletionRequest {
	req := CompletionRequest{
		Model:    model,
		Messages: messages,
	}

	ApplyOptions(&req, opts...)
	return req
}
