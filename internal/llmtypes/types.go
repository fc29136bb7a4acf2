package llmtypes

// Message represents a chat message
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// CompletionRequest is a request for LLM completion
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	Messages     []Message
	MaxTokens    int
	Temperature  float64
	TopP         float64
	// CodeOnly asks the provider to emit raw code without prose or fences.
	// Providers implement it by swapping in a stricter system prompt.
	CodeOnly bool
}

// CompletionResponse is the response from LLM
type CompletionResponse struct {
	Content string
	Model   string
	Usage   TokenUsage
}

// TokenUsage tracks token usage
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// ModelRef identifies a concrete model on a provider
type ModelRef struct {
	Provider string // "ollama" or "openai"
	Model    string
}

// String returns the canonical provider:model form
func (r ModelRef) String() string {
	return r.Provider + ":" + r.Model
}
