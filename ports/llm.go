package ports

import "context"

// UsageData represents raw usage data from LLM provider APIs
type UsageData struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"model"`
	Provider         string `json:"provider"`
}

// LLMResponse carries the completion text plus the provider's usage
// accounting when the provider reports it.
type LLMResponse struct {
	Content string
	Usage   *UsageData
}

// LLMClient interface for LLM providers
type LLMClient interface {
	ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error)

	// ChatCompletionWithUsage additionally surfaces token accounting.
	ChatCompletionWithUsage(ctx context.Context, model string, prompt string, maxTokens int) (*LLMResponse, error)
}

// UsageRecorder aggregates token spend across generation calls.
type UsageRecorder interface {
	Record(operation string, usage *UsageData)
	Totals() UsageTotals
}

// UsageTotals is the aggregate view of recorded LLM usage.
type UsageTotals struct {
	Calls            int            `json:"calls"`
	PromptTokens     int            `json:"prompt_tokens"`
	CompletionTokens int            `json:"completion_tokens"`
	TotalTokens      int            `json:"total_tokens"`
	ByOperation      map[string]int `json:"by_operation,omitempty"`
}
