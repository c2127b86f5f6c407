package models

// ChatMessage is one turn of a model-agnostic prompt payload.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

// ChatRequest is the provider-agnostic LLM call. Each adapter maps it to
// its own wire format.
type ChatRequest struct {
	Messages    []ChatMessage `json:"messages" validate:"required,min=1,dive"`
	System      string        `json:"system,omitempty"`
	Temperature float64       `json:"temperature,omitempty" default:"0.3" validate:"gte=0,lte=2"`
	MaxTokens   int           `json:"max_tokens,omitempty" default:"4096" validate:"gte=0"`
}

// ChatResponse is the normalized completion.
type ChatResponse struct {
	Text       string     `json:"text"`
	Provider   ProviderID `json:"provider"`
	Model      string     `json:"model"`
	UsedTokens int        `json:"used_tokens,omitempty"`
	Attempts   []Attempt  `json:"attempts,omitempty"`
}
