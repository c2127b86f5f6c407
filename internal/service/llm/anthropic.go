package llm

import (
	"context"
	"fmt"
	"strings"

	"StockPilot/internal/domain/models"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Anthropic adapts Claude to the LLMProvider interface.
type Anthropic struct {
	client anthropic.Client
	model  string
}

// NewAnthropic creates the Claude adapter.
func NewAnthropic(apiKey, model string) (*Anthropic, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: api key is required")
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Anthropic{client: client, model: model}, nil
}

func (a *Anthropic) ID() models.ProviderID { return models.ProviderAnthropic }

func (a *Anthropic) Generate(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	msgs, system := toClaudeMessages(req)
	if len(msgs) == 0 {
		return nil, fmt.Errorf("anthropic: no user messages in request")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(maxTokens),
		Messages:  msgs,
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic: messages.new: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("anthropic: empty completion")
	}

	return &models.ChatResponse{
		Text:       text.String(),
		Provider:   models.ProviderAnthropic,
		Model:      a.model,
		UsedTokens: int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	}, nil
}

func toClaudeMessages(req *models.ChatRequest) ([]anthropic.MessageParam, string) {
	system := req.System
	msgs := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			if system == "" {
				system = msg.Content
			}
		case "assistant":
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return msgs, system
}
