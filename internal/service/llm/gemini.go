package llm

import (
	"context"
	"fmt"
	"strings"

	"StockPilot/internal/domain/models"

	"google.golang.org/genai"
)

// Gemini adapts Google Gemini to the LLMProvider interface.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates the Gemini adapter.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: init client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) ID() models.ProviderID { return models.ProviderGemini }

func (g *Gemini) Generate(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	contents, system := toGeminiContents(req)
	if len(contents) == 0 {
		return nil, fmt.Errorf("gemini: no user messages in request")
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate: %w", err)
	}

	var text strings.Builder
	if resp != nil {
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if part.Text != "" {
					text.WriteString(part.Text)
				}
			}
			if text.Len() > 0 {
				break
			}
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("gemini: empty completion")
	}

	return &models.ChatResponse{
		Text:     text.String(),
		Provider: models.ProviderGemini,
		Model:    g.model,
	}, nil
}

// toGeminiContents maps the agnostic request to Gemini contents, pulling
// the first system message (or req.System) out for SystemInstruction.
func toGeminiContents(req *models.ChatRequest) ([]*genai.Content, string) {
	system := req.System
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		if msg.Role == "system" {
			if system == "" {
				system = msg.Content
			}
			continue
		}
		role := genai.RoleUser
		if msg.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
		})
	}
	return contents, system
}
