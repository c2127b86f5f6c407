package llm

import (
	"context"
	"fmt"
	"strings"

	"StockPilot/internal/domain/models"
	xhttp "StockPilot/pkg/http"
)

// OpenAICompat adapts any OpenAI-compatible chat endpoint. It is
// instantiated twice: once against the alternate gateway and once
// against the direct endpoint, each under its own ProviderID.
type OpenAICompat struct {
	id      models.ProviderID
	baseURL string
	apiKey  string
	model   string
	http    *xhttp.Client
}

// NewOpenAICompat creates an adapter for one OpenAI-compatible tier.
func NewOpenAICompat(id models.ProviderID, baseURL, apiKey, model string, client *xhttp.Client) (*OpenAICompat, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%s: base url is required", id)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%s: api key is required", id)
	}
	return &OpenAICompat{
		id:      id,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    client,
	}, nil
}

func (o *OpenAICompat) ID() models.ProviderID { return o.id }

type oaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaRequest struct {
	Model       string      `json:"model"`
	Messages    []oaMessage `json:"messages"`
	Temperature float64     `json:"temperature,omitempty"`
	MaxTokens   int         `json:"max_tokens,omitempty"`
}

type oaResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (o *OpenAICompat) Generate(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	body := oaRequest{
		Model:       o.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.System != "" {
		body.Messages = append(body.Messages, oaMessage{Role: "system", Content: req.System})
	}
	for _, msg := range req.Messages {
		body.Messages = append(body.Messages, oaMessage{Role: msg.Role, Content: msg.Content})
	}

	var out oaResponse
	err := o.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    o.baseURL + "/chat/completions",
		Headers: map[string]string{
			"Authorization": "Bearer " + o.apiKey,
			"Content-Type":  "application/json",
		},
		Body: body,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("%s: chat completion: %w", o.id, err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("%s: api error: %s", o.id, out.Error.Message)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("%s: empty completion", o.id)
	}

	return &models.ChatResponse{
		Text:       out.Choices[0].Message.Content,
		Provider:   o.id,
		Model:      o.model,
		UsedTokens: out.Usage.TotalTokens,
	}, nil
}
