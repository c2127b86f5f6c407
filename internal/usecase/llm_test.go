package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"StockPilot/internal/capability"
	"StockPilot/internal/domain/models"
	drepo "StockPilot/internal/domain/repository"
	"StockPilot/internal/health"
	"StockPilot/internal/resolve"
	"StockPilot/pkg/logger"
)

type fakeLLM struct {
	id   models.ProviderID
	fail bool
}

func (f *fakeLLM) ID() models.ProviderID { return f.id }

func (f *fakeLLM) Generate(_ context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	if f.fail {
		return nil, fmt.Errorf("%s quota exceeded", f.id)
	}
	return &models.ChatResponse{Text: "answer from " + string(f.id), Model: "test-model"}, nil
}

func newTestLLM(t *testing.T, providers map[models.ProviderID]drepo.LLMProvider, pub *capturePublisher) *LLM {
	t.Helper()
	table := capability.NewLLMTable(true)
	resolver := resolve.New(table, health.NewTracker(), nopMetrics{}, logger.Nop(), resolve.Options{})
	recorder := NewOutcomeRecorder(pub, nil, nopMetrics{}, logger.Nop(), BackendKafka)
	return NewLLM(providers, resolver, recorder, logger.Nop())
}

func chatReq() *models.ChatRequest {
	return &models.ChatRequest{
		Messages: []models.ChatMessage{{Role: "user", Content: "summarize"}},
	}
}

func TestChatFallsThroughVendors(t *testing.T) {
	pub := &capturePublisher{}
	l := newTestLLM(t, map[models.ProviderID]drepo.LLMProvider{
		models.ProviderGemini:        &fakeLLM{id: models.ProviderGemini, fail: true},
		models.ProviderAnthropic:     &fakeLLM{id: models.ProviderAnthropic, fail: true},
		models.ProviderOpenAIGateway: &fakeLLM{id: models.ProviderOpenAIGateway},
		models.ProviderOpenAIDirect:  &fakeLLM{id: models.ProviderOpenAIDirect},
	}, pub)

	resp, err := l.Chat(context.Background(), chatReq())
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if resp.Provider != models.ProviderOpenAIGateway {
		t.Fatalf("provider %s, want openai_gateway", resp.Provider)
	}
	if len(resp.Attempts) != 3 {
		t.Fatalf("attempts %d, want 3 (gemini, anthropic, gateway)", len(resp.Attempts))
	}
	if len(pub.outcomes) != 1 || pub.outcomes[0].Kind != models.KindLLMChat {
		t.Fatalf("llm walk must emit one outcome")
	}
}

func TestChatUnwiredVendorCountsAsFailure(t *testing.T) {
	// Only the direct vendor has credentials; the walk records the three
	// missing ones as failed attempts and still resolves.
	l := newTestLLM(t, map[models.ProviderID]drepo.LLMProvider{
		models.ProviderOpenAIDirect: &fakeLLM{id: models.ProviderOpenAIDirect},
	}, &capturePublisher{})

	resp, err := l.Chat(context.Background(), chatReq())
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if resp.Provider != models.ProviderOpenAIDirect {
		t.Fatalf("provider %s, want openai_direct", resp.Provider)
	}
	if len(resp.Attempts) != 4 {
		t.Fatalf("attempts %d, want 4", len(resp.Attempts))
	}
}

func TestChatExhaustion(t *testing.T) {
	l := newTestLLM(t, map[models.ProviderID]drepo.LLMProvider{
		models.ProviderGemini: &fakeLLM{id: models.ProviderGemini, fail: true},
	}, &capturePublisher{})

	_, err := l.Chat(context.Background(), chatReq())
	var exhausted *models.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("error %v, want ExhaustedError", err)
	}
	if exhausted.Kind != models.KindLLMChat {
		t.Fatalf("kind %s, want llm_chat", exhausted.Kind)
	}
}

func TestChatRejectsEmptyRequest(t *testing.T) {
	l := newTestLLM(t, nil, &capturePublisher{})
	if _, err := l.Chat(context.Background(), nil); err == nil {
		t.Fatalf("nil request must fail")
	}
	if _, err := l.Chat(context.Background(), &models.ChatRequest{}); err == nil {
		t.Fatalf("empty messages must fail")
	}
}
