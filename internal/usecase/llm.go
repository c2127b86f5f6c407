package usecase

import (
	"context"
	"fmt"
	"time"

	"StockPilot/internal/domain/models"
	drepo "StockPilot/internal/domain/repository"
	"StockPilot/internal/resolve"
	"StockPilot/pkg/logger"
)

// LLM is the entry point for model completions. It walks the model
// provider order the same way MarketData walks data providers, so one
// dead API key degrades to the next vendor instead of failing the call.
type LLM struct {
	providers map[models.ProviderID]drepo.LLMProvider
	resolver  *resolve.Resolver
	recorder  *OutcomeRecorder
	log       *logger.Logger
}

// NewLLM creates the LLM facade.
func NewLLM(
	providers map[models.ProviderID]drepo.LLMProvider,
	resolver *resolve.Resolver,
	recorder *OutcomeRecorder,
	log *logger.Logger,
) *LLM {
	return &LLM{
		providers: providers,
		resolver:  resolver,
		recorder:  recorder,
		log:       log.With("llm"),
	}
}

// Chat resolves a completion across the configured vendors. The returned
// response carries the full attempt log so callers can see which vendors
// were tried before the winner.
func (l *LLM) Chat(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	if req == nil || len(req.Messages) == 0 {
		return nil, fmt.Errorf("llm: empty request")
	}

	started := time.Now()
	out, err := resolve.Resolve(ctx, l.resolver, models.MarketAny, models.KindLLMChat,
		func(ctx context.Context, id models.ProviderID) (*models.ChatResponse, error) {
			p, ok := l.providers[id]
			if !ok {
				return nil, fmt.Errorf("provider %s not wired", id)
			}
			return p.Generate(ctx, req)
		})

	l.recorder.Record(ctx, &models.FetchOutcome{
		Symbol:   "llm",
		Market:   models.MarketAny,
		Kind:     models.KindLLMChat,
		Winner:   out.Winner,
		Attempts: out.Attempts,
		Started:  started,
		Elapsed:  time.Since(started).Milliseconds(),
	})
	if err != nil {
		return nil, err
	}

	out.Result.Provider = out.Winner
	out.Result.Attempts = out.Attempts
	return out.Result, nil
}
