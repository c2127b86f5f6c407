package repository

import (
	"context"

	"StockPilot/internal/canonical"
	"StockPilot/internal/domain/models"
)

// DataProvider is one market-data backend adapter. Adapters return
// models.ErrUnsupportedKind for kinds they do not serve; the capability
// table should make that unreachable.
type DataProvider interface {
	ID() models.ProviderID
	History(ctx context.Context, code canonical.Code, rng models.DateRange) ([]models.Candle, error)
	Quote(ctx context.Context, code canonical.Code) (*models.Quote, error)
	Chips(ctx context.Context, code canonical.Code) (*models.ChipDistribution, error)
	News(ctx context.Context, code canonical.Code, limit int) ([]models.NewsItem, error)
}

// LLMProvider is one LLM backend adapter.
type LLMProvider interface {
	ID() models.ProviderID
	Generate(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error)
}

// QuoteStream is a push source of realtime quotes.
type QuoteStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Quote, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher ships fetch outcomes to a message bus.
type Publisher interface {
	Publish(ctx context.Context, o *models.FetchOutcome) error
	PublishBatch(ctx context.Context, outcomes []*models.FetchOutcome) error
	Close() error
}

// Storage persists fetch outcomes for offline audit.
type Storage interface {
	Store(ctx context.Context, o *models.FetchOutcome) error
	StoreBatch(ctx context.Context, outcomes []*models.FetchOutcome) error
	Health(ctx context.Context) error
	Close() error
}

// Metrics records resolver and pipeline instrumentation.
type Metrics interface {
	RecordAttempt(provider string, ok bool)
	RecordWin(provider string)
	RecordFallbackDepth(kind string, depth int)
	RecordFailureStreak(provider string, streak int)
	RecordLatency(op string, seconds float64)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordOutcomeSent(backend string)
}
