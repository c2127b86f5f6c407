//go:build wireinject
// +build wireinject

package di

import (
	"StockPilot/pkg/config"
	"StockPilot/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Core resolution pieces
		ProvideCanonicalizer,
		ProvideHealthTracker,
		ProvideHTTPClient,
		ProvideRateLimiter,

		// Provider adapters
		ProvideDataProviders,
		ProvideLLMProviders,

		// Outcome sink
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideOutcomeStorage,
		ProvideOutcomePublisher,
		ProvideOutcomeRecorder,

		// Facades
		ProvideCache,
		ProvideMarketData,
		ProvideLLM,
		ProvideReport,

		// Stream side
		ProvideQuoteStream,
		ProvideQuoteCollector,

		// HTTP surface and app
		ProvideMarketHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
