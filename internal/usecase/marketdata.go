package usecase

import (
	"context"
	"fmt"
	"time"

	"StockPilot/internal/canonical"
	"StockPilot/internal/domain/models"
	drepo "StockPilot/internal/domain/repository"
	"StockPilot/internal/health"
	"StockPilot/internal/resolve"
	"StockPilot/pkg/cache"
	"StockPilot/pkg/logger"
)

// MarketData is the single entry point for pulled market data. Callers
// hand it a canonical code; it walks the provider order for the code's
// market, caches hot reads, and emits a fetch outcome for every walk.
type MarketData struct {
	providers map[models.ProviderID]drepo.DataProvider
	resolver  *resolve.Resolver
	recorder  *OutcomeRecorder
	cache     cache.Service // nil disables caching
	log       *logger.Logger

	quoteTTL   time.Duration
	historyTTL time.Duration
}

// NewMarketData creates the market-data facade.
func NewMarketData(
	providers map[models.ProviderID]drepo.DataProvider,
	resolver *resolve.Resolver,
	recorder *OutcomeRecorder,
	cacheSvc cache.Service,
	log *logger.Logger,
	quoteTTL, historyTTL time.Duration,
) *MarketData {
	return &MarketData{
		providers:  providers,
		resolver:   resolver,
		recorder:   recorder,
		cache:      cacheSvc,
		log:        log.With("marketdata"),
		quoteTTL:   quoteTTL,
		historyTTL: historyTTL,
	}
}

// Health returns a detached snapshot of provider health.
func (m *MarketData) Health() map[models.ProviderID]health.Record {
	return m.resolver.Health().Snapshot()
}

func (m *MarketData) provider(id models.ProviderID) (drepo.DataProvider, error) {
	p, ok := m.providers[id]
	if !ok {
		return nil, fmt.Errorf("provider %s not wired", id)
	}
	return p, nil
}

func (m *MarketData) emit(ctx context.Context, code canonical.Code, kind models.DataKind, winner models.ProviderID, attempts []models.Attempt, started time.Time) {
	m.recorder.Record(ctx, &models.FetchOutcome{
		Symbol:   code.Symbol,
		Market:   code.Market,
		Kind:     kind,
		Winner:   winner,
		Attempts: attempts,
		Started:  started,
		Elapsed:  time.Since(started).Milliseconds(),
	})
}

// History fetches daily OHLCV candles over the range.
func (m *MarketData) History(ctx context.Context, code canonical.Code, rng models.DateRange) ([]models.Candle, error) {
	if !code.Valid() {
		return nil, models.ErrNotCanonicalized
	}

	key := cache.GenerateKeyWithParams("history", code.Market, code.Symbol,
		rng.Start.Format("20060102"), rng.End.Format("20060102"))
	if m.cache != nil {
		var cached []models.Candle
		if err := m.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	started := time.Now()
	out, err := resolve.Resolve(ctx, m.resolver, code.Market, models.KindOHLCVHistory,
		func(ctx context.Context, id models.ProviderID) ([]models.Candle, error) {
			p, err := m.provider(id)
			if err != nil {
				return nil, err
			}
			return p.History(ctx, code, rng)
		})
	m.emit(ctx, code, models.KindOHLCVHistory, out.Winner, out.Attempts, started)
	if err != nil {
		return nil, err
	}

	if m.cache != nil {
		if cerr := m.cache.Set(ctx, key, out.Result, m.historyTTL); cerr != nil {
			m.log.Debug("history cache set failed", logger.Error(cerr))
		}
	}
	return out.Result, nil
}

// Quote fetches a realtime snapshot.
func (m *MarketData) Quote(ctx context.Context, code canonical.Code) (*models.Quote, error) {
	if !code.Valid() {
		return nil, models.ErrNotCanonicalized
	}

	key := cache.GenerateKeyWithParams("quote", code.Market, code.Symbol)
	if m.cache != nil {
		var cached models.Quote
		if err := m.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	started := time.Now()
	out, err := resolve.Resolve(ctx, m.resolver, code.Market, models.KindRealtimeQuote,
		func(ctx context.Context, id models.ProviderID) (*models.Quote, error) {
			p, err := m.provider(id)
			if err != nil {
				return nil, err
			}
			return p.Quote(ctx, code)
		})
	m.emit(ctx, code, models.KindRealtimeQuote, out.Winner, out.Attempts, started)
	if err != nil {
		return nil, err
	}

	out.Result.Market = code.Market
	out.Result.Source = out.Winner
	if m.cache != nil {
		if cerr := m.cache.Set(ctx, key, out.Result, m.quoteTTL); cerr != nil {
			m.log.Debug("quote cache set failed", logger.Error(cerr))
		}
	}
	return out.Result, nil
}

// Chips fetches the chip (cost-basis) distribution. A-share only by
// capability; other markets get ErrUnsupportedCombination from the walk.
func (m *MarketData) Chips(ctx context.Context, code canonical.Code) (*models.ChipDistribution, error) {
	if !code.Valid() {
		return nil, models.ErrNotCanonicalized
	}

	started := time.Now()
	out, err := resolve.Resolve(ctx, m.resolver, code.Market, models.KindChips,
		func(ctx context.Context, id models.ProviderID) (*models.ChipDistribution, error) {
			p, err := m.provider(id)
			if err != nil {
				return nil, err
			}
			return p.Chips(ctx, code)
		})
	m.emit(ctx, code, models.KindChips, out.Winner, out.Attempts, started)
	if err != nil {
		return nil, err
	}

	out.Result.Source = out.Winner
	return out.Result, nil
}

// News fetches recent headlines, at most limit items.
func (m *MarketData) News(ctx context.Context, code canonical.Code, limit int) ([]models.NewsItem, error) {
	if !code.Valid() {
		return nil, models.ErrNotCanonicalized
	}
	if limit <= 0 {
		limit = 10
	}

	started := time.Now()
	out, err := resolve.Resolve(ctx, m.resolver, code.Market, models.KindNews,
		func(ctx context.Context, id models.ProviderID) ([]models.NewsItem, error) {
			p, err := m.provider(id)
			if err != nil {
				return nil, err
			}
			return p.News(ctx, code, limit)
		})
	m.emit(ctx, code, models.KindNews, out.Winner, out.Attempts, started)
	if err != nil {
		return nil, err
	}
	return out.Result, nil
}
