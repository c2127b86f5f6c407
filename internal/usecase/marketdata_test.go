package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"StockPilot/internal/canonical"
	"StockPilot/internal/capability"
	"StockPilot/internal/domain/models"
	drepo "StockPilot/internal/domain/repository"
	"StockPilot/internal/health"
	"StockPilot/internal/resolve"
	"StockPilot/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordAttempt(string, bool)      {}
func (nopMetrics) RecordWin(string)                {}
func (nopMetrics) RecordFallbackDepth(string, int) {}
func (nopMetrics) RecordFailureStreak(string, int) {}
func (nopMetrics) RecordLatency(string, float64)   {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordOutcomeSent(string)        {}

// capturePublisher records published outcomes in memory.
type capturePublisher struct {
	outcomes []*models.FetchOutcome
}

func (p *capturePublisher) Publish(_ context.Context, o *models.FetchOutcome) error {
	p.outcomes = append(p.outcomes, o)
	return nil
}

func (p *capturePublisher) PublishBatch(_ context.Context, outcomes []*models.FetchOutcome) error {
	p.outcomes = append(p.outcomes, outcomes...)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

// fakeProvider serves canned data or a canned error per kind.
type fakeProvider struct {
	id    models.ProviderID
	fail  bool
	quote *models.Quote
}

func (f *fakeProvider) ID() models.ProviderID { return f.id }

func (f *fakeProvider) History(context.Context, canonical.Code, models.DateRange) ([]models.Candle, error) {
	if f.fail {
		return nil, fmt.Errorf("%s down", f.id)
	}
	return []models.Candle{{Close: 10}}, nil
}

func (f *fakeProvider) Quote(context.Context, canonical.Code) (*models.Quote, error) {
	if f.fail {
		return nil, fmt.Errorf("%s down", f.id)
	}
	q := *f.quote
	return &q, nil
}

func (f *fakeProvider) Chips(context.Context, canonical.Code) (*models.ChipDistribution, error) {
	if f.fail {
		return nil, fmt.Errorf("%s down", f.id)
	}
	return &models.ChipDistribution{AvgCost: 9.5}, nil
}

func (f *fakeProvider) News(context.Context, canonical.Code, int) ([]models.NewsItem, error) {
	if f.fail {
		return nil, fmt.Errorf("%s down", f.id)
	}
	return []models.NewsItem{{Title: "headline"}}, nil
}

func newTestMarketData(t *testing.T, providers map[models.ProviderID]drepo.DataProvider, pub *capturePublisher) *MarketData {
	t.Helper()
	table, err := capability.NewDataTable(nil)
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	resolver := resolve.New(table, health.NewTracker(), nopMetrics{}, logger.Nop(), resolve.Options{})
	recorder := NewOutcomeRecorder(pub, nil, nopMetrics{}, logger.Nop(), BackendKafka)
	return NewMarketData(providers, resolver, recorder, nil, logger.Nop(), time.Second, time.Minute)
}

func mustCode(t *testing.T, raw string) canonical.Code {
	t.Helper()
	code, err := canonical.New().Canonicalize(raw)
	if err != nil {
		t.Fatalf("canonicalize %q: %v", raw, err)
	}
	return code
}

func TestQuoteRejectsNonCanonicalCode(t *testing.T) {
	md := newTestMarketData(t, nil, &capturePublisher{})

	_, err := md.Quote(context.Background(), canonical.Code{Raw: "600519", Symbol: "600519"})
	if !errors.Is(err, models.ErrNotCanonicalized) {
		t.Fatalf("error %v, want ErrNotCanonicalized", err)
	}
}

func TestQuoteStampsWinnerAndEmitsOutcome(t *testing.T) {
	pub := &capturePublisher{}
	md := newTestMarketData(t, map[models.ProviderID]drepo.DataProvider{
		models.ProviderAkShare: &fakeProvider{id: models.ProviderAkShare, fail: true},
		models.ProviderTushare: &fakeProvider{id: models.ProviderTushare, quote: &models.Quote{Symbol: "600519", Price: 1700}},
		models.ProviderPytdx:   &fakeProvider{id: models.ProviderPytdx, fail: true},
	}, pub)

	code := mustCode(t, "SH600519")
	q, err := md.Quote(context.Background(), code)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if q.Source != models.ProviderTushare {
		t.Fatalf("source %s, want tushare", q.Source)
	}
	if q.Market != models.MarketAShare {
		t.Fatalf("market %s, want a_share", q.Market)
	}

	if len(pub.outcomes) != 1 {
		t.Fatalf("outcomes %d, want 1", len(pub.outcomes))
	}
	o := pub.outcomes[0]
	if o.Winner != models.ProviderTushare || o.Kind != models.KindRealtimeQuote {
		t.Fatalf("outcome %+v", o)
	}
	if len(o.Attempts) != 2 {
		t.Fatalf("outcome attempts %d, want 2 (akshare failed, tushare won)", len(o.Attempts))
	}
}

func TestQuoteExhaustionStillEmitsOutcome(t *testing.T) {
	pub := &capturePublisher{}
	md := newTestMarketData(t, map[models.ProviderID]drepo.DataProvider{
		models.ProviderAkShare: &fakeProvider{id: models.ProviderAkShare, fail: true},
		models.ProviderTushare: &fakeProvider{id: models.ProviderTushare, fail: true},
		models.ProviderPytdx:   &fakeProvider{id: models.ProviderPytdx, fail: true},
	}, pub)

	_, err := md.Quote(context.Background(), mustCode(t, "600519"))
	var exhausted *models.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("error %v, want ExhaustedError", err)
	}

	if len(pub.outcomes) != 1 {
		t.Fatalf("exhausted walk must still be recorded")
	}
	if pub.outcomes[0].Winner != "" {
		t.Fatalf("exhausted outcome must have no winner")
	}
	if len(pub.outcomes[0].Attempts) != 3 {
		t.Fatalf("outcome attempts %d, want 3", len(pub.outcomes[0].Attempts))
	}
}

func TestUSQuoteSoleProviderExhaustion(t *testing.T) {
	pub := &capturePublisher{}
	md := newTestMarketData(t, map[models.ProviderID]drepo.DataProvider{
		models.ProviderYFinance: &fakeProvider{id: models.ProviderYFinance, fail: true},
	}, pub)

	_, err := md.Quote(context.Background(), mustCode(t, "AAPL"))
	var exhausted *models.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("error %v, want ExhaustedError", err)
	}
	if len(exhausted.Attempts) != 1 {
		t.Fatalf("attempts %d, want yfinance alone for a US quote", len(exhausted.Attempts))
	}
	if exhausted.Attempts[0].Provider != models.ProviderYFinance || exhausted.Attempts[0].OK {
		t.Fatalf("attempt %+v, want a failed yfinance try", exhausted.Attempts[0])
	}
	if len(pub.outcomes) != 1 || pub.outcomes[0].Winner != "" {
		t.Fatalf("exhausted US walk must still be recorded with no winner")
	}
}

func TestChipsUnsupportedOutsideAShare(t *testing.T) {
	md := newTestMarketData(t, map[models.ProviderID]drepo.DataProvider{
		models.ProviderYFinance: &fakeProvider{id: models.ProviderYFinance},
	}, &capturePublisher{})

	_, err := md.Chips(context.Background(), mustCode(t, "AAPL"))
	if !errors.Is(err, models.ErrUnsupportedCombination) {
		t.Fatalf("error %v, want ErrUnsupportedCombination", err)
	}
}

func TestHistoryGuardsAndFetches(t *testing.T) {
	pub := &capturePublisher{}
	md := newTestMarketData(t, map[models.ProviderID]drepo.DataProvider{
		models.ProviderYFinance: &fakeProvider{id: models.ProviderYFinance},
	}, pub)

	if _, err := md.History(context.Background(), canonical.Code{}, models.DateRange{}); !errors.Is(err, models.ErrNotCanonicalized) {
		t.Fatalf("error %v, want ErrNotCanonicalized", err)
	}

	rng := models.DateRange{Start: time.Now().AddDate(0, 0, -30), End: time.Now()}
	candles, err := md.History(context.Background(), mustCode(t, "AAPL"), rng)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(candles) != 1 {
		t.Fatalf("candles %d, want 1", len(candles))
	}
}
