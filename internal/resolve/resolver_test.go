package resolve

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"StockPilot/internal/capability"
	"StockPilot/internal/domain/models"
	"StockPilot/internal/health"
	"StockPilot/pkg/logger"
)

// nopMetrics satisfies repository.Metrics without touching the global
// Prometheus registry.
type nopMetrics struct{}

func (nopMetrics) RecordAttempt(string, bool)      {}
func (nopMetrics) RecordWin(string)                {}
func (nopMetrics) RecordFallbackDepth(string, int) {}
func (nopMetrics) RecordFailureStreak(string, int) {}
func (nopMetrics) RecordLatency(string, float64)   {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordOutcomeSent(string)        {}

func newTestResolver(t *testing.T, tracker *health.Tracker, opts Options) *Resolver {
	t.Helper()
	table, err := capability.NewDataTable(nil)
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	return New(table, tracker, nopMetrics{}, logger.Nop(), opts)
}

func TestResolveFirstProviderWins(t *testing.T) {
	r := newTestResolver(t, health.NewTracker(), Options{})

	out, err := Resolve(context.Background(), r, models.MarketAShare, models.KindRealtimeQuote,
		func(ctx context.Context, id models.ProviderID) (string, error) {
			return "quote-" + string(id), nil
		})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if out.Winner != models.ProviderAkShare {
		t.Fatalf("winner %s, want akshare", out.Winner)
	}
	if len(out.Attempts) != 1 || !out.Attempts[0].OK {
		t.Fatalf("attempts %v, want single success", out.Attempts)
	}
	if out.Result != "quote-akshare" {
		t.Fatalf("result %q", out.Result)
	}
}

func TestResolveFallsBackInOrder(t *testing.T) {
	tracker := health.NewTracker()
	r := newTestResolver(t, tracker, Options{})

	var tried []models.ProviderID
	out, err := Resolve(context.Background(), r, models.MarketAShare, models.KindRealtimeQuote,
		func(ctx context.Context, id models.ProviderID) (int, error) {
			tried = append(tried, id)
			if id != models.ProviderTushare {
				return 0, fmt.Errorf("down")
			}
			return 42, nil
		})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if out.Winner != models.ProviderTushare {
		t.Fatalf("winner %s, want tushare", out.Winner)
	}
	if len(out.Attempts) != 2 {
		t.Fatalf("attempts %d, want 2", len(out.Attempts))
	}
	if out.Attempts[0].OK || out.Attempts[0].Provider != models.ProviderAkShare {
		t.Fatalf("first attempt should be a failed akshare try, got %+v", out.Attempts[0])
	}
	if tried[0] != models.ProviderAkShare || tried[1] != models.ProviderTushare {
		t.Fatalf("tried order %v", tried)
	}
	if tracker.Failures(models.ProviderAkShare) != 1 {
		t.Fatalf("akshare failure not recorded")
	}
	if tracker.Failures(models.ProviderTushare) != 0 {
		t.Fatalf("tushare should have no failures")
	}
}

func TestResolveExhaustion(t *testing.T) {
	r := newTestResolver(t, health.NewTracker(), Options{})

	_, err := Resolve(context.Background(), r, models.MarketAShare, models.KindRealtimeQuote,
		func(ctx context.Context, id models.ProviderID) (string, error) {
			return "", fmt.Errorf("%s down", id)
		})
	var exhausted *models.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("error %v, want ExhaustedError", err)
	}
	if len(exhausted.Attempts) != 3 {
		t.Fatalf("attempts %d, want one per a_share quote provider", len(exhausted.Attempts))
	}
	for _, a := range exhausted.Attempts {
		if a.OK || a.Error == "" {
			t.Fatalf("attempt %+v should carry its failure", a)
		}
	}
}

func TestResolveUnsupportedCombination(t *testing.T) {
	r := newTestResolver(t, health.NewTracker(), Options{})

	_, err := Resolve(context.Background(), r, models.MarketUS, models.KindChips,
		func(ctx context.Context, id models.ProviderID) (string, error) {
			t.Fatalf("attempt fn must not run")
			return "", nil
		})
	if !errors.Is(err, models.ErrUnsupportedCombination) {
		t.Fatalf("error %v, want ErrUnsupportedCombination", err)
	}
}

func TestResolveDemotesColdProviders(t *testing.T) {
	tracker := health.NewTracker()
	r := newTestResolver(t, tracker, Options{SkipThreshold: 3})

	// Push akshare to the threshold.
	for i := 0; i < 3; i++ {
		tracker.RecordFailure(models.ProviderAkShare)
	}

	var tried []models.ProviderID
	out, err := Resolve(context.Background(), r, models.MarketAShare, models.KindRealtimeQuote,
		func(ctx context.Context, id models.ProviderID) (string, error) {
			tried = append(tried, id)
			return "ok", nil
		})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if out.Winner != models.ProviderTushare {
		t.Fatalf("winner %s, want tushare ahead of cold akshare", out.Winner)
	}
	if tried[0] != models.ProviderTushare {
		t.Fatalf("cold provider not demoted, order %v", tried)
	}
}

func TestResolveColdProviderStillReachable(t *testing.T) {
	tracker := health.NewTracker()
	r := newTestResolver(t, tracker, Options{SkipThreshold: 3})

	for i := 0; i < 5; i++ {
		tracker.RecordFailure(models.ProviderAkShare)
	}

	// Everyone else fails; the cold provider must still get its turn.
	out, err := Resolve(context.Background(), r, models.MarketAShare, models.KindRealtimeQuote,
		func(ctx context.Context, id models.ProviderID) (string, error) {
			if id == models.ProviderAkShare {
				return "recovered", nil
			}
			return "", fmt.Errorf("down")
		})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if out.Winner != models.ProviderAkShare {
		t.Fatalf("winner %s, want demoted akshare as last resort", out.Winner)
	}
	if len(out.Attempts) != 3 {
		t.Fatalf("attempts %d, want full walk", len(out.Attempts))
	}
	if tracker.Failures(models.ProviderAkShare) != 0 {
		t.Fatalf("success on cold provider must reset its streak")
	}
}

func TestResolveStopsOnCancel(t *testing.T) {
	r := newTestResolver(t, health.NewTracker(), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Resolve(ctx, r, models.MarketAShare, models.KindRealtimeQuote,
		func(ctx context.Context, id models.ProviderID) (string, error) {
			calls++
			cancel()
			return "", fmt.Errorf("down")
		})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("calls %d, walk must stop after cancellation", calls)
	}
}

func TestResolveCancelledAttemptNotCharged(t *testing.T) {
	tracker := health.NewTracker()
	r := newTestResolver(t, tracker, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Resolve(ctx, r, models.MarketAShare, models.KindRealtimeQuote,
		func(ctx context.Context, id models.ProviderID) (string, error) {
			calls++
			cancel()
			<-ctx.Done()
			return "", ctx.Err()
		})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("calls %d, walk must stop after cancellation", calls)
	}
	if tracker.Failures(models.ProviderAkShare) != 0 {
		t.Fatalf("caller cancellation must not count against the provider's streak")
	}
}

func TestResolveAttemptTimeout(t *testing.T) {
	r := newTestResolver(t, health.NewTracker(), Options{
		DefaultTimeout: 10 * time.Millisecond,
	})

	out, err := Resolve(context.Background(), r, models.MarketAShare, models.KindRealtimeQuote,
		func(ctx context.Context, id models.ProviderID) (string, error) {
			if id == models.ProviderAkShare {
				<-ctx.Done()
				return "", ctx.Err()
			}
			return "fast", nil
		})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if out.Winner != models.ProviderTushare {
		t.Fatalf("winner %s, want tushare after akshare timeout", out.Winner)
	}
}

func TestResolveLLMWalk(t *testing.T) {
	table := capability.NewLLMTable(true)
	r := New(table, health.NewTracker(), nopMetrics{}, logger.Nop(), Options{})

	out, err := Resolve(context.Background(), r, models.MarketAny, models.KindLLMChat,
		func(ctx context.Context, id models.ProviderID) (string, error) {
			switch id {
			case models.ProviderGemini, models.ProviderAnthropic:
				return "", fmt.Errorf("quota exceeded")
			default:
				return "completion", nil
			}
		})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if out.Winner != models.ProviderOpenAIGateway {
		t.Fatalf("winner %s, want openai_gateway", out.Winner)
	}
	if len(out.Attempts) != 3 {
		t.Fatalf("attempts %d, want 3", len(out.Attempts))
	}
}
