package capability

import (
	"errors"
	"testing"

	"StockPilot/internal/domain/models"
)

func TestDataTableDefaults(t *testing.T) {
	table, err := NewDataTable(nil)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	ordered, err := table.Lookup(models.MarketAShare, models.KindOHLCVHistory)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	want := []models.ProviderID{models.ProviderAkShare, models.ProviderTushare, models.ProviderBaostock, models.ProviderPytdx}
	if len(ordered) != len(want) {
		t.Fatalf("got %v, want %v", ordered, want)
	}
	for i := range want {
		if ordered[i] != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, ordered[i], want[i])
		}
	}
}

func TestDataTableUnsupportedCombination(t *testing.T) {
	table, _ := NewDataTable(nil)
	_, err := table.Lookup(models.MarketUS, models.KindChips)
	if !errors.Is(err, models.ErrUnsupportedCombination) {
		t.Fatalf("error %v, want ErrUnsupportedCombination", err)
	}
	_, err = table.Lookup(models.MarketHK, models.KindChips)
	if !errors.Is(err, models.ErrUnsupportedCombination) {
		t.Fatalf("error %v, want ErrUnsupportedCombination", err)
	}
}

func TestDataTableUSPinnedToYFinance(t *testing.T) {
	table, _ := NewDataTable(nil)
	for _, kind := range []models.DataKind{models.KindOHLCVHistory, models.KindRealtimeQuote} {
		ordered, err := table.Lookup(models.MarketUS, kind)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", kind, err)
		}
		if len(ordered) != 1 || ordered[0] != models.ProviderYFinance {
			t.Fatalf("%s: got %v, want [yfinance]", kind, ordered)
		}
	}

	_, err := NewDataTable(map[string][]string{
		"us.ohlcv_history": {"akshare", "yfinance"},
	})
	if err == nil {
		t.Fatalf("expected pinned-entry override to be rejected")
	}
}

func TestDataTableOverrides(t *testing.T) {
	table, err := NewDataTable(map[string][]string{
		"a_share.ohlcv_history": {"tushare", "akshare"},
	})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	ordered, _ := table.Lookup(models.MarketAShare, models.KindOHLCVHistory)
	if len(ordered) != 2 || ordered[0] != models.ProviderTushare || ordered[1] != models.ProviderAkShare {
		t.Fatalf("override not applied, got %v", ordered)
	}

	if _, err := NewDataTable(map[string][]string{"a_share.ohlcv_history": {"nonsense"}}); err == nil {
		t.Fatalf("expected unknown provider to be rejected")
	}
	if _, err := NewDataTable(map[string][]string{"mars.ohlcv_history": {"akshare"}}); err == nil {
		t.Fatalf("expected unknown entry to be rejected")
	}
	if _, err := NewDataTable(map[string][]string{"a_share.ohlcv_history": {}}); err == nil {
		t.Fatalf("expected empty provider list to be rejected")
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	table, _ := NewDataTable(nil)
	first, _ := table.Lookup(models.MarketAShare, models.KindOHLCVHistory)
	first[0] = models.ProviderPytdx
	second, _ := table.Lookup(models.MarketAShare, models.KindOHLCVHistory)
	if second[0] != models.ProviderAkShare {
		t.Fatalf("table mutated through Lookup result")
	}
}

func TestLLMTableGatewayOrder(t *testing.T) {
	gw := NewLLMTable(true)
	ordered, err := gw.Lookup(models.MarketAny, models.KindLLMChat)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	want := []models.ProviderID{models.ProviderGemini, models.ProviderAnthropic, models.ProviderOpenAIGateway, models.ProviderOpenAIDirect}
	for i := range want {
		if ordered[i] != want[i] {
			t.Fatalf("prefer_gateway: position %d got %s, want %s", i, ordered[i], want[i])
		}
	}

	direct := NewLLMTable(false)
	ordered, _ = direct.Lookup(models.MarketAny, models.KindLLMChat)
	if ordered[2] != models.ProviderOpenAIDirect || ordered[3] != models.ProviderOpenAIGateway {
		t.Fatalf("direct-first: got %v", ordered)
	}
}
