package capability

import (
	"fmt"
	"strings"

	"StockPilot/internal/domain/models"
)

// Key identifies one capability entry.
type Key struct {
	Market models.Market
	Kind   models.DataKind
}

// Table maps (market, kind) to an ordered provider list. Built once at
// startup from config, immutable afterwards; any change requires a
// process restart.
type Table struct {
	entries map[Key][]models.ProviderID
}

// US history and quotes are served by yfinance alone so every caller sees
// the same adjusted prices. Overrides touching these keys are rejected.
var pinnedKeys = map[Key][]models.ProviderID{
	{models.MarketUS, models.KindOHLCVHistory}:  {models.ProviderYFinance},
	{models.MarketUS, models.KindRealtimeQuote}: {models.ProviderYFinance},
}

func defaultDataEntries() map[Key][]models.ProviderID {
	return map[Key][]models.ProviderID{
		{models.MarketAShare, models.KindOHLCVHistory}:  {models.ProviderAkShare, models.ProviderTushare, models.ProviderBaostock, models.ProviderPytdx},
		{models.MarketAShare, models.KindRealtimeQuote}: {models.ProviderAkShare, models.ProviderTushare, models.ProviderPytdx},
		{models.MarketAShare, models.KindChips}:         {models.ProviderAkShare},
		{models.MarketAShare, models.KindNews}:          {models.ProviderAkShare, models.ProviderTushare},

		{models.MarketHK, models.KindOHLCVHistory}:  {models.ProviderAkShare, models.ProviderYFinance},
		{models.MarketHK, models.KindRealtimeQuote}: {models.ProviderAkShare, models.ProviderYFinance},
		{models.MarketHK, models.KindNews}:          {models.ProviderAkShare, models.ProviderYFinance},

		{models.MarketUS, models.KindOHLCVHistory}:  {models.ProviderYFinance},
		{models.MarketUS, models.KindRealtimeQuote}: {models.ProviderYFinance},
		{models.MarketUS, models.KindNews}:          {models.ProviderYFinance, models.ProviderAkShare},
	}
}

// NewDataTable builds the market-data capability table. Overrides are
// keyed "market.kind" (e.g. "a_share.ohlcv_history") and replace the
// default order for that entry.
func NewDataTable(overrides map[string][]string) (*Table, error) {
	entries := defaultDataEntries()
	for rawKey, rawProviders := range overrides {
		key, err := parseKey(rawKey)
		if err != nil {
			return nil, err
		}
		if _, pinned := pinnedKeys[key]; pinned {
			return nil, fmt.Errorf("capability override %q: US %s is pinned to yfinance", rawKey, key.Kind)
		}
		if _, exists := entries[key]; !exists {
			return nil, fmt.Errorf("capability override %q: no such entry", rawKey)
		}
		ordered, err := parseProviders(rawProviders, models.DataProviders)
		if err != nil {
			return nil, fmt.Errorf("capability override %q: %w", rawKey, err)
		}
		entries[key] = ordered
	}
	return &Table{entries: entries}, nil
}

// NewLLMTable builds the LLM-call capability table. The OpenAI-compatible
// tier is two entries whose relative order follows preferGateway, so the
// resolver needs no special casing.
func NewLLMTable(preferGateway bool) *Table {
	order := []models.ProviderID{
		models.ProviderGemini,
		models.ProviderAnthropic,
		models.ProviderOpenAIGateway,
		models.ProviderOpenAIDirect,
	}
	if !preferGateway {
		order[2], order[3] = order[3], order[2]
	}
	return &Table{entries: map[Key][]models.ProviderID{
		{models.MarketAny, models.KindLLMChat}: order,
	}}
}

// Lookup returns a copy of the ordered provider list for (market, kind),
// or ErrUnsupportedCombination when no entry exists.
func (t *Table) Lookup(market models.Market, kind models.DataKind) ([]models.ProviderID, error) {
	ordered, ok := t.entries[Key{market, kind}]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", models.ErrUnsupportedCombination, market, kind)
	}
	out := make([]models.ProviderID, len(ordered))
	copy(out, ordered)
	return out, nil
}

// Keys returns every (market, kind) combination the table serves.
func (t *Table) Keys() []Key {
	keys := make([]Key, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	return keys
}

func parseKey(raw string) (Key, error) {
	market, kind, found := strings.Cut(raw, ".")
	if !found {
		return Key{}, fmt.Errorf("capability key %q: want market.kind", raw)
	}
	return Key{models.Market(market), models.DataKind(kind)}, nil
}

func parseProviders(raw []string, allowed []models.ProviderID) ([]models.ProviderID, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("provider list is empty")
	}
	out := make([]models.ProviderID, 0, len(raw))
	for _, name := range raw {
		id := models.ProviderID(strings.ToLower(strings.TrimSpace(name)))
		known := false
		for _, a := range allowed {
			if id == a {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unknown provider %q", name)
		}
		out = append(out, id)
	}
	return out, nil
}
