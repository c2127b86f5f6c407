package models

// Market tags a canonical stock code with its exchange universe.
type Market string

const (
	MarketAShare Market = "a_share"
	MarketHK     Market = "hk"
	MarketUS     Market = "us"

	// MarketAny keys capability entries that are not bound to an exchange,
	// such as the LLM call path.
	MarketAny Market = "any"
)

// DataKind identifies what is being fetched through a resolution walk.
type DataKind string

const (
	KindOHLCVHistory  DataKind = "ohlcv_history"
	KindRealtimeQuote DataKind = "realtime_quote"
	KindChips         DataKind = "chips"
	KindNews          DataKind = "news"

	// KindLLMChat routes chat completions through the same capability
	// machinery as market data.
	KindLLMChat DataKind = "llm_chat"
)

// ProviderID enumerates every backend the resolver can walk. The set is
// closed: dispatch happens through explicit maps keyed by these values,
// not runtime registration.
type ProviderID string

const (
	ProviderAkShare  ProviderID = "akshare"
	ProviderTushare  ProviderID = "tushare"
	ProviderBaostock ProviderID = "baostock"
	ProviderYFinance ProviderID = "yfinance"
	ProviderPytdx    ProviderID = "pytdx"

	ProviderGemini    ProviderID = "gemini"
	ProviderAnthropic ProviderID = "anthropic"
	// The OpenAI-compatible tier is two entries so the gateway-vs-direct
	// preference is plain capability ordering, not resolver logic.
	ProviderOpenAIGateway ProviderID = "openai_gateway"
	ProviderOpenAIDirect  ProviderID = "openai_direct"
)

// DataProviders lists the market-data backends in their default global order.
var DataProviders = []ProviderID{
	ProviderAkShare,
	ProviderTushare,
	ProviderBaostock,
	ProviderYFinance,
	ProviderPytdx,
}

// LLMProviders lists the LLM backends in their default order.
var LLMProviders = []ProviderID{
	ProviderGemini,
	ProviderAnthropic,
	ProviderOpenAIGateway,
	ProviderOpenAIDirect,
}
