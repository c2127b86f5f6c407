package di

import (
	"context"
	"fmt"
	"time"

	"StockPilot/internal/canonical"
	"StockPilot/internal/capability"
	"StockPilot/internal/domain/models"
	"StockPilot/internal/domain/repository"
	"StockPilot/internal/handler/api"
	"StockPilot/internal/health"
	internalrepo "StockPilot/internal/repository"
	"StockPilot/internal/resolve"
	"StockPilot/internal/service/akshare"
	"StockPilot/internal/service/baostock"
	"StockPilot/internal/service/llm"
	"StockPilot/internal/service/pytdx"
	"StockPilot/internal/service/quotestream"
	"StockPilot/internal/service/ratelimit"
	"StockPilot/internal/service/tushare"
	"StockPilot/internal/service/yfinance"
	"StockPilot/internal/usecase"
	"StockPilot/pkg/cache"
	pkgch "StockPilot/pkg/clickhouse"
	"StockPilot/pkg/config"
	xhttp "StockPilot/pkg/http"
	pkgkafka "StockPilot/pkg/kafka"
	"StockPilot/pkg/logger"
	"StockPilot/pkg/metrics"
	"StockPilot/pkg/server"
)

// ProvideLogger creates the process logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCanonicalizer creates the code canonicalizer, with configured
// exchange tokens when present.
func ProvideCanonicalizer(cfg *config.Config) *canonical.Canonicalizer {
	if len(cfg.Canonical.Prefixes) > 0 || len(cfg.Canonical.Suffixes) > 0 {
		return canonical.NewWithTokens(cfg.Canonical.Prefixes, cfg.Canonical.Suffixes)
	}
	return canonical.New()
}

// ProvideHealthTracker creates the shared provider health tracker. Both
// resolvers use the same instance so the data path and the LLM path see
// one view of provider state.
func ProvideHealthTracker() *health.Tracker {
	return health.NewTracker()
}

// ProvideHTTPClient creates the outbound HTTP client shared by the
// pull adapters.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(xhttp.WithTimeout(cfg.Resolver.DefaultTimeout))
}

// ProvideRateLimiter creates the per-provider outbound throttle.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Providers.RatePerSec)
}

// ProvideDataProviders wires every configured market-data adapter.
func ProvideDataProviders(cfg *config.Config, client *xhttp.Client, limiter *ratelimit.Limiter) map[models.ProviderID]repository.DataProvider {
	return map[models.ProviderID]repository.DataProvider{
		models.ProviderAkShare:  akshare.New(cfg.Providers.AkShare.BaseURL, client, limiter),
		models.ProviderTushare:  tushare.New(cfg.Providers.Tushare.BaseURL, cfg.Providers.Tushare.Token, client, limiter),
		models.ProviderBaostock: baostock.New(cfg.Providers.Baostock.BaseURL, client, limiter),
		models.ProviderYFinance: yfinance.New(cfg.Providers.YFinance.BaseURL, client, limiter),
		models.ProviderPytdx:    pytdx.New(cfg.Providers.Pytdx.BaseURL, client, limiter),
	}
}

// ProvideLLMProviders wires every LLM adapter that has credentials.
// Vendors without an API key are left out of the map; the resolver walk
// records their absence as a failed attempt and moves on.
func ProvideLLMProviders(cfg *config.Config, client *xhttp.Client) (map[models.ProviderID]repository.LLMProvider, error) {
	out := make(map[models.ProviderID]repository.LLMProvider)

	if cfg.LLM.Gemini.APIKey != "" {
		g, err := llm.NewGemini(context.Background(), cfg.LLM.Gemini.APIKey, cfg.LLM.Gemini.Model)
		if err != nil {
			return nil, fmt.Errorf("gemini provider: %w", err)
		}
		out[models.ProviderGemini] = g
	}
	if cfg.LLM.Anthropic.APIKey != "" {
		a, err := llm.NewAnthropic(cfg.LLM.Anthropic.APIKey, cfg.LLM.Anthropic.Model)
		if err != nil {
			return nil, fmt.Errorf("anthropic provider: %w", err)
		}
		out[models.ProviderAnthropic] = a
	}
	if gw := cfg.LLM.OpenAI.Gateway; gw.APIKey != "" && gw.BaseURL != "" {
		o, err := llm.NewOpenAICompat(models.ProviderOpenAIGateway, gw.BaseURL, gw.APIKey, gw.Model, client)
		if err != nil {
			return nil, fmt.Errorf("openai gateway provider: %w", err)
		}
		out[models.ProviderOpenAIGateway] = o
	}
	if d := cfg.LLM.OpenAI.Direct; d.APIKey != "" {
		o, err := llm.NewOpenAICompat(models.ProviderOpenAIDirect, d.BaseURL, d.APIKey, d.Model, client)
		if err != nil {
			return nil, fmt.Errorf("openai direct provider: %w", err)
		}
		out[models.ProviderOpenAIDirect] = o
	}
	return out, nil
}

// ProvideCache creates the quote/history cache, or nil when disabled.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	redisCache, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Cache.Redis.Host),
		cache.WithRedisPort(cfg.Cache.Redis.Port),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(redisCache), nil
}

// ProvideClickHouseClient creates a ClickHouse client when the outcome
// sink targets it; otherwise nil.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Backend.Type != usecase.BackendClickHouse {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		"CREATE TABLE IF NOT EXISTS " + db + ".fetch_outcomes (" +
			"ts DateTime, symbol String, market String, kind String, winner String, " +
			"attempt_count UInt8, attempts String, elapsed_ms Int64" +
			") ENGINE=MergeTree ORDER BY (symbol, ts)",
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer when the outcome sink
// targets it; otherwise nil.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Backend.Type != usecase.BackendKafka {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideOutcomeStorage creates ClickHouse outcome storage, or nil.
func ProvideOutcomeStorage(chClient *pkgch.Client, cfg *config.Config) repository.Storage {
	if chClient == nil {
		return nil
	}
	return internalrepo.NewClickHouseStorage(chClient.DB(), cfg.ClickHouse.Database+".fetch_outcomes")
}

// ProvideOutcomePublisher creates the Kafka outcome publisher, or nil.
func ProvideOutcomePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideOutcomeRecorder creates the outcome sink router.
func ProvideOutcomeRecorder(
	pub repository.Publisher,
	store repository.Storage,
	m repository.Metrics,
	log *logger.Logger,
	cfg *config.Config,
) *usecase.OutcomeRecorder {
	return usecase.NewOutcomeRecorder(pub, store, m, log, cfg.Backend.Type)
}

func resolverOptions(cfg *config.Config) resolve.Options {
	timeouts := make(map[models.ProviderID]time.Duration, len(cfg.Resolver.Timeouts))
	for id, d := range cfg.Resolver.Timeouts {
		timeouts[models.ProviderID(id)] = d
	}
	return resolve.Options{
		SkipThreshold:  cfg.Resolver.SkipThreshold,
		DefaultTimeout: cfg.Resolver.DefaultTimeout,
		Timeouts:       timeouts,
	}
}

// ProvideMarketData builds the data capability table, its resolver, and
// the facade on top.
func ProvideMarketData(
	cfg *config.Config,
	providers map[models.ProviderID]repository.DataProvider,
	tracker *health.Tracker,
	m repository.Metrics,
	log *logger.Logger,
	recorder *usecase.OutcomeRecorder,
	cacheSvc cache.Service,
) (*usecase.MarketData, error) {
	table, err := capability.NewDataTable(cfg.Resolver.Priority)
	if err != nil {
		return nil, fmt.Errorf("data capability table: %w", err)
	}
	resolver := resolve.New(table, tracker, m, log, resolverOptions(cfg))
	return usecase.NewMarketData(providers, resolver, recorder, cacheSvc, log,
		cfg.Cache.QuoteTTL, cfg.Cache.HistoryTTL), nil
}

// ProvideLLM builds the model capability table, its resolver, and the
// facade on top.
func ProvideLLM(
	cfg *config.Config,
	providers map[models.ProviderID]repository.LLMProvider,
	tracker *health.Tracker,
	m repository.Metrics,
	log *logger.Logger,
	recorder *usecase.OutcomeRecorder,
) *usecase.LLM {
	table := capability.NewLLMTable(cfg.LLM.PreferGateway)
	resolver := resolve.New(table, tracker, m, log, resolverOptions(cfg))
	return usecase.NewLLM(providers, resolver, recorder, log)
}

// ProvideReport creates the decision-report usecase.
func ProvideReport(canon *canonical.Canonicalizer, data *usecase.MarketData, l *usecase.LLM, log *logger.Logger) *usecase.Report {
	return usecase.NewReport(canon, data, l, log)
}

// ProvideQuoteStream creates the websocket stream, or nil when disabled.
func ProvideQuoteStream(cfg *config.Config, log *logger.Logger) repository.QuoteStream {
	if !cfg.Stream.Enabled {
		return nil
	}
	return quotestream.New(
		cfg.Stream.Token,
		cfg.Stream.URL,
		cfg.Stream.Symbols,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
		log,
	)
}

// ProvideQuoteCollector creates the stream consumer, or nil.
func ProvideQuoteCollector(stream repository.QuoteStream, m repository.Metrics, log *logger.Logger) *usecase.QuoteCollector {
	if stream == nil {
		return nil
	}
	return usecase.NewQuoteCollector(stream, m, log)
}

// ProvideMarketHandler creates the Echo handler.
func ProvideMarketHandler(
	log *logger.Logger,
	canon *canonical.Canonicalizer,
	data *usecase.MarketData,
	l *usecase.LLM,
	report *usecase.Report,
) *api.MarketHandler {
	return api.NewMarketHandler(log, canon, data, l, report)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	handler *api.MarketHandler,
	collector *usecase.QuoteCollector,
	recorder *usecase.OutcomeRecorder,
	chClient *pkgch.Client,
) *server.App {
	return server.New(cfg, log, handler, collector, recorder, chClient)
}
