package di

import (
	"context"
	"fmt"
	"time"

	"StockPulse/internal/domain/repository"
	"StockPulse/internal/handler/api"
	"StockPulse/internal/orchestrator"
	"StockPulse/internal/provider"
	internalrepo "StockPulse/internal/repository"
	"StockPulse/internal/service/history"
	"StockPulse/internal/service/stream"
	"StockPulse/internal/usecase"
	"StockPulse/pkg/cache"
	pkgch "StockPulse/pkg/clickhouse"
	"StockPulse/pkg/config"
	xhttp "StockPulse/pkg/http"
	pkgkafka "StockPulse/pkg/kafka"
	"StockPulse/pkg/logger"
	"StockPulse/pkg/metrics"
	"StockPulse/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideCache selects the cache backend from config.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	redisOpts := []cache.RedisOption{
		cache.WithRedisHost(cfg.Cache.Redis.Host),
		cache.WithRedisPort(cfg.Cache.Redis.Port),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
	}

	switch cfg.Cache.Backend {
	case "redis":
		return cache.NewRedisCache(redisOpts...)
	case "layered":
		rc, err := cache.NewRedisCache(redisOpts...)
		if err != nil {
			return nil, err
		}
		return cache.NewLayeredCache(rc), nil
	default:
		return cache.NewMemoryCache(), nil
	}
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New()
}

// ProvideHTTPClient creates the shared outbound HTTP client.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(xhttp.WithTimeout(cfg.Providers.FetchTimeout + 5*time.Second))
}

// ProvideLocalProvider opens the seeded SQLite stock catalog.
func ProvideLocalProvider(cfg *config.Config, log *logger.Logger) (*provider.LocalProvider, error) {
	local, err := provider.NewLocalProvider(cfg.Providers.DatabasePath, cfg.Providers.SeedPath, log)
	if err != nil {
		return nil, fmt.Errorf("local provider: %w", err)
	}
	return local, nil
}

// ProvideYahooProvider creates the keyless Yahoo provider.
func ProvideYahooProvider(cfg *config.Config, client *xhttp.Client, log *logger.Logger) *provider.YahooProvider {
	return provider.NewYahooProvider(client, cfg.Providers.Yahoo.BaseURL, log)
}

// ProvideAlphaVantageProvider creates the Alpha Vantage provider, or
// nil when no API key is configured.
func ProvideAlphaVantageProvider(cfg *config.Config, client *xhttp.Client, log *logger.Logger) *provider.AlphaVantageProvider {
	if cfg.Providers.AlphaVantage.APIKey == "" {
		return nil
	}
	return provider.NewAlphaVantageProvider(
		client,
		cfg.Providers.AlphaVantage.BaseURL,
		cfg.Providers.AlphaVantage.APIKey,
		cfg.Providers.AlphaVantage.RequestsPerMinute,
		log,
	)
}

// ProvideFinnhubProvider creates the Finnhub provider, or nil when no
// API key is configured.
func ProvideFinnhubProvider(cfg *config.Config, client *xhttp.Client, log *logger.Logger) *provider.FinnhubProvider {
	if cfg.Providers.Finnhub.APIKey == "" {
		return nil
	}
	return provider.NewFinnhubProvider(client, cfg.Providers.Finnhub.BaseURL, cfg.Providers.Finnhub.APIKey, log)
}

// ProvideOrchestrator assembles the provider cascade. Keyless
// providers always join; keyed ones only when configured.
func ProvideOrchestrator(
	cfg *config.Config,
	local *provider.LocalProvider,
	yahoo *provider.YahooProvider,
	av *provider.AlphaVantageProvider,
	fh *provider.FinnhubProvider,
	log *logger.Logger,
	rec *metrics.Recorder,
) *orchestrator.Orchestrator {
	providers := []provider.Provider{local, yahoo}
	if av != nil {
		providers = append(providers, av)
	}
	if fh != nil {
		providers = append(providers, fh)
	}
	return orchestrator.New(providers, cfg.Providers.MaxErrors, log,
		orchestrator.WithFetchTimeout(cfg.Providers.FetchTimeout),
		orchestrator.WithHealthSymbol(cfg.Providers.HealthSymbol),
		orchestrator.WithMetrics(rec),
	)
}

// ProvideClickHouseClient connects ClickHouse and installs the
// schema. Returns nil when persistence is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.SchemaStatements); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideBarStore creates the candle store, or nil without ClickHouse.
func ProvideBarStore(ch *pkgch.Client) repository.BarStore {
	if ch == nil {
		return nil
	}
	return internalrepo.NewClickHouseBarStore(ch.DB())
}

// ProvideTickStore creates the tick store, or nil without ClickHouse.
func ProvideTickStore(ch *pkgch.Client) repository.TickStore {
	if ch == nil {
		return nil
	}
	return internalrepo.NewClickHouseTickStore(ch.DB())
}

// ProvideHistoryService builds the candle/quote service: Yahoo serves
// history with Finnhub candles as fallback, quotes cascade over every
// capable provider, ClickHouse backs the warm fallback when enabled.
func ProvideHistoryService(
	cfg *config.Config,
	yahoo *provider.YahooProvider,
	av *provider.AlphaVantageProvider,
	fh *provider.FinnhubProvider,
	cacheSvc cache.Service,
	barStore repository.BarStore,
	log *logger.Logger,
	rec *metrics.Recorder,
) *history.Service {
	quotes := []history.QuoteSource{yahoo}
	if fh != nil {
		quotes = append(quotes, fh)
	}
	if av != nil {
		quotes = append(quotes, av)
	}

	opts := []history.Option{
		history.WithMetrics(rec),
		history.WithTTLs(cfg.Cache.TTL.Candles, 5*time.Minute),
	}
	if fh != nil {
		opts = append(opts, history.WithFallbackSource(fh))
	}
	if barStore != nil {
		opts = append(opts, history.WithBarStore(barStore))
	}
	return history.NewService(yahoo, quotes, cacheSvc, log, opts...)
}

// ProvidePredictionService builds the direction predictor from config.
func ProvidePredictionService(
	cfg *config.Config,
	hist *history.Service,
	cacheSvc cache.Service,
	log *logger.Logger,
	rec *metrics.Recorder,
) *usecase.PredictionService {
	pcfg := usecase.DefaultPredictionConfig()
	pcfg.HistoryPeriod = cfg.Prediction.HistoryPeriod
	pcfg.HistoryInterval = cfg.Prediction.HistoryInterval
	pcfg.MinBars = cfg.Prediction.MinBars
	pcfg.MinFeatureRows = cfg.Prediction.MinFeatureRows
	pcfg.ConfidenceHigh = cfg.Prediction.ConfidenceHigh
	pcfg.ConfidenceMedium = cfg.Prediction.ConfidenceMedium
	pcfg.CacheTTL = cfg.Prediction.CacheTTL
	pcfg.Model.Rounds = cfg.Prediction.Rounds
	pcfg.Model.MaxDepth = cfg.Prediction.MaxDepth
	pcfg.Model.LearningRate = cfg.Prediction.LearningRate
	pcfg.Model.Seed = cfg.Prediction.Seed
	return usecase.NewPredictionService(hist, cacheSvc, pcfg, log, rec)
}

// ProvideKafkaProducer creates the tick producer, or nil when
// streaming is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Stream.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Kafka.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideTickPublisher wraps the producer for the ticks topic.
func ProvideTickPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.TickPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaTickPublisher(producer, cfg.Kafka.TicksTopic)
}

// ProvideKafkaConsumer creates the tick consumer, or nil when
// streaming or persistence is disabled.
func ProvideKafkaConsumer(cfg *config.Config, tickStore repository.TickStore) (*pkgkafka.Consumer, error) {
	if !cfg.Stream.Enabled || tickStore == nil {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.GroupID),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideTicksHandler persists consumed ticks into ClickHouse.
func ProvideTicksHandler(cfg *config.Config, tickStore repository.TickStore, log *logger.Logger, rec *metrics.Recorder) pkgkafka.MessageHandler {
	if tickStore == nil {
		return nil
	}
	return usecase.NewTicksHandler(cfg.Kafka.TicksTopic, tickStore, log, rec)
}

// ProvideTickPipeline builds the live-stream pipeline, or nil when
// streaming is disabled.
func ProvideTickPipeline(
	cfg *config.Config,
	publisher repository.TickPublisher,
	tickStore repository.TickStore,
	log *logger.Logger,
	rec *metrics.Recorder,
) server.Pipeline {
	if !cfg.Stream.Enabled {
		return nil
	}
	ms := stream.NewFinnhubStream(
		cfg.Providers.Finnhub.APIKey,
		cfg.Stream.WebSocketURL,
		cfg.Stream.Symbols,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
		log,
	)
	return usecase.NewTickPipeline(ms, publisher, tickStore, log, rec)
}

// ProvideRouter composes the HTTP API surface.
func ProvideRouter(
	cfg *config.Config,
	log *logger.Logger,
	local *provider.LocalProvider,
	orch *orchestrator.Orchestrator,
	hist *history.Service,
	cacheSvc cache.Service,
	prediction *usecase.PredictionService,
	ch *pkgch.Client,
) xhttp.Handler {
	stocks := api.NewStocksHandler(log, local, orch, hist, cacheSvc, cfg.Cache.TTL.StockList, cfg.Cache.TTL.Search)
	predict := api.NewPredictHandler(log, prediction)
	providers := api.NewProvidersHandler(log, orch)
	health := api.NewHealthHandler(log, cacheSvc, ch)
	return api.NewRouter(stocks, predict, providers, health)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	handler xhttp.Handler,
	pipeline server.Pipeline,
	consumer *pkgkafka.Consumer,
	ticksHandler pkgkafka.MessageHandler,
	ch *pkgch.Client,
	local *provider.LocalProvider,
	publisher repository.TickPublisher,
) *server.App {
	app := server.New(cfg, log, handler, pipeline, consumer, ticksHandler, ch)
	app.AddCloser(local)
	if publisher != nil {
		app.AddCloser(publisher)
	}
	return app
}
