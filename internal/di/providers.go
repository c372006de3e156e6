package di

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"MacroPulse/internal/domain/models"
	domrepo "MacroPulse/internal/domain/repository"
	"MacroPulse/internal/handler/api"
	"MacroPulse/internal/handler/ws"
	internalrepo "MacroPulse/internal/repository"
	"MacroPulse/internal/service/blockchain"
	"MacroPulse/internal/service/breaker"
	"MacroPulse/internal/service/fred"
	"MacroPulse/internal/service/ratelimit"
	"MacroPulse/internal/usecase"
	"MacroPulse/pkg/cache"
	pkgch "MacroPulse/pkg/clickhouse"
	"MacroPulse/pkg/config"
	xhttp "MacroPulse/pkg/http"
	pkgkafka "MacroPulse/pkg/kafka"
	applogger "MacroPulse/pkg/logger"
	"MacroPulse/pkg/metrics"
	"MacroPulse/pkg/queue"
	"MacroPulse/pkg/server"

	"github.com/redis/go-redis/v9"
)

const observationsTable = "observations"

// ProvideLogger builds the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New(nil)
}

// ProvideRedisClient dials Redis when enabled; nil otherwise.
func ProvideRedisClient(cfg *config.Config) (redis.UniversalClient, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	client, err := cache.DialRedis(context.Background(),
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdle, 0),
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// ProvideCache layers an in-process cache over Redis, or runs in memory
// alone when Redis is off.
func ProvideCache(cfg *config.Config, rc redis.UniversalClient) cache.Service {
	if rc == nil {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemoryItems))
	}
	return cache.NewLayeredCache(
		cache.NewRedisCacheFromClient(rc, cfg.Redis.Prefix),
		cache.WithLayeredMemorySize(cfg.Cache.MemoryItems),
		cache.WithLayeredBackfillTTL(cfg.Cache.DashboardTTL),
	)
}

// ProvideClickHouseClient creates a ClickHouse client when enabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithAddress(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithPool(cfg.ClickHouse.MaxOpenConns, cfg.ClickHouse.MaxIdleConns),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideObservationStore creates the observation table on ch. A nil client
// yields a nil store.
func ProvideObservationStore(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (domrepo.ObservationStore, error) {
	if ch == nil {
		return nil, nil
	}
	store := internalrepo.NewCHObservationStore(ch, cfg.ClickHouse.Database+"."+observationsTable)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer when Kafka is enabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithBatching(cfg.Kafka.BatchSize, cfg.Kafka.BatchTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPublisher publishes dashboard events to Kafka, or drops them
// when no producer is configured.
func ProvideEventPublisher(cfg *config.Config, p *pkgkafka.Producer, l *applogger.Logger) domrepo.EventPublisher {
	if p == nil {
		return internalrepo.NoopEventPublisher{}
	}
	return internalrepo.NewKafkaEventPublisher(p, cfg.Kafka.EventsTopic, l)
}

func breakerLogger(l *applogger.Logger) func(name, from, to string) {
	return func(name, from, to string) {
		l.Warn("circuit breaker state changed",
			applogger.String("breaker", name),
			applogger.String("from", from),
			applogger.String("to", to),
		)
	}
}

// ProvideFREDClient creates the FRED client with its limiter and breaker.
func ProvideFREDClient(cfg *config.Config, l *applogger.Logger) *fred.Client {
	if cfg.FRED.APIKey == "" {
		l.Warn("FRED api key missing, FRED series will be empty")
	}
	return fred.New(cfg.FRED.APIKey, cfg.FRED.BaseURL,
		fred.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.FRED.Timeout))),
		fred.WithRateLimit(cfg.FRED.RatePerSecond, cfg.FRED.Burst),
		fred.WithBreaker(breaker.New("fred", cfg.FRED.Breaker.MaxFailures, cfg.FRED.Breaker.OpenTimeout, breakerLogger(l))),
		fred.WithLogger(l),
	)
}

// ProvideBlockchainClient creates the Blockchain.com charts client when enabled.
func ProvideBlockchainClient(cfg *config.Config, l *applogger.Logger) *blockchain.Client {
	if !cfg.Blockchain.Enabled {
		return nil
	}
	return blockchain.New(cfg.Blockchain.BaseURL, cfg.Blockchain.Timespan,
		blockchain.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.Blockchain.Timeout))),
		blockchain.WithRateLimit(cfg.Blockchain.RatePerSecond, cfg.Blockchain.Burst),
		blockchain.WithBreaker(breaker.New("blockchain", cfg.Blockchain.Breaker.MaxFailures, cfg.Blockchain.Breaker.OpenTimeout, breakerLogger(l))),
	)
}

// ProvideSeriesProvider routes series ids to their sources behind the cache.
func ProvideSeriesProvider(
	cfg *config.Config,
	fc *fred.Client,
	bc *blockchain.Client,
	store domrepo.ObservationStore,
	c cache.Service,
	m domrepo.Metrics,
	l *applogger.Logger,
) domrepo.SeriesProvider {
	opts := []internalrepo.ProviderOption{
		internalrepo.WithSource(domrepo.SourceFRED, fc),
		internalrepo.WithCache(c, cfg.Cache.SeriesTTL),
		internalrepo.WithMetrics(m),
		internalrepo.WithProviderLogger(l),
	}
	if bc != nil {
		opts = append(opts, internalrepo.WithSource(domrepo.SourceBlockchain, bc))
	}
	if store != nil {
		opts = append(opts, internalrepo.WithSource(domrepo.SourceStore, store))
		if cfg.ClickHouse.Archive {
			opts = append(opts, internalrepo.WithArchive(store))
		}
	}
	return internalrepo.NewCachedProvider(opts...)
}

// ProvidePortfolioStore keeps portfolios in Redis when available.
func ProvidePortfolioStore(cfg *config.Config, rc redis.UniversalClient) domrepo.PortfolioStore {
	if rc == nil {
		return internalrepo.NewMemoryPortfolioStore()
	}
	return internalrepo.NewRedisPortfolioStore(rc, cfg.Redis.Prefix)
}

// ProvidePortfolioUseCase creates the portfolio use case and seeds every
// configured portfolio the store does not hold yet.
func ProvidePortfolioUseCase(cfg *config.Config, store domrepo.PortfolioStore, l *applogger.Logger) (*usecase.PortfolioUseCase, error) {
	uc := usecase.NewPortfolioUseCase(store, l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := SeedPortfolios(ctx, uc, cfg.Portfolios); err != nil {
		return nil, fmt.Errorf("seed portfolios: %w", err)
	}
	return uc, nil
}

// SeedPortfolios saves each seed whose id is not stored yet. Existing
// portfolios are left alone so API edits survive restarts.
func SeedPortfolios(ctx context.Context, uc *usecase.PortfolioUseCase, seeds map[string]config.PortfolioSeed) error {
	ids := make([]string, 0, len(seeds))
	for id := range seeds {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		_, err := uc.Get(ctx, id)
		if err == nil {
			continue
		}
		if !errors.Is(err, domrepo.ErrNotFound) {
			return fmt.Errorf("portfolio %s: %w", id, err)
		}
		if err := uc.Save(ctx, PortfolioFromSeed(id, seeds[id])); err != nil {
			return fmt.Errorf("portfolio %s: %w", id, err)
		}
	}
	return nil
}

// PortfolioFromSeed converts a config seed into a domain portfolio.
func PortfolioFromSeed(id string, seed config.PortfolioSeed) *models.Portfolio {
	p := &models.Portfolio{ID: id}
	for _, h := range seed.Holdings {
		holding := models.Holding{
			Ticker:    h.Ticker,
			Account:   h.Account,
			WeightPct: h.WeightPct,
			AssetType: h.AssetType,
		}
		if h.Engine != "" {
			engine := models.EngineID(h.Engine)
			holding.EngineOverride = &engine
		}
		if h.Sector != "" || h.Industry != "" {
			holding.Profile = &models.CompanyProfile{Sector: h.Sector, Industry: h.Industry}
		}
		p.Holdings = append(p.Holdings, holding)
	}
	if len(seed.Targets) > 0 {
		p.Targets = make(map[models.EngineID]models.TargetBand, len(seed.Targets))
		for engine, band := range seed.Targets {
			p.Targets[models.EngineID(engine)] = models.TargetBand{
				MinPct:    band.MinPct,
				TargetPct: band.TargetPct,
				MaxPct:    band.MaxPct,
			}
		}
	}
	return p
}

func override(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// ProvideDashboardConfig applies configured threshold overrides to the
// built-in defaults.
func ProvideDashboardConfig(cfg *config.Config) usecase.DashboardConfig {
	dc := usecase.DefaultDashboardConfig()
	dc.Concurrency = cfg.Refresh.Concurrency
	dc.Timeout = cfg.Refresh.Timeout
	dc.HistoryYears = cfg.FRED.HistoryYears

	a := cfg.Thresholds.Alerts
	override(&dc.Alerts.HYOASRed, a.HYOASRed)
	override(&dc.Alerts.HYOASChangeRed, a.HYOASChangeRed)
	override(&dc.Alerts.StressRed, a.StressRed)
	override(&dc.Alerts.LiquidityRed, a.LiquidityRed)
	override(&dc.Alerts.HYOASYellow, a.HYOASYellow)
	override(&dc.Alerts.StressYellow, a.StressYellow)
	override(&dc.Alerts.CurveYellow, a.CurveYellow)
	override(&dc.Alerts.InflationYellow, a.InflationYellow)
	override(&dc.Alerts.LiquidityYellow, a.LiquidityYellow)
	override(&dc.Alerts.FedFundsYellow, a.FedFundsYellow)
	override(&dc.Alerts.HYOASHealthy, a.HYOASHealthy)

	m := cfg.Thresholds.Microstress
	override(&dc.Microstress.SpreadCautionBps, m.SpreadCautionBps)
	override(&dc.Microstress.SpreadStressBps, m.SpreadStressBps)
	override(&dc.Microstress.SOFRJumpCaution, m.SOFRJumpCaution)
	override(&dc.Microstress.SOFRJumpStress, m.SOFRJumpStress)
	override(&dc.Microstress.CPJumpCaution, m.CPJumpCaution)
	override(&dc.Microstress.CPJumpStress, m.CPJumpStress)
	override(&dc.Microstress.TEDCaution, m.TEDCaution)
	override(&dc.Microstress.TEDStress, m.TEDStress)
	override(&dc.Microstress.NFCICaution, m.NFCICaution)
	override(&dc.Microstress.NFCIStress, m.NFCIStress)

	override(&dc.Bitcoin.HighVolPct, cfg.Thresholds.Bitcoin.HighVolPct)
	override(&dc.Bitcoin.WeakMomentumPct, cfg.Thresholds.Bitcoin.WeakMomentumPct)
	return dc
}

// ProvideDashboardUseCase creates the signal pipeline.
func ProvideDashboardUseCase(
	provider domrepo.SeriesProvider,
	portfolios *usecase.PortfolioUseCase,
	m domrepo.Metrics,
	dc usecase.DashboardConfig,
	l *applogger.Logger,
) *usecase.DashboardUseCase {
	return usecase.NewDashboardUseCase(provider, portfolios, m, dc, l)
}

// ProvideDashboardCache fronts the pipeline with the dashboard cache.
func ProvideDashboardCache(cfg *config.Config, uc *usecase.DashboardUseCase, c cache.Service, l *applogger.Logger) *usecase.DashboardCache {
	return usecase.NewDashboardCache(uc, c, cfg.Cache.DashboardTTL, l)
}

// ProvideIngestUseCase creates the observation ingest use case; nil without
// an observation store.
func ProvideIngestUseCase(cfg *config.Config, store domrepo.ObservationStore, m domrepo.Metrics, l *applogger.Logger) *usecase.ObservationIngestUseCase {
	if store == nil {
		return nil
	}
	return usecase.NewObservationIngestUseCase(store, m, cfg.Kafka.Consumer.Topic, l)
}

// ProvideKafkaConsumer creates the ingest consumer when enabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideRefreshQueue creates the Redis-backed refresh job queue; nil
// without Redis.
func ProvideRefreshQueue(cfg *config.Config, rc redis.UniversalClient, l *applogger.Logger) *queue.RedisQueue {
	if rc == nil {
		return nil
	}
	return queue.NewRedisQueue(l, rc,
		queue.WithWorkers(cfg.Refresh.Queue.Workers),
		queue.WithRetry(cfg.Refresh.Queue.RetryLimit, cfg.Refresh.Queue.RetryDelay),
		queue.WithKeyPrefix(cfg.Redis.Prefix+":queue"),
	)
}

func ProvideHub(l *applogger.Logger) *ws.Hub {
	return ws.NewHub(l)
}

// ProvideHealthChecks probes every backend that is configured.
func ProvideHealthChecks(rc redis.UniversalClient, store domrepo.ObservationStore) map[string]api.HealthCheck {
	checks := make(map[string]api.HealthCheck)
	if rc != nil {
		checks["redis"] = func(ctx context.Context) error { return rc.Ping(ctx).Err() }
	}
	if store != nil {
		checks["clickhouse"] = store.Health
	}
	return checks
}

// ProvideHandlers lists every route group the HTTP server mounts.
func ProvideHandlers(
	l *applogger.Logger,
	dashboards *usecase.DashboardCache,
	portfolios *usecase.PortfolioUseCase,
	ingest *usecase.ObservationIngestUseCase,
	jobs *queue.RedisQueue,
	hub *ws.Hub,
	checks map[string]api.HealthCheck,
) []xhttp.Handler {
	// typed nil pointers must not reach the handlers' interface fields
	obs := api.NewObservationHandler(l, nil)
	if ingest != nil {
		obs = api.NewObservationHandler(l, ingest)
	}
	refresh := api.NewRefreshHandler(l, nil)
	if jobs != nil {
		refresh = api.NewRefreshHandler(l, jobs)
	}
	return []xhttp.Handler{
		api.NewDashboardHandler(l, dashboards),
		refresh,
		api.NewPortfolioHandler(l, portfolios, dashboards),
		obs,
		api.NewHealthHandler(checks),
		hub,
	}
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, handlers []xhttp.Handler) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(l, handlers,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowRequest(cfg.Server.SlowRequest),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithRateLimiter(ratelimit.New(cfg.Server.RatePerSecond, cfg.Server.RateBurst)),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	dashboards *usecase.DashboardCache,
	hub *ws.Hub,
	events domrepo.EventPublisher,
	c cache.Service,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	ingest *usecase.ObservationIngestUseCase,
	producer *pkgkafka.Producer,
	store domrepo.ObservationStore,
	ch *pkgch.Client,
	rc redis.UniversalClient,
	jobs *queue.RedisQueue,
) *server.App {
	var opts []server.Option
	if consumer != nil && ingest != nil {
		opts = append(opts, server.WithConsumer(consumer, ingest))
	}
	if producer != nil {
		opts = append(opts, server.WithDigestProducer(producer))
	}
	if store != nil {
		opts = append(opts, server.WithObservationStore(store))
	}
	if jobs != nil {
		opts = append(opts, server.WithRefreshQueue(jobs))
	}
	if ch != nil {
		opts = append(opts, server.WithCloser(ch.Close))
	}
	if rc != nil {
		opts = append(opts, server.WithCloser(rc.Close))
	}
	return server.New(cfg, l, dashboards, hub, events, c, srv, opts...)
}
