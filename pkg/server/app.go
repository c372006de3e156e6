package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"MacroPulse/internal/domain/models"
	domrepo "MacroPulse/internal/domain/repository"
	"MacroPulse/internal/handler/ws"
	"MacroPulse/pkg/cache"
	"MacroPulse/pkg/config"
	xhttp "MacroPulse/pkg/http"
	pkgkafka "MacroPulse/pkg/kafka"
	applogger "MacroPulse/pkg/logger"
	"MacroPulse/pkg/queue"

	"github.com/google/uuid"
)

const refreshLockKey = "refresh:dashboards"

// Refresher rebuilds and caches the dashboard of one portfolio.
type Refresher interface {
	Refresh(ctx context.Context, portfolioID string) (*models.Dashboard, error)
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	dashboards Refresher
	hub        *ws.Hub
	events     domrepo.EventPublisher
	cache      cache.Service
	httpServer *xhttp.Server

	consumer *pkgkafka.Consumer
	ingest   pkgkafka.MessageHandler
	producer *pkgkafka.Producer
	store    domrepo.ObservationStore
	jobs     *queue.RedisQueue
	closers  []func() error

	mu     sync.Mutex
	levels map[string]models.AlertLevel
}

// Option attaches optional infrastructure to App.
type Option func(*App)

// WithConsumer starts consumer with h registered when the app runs.
func WithConsumer(consumer *pkgkafka.Consumer, h pkgkafka.MessageHandler) Option {
	return func(a *App) {
		a.consumer = consumer
		a.ingest = h
	}
}

// WithDigestProducer ships the error digest through p.
func WithDigestProducer(p *pkgkafka.Producer) Option {
	return func(a *App) { a.producer = p }
}

// WithObservationStore closes store on shutdown.
func WithObservationStore(store domrepo.ObservationStore) Option {
	return func(a *App) { a.store = store }
}

// WithRefreshQueue serves queued dashboard refresh jobs while the app runs.
func WithRefreshQueue(q *queue.RedisQueue) Option {
	return func(a *App) { a.jobs = q }
}

// WithCloser registers fn to run last on shutdown.
func WithCloser(fn func() error) Option {
	return func(a *App) { a.closers = append(a.closers, fn) }
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	dashboards Refresher,
	hub *ws.Hub,
	events domrepo.EventPublisher,
	c cache.Service,
	httpServer *xhttp.Server,
	opts ...Option,
) *App {
	a := &App{
		cfg:        cfg,
		l:          l,
		dashboards: dashboards,
		hub:        hub,
		events:     events,
		cache:      c,
		httpServer: httpServer,
		levels:     make(map[string]models.AlertLevel),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// PortfolioIDs is the set refreshed on every tick: the default portfolio
// plus every configured one, sorted.
func (a *App) PortfolioIDs() []string {
	ids := []string{models.DefaultPortfolioID}
	var rest []string
	for id := range a.cfg.Portfolios {
		if id != models.DefaultPortfolioID {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(ids, rest...)
}

// Snapshot builds one dashboard outside the refresh loop.
func (a *App) Snapshot(ctx context.Context, portfolioID string) (*models.Dashboard, error) {
	if portfolioID == "" {
		portfolioID = models.DefaultPortfolioID
	}
	return a.dashboards.Refresh(ctx, portfolioID)
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.cfg.Log.Digest.Enabled && a.producer != nil {
		a.l.AttachDigest(&applogger.DigestConfig{
			Service:        "macropulse",
			FlushInterval:  a.cfg.Log.Digest.FlushInterval,
			CountThreshold: a.cfg.Log.Digest.CountThreshold,
			Topic:          a.cfg.Log.Digest.Topic,
			Publisher:      a.producer,
		})
		a.l.Info("error digest attached", applogger.String("topic", a.cfg.Log.Digest.Topic))
	}

	go a.hub.Run(ctx)

	if a.consumer != nil && a.ingest != nil {
		a.consumer.RegisterHandler(a.ingest)
		a.consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.TraceHook{}, pkgkafka.NewLoggingHook(a.l)))
		if err := a.consumer.Start(); err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		a.l.Info("kafka consumer started", applogger.String("topic", a.ingest.Topic()))
	}

	if a.jobs != nil {
		a.jobs.RegisterJob(refreshJob{app: a})
		if err := a.jobs.Start(); err != nil {
			return fmt.Errorf("refresh queue: %w", err)
		}
	}

	if a.cfg.Refresh.Enabled {
		go a.refreshLoop(ctx)
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	cancel()
	return a.shutdown(context.Background())
}

func (a *App) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.Refresh.Interval)
	defer ticker.Stop()

	a.RefreshOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.RefreshOnce(ctx)
		}
	}
}

// RefreshOnce rebuilds every portfolio dashboard unless another instance
// holds the refresh lock. It reports whether a refresh ran.
func (a *App) RefreshOnce(ctx context.Context) bool {
	ok, err := a.cache.TryLock(ctx, refreshLockKey, a.cfg.Refresh.LockTTL)
	if err != nil {
		a.l.Warn("refresh lock failed", applogger.Error(err))
		return false
	}
	if !ok {
		a.l.Debug("refresh skipped, lock held elsewhere")
		return false
	}
	defer func() {
		if err := a.cache.Unlock(context.WithoutCancel(ctx), refreshLockKey); err != nil {
			a.l.Warn("refresh unlock failed", applogger.Error(err))
		}
	}()

	start := time.Now()
	for _, id := range a.PortfolioIDs() {
		if ctx.Err() != nil {
			return true
		}
		if err := a.refreshPortfolio(ctx, id); err != nil {
			a.l.Error("dashboard refresh failed", applogger.String("portfolio_id", id), applogger.Error(err))
		}
	}
	a.l.Info("dashboards refreshed",
		applogger.Int("portfolios", len(a.PortfolioIDs())),
		applogger.Duration("took_ms", time.Since(start)),
	)
	return true
}

// refreshPortfolio rebuilds one dashboard, pushes the default portfolio to
// WebSocket clients and publishes the resulting events.
func (a *App) refreshPortfolio(ctx context.Context, id string) error {
	runCtx, cancel := context.WithTimeout(ctx, a.cfg.Refresh.Timeout)
	defer cancel()

	d, err := a.dashboards.Refresh(runCtx, id)
	if err != nil {
		return err
	}

	if id == models.DefaultPortfolioID {
		if err := a.hub.Broadcast(d); err != nil {
			a.l.Warn("dashboard broadcast failed", applogger.Error(err))
		}
	}

	for _, ev := range a.eventsFor(id, d) {
		if err := a.events.PublishDashboard(ctx, ev); err != nil {
			a.l.Warn("dashboard event publish failed",
				applogger.String("portfolio_id", id),
				applogger.String("type", string(ev.Type)),
				applogger.Error(err),
			)
		}
	}
	return nil
}

// eventsFor returns the refreshed event and, when the final level moved since
// the previous refresh of id, an alert level change event.
func (a *App) eventsFor(id string, d *models.Dashboard) []models.DashboardEvent {
	level := d.FinalLevel()

	a.mu.Lock()
	prev, seen := a.levels[id]
	a.levels[id] = level
	a.mu.Unlock()

	base := models.DashboardEvent{
		PortfolioID: id,
		GeneratedAt: d.GeneratedAt,
		Level:       level,
	}
	if d.Regime != nil {
		base.Regime = d.Regime.Regime
	}
	if d.Alert != nil {
		base.Reasons = append([]string(nil), d.Alert.Reasons...)
	}
	if d.Portfolio != nil {
		base.Action = d.Portfolio.Policy.Action
	}

	refreshed := base
	refreshed.ID = uuid.NewString()
	refreshed.Type = models.EventDashboardRefreshed
	out := []models.DashboardEvent{refreshed}

	if seen && prev != level {
		changed := base
		changed.ID = uuid.NewString()
		changed.Type = models.EventAlertLevelChanged
		changed.PreviousLevel = prev
		out = append(out, changed)
		a.l.Info("alert level changed",
			applogger.String("portfolio_id", id),
			applogger.String("from", string(prev)),
			applogger.String("to", string(level)),
		)
	}
	return out
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	a.l.Info("shutting down...")

	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	stopCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if a.consumer != nil && a.ingest != nil {
		if err := a.consumer.Stop(stopCtx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if a.jobs != nil {
		if err := a.jobs.Stop(stopCtx); err != nil {
			a.l.Warn("refresh queue stop error", applogger.Error(err))
		}
	}

	a.Close()
	a.l.Info("shutdown complete")
	return nil
}

// Close releases the clients held by the app. The digest goes first since it
// publishes through the producer the event publisher closes.
func (a *App) Close() {
	a.l.DetachDigest()

	if err := a.events.Close(); err != nil {
		a.l.Warn("event publisher close error", applogger.Error(err))
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.l.Warn("observation store close error", applogger.Error(err))
		}
	}
	if err := a.cache.Close(); err != nil {
		a.l.Warn("cache close error", applogger.Error(err))
	}
	for _, fn := range a.closers {
		if err := fn(); err != nil {
			a.l.Warn("close error", applogger.Error(err))
		}
	}
}
