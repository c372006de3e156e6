package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"MacroPulse/internal/domain/models"
	domrepo "MacroPulse/internal/domain/repository"
	domsvc "MacroPulse/internal/domain/service"
	"MacroPulse/internal/service/blockchain"
	"MacroPulse/internal/services/bitcoin"
	"MacroPulse/internal/services/breadth"
	"MacroPulse/internal/services/features"
	"MacroPulse/internal/services/macro"
	"MacroPulse/internal/services/microstress"
	applogger "MacroPulse/pkg/logger"
	"MacroPulse/pkg/util"

	"golang.org/x/sync/errgroup"
)

// DashboardConfig carries the run limits and the signal cut-offs.
type DashboardConfig struct {
	Concurrency  int
	Timeout      time.Duration
	HistoryYears int
	Windows      macro.Windows
	Alerts       macro.AlertThresholds
	Microstress  microstress.Thresholds
	Bitcoin      bitcoin.Thresholds
}

func DefaultDashboardConfig() DashboardConfig {
	return DashboardConfig{
		Concurrency:  8,
		Timeout:      2 * time.Minute,
		HistoryYears: 5,
		Windows:      macro.DefaultWindows(),
		Alerts:       macro.DefaultAlertThresholds(),
		Microstress:  microstress.DefaultThresholds(),
		Bitcoin:      bitcoin.DefaultThresholds(),
	}
}

// DashboardUseCase fetches every input series and runs the signal layers.
type DashboardUseCase struct {
	provider   domrepo.SeriesProvider
	portfolios domsvc.PortfolioService
	metrics    domrepo.Metrics
	cfg        DashboardConfig
	now        func() time.Time
	l          *applogger.Logger
}

var _ domsvc.DashboardBuilder = (*DashboardUseCase)(nil)

func NewDashboardUseCase(provider domrepo.SeriesProvider, portfolios domsvc.PortfolioService, metrics domrepo.Metrics, cfg DashboardConfig, l *applogger.Logger) *DashboardUseCase {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &DashboardUseCase{
		provider:   provider,
		portfolios: portfolios,
		metrics:    metrics,
		cfg:        cfg,
		now:        time.Now,
		l:          l,
	}
}

// SeriesIDs is every series one run reads, without duplicates.
func SeriesIDs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, group := range [][]string{macro.SeriesIDs, microstress.SeriesIDs, breadth.SeriesIDs, {bitcoin.SeriesPrice}} {
		for _, id := range group {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// Build runs one full pipeline. An empty portfolioID skips the portfolio section.
func (uc *DashboardUseCase) Build(ctx context.Context, portfolioID string) (*models.Dashboard, error) {
	began := uc.now()
	if uc.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.cfg.Timeout)
		defer cancel()
	}

	log := NewFetchLog()
	set, err := uc.fetchAll(ctx, SeriesIDs(), util.StartOfHistory(began, uc.cfg.HistoryYears), log)
	if err != nil {
		return nil, err
	}

	d := uc.assemble(set)
	d.GeneratedAt = began
	d.Fetches = log.Records()

	if portfolioID != "" && uc.portfolios != nil {
		report, err := uc.portfolios.Report(ctx, portfolioID, d.FinalLevel())
		switch {
		case err == nil:
			d.Portfolio = report
		case errors.Is(err, domrepo.ErrNotFound):
			d.AddError("portfolio", fmt.Sprintf("portfolio %q not found", portfolioID))
		default:
			uc.l.Error("portfolio report failed", applogger.String("portfolio_id", portfolioID), applogger.Error(err))
			d.AddError("portfolio", err.Error())
		}
	}

	elapsed := uc.now().Sub(began)
	uc.record(d, elapsed)
	uc.l.Info("dashboard built",
		applogger.String("portfolio_id", portfolioID),
		applogger.String("level", string(d.FinalLevel())),
		applogger.Int("series", len(d.Fetches)),
		applogger.Duration("duration_ms", elapsed),
	)
	return d, nil
}

// fetchAll fans out the series fetches. The provider never fails, so the
// only error is the run's own deadline or cancellation.
func (uc *DashboardUseCase) fetchAll(ctx context.Context, ids []string, start time.Time, log *FetchLog) (map[string]models.Series, error) {
	var mu sync.Mutex
	set := make(map[string]models.Series, len(ids)+1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.cfg.Concurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			s := uc.provider.Series(gctx, id, start)
			log.Record(id, uc.now(), len(s))
			mu.Lock()
			set[id] = s
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch series: %w", err)
	}

	// FRED's Coinbase close lags or goes missing; Blockchain.com fills in.
	if set[bitcoin.SeriesPrice].Empty() {
		s := uc.provider.Series(ctx, blockchain.SeriesMarketPrice, start)
		log.Record(blockchain.SeriesMarketPrice, uc.now(), len(s))
		if !s.Empty() {
			set[bitcoin.SeriesPrice] = s
		}
	}
	return set, nil
}

// assemble runs composites, regime, alerts, gating, breadth, bitcoin and MSTR
// strictly in that order. Sections without inputs stay nil.
func (uc *DashboardUseCase) assemble(set map[string]models.Series) *models.Dashboard {
	d := &models.Dashboard{}

	var (
		comps  models.Composites
		credit models.CreditSnapshot
	)
	macroIn := macro.InputsFromSet(set)
	if !macroIn.Empty() {
		comps = macro.CalculateComposites(macroIn, uc.cfg.Windows)
		credit = macro.CreditSnapshotFrom(macroIn, uc.cfg.Windows)
		vix := models.FloatOK(features.LastValue(set[macro.SeriesVIX]))

		rc := macro.ClassifyRegime(comps, credit.Curve10y2y, vix)
		d.Regime = &rc
		alert := macro.EvaluateAlerts(comps, credit, uc.cfg.Alerts)
		d.Alert = &alert
	}

	microIn := microstress.InputsFromSet(set)
	if !microIn.Empty() {
		a := microstress.Analyze(microstress.CalculateMetrics(microIn), uc.cfg.Microstress)
		d.Microstress = &a
	}
	if d.Alert != nil {
		gated := microstress.GateAlert(*d.Alert, d.Microstress)
		d.Alert = &gated
		tilt := macro.GeneratePortfolioTilts(gated.Level, comps, credit, uc.cfg.Alerts)
		d.Tilt = &tilt
	}

	breadthIn := breadth.InputsFromSet(set)
	if !breadthIn.Empty() {
		b := breadth.Analyze(breadthIn)
		d.Breadth = &b
		if d.Regime != nil {
			adjusted := macro.AdjustConfidenceForBreadth(*d.Regime, b.Signal)
			d.Regime = &adjusted
		}
	}

	if btc := bitcoin.AnalyzeTrend(set[bitcoin.SeriesPrice], uc.cfg.Bitcoin); btc != nil {
		d.Bitcoin = btc
		regime := models.RegimeMixed
		if d.Regime != nil {
			regime = d.Regime.Regime
		}
		g := bitcoin.GenerateMSTRGuidance(regime, btc.TrendLevel)
		d.MSTR = &g
	}
	return d
}

func (uc *DashboardUseCase) record(d *models.Dashboard, dur time.Duration) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.RecordLatency("dashboard_build", dur.Seconds())
	if d.Alert != nil {
		uc.metrics.RecordLevel("alert", d.Alert.Level.Severity())
	}
	if d.Microstress != nil {
		uc.metrics.RecordLevel("microstress", d.Microstress.Level.Severity())
	}
	if d.Breadth != nil {
		uc.metrics.RecordLevel("breadth", d.Breadth.Level.Severity())
	}
	if d.Bitcoin != nil {
		uc.metrics.RecordLevel("bitcoin", d.Bitcoin.TrendLevel.Severity())
	}
}
