package usecase

import (
	"context"
	"errors"
	"fmt"

	"MacroPulse/internal/domain/models"
	domrepo "MacroPulse/internal/domain/repository"
	domsvc "MacroPulse/internal/domain/service"
	"MacroPulse/internal/services/portfolio"
	applogger "MacroPulse/pkg/logger"
)

var ErrInvalidPortfolio = errors.New("invalid portfolio")

type PortfolioUseCase struct {
	store domrepo.PortfolioStore
	l     *applogger.Logger
}

var _ domsvc.PortfolioService = (*PortfolioUseCase)(nil)

func NewPortfolioUseCase(store domrepo.PortfolioStore, l *applogger.Logger) *PortfolioUseCase {
	return &PortfolioUseCase{store: store, l: l}
}

func (uc *PortfolioUseCase) Get(ctx context.Context, id string) (*models.Portfolio, error) {
	return uc.store.Get(ctx, id)
}

// Save stores p. Target bands naming an unknown engine are rejected; a
// portfolio without targets is measured against the default bands.
func (uc *PortfolioUseCase) Save(ctx context.Context, p *models.Portfolio) error {
	if p.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidPortfolio)
	}
	for engine, band := range p.Targets {
		if !models.IsValidEngine(engine) {
			return fmt.Errorf("%w: unknown engine %q", ErrInvalidPortfolio, engine)
		}
		if band.MinPct > band.TargetPct || band.TargetPct > band.MaxPct {
			return fmt.Errorf("%w: engine %s band must satisfy min <= target <= max", ErrInvalidPortfolio, engine)
		}
	}
	for _, h := range p.Holdings {
		if h.EngineOverride != nil && !models.IsValidEngine(*h.EngineOverride) {
			return fmt.Errorf("%w: holding %s has unknown engine override %q", ErrInvalidPortfolio, h.Ticker, *h.EngineOverride)
		}
	}

	if err := uc.store.Save(ctx, p); err != nil {
		return err
	}
	uc.l.Info("portfolio saved", applogger.String("portfolio_id", p.ID), applogger.Int("holdings", len(p.Holdings)))
	return nil
}

func (uc *PortfolioUseCase) Report(ctx context.Context, id string, level models.AlertLevel) (*models.PortfolioReport, error) {
	p, err := uc.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r := portfolio.BuildReport(*p, level)
	return &r, nil
}

func (uc *PortfolioUseCase) Classify(h models.Holding) models.EngineClassification {
	return portfolio.GetEngineForHolding(h)
}
