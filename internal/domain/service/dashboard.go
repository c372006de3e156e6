package service

import (
	"context"

	"MacroPulse/internal/domain/models"
)

// DashboardBuilder runs the signal pipeline for one portfolio.
type DashboardBuilder interface {
	Build(ctx context.Context, portfolioID string) (*models.Dashboard, error)
}

// PortfolioService manages stored portfolios and their allocation reports.
type PortfolioService interface {
	Get(ctx context.Context, id string) (*models.Portfolio, error)
	Save(ctx context.Context, p *models.Portfolio) error
	Report(ctx context.Context, id string, level models.AlertLevel) (*models.PortfolioReport, error)
	Classify(h models.Holding) models.EngineClassification
}

// ObservationIngester writes externally sourced observations into the archive.
type ObservationIngester interface {
	Ingest(ctx context.Context, req *models.ObservationIngestRequest) (int, error)
}
