package server

import (
	"context"
	"errors"

	"MacroPulse/internal/domain/models"
	"MacroPulse/pkg/queue"
)

// refreshJob runs queued dashboard rebuilds through the same path as the
// refresh loop.
type refreshJob struct {
	app *App
}

func (refreshJob) Name() string { return "dashboard-refresh" }

func (refreshJob) Type() string { return models.JobDashboardRefresh }

func (j refreshJob) Handle(ctx context.Context, payload []byte) error {
	req, err := queue.ParsePayload[models.RefreshJob](payload)
	if err != nil {
		return err
	}
	if req.PortfolioID == "" {
		return errors.New("refresh job without portfolio id")
	}
	return j.app.refreshPortfolio(ctx, req.PortfolioID)
}
