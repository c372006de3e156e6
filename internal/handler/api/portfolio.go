package api

import (
	"time"

	"MacroPulse/internal/domain/models"
	domsvc "MacroPulse/internal/domain/service"
	xhttp "MacroPulse/pkg/http"
	xlogger "MacroPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

type PortfolioHandler struct {
	logger     *xlogger.Logger
	portfolios domsvc.PortfolioService
	dashboards DashboardSource
}

func NewPortfolioHandler(logger *xlogger.Logger, portfolios domsvc.PortfolioService, dashboards DashboardSource) *PortfolioHandler {
	return &PortfolioHandler{logger: logger, portfolios: portfolios, dashboards: dashboards}
}

func (h *PortfolioHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/portfolio")
	g.POST("/classify", h.Classify)
	g.GET("/:id", h.Report)
	g.PUT("/:id", h.Upsert)
}

// Report returns deltas and the action policy under the current alert level.
func (h *PortfolioHandler) Report(c echo.Context) error {
	start := time.Now()
	req := &models.PortfolioRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()

	level := models.LevelGreen
	if d, err := h.dashboards.Get(ctx, req.ID, false); err == nil {
		level = d.FinalLevel()
	} else {
		h.logger.Warn("portfolio report without alert level", xlogger.String("portfolio_id", req.ID), xlogger.Error(err))
	}

	report, err := h.portfolios.Report(ctx, req.ID, level)
	observe("portfolio", start, err != nil)
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, report)
}

func (h *PortfolioHandler) Upsert(c echo.Context) error {
	start := time.Now()
	req := &models.PortfolioUpsertRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	p := &models.Portfolio{ID: req.ID, Holdings: req.Holdings, Targets: req.Targets}
	err := h.portfolios.Save(c.Request().Context(), p)
	observe("portfolio_upsert", start, err != nil)
	if err != nil {
		h.logger.Warn("portfolio save failed", xlogger.String("portfolio_id", req.ID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, p)
}

func (h *PortfolioHandler) Classify(c echo.Context) error {
	req := &models.ClassifyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.portfolios.Classify(req.Holding))
}
