package api

import (
	"time"

	"MacroPulse/internal/domain/models"
	xhttp "MacroPulse/pkg/http"
	xlogger "MacroPulse/pkg/logger"
	"MacroPulse/pkg/queue"

	"github.com/labstack/echo/v4"
)

// RefreshHandler queues dashboard rebuilds for the background workers.
type RefreshHandler struct {
	logger *xlogger.Logger
	jobs   queue.Enqueuer
	now    func() time.Time
}

// NewRefreshHandler returns a handler that answers 503 when jobs is nil.
func NewRefreshHandler(logger *xlogger.Logger, jobs queue.Enqueuer) *RefreshHandler {
	return &RefreshHandler{logger: logger, jobs: jobs, now: time.Now}
}

func (h *RefreshHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/dashboard/refresh", h.Refresh)
}

func (h *RefreshHandler) Refresh(c echo.Context) error {
	if h.jobs == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableErrorf("refresh queue is disabled"))
	}
	start := time.Now()
	req := &models.DashboardRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	job := models.RefreshJob{PortfolioID: req.PortfolioID, RequestedAt: h.now().UTC()}
	err := h.jobs.Enqueue(c.Request().Context(), models.JobDashboardRefresh, job)
	observe("refresh", start, err != nil)
	if err != nil {
		h.logger.Error("refresh enqueue failed", xlogger.String("portfolio_id", req.PortfolioID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UnavailableErrorf("refresh queue unavailable").WithError(err))
	}
	return xhttp.AcceptedResponse(c, map[string]interface{}{"queued": true, "portfolio_id": req.PortfolioID})
}
