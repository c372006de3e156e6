package api

import (
	"time"

	"MacroPulse/internal/domain/models"
	domsvc "MacroPulse/internal/domain/service"
	xhttp "MacroPulse/pkg/http"
	xlogger "MacroPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ObservationHandler accepts breadth-proxy observations for the archive.
type ObservationHandler struct {
	logger   *xlogger.Logger
	ingester domsvc.ObservationIngester
}

func NewObservationHandler(logger *xlogger.Logger, ingester domsvc.ObservationIngester) *ObservationHandler {
	return &ObservationHandler{logger: logger, ingester: ingester}
}

func (h *ObservationHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/observations", h.Ingest)
}

func (h *ObservationHandler) Ingest(c echo.Context) error {
	if h.ingester == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableErrorf("observation archive is disabled"))
	}
	start := time.Now()
	req := &models.ObservationIngestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	n, err := h.ingester.Ingest(c.Request().Context(), req)
	observe("observations", start, err != nil)
	if err != nil {
		h.logger.Error("observation ingest failed", xlogger.String("series_id", req.SeriesID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.CreatedResponse(c, map[string]interface{}{"series_id": req.SeriesID, "stored": n})
}
