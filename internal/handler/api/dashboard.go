package api

import (
	"context"
	"time"

	"MacroPulse/internal/domain/models"
	"MacroPulse/internal/service/metrics"
	xhttp "MacroPulse/pkg/http"
	xlogger "MacroPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DashboardSource returns a possibly cached dashboard.
type DashboardSource interface {
	Get(ctx context.Context, portfolioID string, refresh bool) (*models.Dashboard, error)
}

type DashboardHandler struct {
	logger     *xlogger.Logger
	dashboards DashboardSource
}

func NewDashboardHandler(logger *xlogger.Logger, dashboards DashboardSource) *DashboardHandler {
	metrics.Register()
	return &DashboardHandler{logger: logger, dashboards: dashboards}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/dashboard", h.Dashboard)
	g.GET("/macro", h.Macro)
	g.GET("/microstress", h.Microstress)
	g.GET("/breadth", h.Breadth)
	g.GET("/bitcoin", h.Bitcoin)
}

// load binds the common dashboard query and fetches the dashboard.
func (h *DashboardHandler) load(c echo.Context, endpoint string) (*models.Dashboard, error) {
	start := time.Now()
	req := &models.DashboardRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		observe(endpoint, start, true)
		return nil, xhttp.BadRequestResponse(c, verr)
	}

	d, err := h.dashboards.Get(c.Request().Context(), req.PortfolioID, req.Refresh)
	observe(endpoint, start, err != nil)
	if err != nil {
		h.logger.Error("dashboard usecase error", xlogger.String("endpoint", endpoint), xlogger.Error(err))
		return nil, xhttp.AppErrorResponse(c, toAppError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return d, nil
}

func (h *DashboardHandler) Dashboard(c echo.Context) error {
	d, err := h.load(c, "dashboard")
	if d == nil {
		return err
	}
	return xhttp.SuccessResponse(c, d)
}

// MacroView is the macro slice of the dashboard.
type MacroView struct {
	GeneratedAt time.Time                    `json:"generated_at"`
	Regime      *models.RegimeClassification `json:"regime"`
	Alert       *models.AlertInfo            `json:"alert"`
	Tilt        *models.PortfolioTilt        `json:"tilt"`
}

func (h *DashboardHandler) Macro(c echo.Context) error {
	d, err := h.load(c, "macro")
	if d == nil {
		return err
	}
	if d.Regime == nil {
		return h.noData(c, "macro")
	}
	return xhttp.SuccessResponse(c, MacroView{GeneratedAt: d.GeneratedAt, Regime: d.Regime, Alert: d.Alert, Tilt: d.Tilt})
}

func (h *DashboardHandler) Microstress(c echo.Context) error {
	d, err := h.load(c, "microstress")
	if d == nil {
		return err
	}
	if d.Microstress == nil {
		return h.noData(c, "microstress")
	}
	return xhttp.SuccessResponse(c, d.Microstress)
}

func (h *DashboardHandler) Breadth(c echo.Context) error {
	d, err := h.load(c, "breadth")
	if d == nil {
		return err
	}
	if d.Breadth == nil {
		return h.noData(c, "breadth")
	}
	return xhttp.SuccessResponse(c, d.Breadth)
}

// BitcoinView pairs the trend with the MSTR guidance derived from it.
type BitcoinView struct {
	Trend *models.BitcoinAnalysis `json:"trend"`
	MSTR  *models.MSTRGuidance    `json:"mstr"`
}

func (h *DashboardHandler) Bitcoin(c echo.Context) error {
	d, err := h.load(c, "bitcoin")
	if d == nil {
		return err
	}
	if d.Bitcoin == nil {
		return h.noData(c, "bitcoin")
	}
	return xhttp.SuccessResponse(c, BitcoinView{Trend: d.Bitcoin, MSTR: d.MSTR})
}

func (h *DashboardHandler) noData(c echo.Context, section string) error {
	return xhttp.AppErrorResponse(c, xhttp.UnavailableErrorf("no data for %s", section).WithParam("section", section))
}
