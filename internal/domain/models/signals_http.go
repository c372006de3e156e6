package models

// Requests for dashboard HTTP endpoints. Defined in domain for consistency and reuse.

// DefaultPortfolioID is used when a request names no portfolio.
const DefaultPortfolioID = "default"

type DashboardRequest struct {
	PortfolioID string `query:"portfolio" json:"portfolio" default:"default" validate:"max=64"`
	Refresh     bool   `query:"refresh" json:"refresh"`
}

type PortfolioRequest struct {
	ID string `param:"id" json:"id" validate:"required,max=64"`
}

type PortfolioUpsertRequest struct {
	ID       string                  `param:"id" json:"-" validate:"required,max=64"`
	Holdings []Holding               `json:"holdings" validate:"required,min=1,dive"`
	Targets  map[EngineID]TargetBand `json:"targets"`
}

type ClassifyRequest struct {
	Holding Holding `json:"holding" validate:"required"`
}

type ObservationInput struct {
	Date  string  `json:"date" validate:"required,datetime=2006-01-02"`
	Value float64 `json:"value"`
}

type ObservationIngestRequest struct {
	SeriesID     string             `json:"series_id" validate:"required,max=64"`
	Source       string             `json:"source" default:"manual" validate:"max=32"`
	Observations []ObservationInput `json:"observations" validate:"required,min=1,max=10000,dive"`
}
