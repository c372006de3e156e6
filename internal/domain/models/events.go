package models

import "time"

// DashboardEventType classifies a published dashboard event.
type DashboardEventType string

const (
	EventDashboardRefreshed DashboardEventType = "dashboard.refreshed"
	EventAlertLevelChanged  DashboardEventType = "alert.level_changed"
)

// DashboardEvent is the message published after a pipeline run.
type DashboardEvent struct {
	ID            string             `json:"id"`
	Type          DashboardEventType `json:"type"`
	PortfolioID   string             `json:"portfolio_id"`
	GeneratedAt   time.Time          `json:"generated_at"`
	PreviousLevel AlertLevel         `json:"previous_level,omitempty"`
	Level         AlertLevel         `json:"level"`
	Regime        Regime             `json:"regime,omitempty"`
	Reasons       []string           `json:"reasons,omitempty"`
	Action        PolicyAction       `json:"action,omitempty"`
}

// ObservationMessage is the wire form of an observation batch, used by the
// ingest endpoint and the Kafka ingest topic alike.
type ObservationMessage = ObservationIngestRequest

// JobDashboardRefresh is the queue message type that rebuilds one dashboard.
const JobDashboardRefresh = "dashboard.refresh"

// RefreshJob is the payload of a JobDashboardRefresh message.
type RefreshJob struct {
	PortfolioID string    `json:"portfolio_id"`
	RequestedAt time.Time `json:"requested_at"`
}
