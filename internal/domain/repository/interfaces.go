package repository

import (
	"context"
	"errors"
	"time"

	"MacroPulse/internal/domain/models"
)

// ErrNotFound is returned by stores when a keyed record does not exist.
var ErrNotFound = errors.New("not found")

// SeriesProvider supplies observations for a series id starting at start.
// It never fails: upstream errors degrade to an empty series, which the
// signal layers read as "no data".
type SeriesProvider interface {
	Series(ctx context.Context, seriesID string, start time.Time) models.Series
}

// SeriesSource is a fallible upstream of observations.
type SeriesSource interface {
	Name() string
	Fetch(ctx context.Context, seriesID string, start time.Time) (models.Series, error)
}

// ObservationStore archives observations and serves the series ingested
// into it (breadth proxies).
type ObservationStore interface {
	SeriesSource
	Init(ctx context.Context) error
	StoreBatch(ctx context.Context, seriesID, source string, obs []models.Observation) error
	Health(ctx context.Context) error
	Close() error
}

// PortfolioStore persists portfolios by id.
type PortfolioStore interface {
	Get(ctx context.Context, id string) (*models.Portfolio, error)
	Save(ctx context.Context, p *models.Portfolio) error
}

// EventPublisher emits dashboard events to downstream consumers.
type EventPublisher interface {
	PublishDashboard(ctx context.Context, ev models.DashboardEvent) error
	Close() error
}

type Metrics interface {
	RecordFetch(source, seriesID string, points int, dur time.Duration, err error)
	RecordError(kind string)
	RecordLevel(section string, severity int)
	RecordCache(cache string, hit bool)
	RecordLatency(op string, seconds float64)
}
