package usecase

import (
	"context"
	"errors"
	"time"

	"MacroPulse/internal/domain/models"
	domsvc "MacroPulse/internal/domain/service"
	"MacroPulse/pkg/cache"
	applogger "MacroPulse/pkg/logger"
)

// DashboardCache serves the last built dashboard per portfolio and rebuilds
// it when the cached copy expired or a refresh is requested.
type DashboardCache struct {
	builder domsvc.DashboardBuilder
	cache   cache.Service
	ttl     time.Duration
	l       *applogger.Logger
}

func NewDashboardCache(builder domsvc.DashboardBuilder, c cache.Service, ttl time.Duration, l *applogger.Logger) *DashboardCache {
	return &DashboardCache{builder: builder, cache: c, ttl: ttl, l: l}
}

func DashboardKey(portfolioID string) string {
	return cache.Key("dashboard", portfolioID)
}

// Get returns the cached dashboard unless refresh is set or nothing is cached.
func (dc *DashboardCache) Get(ctx context.Context, portfolioID string, refresh bool) (*models.Dashboard, error) {
	if !refresh && dc.cache != nil {
		d, err := cache.GetTyped[models.Dashboard](ctx, dc.cache, DashboardKey(portfolioID))
		if err == nil {
			return &d, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			dc.l.Warn("dashboard cache read failed", applogger.String("portfolio_id", portfolioID), applogger.Error(err))
		}
	}
	return dc.Refresh(ctx, portfolioID)
}

// Refresh builds a new dashboard and stores it.
func (dc *DashboardCache) Refresh(ctx context.Context, portfolioID string) (*models.Dashboard, error) {
	d, err := dc.builder.Build(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	if dc.cache != nil {
		if err := dc.cache.Set(ctx, DashboardKey(portfolioID), d, dc.ttl); err != nil {
			dc.l.Warn("dashboard cache write failed", applogger.String("portfolio_id", portfolioID), applogger.Error(err))
		}
	}
	return d, nil
}
