package repository

import (
	"context"
	"errors"
	"time"

	"MacroPulse/internal/domain/models"
	domrepo "MacroPulse/internal/domain/repository"
	"MacroPulse/pkg/cache"
	applogger "MacroPulse/pkg/logger"
)

// CachedProvider routes a series id to its upstream, caches non-empty
// results and optionally archives upstream fetches into the observation store.
// Failures degrade to an empty series.
type CachedProvider struct {
	sources map[domrepo.SourceKind]domrepo.SeriesSource
	cache   cache.Service
	ttl     time.Duration
	archive domrepo.ObservationStore
	metrics domrepo.Metrics
	l       *applogger.Logger
}

var _ domrepo.SeriesProvider = (*CachedProvider)(nil)

type ProviderOption func(*CachedProvider)

// WithSource registers the source for one routing kind.
func WithSource(kind domrepo.SourceKind, src domrepo.SeriesSource) ProviderOption {
	return func(p *CachedProvider) {
		if src != nil {
			p.sources[kind] = src
		}
	}
}

func WithCache(c cache.Service, ttl time.Duration) ProviderOption {
	return func(p *CachedProvider) {
		p.cache = c
		p.ttl = ttl
	}
}

// WithArchive copies every successful upstream fetch into store.
func WithArchive(store domrepo.ObservationStore) ProviderOption {
	return func(p *CachedProvider) { p.archive = store }
}

func WithMetrics(m domrepo.Metrics) ProviderOption {
	return func(p *CachedProvider) { p.metrics = m }
}

func WithProviderLogger(l *applogger.Logger) ProviderOption {
	return func(p *CachedProvider) { p.l = l }
}

func NewCachedProvider(opts ...ProviderOption) *CachedProvider {
	p := &CachedProvider{
		sources: make(map[domrepo.SourceKind]domrepo.SeriesSource),
		ttl:     6 * time.Hour,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func seriesKey(seriesID string, start time.Time) string {
	return cache.Key("series", seriesID, start.Format(models.DateLayout))
}

// Series returns observations for seriesID on or after start.
func (p *CachedProvider) Series(ctx context.Context, seriesID string, start time.Time) models.Series {
	kind := domrepo.SourceFor(seriesID)
	src, ok := p.sources[kind]
	if !ok {
		p.l.Debug("no source for series", applogger.String("series_id", seriesID), applogger.String("kind", string(kind)))
		return nil
	}

	// store-backed series change on every ingest, so they skip the cache
	cacheable := p.cache != nil && kind != domrepo.SourceStore
	key := seriesKey(seriesID, start)
	if cacheable {
		var cached models.Series
		err := p.cache.Get(ctx, key, &cached)
		switch {
		case err == nil:
			p.recordCache(true)
			return cached
		case errors.Is(err, cache.ErrCacheMiss):
			p.recordCache(false)
		default:
			p.recordCache(false)
			p.l.Warn("series cache read failed", applogger.String("series_id", seriesID), applogger.Error(err))
		}
	}

	began := time.Now()
	series, err := src.Fetch(ctx, seriesID, start)
	if p.metrics != nil {
		p.metrics.RecordFetch(src.Name(), seriesID, len(series), time.Since(began), err)
	}
	if err != nil {
		p.l.Error("series fetch failed",
			applogger.String("series_id", seriesID),
			applogger.String("source", src.Name()),
			applogger.Error(err),
		)
		return nil
	}
	if series.Empty() {
		return nil
	}

	if cacheable {
		if err := p.cache.Set(ctx, key, series, p.ttl); err != nil {
			p.l.Warn("series cache write failed", applogger.String("series_id", seriesID), applogger.Error(err))
		}
	}
	if p.archive != nil && kind != domrepo.SourceStore {
		if err := p.archive.StoreBatch(ctx, seriesID, src.Name(), series); err != nil {
			p.l.Warn("series archive failed", applogger.String("series_id", seriesID), applogger.Error(err))
		}
	}
	return series
}

func (p *CachedProvider) recordCache(hit bool) {
	if p.metrics != nil {
		p.metrics.RecordCache("series", hit)
	}
}
