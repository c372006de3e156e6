package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchTotal   *prometheus.CounterVec
	fetchLatency *prometheus.HistogramVec
	seriesPoints *prometheus.GaugeVec
	errorsTotal  *prometheus.CounterVec
	signalLevel  *prometheus.GaugeVec
	cacheTotal   *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a recorder registered on reg; nil means the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		fetchTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macropulse_series_fetch_total",
				Help: "Series fetches by upstream source and result",
			},
			[]string{"source", "result"},
		),
		fetchLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "macropulse_series_fetch_seconds",
				Help:    "Upstream series fetch latency",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"source"},
		),
		seriesPoints: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "macropulse_series_points",
				Help: "Observations returned by the last fetch of a series",
			},
			[]string{"series"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macropulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		signalLevel: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "macropulse_signal_level",
				Help: "Current severity per dashboard section (0 green, 1 yellow, 2 red)",
			},
			[]string{"section"},
		),
		cacheTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macropulse_cache_requests_total",
				Help: "Cache lookups by cache name and outcome",
			},
			[]string{"cache", "outcome"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "macropulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch records one upstream series fetch.
func (r *Recorder) RecordFetch(source, seriesID string, points int, dur time.Duration, err error) {
	result := "ok"
	switch {
	case err != nil:
		result = "error"
	case points == 0:
		result = "empty"
	}
	r.fetchTotal.WithLabelValues(source, result).Inc()
	r.fetchLatency.WithLabelValues(source).Observe(dur.Seconds())
	if err == nil {
		r.seriesPoints.WithLabelValues(seriesID).Set(float64(points))
	}
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLevel sets the severity gauge of a dashboard section.
func (r *Recorder) RecordLevel(section string, severity int) {
	r.signalLevel.WithLabelValues(section).Set(float64(severity))
}

// RecordCache counts a cache hit or miss.
func (r *Recorder) RecordCache(cache string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.cacheTotal.WithLabelValues(cache, outcome).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
