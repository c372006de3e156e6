package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EndpointLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "macropulse",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of dashboard API endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	EndpointErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "macropulse",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by dashboard API endpoint",
		},
		[]string{"endpoint"},
	)

	WSClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "macropulse",
			Subsystem: "ws",
			Name:      "clients",
			Help:      "Connected dashboard WebSocket clients",
		},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(EndpointLatency, EndpointErrors, WSClients)
	})
}
