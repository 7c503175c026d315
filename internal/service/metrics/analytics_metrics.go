package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	AnalyticsLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stockinsight",
			Subsystem: "analytics",
			Name:      "latency_seconds",
			Help:      "Latency of analytics operations",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	AnalyticsErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockinsight",
			Subsystem: "analytics",
			Name:      "errors_total",
			Help:      "Errors by analytics operation",
		},
		[]string{"operation"},
	)

	SimulationPaths = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "stockinsight",
			Subsystem: "analytics",
			Name:      "simulation_paths",
			Help:      "Requested Monte Carlo path counts",
			Buckets:   []float64{50, 100, 200, 500, 1000, 2000, 5000, 10000},
		},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(AnalyticsLatency, AnalyticsErrors, SimulationPaths)
	})
}
