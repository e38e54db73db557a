package vecadd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clvecadd_runs_total",
		Help: "Total number of vector additions, by the path that produced the result",
	}, []string{"path", "type"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clvecadd_run_duration_seconds",
		Help:    "Wall time of vector additions, by path",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})

	elementsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clvecadd_elements_processed_total",
		Help: "Total number of output elements computed, by path",
	}, []string{"path"})

	fallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clvecadd_fallbacks_total",
		Help: "Total number of device runs that fell back to the host, by failing stage",
	}, []string{"stage"})

	breakerOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clvecadd_breaker_open",
		Help: "1 when the device breaker of the last used engine is not closed",
	})
)
