package kernelcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	programBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clvecadd_program_builds_total",
		Help: "Total number of programs built, by artifact origin",
	}, []string{"origin"})

	programBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clvecadd_program_build_duration_seconds",
		Help:    "Time spent building programs, by artifact origin",
		Buckets: prometheus.DefBuckets,
	}, []string{"origin"})

	programCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clvecadd_program_cache_hits_total",
		Help: "Total number of program lookups served from memory",
	})

	binaryFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clvecadd_binary_fallbacks_total",
		Help: "Total number of binary loads that fell back to source compilation",
	})

	binaryPersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clvecadd_binary_persist_failures_total",
		Help: "Total number of program binaries that could not be written",
	})
)
