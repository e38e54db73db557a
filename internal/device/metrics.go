package device

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	devicesDiscovered = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "clvecadd_devices_discovered",
		Help: "Number of devices found by the last enumeration",
	}, []string{"driver", "class"})

	commandsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clvecadd_commands_enqueued_total",
		Help: "Total number of commands submitted to a device queue",
	}, []string{"kind"})

	commandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clvecadd_command_duration_seconds",
		Help:    "Device execution time of completed commands (from queue profiling)",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}, []string{"kind"})

	buffersLive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clvecadd_buffers_live",
		Help: "Current number of allocated device buffers",
	})

	bufferBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clvecadd_buffer_bytes",
		Help: "Current total size of allocated device buffers in bytes",
	})
)
