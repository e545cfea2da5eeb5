package multiform

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache labels used by the cache metrics.
const (
	cacheMIME   = "mime"
	cacheHeader = "header"
)

// Metrics holds the Prometheus collectors shared by every pool, cache and
// form in the process.
type Metrics struct {
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	cacheEvictions   *prometheus.CounterVec
	cacheSize        *prometheus.GaugeVec
	boundaryRefills  prometheus.Counter
	boundariesInUse  prometheus.Gauge
	streamReadErrors prometheus.Counter
	bodyBytesEncoded prometheus.Counter
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// GetMetrics returns the singleton metrics instance.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = newMetrics()
	})
	return metricsInstance
}

// MustRegister registers all collectors with registry. The collectors are
// created with promauto against the default registry, so this is only needed
// when metrics are served from a custom one.
func (m *Metrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.cacheHits,
		m.cacheMisses,
		m.cacheEvictions,
		m.cacheSize,
		m.boundaryRefills,
		m.boundariesInUse,
		m.streamReadErrors,
		m.bodyBytesEncoded,
	)
}

func newMetrics() *Metrics {
	return &Metrics{
		cacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "multiform",
				Subsystem: "cache",
				Name:      "hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"cache"},
		),
		cacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "multiform",
				Subsystem: "cache",
				Name:      "misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"cache"},
		),
		cacheEvictions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "multiform",
				Subsystem: "cache",
				Name:      "evictions_total",
				Help:      "Total number of cache evictions",
			},
			[]string{"cache"},
		),
		cacheSize: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "multiform",
				Subsystem: "cache",
				Name:      "size",
				Help:      "Current number of entries in cache",
			},
			[]string{"cache"},
		),
		boundaryRefills: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "multiform",
				Subsystem: "boundary",
				Name:      "refills_total",
				Help:      "Total number of boundary pool refills",
			},
		),
		boundariesInUse: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "multiform",
				Subsystem: "boundary",
				Name:      "in_use",
				Help:      "Number of boundaries currently held by forms",
			},
		),
		streamReadErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "multiform",
				Subsystem: "form",
				Name:      "stream_read_errors_total",
				Help:      "Total number of stream sources that failed during serialization",
			},
		),
		bodyBytesEncoded: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "multiform",
				Subsystem: "form",
				Name:      "body_bytes_total",
				Help:      "Total number of body bytes materialized by Bytes",
			},
		),
	}
}
