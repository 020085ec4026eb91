package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/facilityfinder/internal/db"
)

// Search Prometheus metrics.
var (
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Search query duration in seconds",
			Buckets:   latencyBuckets,
		},
		[]string{"template", "status"},
	)

	PoolAcquireTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_acquire_total",
			Help:      "Connection checkouts by outcome",
		},
		[]string{"result"}, // "ok" / "exhausted" / "canceled" / "unavailable"
	)

	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_total",
			Help:      "Result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var registerOnce sync.Once

// Register registers HTTP and search metrics with the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight,
			httpRequestDuration,
			httpRequestsTotal,
			httpResponseBytes,
			QueryDuration,
			PoolAcquireTotal,
			CacheTotal,
		)
	})
}

// PoolCollectors returns gauges sampled from stats on every scrape.
func PoolCollectors(stats func() db.PoolStats) []prometheus.Collector {
	gauge := func(name, help string, value func(db.PoolStats) int) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(value(stats())) })
	}
	return []prometheus.Collector{
		gauge("max_conns", "Maximum simultaneously checked-out connections",
			func(s db.PoolStats) int { return s.MaxConns }),
		gauge("in_use_conns", "Connections currently checked out",
			func(s db.PoolStats) int { return s.InUse }),
		gauge("total_conns", "Open physical connections",
			func(s db.PoolStats) int { return s.TotalConns }),
		gauge("idle_conns", "Open physical connections not checked out",
			func(s db.PoolStats) int { return s.IdleConns }),
	}
}

// RegisterPool registers pool gauges with the default registry.
func RegisterPool(stats func() db.PoolStats) {
	prometheus.MustRegister(PoolCollectors(stats)...)
}
