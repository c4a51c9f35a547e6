package coordinator

import (
	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cxxindex/cxxindex/internal/query"
)

// metrics are registered on a private registry (never exposed over HTTP —
// that transport is server-frame scope) purely to back get_stats and
// get_call_statistics with counters the coordinator already needs to
// maintain for its own bookkeeping.
type metrics struct {
	registry      *prometheus.Registry
	indexedFiles  prometheus.Counter
	failedFiles   prometheus.Counter
	cacheHits     prometheus.Counter
	activeWorkers prometheus.Gauge
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	m := &metrics{
		registry: reg,
		indexedFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cxxindex_indexed_files_total",
			Help: "Files successfully parsed and written to the cache.",
		}),
		failedFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cxxindex_failed_files_total",
			Help: "Files that produced a parse error.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cxxindex_cache_hits_total",
			Help: "Files whose hash and compile-args hash matched the cache and were skipped.",
		}),
		activeWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cxxindex_active_workers",
			Help: "Worker goroutines currently holding a live child process.",
		}),
	}
	reg.MustRegister(m.indexedFiles, m.failedFiles, m.cacheHits, m.activeWorkers)
	return m
}

// snapshot reports the coordinator's lifetime run counters in the shape
// internal/query's get_call_statistics expects (query.RunStatsProvider).
func (m *metrics) snapshot() query.RunStats {
	return query.RunStats{
		IndexedFiles: readCounter(m.indexedFiles),
		FailedFiles:  readCounter(m.failedFiles),
		CacheHits:    readCounter(m.cacheHits),
	}
}

func readCounter(c prometheus.Counter) float64 {
	var pb dto.Metric
	if err := c.Write(&pb); err != nil {
		return 0
	}
	return pb.GetCounter().GetValue()
}
