// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_queries_total",
			Help: "Total number of pipeline queries served",
		},
		[]string{"record_type"},
	)

	QueriesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_queries_failed_total",
			Help: "Total number of pipeline queries rejected or failed",
		},
		[]string{"record_type", "error_code"},
	)

	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dashboard_query_duration_seconds",
			Help: "Duration of the filter-sort-paginate chain in seconds",
		},
		[]string{"record_type"},
	)

	SnapshotCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_snapshot_cache_hits_total",
			Help: "Snapshot cache hits and misses per record type",
		},
		[]string{"record_type", "outcome"},
	)

	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_exports_total",
			Help: "Total number of CSV exports served",
		},
		[]string{"record_type"},
	)

	AlertsDown = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashboard_alerts_down",
			Help: "Devices currently in down state per the last evaluation",
		},
	)

	AlertsStale = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashboard_alerts_stale",
			Help: "Devices currently past the stale threshold per the last evaluation",
		},
	)

	SecurityEventsSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_security_events_saved_total",
			Help: "Security events persisted by the scanner",
		},
		[]string{"severity", "rule"},
	)
)
