package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcomes.
const (
	OutcomeChanged   = "changed"
	OutcomeUnchanged = "unchanged"
	OutcomeFailed    = "failed"
)

var (
	AssetFetchCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetsync_asset_fetch_total",
			Help: "Total number of asset fetches by outcome",
		},
		[]string{"job", "category", "outcome"},
	)

	AssetBytesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetsync_asset_bytes_written_total",
			Help: "Total number of asset bytes written to the working tree",
		},
		[]string{"job", "category"},
	)

	AssetFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assetsync_asset_fetch_duration_seconds",
			Help:    "Asset fetch duration in seconds",
			Buckets: []float64{0.1, 0.2, 0.5, 1, 1.5, 2, 5, 10, 30, 60},
		},
		[]string{"job"},
	)
)

// AssetFetched records the outcome of one fetch.
func AssetFetched(job, category, outcome string, bytes int, started time.Time) {
	AssetFetchCount.WithLabelValues(job, category, outcome).Inc()
	if bytes > 0 {
		AssetBytesWritten.WithLabelValues(job, category).Add(float64(bytes))
	}
	AssetFetchDuration.WithLabelValues(job).Observe(time.Since(started).Seconds())
}
