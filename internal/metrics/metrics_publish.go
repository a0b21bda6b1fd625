package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PublishFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetsync_publish_failed_total",
			Help: "Total number of failed publish operations by git step",
		},
		[]string{"job", "op"},
	)

	JobRunCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetsync_job_run_total",
			Help: "Total number of job runs by final state",
		},
		[]string{"job", "state"},
	)

	JobRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assetsync_job_run_duration_seconds",
			Help:    "Job run duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200, 1800, 3600},
		},
		[]string{"job"},
	)

	LastJobRunStart = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "assetsync_last_job_run_start_timestamp",
			Help: "Unix timestamp of when the last job run started",
		},
		[]string{"job"},
	)

	LastJobRunEnd = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "assetsync_last_job_run_end_timestamp",
			Help: "Unix timestamp of when the last job run ended",
		},
		[]string{"job"},
	)
)

func JobStarted(job string, started time.Time) {
	LastJobRunStart.WithLabelValues(job).Set(float64(started.Unix()))
}

func JobFinished(job, state string, started time.Time) {
	now := time.Now()
	JobRunCount.WithLabelValues(job, state).Inc()
	JobRunDuration.WithLabelValues(job).Observe(now.Sub(started).Seconds())
	LastJobRunEnd.WithLabelValues(job).Set(float64(now.Unix()))
}

// WriteTextfile writes every registered metric to path in the text
// exposition format, for pickup by the node exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
