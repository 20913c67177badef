package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ratchet_runs_total",
		Help: "Total number of ratchet passes by verdict.",
	}, []string{"verdict"})

	RegressionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ratchet_regressions_total",
		Help: "Total number of count increases detected across passes.",
	})

	ImprovementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ratchet_improvements_total",
		Help: "Total number of count decreases recorded across passes.",
	})

	BaselineIssues = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ratchet_baseline_issues",
		Help: "Issue counts currently recorded in the baseline, by category.",
	}, []string{"category"})

	BaselineFiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ratchet_baseline_files",
		Help: "Number of files with at least one recorded issue in the baseline.",
	})

	FilesAnalyzed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ratchet_files_analyzed",
		Help: "Number of files covered by the most recent analyzer report.",
	})

	ExcludedFilesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ratchet_excluded_files_total",
		Help: "Total number of report entries dropped by exclude patterns.",
	})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ratchet_stage_seconds",
		Help:    "Time spent in each stage of a ratchet pass.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ratchet_watcher_events_total",
		Help: "Total number of file system events received by the report watcher.",
	})

	WatcherThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ratchet_watcher_throttled_total",
		Help: "Total number of watch-triggered passes delayed by the rate limiter.",
	})
)

// WriteToTextfile dumps the default registry in the node_exporter textfile format.
func WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
