// Package metrics provides Prometheus metrics for the duplicate pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	filesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dupwatch_files_processed_total",
			Help: "Total number of files run through the duplicate pipeline",
		},
	)

	hashComputations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dupwatch_hash_computations_total",
			Help: "Total number of content fingerprints computed",
		},
	)

	hashCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dupwatch_hash_cache_hits_total",
			Help: "Total number of files whose stored fingerprint was reused",
		},
	)

	duplicateSets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dupwatch_duplicate_sets_total",
			Help: "Total number of duplicate sets (two or more files) acted upon",
		},
	)

	filesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dupwatch_files_removed_total",
			Help: "Total number of duplicate files deleted",
		},
	)

	staleRecordsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dupwatch_stale_records_pruned_total",
			Help: "Total number of store records removed because their file vanished",
		},
	)

	filesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dupwatch_files_skipped_total",
			Help: "Total number of files skipped, by reason",
		},
		[]string{"reason"},
	)

	scanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dupwatch_scan_duration_seconds",
			Help:    "Duration of full directory scans",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordFileProcessed records one file passing through the pipeline.
func RecordFileProcessed() {
	filesProcessed.Inc()
}

// RecordHash records whether a fingerprint was computed or reused.
func RecordHash(computed bool) {
	if computed {
		hashComputations.Inc()
	} else {
		hashCacheHits.Inc()
	}
}

// RecordDuplicateSet records a duplicate set with two or more members.
func RecordDuplicateSet() {
	duplicateSets.Inc()
}

// RecordRemoved records a deleted duplicate.
func RecordRemoved() {
	filesRemoved.Inc()
}

// RecordStalePruned records a pruned stale record.
func RecordStalePruned() {
	staleRecordsPruned.Inc()
}

// RecordSkipped records a skipped file. Reasons: "io", "path", "store".
func RecordSkipped(reason string) {
	filesSkipped.WithLabelValues(reason).Inc()
}

// RecordScanDuration records how long a full scan took.
func RecordScanDuration(d time.Duration) {
	scanDuration.Observe(d.Seconds())
}
