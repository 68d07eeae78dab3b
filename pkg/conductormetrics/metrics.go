// Package conductormetrics holds the Prometheus collectors for the
// orchestration runtime's StatisticsManager. Registration mirrors the
// per-subsystem counter/histogram pairs the rest of the stack uses for
// its own job-execution metrics.
package conductormetrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds the MusicalConductor-specific collectors, kept separate
// from prometheus.DefaultRegisterer so embedding applications can mount it
// wherever they like (or not at all).
var Registry = prometheus.NewRegistry()

var (
	// SequencesTotal counts sequence requests by outcome.
	SequencesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "musicalconductor",
			Subsystem: "sequences",
			Name:      "total",
			Help:      "Total sequence admissions by outcome.",
		},
		[]string{"outcome"}, // queued|started|completed|errored|cancelled|duplicate|rejected
	)

	QueueWaitSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "musicalconductor",
			Subsystem: "sequences",
			Name:      "queue_wait_seconds",
			Help:      "Time a request spent queued before execution began.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		},
	)

	RunSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "musicalconductor",
			Subsystem: "sequences",
			Name:      "run_seconds",
			Help:      "Wall-clock duration of a sequence run.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 20),
		},
	)
)

func init() {
	Registry.MustRegister(SequencesTotal, QueueWaitSeconds, RunSeconds)
}
