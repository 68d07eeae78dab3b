package conductor

import (
	"sort"
	"sync"
	"time"

	"github.com/r3e-labs/musicalconductor/pkg/conductormetrics"
)

// Counters is a plain snapshot of the running admission/outcome totals.
type Counters struct {
	Queued     uint64
	Started    uint64
	Completed  uint64
	Errored    uint64
	Cancelled  uint64
	Duplicates uint64
	Rejected   uint64
}

// StatsSnapshot is returned by StatisticsManager.Snapshot.
type StatsSnapshot struct {
	Counters         Counters
	QueueWaitP50Ms   int64
	QueueWaitP90Ms   int64
	QueueWaitP99Ms   int64
	RunTimeP50Ms     int64
	RunTimeP90Ms     int64
	RunTimeP99Ms     int64
}

// maxSamples bounds the in-memory wait/run-time distributions kept for
// percentile calculation, so a long-lived conductor doesn't grow them
// without bound.
const maxSamples = 2048

// StatisticsManager tracks counters and wait/run-time distributions, and
// mirrors every update onto the conductormetrics Prometheus collectors.
type StatisticsManager struct {
	mu        sync.Mutex
	counters  Counters
	waitTimes []time.Duration
	runTimes  []time.Duration
}

// NewStatisticsManager creates an empty StatisticsManager.
func NewStatisticsManager() *StatisticsManager {
	return &StatisticsManager{}
}

// RecordQueued records a newly admitted, queued request.
func (s *StatisticsManager) RecordQueued() {
	s.mu.Lock()
	s.counters.Queued++
	s.mu.Unlock()
	conductormetrics.SequencesTotal.WithLabelValues("queued").Inc()
}

// RecordStarted records a request leaving the queue for execution.
func (s *StatisticsManager) RecordStarted() {
	s.mu.Lock()
	s.counters.Started++
	s.mu.Unlock()
	conductormetrics.SequencesTotal.WithLabelValues("started").Inc()
}

// RecordCompleted records a successful run and its wall-clock duration.
func (s *StatisticsManager) RecordCompleted(runtime time.Duration) {
	s.mu.Lock()
	s.counters.Completed++
	s.runTimes = appendBounded(s.runTimes, runtime)
	s.mu.Unlock()
	conductormetrics.SequencesTotal.WithLabelValues("completed").Inc()
	conductormetrics.RunSeconds.Observe(runtime.Seconds())
}

// RecordError records a run that terminated via an error policy.
func (s *StatisticsManager) RecordError() {
	s.mu.Lock()
	s.counters.Errored++
	s.mu.Unlock()
	conductormetrics.SequencesTotal.WithLabelValues("errored").Inc()
}

// RecordCancelled records a run preempted mid-flight.
func (s *StatisticsManager) RecordCancelled() {
	s.mu.Lock()
	s.counters.Cancelled++
	s.mu.Unlock()
	conductormetrics.SequencesTotal.WithLabelValues("cancelled").Inc()
}

// RecordDuplicate records an admission rejected as a duplicate.
func (s *StatisticsManager) RecordDuplicate() {
	s.mu.Lock()
	s.counters.Duplicates++
	s.mu.Unlock()
	conductormetrics.SequencesTotal.WithLabelValues("duplicate").Inc()
}

// RecordRejected records an admission rejected by the resource delegator.
func (s *StatisticsManager) RecordRejected() {
	s.mu.Lock()
	s.counters.Rejected++
	s.mu.Unlock()
	conductormetrics.SequencesTotal.WithLabelValues("rejected").Inc()
}

// UpdateQueueWaitTime records how long a request waited before execution
// began.
func (s *StatisticsManager) UpdateQueueWaitTime(d time.Duration) {
	s.mu.Lock()
	s.waitTimes = appendBounded(s.waitTimes, d)
	s.mu.Unlock()
	conductormetrics.QueueWaitSeconds.Observe(d.Seconds())
}

// Snapshot returns a point-in-time copy of counters and percentiles.
func (s *StatisticsManager) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	p50w, p90w, p99w := percentiles(s.waitTimes)
	p50r, p90r, p99r := percentiles(s.runTimes)
	return StatsSnapshot{
		Counters:       s.counters,
		QueueWaitP50Ms: p50w.Milliseconds(),
		QueueWaitP90Ms: p90w.Milliseconds(),
		QueueWaitP99Ms: p99w.Milliseconds(),
		RunTimeP50Ms:   p50r.Milliseconds(),
		RunTimeP90Ms:   p90r.Milliseconds(),
		RunTimeP99Ms:   p99r.Milliseconds(),
	}
}

func appendBounded(samples []time.Duration, d time.Duration) []time.Duration {
	samples = append(samples, d)
	if len(samples) > maxSamples {
		samples = samples[len(samples)-maxSamples:]
	}
	return samples
}

func percentiles(samples []time.Duration) (p50, p90, p99 time.Duration) {
	if len(samples) == 0 {
		return 0, 0, 0
	}
	sorted := make([]time.Duration, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return percentileAt(sorted, 0.50), percentileAt(sorted, 0.90), percentileAt(sorted, 0.99)
}

func percentileAt(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}
