package aggregator

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/atikulmunna/logsift/internal/model"
)

// Stats holds a point-in-time snapshot of filter activity.
type Stats struct {
	Uptime        string  `json:"uptime"`
	Runs          int64   `json:"runs"`
	Rejected      int64   `json:"rejected"`
	EmptyResults  int64   `json:"empty_results"`
	LinesScanned  int64   `json:"lines_scanned"`
	LinesMatched  int64   `json:"lines_matched"`
	LastElapsedMS float64 `json:"last_elapsed_ms"`
	RunsPerMinute float64 `json:"runs_per_minute"`
}

// Metrics are the Prometheus collectors fed by the Aggregator.
type Metrics struct {
	Runs     prometheus.Counter
	Rejected prometheus.Counter
	Scanned  prometheus.Counter
	Matched  prometheus.Counter
	Duration prometheus.Histogram
}

// NewMetrics creates and registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "logsift_filter_runs_total",
			Help: "Filter runs that completed, including runs with no matches",
		}),
		Rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "logsift_filter_rejected_total",
			Help: "Filter requests rejected for an invalid or missing token",
		}),
		Scanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "logsift_lines_scanned_total",
			Help: "Log lines examined by completed runs",
		}),
		Matched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "logsift_lines_matched_total",
			Help: "Log lines returned by completed runs",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "logsift_filter_duration_seconds",
			Help:    "Time spent classifying and matching per run",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
	reg.MustRegister(m.Runs, m.Rejected, m.Scanned, m.Matched, m.Duration)
	return m
}

// Aggregator accumulates filter run statistics.
type Aggregator struct {
	mu        sync.RWMutex
	startTime time.Time
	stats     Stats
	window    []time.Time // completion times for the last minute
	metrics   *Metrics
}

// New creates an Aggregator. metrics may be nil.
func New(metrics *Metrics) *Aggregator {
	return &Aggregator{
		startTime: time.Now(),
		metrics:   metrics,
	}
}

// Record adds a completed run.
func (a *Aggregator) Record(report model.Report) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats.Runs++
	a.stats.LinesScanned += int64(report.Scanned)
	a.stats.LinesMatched += int64(report.Count())
	if report.Count() == 0 {
		a.stats.EmptyResults++
	}
	a.stats.LastElapsedMS = float64(report.Elapsed) / float64(time.Millisecond)

	now := time.Now()
	a.window = append(a.window, now)
	a.pruneLocked(now)

	if a.metrics != nil {
		a.metrics.Runs.Inc()
		a.metrics.Scanned.Add(float64(report.Scanned))
		a.metrics.Matched.Add(float64(report.Count()))
		a.metrics.Duration.Observe(report.Elapsed.Seconds())
	}
}

// Reject counts a request refused before matching.
func (a *Aggregator) Reject() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats.Rejected++
	if a.metrics != nil {
		a.metrics.Rejected.Inc()
	}
}

// Snapshot returns the current statistics.
func (a *Aggregator) Snapshot() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pruneLocked(time.Now())
	s := a.stats
	s.Uptime = time.Since(a.startTime).Truncate(time.Second).String()
	s.RunsPerMinute = float64(len(a.window))
	return s
}

// pruneLocked drops completion times older than one minute.
func (a *Aggregator) pruneLocked(now time.Time) {
	cutoff := now.Add(-time.Minute)
	i := 0
	for _, t := range a.window {
		if t.After(cutoff) {
			a.window[i] = t
			i++
		}
	}
	a.window = a.window[:i]
}
