// Package metrics exposes Prometheus instrumentation for the delivery
// pipeline. All recorder methods are safe on a nil receiver so wiring metrics
// stays optional.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's counters and gauges.
type Metrics struct {
	jobsEnqueued  prometheus.Counter
	jobsSucceeded prometheus.Counter
	jobsFailed    prometheus.Counter
	cyclesRun     prometheus.Counter
	cycleDuration prometheus.Histogram
	queueDepth    prometheus.Gauge
}

// New registers the pipeline metrics against reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		jobsEnqueued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "certmailer",
			Name:      "jobs_enqueued_total",
			Help:      "Jobs accepted into the pending queue.",
		}),
		jobsSucceeded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "certmailer",
			Name:      "jobs_succeeded_total",
			Help:      "Jobs rendered and delivered successfully.",
		}),
		jobsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "certmailer",
			Name:      "jobs_failed_total",
			Help:      "Jobs moved to the failed namespace.",
		}),
		cyclesRun: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "certmailer",
			Name:      "worker_cycles_total",
			Help:      "Batch worker cycles executed.",
		}),
		cycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "certmailer",
			Name:      "worker_cycle_duration_seconds",
			Help:      "Wall-clock duration of one worker cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "certmailer",
			Name:      "queue_depth",
			Help:      "Pending jobs currently queued.",
		}),
	}
}

func (m *Metrics) JobEnqueued() {
	if m == nil {
		return
	}
	m.jobsEnqueued.Inc()
}

func (m *Metrics) JobSucceeded() {
	if m == nil {
		return
	}
	m.jobsSucceeded.Inc()
}

func (m *Metrics) JobFailed() {
	if m == nil {
		return
	}
	m.jobsFailed.Inc()
}

func (m *Metrics) CycleCompleted(d time.Duration) {
	if m == nil {
		return
	}
	m.cyclesRun.Inc()
	m.cycleDuration.Observe(d.Seconds())
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}
