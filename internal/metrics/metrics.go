// Package metrics exports scheduler counters and histograms in
// Prometheus format, trimmed from ai/metrics/prometheus.go's
// PrometheusExporter shape down to the four series spec.md §4.7 asks
// for: queue depth, enqueue/completion totals, and task duration.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter exposes taskscheduler_* series over HTTP.
type Exporter struct {
	registry *prometheus.Registry

	queueDepth        prometheus.GaugeFunc
	tasksEnqueued     prometheus.Counter
	tasksCompleted    prometheus.Counter
	taskDurationHisto prometheus.Histogram
}

// DepthFunc reports the current queue depth; supplied by the caller
// so the exporter never reaches into the queue directly.
type DepthFunc func() float64

// New builds an Exporter backed by a fresh registry.
func New(depth DepthFunc) *Exporter {
	registry := prometheus.NewRegistry()

	e := &Exporter{registry: registry}

	e.queueDepth = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "taskscheduler",
		Name:      "queue_depth",
		Help:      "Number of tasks currently resident in the shared queue.",
	}, depth)

	e.tasksEnqueued = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "taskscheduler",
		Name:      "tasks_enqueued_total",
		Help:      "Total number of tasks submitted to the scheduler.",
	})

	e.tasksCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "taskscheduler",
		Name:      "tasks_completed_total",
		Help:      "Total number of tasks that finished executing.",
	})

	e.taskDurationHisto = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "taskscheduler",
		Name:      "task_duration_seconds",
		Help:      "Wall-clock duration reported by a task at completion.",
		Buckets:   prometheus.DefBuckets,
	})

	registry.MustRegister(e.queueDepth, e.tasksEnqueued, e.tasksCompleted, e.taskDurationHisto)
	return e
}

// ObserveEnqueue increments the enqueue counter.
func (e *Exporter) ObserveEnqueue() { e.tasksEnqueued.Inc() }

// ObserveCompletion increments the completion counter and records the
// task's reported duration, when one is known. Tasks that report the
// sentinel "unbounded" duration (internal/task's IoBound) are skipped
// since they would blow out the histogram's buckets.
func (e *Exporter) ObserveCompletion(d time.Duration) {
	e.tasksCompleted.Inc()
	if d > 0 && d < time.Hour {
		e.taskDurationHisto.Observe(d.Seconds())
	}
}

// Handler returns the HTTP handler serving the Prometheus text
// exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
