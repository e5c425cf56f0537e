// Package telemetry provides the ambient observability stack shared by
// every stage process: Prometheus metrics, OpenTelemetry tracing, and the
// /health handler. Adopted from the pack (jordigilh-kubernaut's
// prometheus/client_golang usage) because the teacher's own
// packages/go-core/telemetry speaks only OTel metrics, not the
// Prometheus text exposition format spec.md §6 requires.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the process-wide, stage-labeled counters, histograms, and
// gauges a pipeline stage emits. Prometheus's counters/gauges are
// lock-free atomics internally, satisfying spec.md §5's "metric counters
// are process-wide and atomic" invariant without any extra synchronization
// in this package.
type Metrics struct {
	Registry *prometheus.Registry

	MessagesConsumed *prometheus.CounterVec
	MessagesProduced *prometheus.CounterVec
	DecodeErrors     prometheus.Counter
	ProcessingErrors *prometheus.CounterVec
	ProcessingTime   *prometheus.HistogramVec
	QueueDepth       prometheus.Gauge
}

// NewMetrics builds and registers a Metrics set labeled with the given
// stage name (e.g. "ingestion", "validation").
func NewMetrics(stage string) *Metrics {
	reg := prometheus.NewRegistry()

	constLabels := prometheus.Labels{"stage": stage}

	m := &Metrics{
		Registry: reg,
		MessagesConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "orion_cdr",
			Name:        "messages_consumed_total",
			Help:        "Messages consumed from the broker, by topic.",
			ConstLabels: constLabels,
		}, []string{"topic"}),
		MessagesProduced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "orion_cdr",
			Name:        "messages_produced_total",
			Help:        "Messages published to the broker, by topic.",
			ConstLabels: constLabels,
		}, []string{"topic"}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "orion_cdr",
			Name:        "decode_errors_total",
			Help:        "Payloads dropped because they could not be decoded as JSON or UTF-8 text.",
			ConstLabels: constLabels,
		}),
		ProcessingErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "orion_cdr",
			Name:        "processing_errors_total",
			Help:        "Per-record processing errors, by kind.",
			ConstLabels: constLabels,
		}, []string{"kind"}),
		ProcessingTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "orion_cdr",
			Name:        "processing_duration_seconds",
			Help:        "Per-record processing latency.",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"step"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "orion_cdr",
			Name:        "internal_queue_depth",
			Help:        "Depth of an in-process worker queue; no stage sets it, so it stays 0.",
			ConstLabels: constLabels,
		}),
	}

	reg.MustRegister(
		m.MessagesConsumed,
		m.MessagesProduced,
		m.DecodeErrors,
		m.ProcessingErrors,
		m.ProcessingTime,
		m.QueueDepth,
	)
	return m
}
