// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector records pipeline metrics. A nil *Collector is valid and
// records nothing, so callers never need to guard their calls.
type Collector struct {
	runsTotal    *prometheus.CounterVec
	runDuration  prometheus.Histogram
	nodeTotal    *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec

	adapterFailures *prometheus.CounterVec
	inferenceCalls  *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec
}

// NewCollector creates a collector registered on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bioflow",
			Name:      "runs_total",
			Help:      "Pipeline runs by terminal status.",
		}, []string{"status"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bioflow",
			Name:      "run_duration_seconds",
			Help:      "End-to-end pipeline run duration.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		nodeTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bioflow",
			Name:      "node_executions_total",
			Help:      "Stage node executions by node and outcome.",
		}, []string{"node", "outcome"}),
		nodeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bioflow",
			Name:      "node_duration_seconds",
			Help:      "Stage node execution duration.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"node"}),
		adapterFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bioflow",
			Name:      "adapter_failures_total",
			Help:      "Evidence adapter failures by source and error code.",
		}, []string{"source", "code"}),
		inferenceCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bioflow",
			Name:      "inference_calls_total",
			Help:      "Inference client calls by outcome.",
		}, []string{"outcome"}),
		eventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bioflow",
			Name:      "stream_events_total",
			Help:      "Stream events published by type.",
		}, []string{"type"}),
	}
}

// ObserveRun records one finished run.
func (c *Collector) ObserveRun(status string, d time.Duration) {
	if c == nil {
		return
	}
	c.runsTotal.WithLabelValues(status).Inc()
	c.runDuration.Observe(d.Seconds())
}

// ObserveNode records one stage node execution.
func (c *Collector) ObserveNode(node, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.nodeTotal.WithLabelValues(node, outcome).Inc()
	c.nodeDuration.WithLabelValues(node).Observe(d.Seconds())
}

// RecordAdapterFailure records an evidence source failure.
func (c *Collector) RecordAdapterFailure(source, code string) {
	if c == nil {
		return
	}
	c.adapterFailures.WithLabelValues(source, code).Inc()
}

// RecordInferenceCall records an inference client call outcome.
func (c *Collector) RecordInferenceCall(outcome string) {
	if c == nil {
		return
	}
	c.inferenceCalls.WithLabelValues(outcome).Inc()
}

// RecordEvent records a published stream event.
func (c *Collector) RecordEvent(eventType string) {
	if c == nil {
		return
	}
	c.eventsPublished.WithLabelValues(eventType).Inc()
}
