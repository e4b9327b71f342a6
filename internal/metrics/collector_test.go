package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveRun("done", 2*time.Second)
	c.ObserveNode("analyzer", "ok", 100*time.Millisecond)
	c.ObserveNode("analyzer", "ok", 150*time.Millisecond)
	c.RecordAdapterFailure("pubmed", "SOURCE_RATE_LIMITED")
	c.RecordInferenceCall("ok")
	c.RecordEvent("status")

	assert.Equal(t, float64(1), testutil.ToFloat64(c.runsTotal.WithLabelValues("done")))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.nodeTotal.WithLabelValues("analyzer", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.adapterFailures.WithLabelValues("pubmed", "SOURCE_RATE_LIMITED")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.inferenceCalls.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.eventsPublished.WithLabelValues("status")))
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	require.NotPanics(t, func() {
		c.ObserveRun("failed", time.Second)
		c.ObserveNode("synthesizer", "error", time.Second)
		c.RecordAdapterFailure("europepmc", "SOURCE_TRANSIENT")
		c.RecordInferenceCall("error")
		c.RecordEvent("done")
	})
}
