package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObservePublish("success", time.Second)
		m.Fallback("duplicate_media")
		m.ObserveGraph("feed", "200", time.Millisecond)
		m.Watermark(true)
		m.ObserveHTTP("GET", "/healthz", "200", time.Millisecond)
		m.Pruned(3)
	})
}

func TestCountersRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObservePublish("success", 10*time.Millisecond)
	m.ObservePublish("success", 10*time.Millisecond)
	m.Watermark(false)
	m.Pruned(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PublishTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WatermarkTotal.WithLabelValues("passthrough")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PrunedPostsTotal))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
