package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersCollectors(t *testing.T) {
	m := New()
	require.NotNil(t, m.Registry)

	m.CacheLookup("line", true)
	m.CacheLookup("line", false)
	m.CacheLookup("line", false)
	m.Upstream("line_detail", "ok", 0.2)
	m.Omitted("bus")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("line", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("line", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequestsTotal.WithLabelValues("line_detail", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OmittedTotal.WithLabelValues("bus")))

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CacheLookup("line", true)
		m.Upstream("line_detail", "error", 1)
		m.Omitted("line")
		m.ObserveQuery(0.1)
	})
}
