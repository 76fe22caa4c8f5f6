package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryRegistersCoreMetrics(t *testing.T) {
	r := NewRegistry()
	assert.NotNil(t, r.Prometheus())
	assert.NotNil(t, r.Core)
}

func TestRegistryRegisterRejectsDuplicateKey(t *testing.T) {
	r := NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "widget_ops_total", Help: "ops"})
	require.NoError(t, r.Register("widget.ops", counter))

	other := prometheus.NewCounter(prometheus.CounterOpts{Name: "widget_ops_total_2", Help: "ops"})
	err := r.Register("widget.ops", other)
	assert.Error(t, err)
}

func TestCoreRecordersUpdateGatheredMetrics(t *testing.T) {
	r := NewRegistry()
	r.Core.RecordPacketSent("net1", "Source", "OUT")
	r.Core.RecordConnectionDepth("net1", "Source", "Sink", 3)
	r.Core.RecordDeadlock("net1")

	families, err := r.Prometheus().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
