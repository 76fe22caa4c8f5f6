package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubComponent simulates a stdlib component that registers its own metric
// alongside the network's core metrics.
type stubComponent struct {
	name    string
	emitted prometheus.Counter
}

func newStubComponent(name string) *stubComponent {
	return &stubComponent{
		name: name,
		emitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stub_emitted_total",
			Help: "Packets emitted by the stub component",
		}),
	}
}

func (c *stubComponent) registerWith(r *Registry) error {
	return r.Register(c.name+".emitted", c.emitted)
}

func TestRegistryIntegrationCoreAndComponentMetricsCoexist(t *testing.T) {
	r := NewRegistry()
	stub := newStubComponent("widget-1")
	require.NoError(t, stub.registerWith(r))

	r.Core.RecordComponentState("net1", "widget-1", 1)
	stub.emitted.Inc()
	stub.emitted.Inc()

	families, err := r.Prometheus().Gather()
	require.NoError(t, err)

	var sawStub, sawCore bool
	for _, mf := range families {
		switch mf.GetName() {
		case "stub_emitted_total":
			sawStub = true
			assert.Equal(t, 2.0, mf.GetMetric()[0].GetCounter().GetValue())
		case "fbpcore_component_state":
			sawCore = true
		}
	}
	assert.True(t, sawStub, "component-registered metric should be gathered")
	assert.True(t, sawCore, "core metric should be gathered")
}

func TestRegistryRejectsSameComponentMetricTwice(t *testing.T) {
	r := NewRegistry()
	stub := newStubComponent("widget-1")
	require.NoError(t, stub.registerWith(r))
	assert.Error(t, stub.registerWith(r))
}
