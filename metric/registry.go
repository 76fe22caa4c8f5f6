// Package metric wires the runtime's network and component statistics to
// Prometheus, trimmed to the counters a flow-based network actually
// produces.
package metric

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	fbperrors "github.com/c360/fbpcore/errors"
)

// Core holds the network-wide metrics every Network.Run exercises, as
// opposed to ad hoc per-component metrics registered later.
type Core struct {
	ComponentState    *prometheus.GaugeVec   // labels: network, component (value: state code)
	PacketsSent       *prometheus.CounterVec // labels: network, component, port
	PacketsReceived   *prometheus.CounterVec // labels: network, component, port
	ConnectionDepth   *prometheus.GaugeVec   // labels: network, from, to
	ConnectionDropped *prometheus.CounterVec // labels: network, component, port
	NetworkRunning    *prometheus.GaugeVec   // labels: network (0=idle,1=running,2=terminating,3=terminated,4=errored)
	Deadlocks         *prometheus.CounterVec // labels: network
	ComponentErrors   *prometheus.CounterVec // labels: network, component, class
}

func newCore() *Core {
	return &Core{
		ComponentState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "fbpcore", Subsystem: "component", Name: "state",
			Help: "Component lifecycle state (0=idle,1=active,2=suspended_send,3=suspended_receive,4=terminated,5=errored)",
		}, []string{"network", "component"}),
		PacketsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fbpcore", Subsystem: "packets", Name: "sent_total",
			Help: "Total packets sent on an output port",
		}, []string{"network", "component", "port"}),
		PacketsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fbpcore", Subsystem: "packets", Name: "received_total",
			Help: "Total packets received on an input port",
		}, []string{"network", "component", "port"}),
		ConnectionDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "fbpcore", Subsystem: "connection", Name: "depth",
			Help: "Packets currently queued on a connection",
		}, []string{"network", "from", "to"}),
		ConnectionDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fbpcore", Subsystem: "connection", Name: "dropped_total",
			Help: "Packets discarded by an early consumer-side close",
		}, []string{"network", "component", "port"}),
		NetworkRunning: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "fbpcore", Subsystem: "network", Name: "run_state",
			Help: "Network run state (0=idle,1=running,2=terminating,3=terminated,4=errored)",
		}, []string{"network"}),
		Deadlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fbpcore", Subsystem: "network", Name: "deadlocks_total",
			Help: "Deadlocks detected across all runs of this network",
		}, []string{"network"}),
		ComponentErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fbpcore", Subsystem: "component", Name: "errors_total",
			Help: "Component errors by classification",
		}, []string{"network", "component", "class"}),
	}
}

// Registry manages Prometheus registration for both the core metrics above
// and any per-component metrics a stdlib or user component wants to expose.
type Registry struct {
	prom  *prometheus.Registry
	Core  *Core
	extra map[string]prometheus.Collector
	mu    sync.RWMutex
}

// NewRegistry creates a registry with the core metrics and Go runtime
// collectors already registered.
func NewRegistry() *Registry {
	prom := prometheus.NewRegistry()
	r := &Registry{prom: prom, Core: newCore(), extra: make(map[string]prometheus.Collector)}
	prom.MustRegister(
		r.Core.ComponentState, r.Core.PacketsSent, r.Core.PacketsReceived,
		r.Core.ConnectionDepth, r.Core.ConnectionDropped, r.Core.NetworkRunning,
		r.Core.Deadlocks, r.Core.ComponentErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Prometheus returns the underlying registry, for wiring an HTTP handler.
func (r *Registry) Prometheus() *prometheus.Registry { return r.prom }

// Register adds a component-defined collector under a unique key, e.g. a
// stdlib component exposing its own histogram.
func (r *Registry) Register(key string, c prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.extra[key]; exists {
		return fbperrors.WrapInvalid(fmt.Errorf("metric %q already registered", key), "Registry", "Register")
	}
	if err := r.prom.Register(c); err != nil {
		var dup prometheus.AlreadyRegisteredError
		if stderrors.As(err, &dup) {
			return fbperrors.WrapInvalid(err, "Registry", "Register")
		}
		return fbperrors.WrapFatal(err, "Registry", "Register")
	}
	r.extra[key] = c
	return nil
}
