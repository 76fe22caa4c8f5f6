package metric

// RecordComponentState sets the gauge tracking a component's lifecycle
// state.
func (c *Core) RecordComponentState(network, component string, state int) {
	c.ComponentState.WithLabelValues(network, component).Set(float64(state))
}

// RecordPacketSent increments the sent-packet counter for an output port.
func (c *Core) RecordPacketSent(network, component, port string) {
	c.PacketsSent.WithLabelValues(network, component, port).Inc()
}

// RecordPacketReceived increments the received-packet counter for an input
// port.
func (c *Core) RecordPacketReceived(network, component, port string) {
	c.PacketsReceived.WithLabelValues(network, component, port).Inc()
}

// RecordConnectionDepth sets the current queue depth of a connection,
// sampled by the network's deadlock monitor.
func (c *Core) RecordConnectionDepth(network, from, to string, depth int) {
	c.ConnectionDepth.WithLabelValues(network, from, to).Set(float64(depth))
}

// RecordConnectionDropped adds to the dropped-packet counter of an input
// port whose consumer side closed with packets still queued.
func (c *Core) RecordConnectionDropped(network, component, port string, n int) {
	c.ConnectionDropped.WithLabelValues(network, component, port).Add(float64(n))
}

// RecordNetworkRunState sets the network's overall run-state gauge.
func (c *Core) RecordNetworkRunState(network string, state int) {
	c.NetworkRunning.WithLabelValues(network).Set(float64(state))
}

// RecordDeadlock increments the deadlock counter for a network.
func (c *Core) RecordDeadlock(network string) {
	c.Deadlocks.WithLabelValues(network).Inc()
}

// RecordComponentError increments the classified error counter for a
// component.
func (c *Core) RecordComponentError(network, component, class string) {
	c.ComponentErrors.WithLabelValues(network, component, class).Inc()
}
