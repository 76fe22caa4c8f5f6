package component

import (
	"context"
	"errors"
	"sync"

	"github.com/c360/fbpcore/eventbus"
	fbperrors "github.com/c360/fbpcore/errors"
	"github.com/c360/fbpcore/ip"
	"github.com/c360/fbpcore/metric"
	"github.com/c360/fbpcore/port"
)

// Instance is one running instantiation of a Component within a network: its
// wired ports, lifecycle state, and the handful of dependencies a body needs
// to report activity.
//
// A component body receives *Instance instead of raw ports so that every
// blocking port operation can update State for the deadlock monitor and
// track packet ownership for the leak check run at termination.
type Instance struct {
	name    string
	network string
	comp    Component

	ins       map[string]*port.InPort
	inArrays  map[string]*port.InArray
	outs      map[string]*port.OutPort
	outArrays map[string]*port.OutArray

	logger  *Logger
	metrics *metric.Registry
	bus     *eventbus.Bus

	mu    sync.Mutex
	state State
	held  int // packets currently owned by this instance
}

// NewInstance assembles a runtime instance. Every map may be nil for
// components with no ports of that kind.
func NewInstance(
	name, network string,
	comp Component,
	ins map[string]*port.InPort,
	inArrays map[string]*port.InArray,
	outs map[string]*port.OutPort,
	outArrays map[string]*port.OutArray,
	logger *Logger,
	metrics *metric.Registry,
	bus *eventbus.Bus,
) *Instance {
	return &Instance{
		name: name, network: network, comp: comp,
		ins: ins, inArrays: inArrays, outs: outs, outArrays: outArrays,
		logger: logger, metrics: metrics, bus: bus,
		state: Idle,
	}
}

// Name returns the instance's unique name within its network.
func (in *Instance) Name() string { return in.name }

// State returns the instance's current lifecycle state.
func (in *Instance) State() State {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.state
}

func (in *Instance) setState(s State) {
	in.mu.Lock()
	in.state = s
	in.mu.Unlock()
	if in.metrics != nil {
		in.metrics.Core.RecordComponentState(in.network, in.name, int(s))
	}
}

// InPort returns the named input port, or false if this component declares
// no such port.
func (in *Instance) InPort(name string) (*port.InPort, bool) {
	p, ok := in.ins[name]
	return p, ok
}

// OutPort returns the named output port, or false if this component
// declares no such port.
func (in *Instance) OutPort(name string) (*port.OutPort, bool) {
	p, ok := in.outs[name]
	return p, ok
}

// InArray returns the named array input port, or false.
func (in *Instance) InArray(name string) (*port.InArray, bool) {
	p, ok := in.inArrays[name]
	return p, ok
}

// OutArray returns the named array output port, or false.
func (in *Instance) OutArray(name string) (*port.OutArray, bool) {
	p, ok := in.outArrays[name]
	return p, ok
}

// Logger returns this instance's scoped logger.
func (in *Instance) Logger() *Logger { return in.logger }

// Receive blocks on the named input port, tracking state and packet
// ownership. A nil packet with a nil error is end-of-stream.
func (in *Instance) Receive(ctx context.Context, portName string) (*ip.Packet, error) {
	p, ok := in.InPort(portName)
	if !ok {
		return nil, fbperrors.ErrUnknownPort
	}
	in.setState(SuspendedReceive)
	pkt, err := p.Receive(ctx)
	in.setState(Active)
	if err != nil {
		return nil, err
	}
	if pkt == nil {
		return nil, nil
	}
	in.mu.Lock()
	in.held++
	in.mu.Unlock()
	if in.metrics != nil {
		in.metrics.Core.RecordPacketReceived(in.network, in.name, portName)
	}
	if in.bus != nil {
		in.bus.Publish(eventbus.Event{Kind: eventbus.PacketReceived, Network: in.network, Component: in.name, Port: portName})
	}
	return pkt, nil
}

// Send blocks on the named output port, tracking state and releasing
// ownership of the packet being sent.
func (in *Instance) Send(ctx context.Context, portName string, contents any) error {
	p, ok := in.OutPort(portName)
	if !ok {
		return fbperrors.ErrUnknownPort
	}
	in.setState(SuspendedSend)
	err := p.Send(ctx, contents)
	in.setState(Active)
	if err != nil {
		return err
	}
	in.mu.Lock()
	if in.held > 0 {
		in.held--
	}
	in.mu.Unlock()
	if in.metrics != nil {
		in.metrics.Core.RecordPacketSent(in.network, in.name, portName)
	}
	if in.bus != nil {
		in.bus.Publish(eventbus.Event{Kind: eventbus.PacketSent, Network: in.network, Component: in.name, Port: portName})
	}
	return nil
}

// CheckNoLeakedPackets returns ErrPacketLeak if the instance still owns
// packets it received but never forwarded, sent, or otherwise accounted for.
func (in *Instance) CheckNoLeakedPackets() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.held > 0 {
		return fbperrors.WrapInvalid(fbperrors.ErrPacketLeak, in.name, "terminate")
	}
	return nil
}

// closeAllPorts closes every port this instance owns once its body returns,
// in both directions: output ports close from the producer side so
// downstreams observe end-of-stream, and input ports close from the consumer
// side so upstreams observe DownstreamClosed on their next send. Applied
// unconditionally on every exit path, not only the error path: a component
// that terminates normally without explicitly closing its outputs must still
// let its downstreams drain.
func (in *Instance) closeAllPorts() {
	for _, p := range in.outs {
		p.Close()
	}
	for _, a := range in.outArrays {
		a.Close()
	}
	for name, p := range in.ins {
		in.reportDropped(name, p.Spec().DropOK, p.Close())
	}
	for name, a := range in.inArrays {
		in.reportDropped(name, a.Spec().DropOK, a.Close())
	}
}

// reportDropped surfaces packets discarded by a consumer-side close: a
// warning unless the port declared itself drop-tolerant, plus a counter.
func (in *Instance) reportDropped(portName string, dropOK bool, dropped int) {
	if dropped == 0 {
		return
	}
	if in.metrics != nil {
		in.metrics.Core.RecordConnectionDropped(in.network, in.name, portName, dropped)
	}
	if !dropOK && in.logger != nil {
		in.logger.Warn("packets dropped by consumer-side close", "port", portName, "count", dropped)
	}
}

// Forget releases ownership of a packet without sending it (e.g. a packet a
// component intentionally drops or absorbs). Packets read through
// InPort.ReceiveOnce are never counted and need no Forget. Bodies
// that consume via Instance.Receive and do not forward every packet should
// call this to keep the leak check accurate.
func (in *Instance) Forget(n int) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.held >= n {
		in.held -= n
	} else {
		in.held = 0
	}
}

// Run executes the wrapped Component's body, transitioning through Active,
// Terminated, and Errored, and publishing lifecycle events.
func (in *Instance) Run(ctx context.Context) error {
	in.setState(Active)
	if in.bus != nil {
		in.bus.Publish(eventbus.Event{Kind: eventbus.ComponentStarted, Network: in.network, Component: in.name})
	}

	err := in.comp.Run(ctx, in)
	in.closeAllPorts()

	if err != nil && errors.Is(err, fbperrors.ErrCancelled) {
		// A cancelled body returned promptly, as the contract asks; this is a
		// clean exit, not a component failure. The leak check is skipped:
		// cancellation legitimately interrupts mid-packet work.
		in.setState(Terminated)
		if in.bus != nil {
			in.bus.Publish(eventbus.Event{Kind: eventbus.ComponentTerminated, Network: in.network, Component: in.name})
		}
		return err
	}

	if err != nil {
		in.setState(Errored)
		if in.logger != nil {
			in.logger.Error(ctx, "component body returned an error", err)
		}
		if in.metrics != nil {
			in.metrics.Core.RecordComponentError(in.network, in.name, fbperrors.Classify(err).String())
		}
		return err
	}

	if leakErr := in.CheckNoLeakedPackets(); leakErr != nil {
		in.setState(Errored)
		return leakErr
	}

	in.setState(Terminated)
	if in.bus != nil {
		in.bus.Publish(eventbus.Event{Kind: eventbus.ComponentTerminated, Network: in.network, Component: in.name})
	}
	return nil
}
