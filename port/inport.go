package port

import (
	"context"
	"iter"

	"github.com/c360/fbpcore/ip"
)

// InPort is the component-facing handle for a single input port. The network
// wires Conn during materialization; an InPort with a nil Conn only occurs
// for an optional, unconnected port that carries no default, which a
// component must check for before use.
type InPort struct {
	spec  Spec
	owner string
	Conn  *Connection
}

// NewInPort builds a runtime input port bound to conn. conn may be nil for
// an optional port left unconnected.
func NewInPort(spec Spec, owner string, conn *Connection) *InPort {
	return &InPort{spec: spec, owner: owner, Conn: conn}
}

// Spec returns the port's static declaration.
func (p *InPort) Spec() Spec { return p.spec }

// Connected reports whether a connection or IIP feeds this port.
func (p *InPort) Connected() bool { return p.Conn != nil }

// Receive returns the next packet, or (nil, nil) at end-of-stream.
func (p *InPort) Receive(ctx context.Context) (*ip.Packet, error) {
	if p.Conn == nil {
		return nil, nil
	}
	return p.Conn.Receive(ctx, p.owner)
}

// ReceiveOnce reads a single packet's contents, then closes the port,
// intended for parameter-style inputs fed by an IIP. Returns (nil, nil) if
// the port has no connection and no packet ever arrives.
func (p *InPort) ReceiveOnce(ctx context.Context) (any, error) {
	pkt, err := p.Receive(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	if pkt == nil {
		return nil, nil
	}
	return pkt.Contents(), nil
}

// Iter lazily yields every packet on the port until end-of-stream or ctx is
// done. Iteration stops silently on a context error; callers needing the
// error should call Receive directly.
func (p *InPort) Iter(ctx context.Context) iter.Seq[*ip.Packet] {
	return func(yield func(*ip.Packet) bool) {
		for {
			pkt, err := p.Receive(ctx)
			if err != nil || pkt == nil {
				return
			}
			if !yield(pkt) {
				return
			}
		}
	}
}

// IterContents is Iter with packets unwrapped to their payload.
func (p *InPort) IterContents(ctx context.Context) iter.Seq[any] {
	return func(yield func(any) bool) {
		for pkt := range p.Iter(ctx) {
			if !yield(pkt.Contents()) {
				return
			}
		}
	}
}

// Close closes the port from the consumer side, discarding any packets still
// queued. Returns the number of packets dropped so the caller can decide
// whether to log a warning.
func (p *InPort) Close() int {
	if p.Conn == nil {
		return 0
	}
	return p.Conn.CloseConsumer()
}
