package port

import (
	"context"

	fbperrors "github.com/c360/fbpcore/errors"
	"github.com/c360/fbpcore/ip"
)

// OutPort is the component-facing handle for a single output port. A non-
// array port may fan out to more than one connection when Spec.FanOut is
// set; every connection but the last receives a clone of the packet, and the
// last receives the original.
type OutPort struct {
	spec  Spec
	owner string
	Conns []*Connection
}

// NewOutPort builds a runtime output port bound to conns. An unconnected,
// optional output port may have a nil/empty Conns; sends to it are silently
// discarded.
func NewOutPort(spec Spec, owner string, conns ...*Connection) *OutPort {
	return &OutPort{spec: spec, owner: owner, Conns: conns}
}

// Spec returns the port's static declaration.
func (p *OutPort) Spec() Spec { return p.spec }

// Connected reports whether this port feeds at least one connection.
func (p *OutPort) Connected() bool { return len(p.Conns) > 0 }

// Send validates contents against the port's type, then delivers a packet to
// every connected downstream, blocking on whichever is fullest. Every
// connection but the last receives an independent clone.
func (p *OutPort) Send(ctx context.Context, contents any) error {
	if err := p.spec.Type.validate(contents); err != nil {
		return fbperrors.WrapInvalid(fbperrors.ErrTypeError, p.owner, p.spec.Name)
	}
	return p.dispatch(ctx, ip.New(p.owner, contents))
}

// SendBracket emits an open or close bracket packet to every connected
// downstream.
func (p *OutPort) SendBracket(ctx context.Context, role ip.Role, label string) error {
	return p.dispatch(ctx, ip.NewBracket(p.owner, role, label))
}

func (p *OutPort) dispatch(ctx context.Context, pkt *ip.Packet) error {
	if len(p.Conns) == 0 {
		return nil
	}
	for _, conn := range p.Conns[:len(p.Conns)-1] {
		clone := pkt.Clone(p.owner, p.spec.Type.Clone)
		if err := conn.Send(ctx, clone); err != nil {
			return fbperrors.Wrap(err, p.owner, p.spec.Name, "send")
		}
	}
	last := p.Conns[len(p.Conns)-1]
	if err := last.Send(ctx, pkt); err != nil {
		return fbperrors.Wrap(err, p.owner, p.spec.Name, "send")
	}
	return nil
}

// Close closes every connection fed by this port from the producer side.
// Idempotent.
func (p *OutPort) Close() {
	for _, conn := range p.Conns {
		conn.CloseProducer()
	}
}

// AddConn attaches another downstream connection; OutArray.AddAt uses it to
// bind a sub-port's connection. It does no cloneability check of its own.
func (p *OutPort) AddConn(conn *Connection) {
	p.Conns = append(p.Conns, conn)
}
