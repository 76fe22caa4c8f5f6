// Package subnet implements the composite component: a Network
// wrapped so it can be added to an outer network as an ordinary component,
// with its declared ports bridged to the inner graph via small boundary
// components.
package subnet

import (
	"context"

	"github.com/c360/fbpcore/component"
	"github.com/c360/fbpcore/port"
)

// boundarySender sits inside the inner network as the producer for one
// composite input port: the outer Composite forwards every packet it
// receives externally onto in, and boundarySender relays it to the inner
// graph's matching port.
type boundarySender struct {
	portName string
	spec     port.Spec
	in       <-chan any
}

func newBoundarySender(spec port.Spec, in <-chan any) *boundarySender {
	return &boundarySender{portName: spec.Name, spec: spec, in: in}
}

func (b *boundarySender) Descriptor() component.Descriptor {
	out := b.spec
	out.Direction = port.Out
	return component.Descriptor{
		Name:     "subnet.boundary_sender." + b.portName,
		Doc:      "internal bridge forwarding an external send into the inner network",
		OutPorts: []port.Spec{out},
	}
}

func (b *boundarySender) Run(ctx context.Context, self *component.Instance) error {
	for {
		select {
		case value, ok := <-b.in:
			if !ok {
				return nil
			}
			if err := self.Send(ctx, b.spec.Name, value); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// boundaryReceiver sits inside the inner network as the consumer for one
// composite output port: it relays every packet the inner graph delivers to
// it onto out, where the outer Composite forwards it to the external
// downstream.
type boundaryReceiver struct {
	portName string
	spec     port.Spec
	out      chan<- any
}

func newBoundaryReceiver(spec port.Spec, out chan<- any) *boundaryReceiver {
	return &boundaryReceiver{portName: spec.Name, spec: spec, out: out}
}

func (b *boundaryReceiver) Descriptor() component.Descriptor {
	in := b.spec
	in.Direction = port.In
	return component.Descriptor{
		Name:    "subnet.boundary_receiver." + b.portName,
		Doc:     "internal bridge forwarding an inner network packet out to the composite's external port",
		InPorts: []port.Spec{in},
	}
}

func (b *boundaryReceiver) Run(ctx context.Context, self *component.Instance) error {
	defer close(b.out)
	for {
		pkt, err := self.Receive(ctx, b.spec.Name)
		if err != nil {
			return err
		}
		if pkt == nil {
			return nil
		}
		contents := pkt.Contents()
		self.Forget(1) // handed off to the outer composite's external port, not a tracked Send
		select {
		case b.out <- contents:
		case <-ctx.Done():
			return nil
		}
	}
}
