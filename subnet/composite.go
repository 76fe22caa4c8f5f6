package subnet

import (
	"context"
	"sync"

	"github.com/c360/fbpcore/component"
	fbperrors "github.com/c360/fbpcore/errors"
	"github.com/c360/fbpcore/network"
	"github.com/c360/fbpcore/port"
)

// PortBinding names one of a Composite's external ports and where inside the
// inner network it bridges to.
type PortBinding struct {
	Name       string
	Type       port.Type
	Required   bool
	Default    any
	HasDefault bool
	Internal   network.PortRef
}

// Composite wraps a Network as a single component.Component. Build the inner
// network fully — including the boundary bridge wiring New performs — before
// adding the Composite to an outer network; a Composite is single-use and
// must not be Run twice.
type Composite struct {
	name string
	doc  string

	inBindings  []PortBinding
	outBindings []PortBinding

	inner *network.Network

	inChans  map[string]chan any
	outChans map[string]chan any
}

// New builds a Composite around inner, wiring one boundarySender per
// inBinding and one boundaryReceiver per outBinding directly into inner's
// graph. inner must be idle (built but not yet run).
func New(name, doc string, inner *network.Network, inBindings, outBindings []PortBinding) (*Composite, error) {
	c := &Composite{
		name: name, doc: doc,
		inBindings: inBindings, outBindings: outBindings,
		inner:    inner,
		inChans:  make(map[string]chan any, len(inBindings)),
		outChans: make(map[string]chan any, len(outBindings)),
	}

	for _, b := range inBindings {
		ch := make(chan any, 1)
		c.inChans[b.Name] = ch
		sender := newBoundarySender(port.Spec{Name: b.Name, Direction: port.Out, Type: b.Type}, ch)
		nodeName := "__boundary_in_" + b.Name
		if err := inner.AddComponentInstance(nodeName, sender); err != nil {
			return nil, fbperrors.Wrap(err, name, "New", "wire inbound boundary")
		}
		if err := inner.Connect(network.PortRef{Component: nodeName, Port: b.Name}, b.Internal, 1); err != nil {
			return nil, fbperrors.Wrap(err, name, "New", "connect inbound boundary")
		}
	}

	for _, b := range outBindings {
		ch := make(chan any, 1)
		c.outChans[b.Name] = ch
		receiver := newBoundaryReceiver(port.Spec{Name: b.Name, Direction: port.In, Type: b.Type}, ch)
		nodeName := "__boundary_out_" + b.Name
		if err := inner.AddComponentInstance(nodeName, receiver); err != nil {
			return nil, fbperrors.Wrap(err, name, "New", "wire outbound boundary")
		}
		if err := inner.Connect(b.Internal, network.PortRef{Component: nodeName, Port: b.Name}, 1); err != nil {
			return nil, fbperrors.Wrap(err, name, "New", "connect outbound boundary")
		}
	}

	return c, nil
}

// Descriptor returns the composite's externally-visible ports.
func (c *Composite) Descriptor() component.Descriptor {
	desc := component.Descriptor{Name: c.name, Doc: c.doc}
	for _, b := range c.inBindings {
		desc.InPorts = append(desc.InPorts, port.Spec{
			Name: b.Name, Direction: port.In, Type: b.Type, Required: b.Required,
			Default: b.Default, HasDefault: b.HasDefault,
		})
	}
	for _, b := range c.outBindings {
		desc.OutPorts = append(desc.OutPorts, port.Spec{Name: b.Name, Direction: port.Out, Type: b.Type})
	}
	return desc
}

// Run starts the inner network and bridges every external port to its
// boundary component until the inner network reaches quiescence, deadlock,
// or error. Composites nest arbitrarily: Composite itself implements
// component.Component, so it can be added to another Composite's inner
// network.
func (c *Composite) Run(ctx context.Context, self *component.Instance) error {
	var wg sync.WaitGroup

	for _, b := range c.inBindings {
		wg.Add(1)
		go func(b PortBinding) {
			defer wg.Done()
			ch := c.inChans[b.Name]
			defer close(ch)
			for {
				pkt, err := self.Receive(ctx, b.Name)
				if err != nil || pkt == nil {
					return
				}
				contents := pkt.Contents()
				self.Forget(1)
				select {
				case ch <- contents:
				case <-ctx.Done():
					return
				}
			}
		}(b)
	}

	for _, b := range c.outBindings {
		wg.Add(1)
		go func(b PortBinding) {
			defer wg.Done()
			ch := c.outChans[b.Name]
			for value := range ch {
				if err := self.Send(ctx, b.Name, value); err != nil {
					return
				}
			}
		}(b)
	}

	innerErr := c.inner.Run(ctx)
	wg.Wait()
	return innerErr
}
