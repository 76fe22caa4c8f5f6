package stdlib

import (
	"context"

	"github.com/c360/fbpcore/component"
	"github.com/c360/fbpcore/port"
)

// Output logs each packet it receives on IN, one line per packet, and
// optionally passes it through to OUT.
type Output struct{}

func (Output) Descriptor() component.Descriptor {
	return component.Descriptor{
		Name: "Output",
		Doc:  "logs each incoming packet, one line per packet",
		InPorts: []port.Spec{
			{Name: "IN", Direction: port.In, Type: String, Required: true},
		},
		OutPorts: []port.Spec{
			{Name: "OUT", Direction: port.Out, Type: String, Required: false},
		},
	}
}

func (Output) Run(ctx context.Context, self *component.Instance) error {
	logger := self.Logger()
	for {
		pkt, err := self.Receive(ctx, "IN")
		if err != nil {
			return err
		}
		if pkt == nil {
			return nil
		}
		contents := pkt.Contents()
		if logger != nil {
			logger.Info("output", "contents", contents)
		}
		if err := self.Send(ctx, "OUT", contents); err != nil {
			return err
		}
	}
}
