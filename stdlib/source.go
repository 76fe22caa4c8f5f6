package stdlib

import (
	"context"

	"github.com/c360/fbpcore/component"
	"github.com/c360/fbpcore/port"
)

// Source sends the value delivered on its CONST port (ordinarily an IIP) to
// OUT exactly once, then terminates.
type Source struct{}

func (Source) Descriptor() component.Descriptor {
	return component.Descriptor{
		Name: "Source",
		Doc:  "sends its CONST value to OUT once",
		InPorts: []port.Spec{
			{Name: "CONST", Direction: port.In, Type: String, Required: true},
		},
		OutPorts: []port.Spec{
			{Name: "OUT", Direction: port.Out, Type: String},
		},
	}
}

func (Source) Run(ctx context.Context, self *component.Instance) error {
	in, _ := self.InPort("CONST")
	value, err := in.ReceiveOnce(ctx)
	if err != nil {
		return err
	}
	if value == nil {
		return nil
	}
	return self.Send(ctx, "OUT", value)
}
