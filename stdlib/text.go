package stdlib

import (
	"context"
	"strings"

	"github.com/c360/fbpcore/component"
	"github.com/c360/fbpcore/port"
)

// LineToWords splits each incoming line on spaces and sends the words
// individually, in order.
type LineToWords struct{}

func (LineToWords) Descriptor() component.Descriptor {
	return component.Descriptor{
		Name: "LineToWords",
		Doc:  "splits a line of space-separated text into individual words",
		InPorts: []port.Spec{
			{Name: "IN", Direction: port.In, Type: String, Required: true},
		},
		OutPorts: []port.Spec{
			{Name: "OUT", Direction: port.Out, Type: String},
		},
	}
}

func (LineToWords) Run(ctx context.Context, self *component.Instance) error {
	for {
		pkt, err := self.Receive(ctx, "IN")
		if err != nil {
			return err
		}
		if pkt == nil {
			return nil
		}
		line, _ := pkt.Contents().(string)
		words := strings.Fields(line)
		if len(words) == 0 {
			self.Forget(1)
			continue
		}
		for _, word := range words {
			if err := self.Send(ctx, "OUT", word); err != nil {
				return err
			}
		}
	}
}

// StartsWith routes each incoming string to ACC if it starts with the value
// delivered on TEST, otherwise to REJ.
type StartsWith struct{}

func (StartsWith) Descriptor() component.Descriptor {
	return component.Descriptor{
		Name: "StartsWith",
		Doc:  "routes packets starting with TEST to ACC, others to REJ",
		InPorts: []port.Spec{
			{Name: "IN", Direction: port.In, Type: String, Required: true},
			{Name: "TEST", Direction: port.In, Type: String, Required: true},
		},
		OutPorts: []port.Spec{
			{Name: "ACC", Direction: port.Out, Type: String, Required: false},
			{Name: "REJ", Direction: port.Out, Type: String, Required: false},
		},
	}
}

func (StartsWith) Run(ctx context.Context, self *component.Instance) error {
	testPort, _ := self.InPort("TEST")
	testValue, err := testPort.ReceiveOnce(ctx)
	if err != nil {
		return err
	}
	test, _ := testValue.(string)

	for {
		pkt, err := self.Receive(ctx, "IN")
		if err != nil {
			return err
		}
		if pkt == nil {
			return nil
		}
		s, _ := pkt.Contents().(string)
		dst := "REJ"
		if strings.HasPrefix(s, test) {
			dst = "ACC"
		}
		if err := self.Send(ctx, dst, s); err != nil {
			return err
		}
	}
}

// WordsToLine accumulates words from IN into lines no longer than MEASURE
// characters and sends each completed line to OUT. A non-positive MEASURE
// is treated as "never
// accumulate" — every word becomes its own line — since a maximum line
// width of zero or less cannot fit more than one word.
type WordsToLine struct{}

func (WordsToLine) Descriptor() component.Descriptor {
	return component.Descriptor{
		Name: "WordsToLine",
		Doc:  "packs words into lines no longer than MEASURE characters",
		InPorts: []port.Spec{
			{Name: "IN", Direction: port.In, Type: String, Required: true},
			{Name: "MEASURE", Direction: port.In, Type: Int, Required: true},
		},
		OutPorts: []port.Spec{
			{Name: "OUT", Direction: port.Out, Type: String},
		},
	}
}

func (WordsToLine) Run(ctx context.Context, self *component.Instance) error {
	measurePort, _ := self.InPort("MEASURE")
	measureValue, err := measurePort.ReceiveOnce(ctx)
	if err != nil {
		return err
	}
	measure, _ := measureValue.(int)

	var line string
	for {
		pkt, err := self.Receive(ctx, "IN")
		if err != nil {
			return err
		}
		if pkt == nil {
			break
		}
		word, _ := pkt.Contents().(string)
		self.Forget(1)

		if line != "" && (measure <= 0 || len(line)+1+len(word) > measure) {
			if err := self.Send(ctx, "OUT", line); err != nil {
				return err
			}
			line = word
			continue
		}
		if line != "" {
			line += " "
		}
		line += word
	}
	if line != "" {
		return self.Send(ctx, "OUT", line)
	}
	return nil
}
