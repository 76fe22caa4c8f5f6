package stdlib_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/c360/fbpcore/component"
	"github.com/c360/fbpcore/network"
	"github.com/c360/fbpcore/port"
	"github.com/c360/fbpcore/stdlib"
)

// capture collects every string it receives on IN, in order.
type capture struct {
	mu  *sync.Mutex
	got *[]string
}

func newCapture() (*capture, *[]string) {
	var got []string
	return &capture{mu: &sync.Mutex{}, got: &got}, &got
}

func (c *capture) Descriptor() component.Descriptor {
	return component.Descriptor{
		Name:    "capture",
		InPorts: []port.Spec{{Name: "IN", Direction: port.In, Type: stdlib.String, Required: true}},
	}
}

func (c *capture) Run(ctx context.Context, self *component.Instance) error {
	for {
		pkt, err := self.Receive(ctx, "IN")
		if err != nil {
			return err
		}
		if pkt == nil {
			return nil
		}
		s, _ := pkt.Contents().(string)
		c.mu.Lock()
		*c.got = append(*c.got, s)
		c.mu.Unlock()
		self.Forget(1)
	}
}

func TestHelloGoodbyeWorldPipeline(t *testing.T) {
	reg := component.NewRegistry()
	require.NoError(t, stdlib.Register(reg))

	net := network.New("s1", reg, component.Dependencies{}, network.DefaultRunOptions())

	require.NoError(t, net.AddComponent("source", "Source", nil, map[string]any{"CONST": "Hello Goodbye World"}))
	require.NoError(t, net.AddComponent("l2w", "LineToWords", nil, nil))
	require.NoError(t, net.AddComponent("sw", "StartsWith", nil, map[string]any{"TEST": "G"}))
	require.NoError(t, net.AddComponent("w2l", "WordsToLine", nil, map[string]any{"MEASURE": 0}))

	cap, got := newCapture()
	require.NoError(t, net.AddComponentInstance("out", cap))

	ref := func(c, p string) network.PortRef { return network.PortRef{Component: c, Port: p} }
	require.NoError(t, net.Connect(ref("source", "OUT"), ref("l2w", "IN"), 8))
	require.NoError(t, net.Connect(ref("l2w", "OUT"), ref("sw", "IN"), 8))
	require.NoError(t, net.Connect(ref("sw", "REJ"), ref("w2l", "IN"), 8))
	require.NoError(t, net.Connect(ref("w2l", "OUT"), ref("out", "IN"), 8))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, net.Run(ctx))

	require.Equal(t, []string{"Hello", "World"}, *got)
}
