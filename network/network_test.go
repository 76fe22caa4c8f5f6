package network_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/c360/fbpcore/component"
	fbperrors "github.com/c360/fbpcore/errors"
	"github.com/c360/fbpcore/network"
	"github.com/c360/fbpcore/port"
)

var stringType = port.Type{Name: "string", Sample: ""}

func ref(comp, p string) network.PortRef { return network.PortRef{Component: comp, Port: p} }

// emitter sends every value in Values to OUT, in order, then terminates.
type emitter struct{ Values []string }

func (emitter) Descriptor() component.Descriptor {
	return component.Descriptor{
		Name:     "emitter",
		OutPorts: []port.Spec{{Name: "OUT", Direction: port.Out, Type: stringType, FanOut: true}},
	}
}

func (e emitter) Run(ctx context.Context, self *component.Instance) error {
	for _, v := range e.Values {
		if err := self.Send(ctx, "OUT", v); err != nil {
			return err
		}
	}
	return nil
}

// collector appends every value it receives on IN to Got, guarded by mu.
type collector struct {
	mu  sync.Mutex
	Got []string
}

func (c *collector) Descriptor() component.Descriptor {
	return component.Descriptor{
		Name:    "collector",
		InPorts: []port.Spec{{Name: "IN", Direction: port.In, Type: stringType, Required: true}},
	}
}

func (c *collector) Run(ctx context.Context, self *component.Instance) error {
	for {
		pkt, err := self.Receive(ctx, "IN")
		if err != nil {
			return err
		}
		if pkt == nil {
			return nil
		}
		c.mu.Lock()
		c.Got = append(c.Got, pkt.Contents().(string))
		c.mu.Unlock()
		self.Forget(1)
	}
}

// mutualBlocker receives from IN but never sends, so two wired together
// deadlock on a pure suspended-receive cycle.
type mutualBlocker struct{}

func (mutualBlocker) Descriptor() component.Descriptor {
	return component.Descriptor{
		Name:     "mutualBlocker",
		InPorts:  []port.Spec{{Name: "IN", Direction: port.In, Type: stringType, Required: true}},
		OutPorts: []port.Spec{{Name: "OUT", Direction: port.Out, Type: stringType}},
	}
}

func (mutualBlocker) Run(ctx context.Context, self *component.Instance) error {
	_, err := self.Receive(ctx, "IN")
	return err
}

func newTestNetwork(t *testing.T, opts network.RunOptions) *network.Network {
	t.Helper()
	reg := component.NewRegistry()
	return network.New("test", reg, component.Dependencies{}, opts)
}

func TestConnectRejectsUnknownComponent(t *testing.T) {
	net := newTestNetwork(t, network.DefaultRunOptions())
	require.NoError(t, net.AddComponentInstance("a", emitter{}))
	err := net.Connect(ref("a", "OUT"), ref("nope", "IN"), 4)
	require.Error(t, err)
	require.True(t, fbperrors.IsInvalid(err))
}

func TestRunRejectsUnconnectedRequiredPort(t *testing.T) {
	net := newTestNetwork(t, network.DefaultRunOptions())
	require.NoError(t, net.AddComponentInstance("c", &collector{}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := net.Run(ctx)
	require.Error(t, err)
	require.True(t, fbperrors.IsInvalid(err))
}

func TestFanOutDeliversToEveryDownstream(t *testing.T) {
	net := newTestNetwork(t, network.DefaultRunOptions())
	require.NoError(t, net.AddComponentInstance("src", emitter{Values: []string{"a", "b"}}))
	c1 := &collector{}
	c2 := &collector{}
	require.NoError(t, net.AddComponentInstance("c1", c1))
	require.NoError(t, net.AddComponentInstance("c2", c2))

	require.NoError(t, net.Connect(ref("src", "OUT"), ref("c1", "IN"), 4))
	require.NoError(t, net.Connect(ref("src", "OUT"), ref("c2", "IN"), 4))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, net.Run(ctx))

	require.Equal(t, []string{"a", "b"}, c1.Got)
	require.Equal(t, []string{"a", "b"}, c2.Got)
}

// TestBackpressureWithSmallCapacity checks that a producer much faster than
// its consumer blocks on Send rather than losing or reordering packets once
// the connection's small buffer fills.
func TestBackpressureWithSmallCapacity(t *testing.T) {
	net := newTestNetwork(t, network.DefaultRunOptions())
	values := make([]string, 50)
	for i := range values {
		values[i] = string(rune('a' + i%26))
	}
	require.NoError(t, net.AddComponentInstance("src", emitter{Values: values}))
	c := &collector{}
	require.NoError(t, net.AddComponentInstance("dst", c))
	require.NoError(t, net.Connect(ref("src", "OUT"), ref("dst", "IN"), 1))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, net.Run(ctx))

	require.Equal(t, values, c.Got)
}

// TestDeadlockStrictReportsError runs a mutual-receive cycle under the strict
// policy: a pure suspended-receive cycle (neither side ever sends) must be
// detected and surfaced as an error rather than hanging forever.
func TestDeadlockStrictReportsError(t *testing.T) {
	opts := network.DefaultRunOptions()
	opts.Deadlock = network.DeadlockStrict
	opts.PollInterval = time.Millisecond
	net := newTestNetwork(t, opts)

	require.NoError(t, net.AddComponentInstance("a", mutualBlocker{}))
	require.NoError(t, net.AddComponentInstance("b", mutualBlocker{}))
	require.NoError(t, net.Connect(ref("a", "OUT"), ref("b", "IN"), 1))
	require.NoError(t, net.Connect(ref("b", "OUT"), ref("a", "IN"), 1))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := net.Run(ctx)

	require.Error(t, err)
	status := net.Status()
	require.True(t, status.Deadlocked)
}

// TestDeadlockLenientDrainsSuspendedReceivers exercises the lenient recovery
// path: the same pure suspended-receive cycle as above, but under the
// lenient policy the monitor force-closes the connections feeding the
// suspended receivers so both components observe end-of-stream and the
// network reaches a terminal state instead of reporting a fatal error.
func TestDeadlockLenientDrainsSuspendedReceivers(t *testing.T) {
	opts := network.DefaultRunOptions()
	opts.Deadlock = network.DeadlockLenient
	opts.PollInterval = time.Millisecond
	net := newTestNetwork(t, opts)

	require.NoError(t, net.AddComponentInstance("a", mutualBlocker{}))
	require.NoError(t, net.AddComponentInstance("b", mutualBlocker{}))
	require.NoError(t, net.Connect(ref("a", "OUT"), ref("b", "IN"), 1))
	require.NoError(t, net.Connect(ref("b", "OUT"), ref("a", "IN"), 1))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, net.Run(ctx))

	status := net.Status()
	require.True(t, status.Deadlocked)
}

// errAfterOne sends its one configured value, then returns an error instead
// of a second send, exercising error propagation: the
// component's OUT port closes so downstream observes end-of-stream rather
// than hanging.
type errAfterOne struct{}

func (errAfterOne) Descriptor() component.Descriptor {
	return component.Descriptor{
		Name:     "errAfterOne",
		OutPorts: []port.Spec{{Name: "OUT", Direction: port.Out, Type: stringType}},
	}
}

func (errAfterOne) Run(ctx context.Context, self *component.Instance) error {
	if err := self.Send(ctx, "OUT", "first"); err != nil {
		return err
	}
	return fbperrors.WrapFatal(context.DeadlineExceeded, "errAfterOne", "Run")
}

func TestComponentErrorClosesDownstream(t *testing.T) {
	net := newTestNetwork(t, network.DefaultRunOptions())
	require.NoError(t, net.AddComponentInstance("src", errAfterOne{}))
	c := &collector{}
	require.NoError(t, net.AddComponentInstance("dst", c))
	require.NoError(t, net.Connect(ref("src", "OUT"), ref("dst", "IN"), 4))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := net.Run(ctx)

	require.Error(t, err)
	require.Equal(t, []string{"first"}, c.Got)

	status := net.Status()
	require.Equal(t, "errored", status.State)
	require.NotEmpty(t, status.Errors)
}

// TestIIPOnlyRun checks that a component whose only input source is an IIP,
// with no incoming connection, still runs to completion.
func TestIIPOnlyRun(t *testing.T) {
	net := newTestNetwork(t, network.DefaultRunOptions())
	require.NoError(t, net.AddComponentInstance("c", &collector{}))
	require.NoError(t, net.Initialize(ref("c", "IN"), "only-value"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, net.Run(ctx))
}

// forever sends packets until its downstream or the scheduler stops it,
// exercising cancellation liveness.
type forever struct{}

func (forever) Descriptor() component.Descriptor {
	return component.Descriptor{
		Name:     "forever",
		OutPorts: []port.Spec{{Name: "OUT", Direction: port.Out, Type: stringType}},
	}
}

func (forever) Run(ctx context.Context, self *component.Instance) error {
	for {
		if err := self.Send(ctx, "OUT", "tick"); err != nil {
			return err
		}
	}
}

func TestTerminateCancelsRun(t *testing.T) {
	net := newTestNetwork(t, network.DefaultRunOptions())
	require.NoError(t, net.AddComponentInstance("src", forever{}))
	c := &collector{}
	require.NoError(t, net.AddComponentInstance("dst", c))
	require.NoError(t, net.Connect(ref("src", "OUT"), ref("dst", "IN"), 2))

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		done <- net.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return len(c.Got) > 0
	}, 2*time.Second, time.Millisecond)

	net.Terminate()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(8 * time.Second):
		t.Fatal("Run did not return after Terminate")
	}

	status := net.Status()
	require.True(t, status.Cancelled)
	require.Empty(t, status.Errors)
}

// greedySender sends two packets before reading anything, so two wired into
// a capacity-1 cycle wedge with both blocked in send and one packet buffered
// on each connection.
type greedySender struct{}

func (greedySender) Descriptor() component.Descriptor {
	return component.Descriptor{
		Name:     "greedySender",
		InPorts:  []port.Spec{{Name: "IN", Direction: port.In, Type: stringType, Required: true}},
		OutPorts: []port.Spec{{Name: "OUT", Direction: port.Out, Type: stringType}},
	}
}

func (greedySender) Run(ctx context.Context, self *component.Instance) error {
	for i := 0; i < 2; i++ {
		if err := self.Send(ctx, "OUT", "x"); err != nil {
			return err
		}
	}
	for {
		pkt, err := self.Receive(ctx, "IN")
		if err != nil {
			return err
		}
		if pkt == nil {
			return nil
		}
		self.Forget(1)
	}
}

// TestDeadlockSendCycleReported wedges two greedy senders in a mutual
// capacity-1 cycle: both end up suspended in send with a packet still queued
// on each connection, and no receiver exists to drain either queue. The
// monitor must still classify this as deadlock rather than waiting on the
// buffered packets forever.
func TestDeadlockSendCycleReported(t *testing.T) {
	opts := network.DefaultRunOptions()
	opts.Deadlock = network.DeadlockStrict
	opts.PollInterval = time.Millisecond
	net := newTestNetwork(t, opts)

	require.NoError(t, net.AddComponentInstance("a", greedySender{}))
	require.NoError(t, net.AddComponentInstance("b", greedySender{}))
	require.NoError(t, net.Connect(ref("a", "OUT"), ref("b", "IN"), 1))
	require.NoError(t, net.Connect(ref("b", "OUT"), ref("a", "IN"), 1))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := net.Run(ctx)

	require.Error(t, err)
	status := net.Status()
	require.True(t, status.Deadlocked)
	require.ElementsMatch(t, []string{"a", "b"}, status.Suspended)
}
