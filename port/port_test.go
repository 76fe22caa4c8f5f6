package port

import (
	"context"
	"fmt"
	"testing"

	fbperrors "github.com/c360/fbpcore/errors"
	"github.com/c360/fbpcore/ip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wordsType() Type {
	return Type{
		Name: "word",
		Validate: func(v any) error {
			s, ok := v.(string)
			if !ok || s == "" {
				return fmt.Errorf("word must be a non-empty string")
			}
			return nil
		},
	}
}

func TestOutPortToInPortRoundTrip(t *testing.T) {
	conn := NewConnection(2)
	spec := Spec{Name: "OUT", Direction: Out, Type: Any}
	out := NewOutPort(spec, "Producer", conn)
	in := NewInPort(Spec{Name: "IN", Direction: In, Type: Any}, "Consumer", conn)

	ctx := context.Background()
	require.NoError(t, out.Send(ctx, "hi"))
	out.Close()

	pkt, err := in.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hi", pkt.Contents())

	pkt, err = in.Receive(ctx)
	require.NoError(t, err)
	assert.Nil(t, pkt)
}

func TestOutPortRejectsInvalidPayload(t *testing.T) {
	conn := NewConnection(1)
	out := NewOutPort(Spec{Name: "WORD", Direction: Out, Type: wordsType()}, "Producer", conn)

	err := out.Send(context.Background(), "")
	assert.ErrorIs(t, err, fbperrors.ErrTypeError)
}

func TestOutPortFanOutClonesToEveryDownstreamButLast(t *testing.T) {
	connA := NewConnection(1)
	connB := NewConnection(1)
	spec := Spec{Name: "OUT", Direction: Out, Type: Any, FanOut: true}
	out := NewOutPort(spec, "Producer", connA, connB)

	ctx := context.Background()
	require.NoError(t, out.Send(ctx, "payload"))

	pktA, err := connA.Receive(ctx, "A")
	require.NoError(t, err)
	pktB, err := connB.Receive(ctx, "B")
	require.NoError(t, err)

	assert.Equal(t, "payload", pktA.Contents())
	assert.Equal(t, "payload", pktB.Contents())
	assert.NotEqual(t, pktA.ID(), pktB.ID())
}

func TestInPortReceiveOnceClosesPort(t *testing.T) {
	conn := NewIIP("Source", 42)
	in := NewInPort(Spec{Name: "SEED", Direction: In, Type: Any}, "Consumer", conn)

	v, err := in.ReceiveOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.True(t, conn.IsConsumerClosed())
}

func TestInPortIterContentsStopsAtEndOfStream(t *testing.T) {
	conn := NewConnection(4)
	ctx := context.Background()
	for _, v := range []any{"a", "b", "c"} {
		require.NoError(t, conn.Send(ctx, ip.New("Src", v)))
	}
	conn.CloseProducer()

	in := NewInPort(Spec{Name: "IN", Direction: In, Type: Any}, "Consumer", conn)
	var got []any
	for v := range in.IterContents(ctx) {
		got = append(got, v)
	}
	assert.Equal(t, []any{"a", "b", "c"}, got)
}

func TestUnconnectedOutPortSendIsNoop(t *testing.T) {
	out := NewOutPort(Spec{Name: "OUT", Direction: Out, Type: Any}, "Producer")
	assert.NoError(t, out.Send(context.Background(), "dropped"))
}
