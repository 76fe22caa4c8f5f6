package port

import (
	"context"
	"testing"
	"time"

	"github.com/c360/fbpcore/ip"
	fbperrors "github.com/c360/fbpcore/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionFIFOOrdering(t *testing.T) {
	c := NewConnection(4)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, c.Send(ctx, ip.New("Src", i)))
	}
	for i := 0; i < 4; i++ {
		pkt, err := c.Receive(ctx, "Dst")
		require.NoError(t, err)
		assert.Equal(t, i, pkt.Contents())
	}
}

func TestConnectionBackpressureBlocks(t *testing.T) {
	c := NewConnection(1)
	ctx := context.Background()
	require.NoError(t, c.Send(ctx, ip.New("Src", "a")))

	sent := make(chan error, 1)
	go func() { sent <- c.Send(ctx, ip.New("Src", "b")) }()

	select {
	case <-sent:
		t.Fatal("send on a full connection should block")
	case <-time.After(20 * time.Millisecond):
	}

	_, err := c.Receive(ctx, "Dst")
	require.NoError(t, err)

	select {
	case err := <-sent:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("blocked send never unblocked after a receive")
	}
}

func TestConnectionUpstreamClosedAndEmptyIsEndOfStream(t *testing.T) {
	c := NewConnection(2)
	ctx := context.Background()
	require.NoError(t, c.Send(ctx, ip.New("Src", 1)))
	c.CloseProducer()

	pkt, err := c.Receive(ctx, "Dst")
	require.NoError(t, err)
	assert.Equal(t, 1, pkt.Contents())

	pkt, err = c.Receive(ctx, "Dst")
	require.NoError(t, err)
	assert.Nil(t, pkt)

	assert.True(t, c.IsDrained())
}

func TestConnectionIIPDeliversOnceThenEOF(t *testing.T) {
	c := NewIIP("Source", "hello")
	ctx := context.Background()

	pkt, err := c.Receive(ctx, "Dst")
	require.NoError(t, err)
	assert.Equal(t, "hello", pkt.Contents())

	pkt, err = c.Receive(ctx, "Dst")
	require.NoError(t, err)
	assert.Nil(t, pkt)
}

func TestConnectionCloseProducerIsIdempotent(t *testing.T) {
	c := NewConnection(1)
	assert.NotPanics(t, func() {
		c.CloseProducer()
		c.CloseProducer()
	})
}

func TestConnectionCloseConsumerDropsQueuedPackets(t *testing.T) {
	c := NewConnection(3)
	ctx := context.Background()
	require.NoError(t, c.Send(ctx, ip.New("Src", 1)))
	require.NoError(t, c.Send(ctx, ip.New("Src", 2)))

	dropped := c.CloseConsumer()
	assert.Equal(t, 2, dropped)

	err := c.Send(ctx, ip.New("Src", 3))
	assert.ErrorIs(t, err, fbperrors.ErrDownstreamClosed)
}

func TestConnectionReceiveRespectsCancellation(t *testing.T) {
	c := NewConnection(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Receive(ctx, "Dst")
	assert.ErrorIs(t, err, fbperrors.ErrCancelled)
}

func TestConnectionSendRespectsTimeout(t *testing.T) {
	c := NewConnection(1)
	require.NoError(t, c.Send(context.Background(), ip.New("Src", "full")))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	err := c.Send(ctx, ip.New("Src", "blocked"))
	assert.ErrorIs(t, err, fbperrors.ErrTimeout)
}

func TestConnectionBracketCheckRejectsUnderflow(t *testing.T) {
	c := NewConnection(4)
	c.EnableBracketCheck()
	ctx := context.Background()

	err := c.Send(ctx, ip.NewBracket("Src", ip.CloseBracket, ""))
	assert.ErrorIs(t, err, fbperrors.ErrUnbalancedBracket)

	require.NoError(t, c.Send(ctx, ip.NewBracket("Src", ip.OpenBracket, "sub")))
	require.NoError(t, c.Send(ctx, ip.New("Src", "payload")))
	assert.Equal(t, 1, c.BracketDepth())

	require.NoError(t, c.Send(ctx, ip.NewBracket("Src", ip.CloseBracket, "sub")))
	assert.Equal(t, 0, c.BracketDepth())
}

func TestConnectionBracketCheckOffByDefault(t *testing.T) {
	c := NewConnection(1)
	ctx := context.Background()
	require.NoError(t, c.Send(ctx, ip.NewBracket("Src", ip.CloseBracket, "")))
	assert.Equal(t, 0, c.BracketDepth())
}
