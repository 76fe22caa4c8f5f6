package port

import (
	"context"
	"sync"

	fbperrors "github.com/c360/fbpcore/errors"
	"github.com/c360/fbpcore/ip"
)

// Connection is a bounded FIFO between exactly one output port and one input
// port. The data queue is backed by a buffered Go channel, which already
// gives FIFO ordering and native blocking send/receive; Connection adds the
// two independent close directions the model requires (producer "upstream-
// closed" vs. consumer "close()") and cancellation/timeout via context.
type Connection struct {
	capacity int
	data     chan *ip.Packet

	producerOnce sync.Once
	producerDone chan struct{} // closed once CloseProducer has run

	consumerOnce sync.Once
	consumerDone chan struct{} // closed once CloseConsumer has run

	mu      sync.Mutex
	dropped int // packets discarded because the consumer closed early

	checkBrackets bool
	bracketDepth  int // open brackets sent but not yet closed; guarded by mu
}

// NewConnection creates an empty connection with the given capacity,
// clamped to at least 1.
func NewConnection(capacity int) *Connection {
	if capacity < 1 {
		capacity = 1
	}
	return &Connection{
		capacity:     capacity,
		data:         make(chan *ip.Packet, capacity),
		producerDone: make(chan struct{}),
		consumerDone: make(chan struct{}),
	}
}

// NewIIP creates a one-shot connection pre-loaded with value, closed
// immediately after: the first Receive yields the packet, every subsequent
// Receive observes end-of-stream.
func NewIIP(creator string, value any) *Connection {
	c := NewConnection(1)
	c.data <- ip.New(creator, value)
	close(c.data)
	close(c.producerDone)
	return c
}

// Capacity returns the connection's fixed queue capacity.
func (c *Connection) Capacity() int { return c.capacity }

// Len returns the number of packets currently queued, used by the
// scheduler's deadlock detector and by metrics.
func (c *Connection) Len() int { return len(c.data) }

// IsProducerClosed reports whether the upstream output port has closed.
func (c *Connection) IsProducerClosed() bool {
	select {
	case <-c.producerDone:
		return true
	default:
		return false
	}
}

// IsConsumerClosed reports whether the downstream input port has closed.
func (c *Connection) IsConsumerClosed() bool {
	select {
	case <-c.consumerDone:
		return true
	default:
		return false
	}
}

// IsDrained reports upstream-closed-and-empty: the condition under which a
// receiver observes end-of-stream.
func (c *Connection) IsDrained() bool {
	return c.IsProducerClosed() && len(c.data) == 0
}

// EnableBracketCheck turns on the optional bracket-nesting checker for this
// connection: a close-bracket sent with no matching open-bracket fails the
// Send, and a nonzero depth left at producer close is reported through
// BracketDepth. Off by default; the runtime enables it per
// RunOptions.CheckBrackets.
func (c *Connection) EnableBracketCheck() {
	c.mu.Lock()
	c.checkBrackets = true
	c.mu.Unlock()
}

// BracketDepth returns the number of open brackets sent on this connection
// that have not been closed. Always zero unless EnableBracketCheck was
// called.
func (c *Connection) BracketDepth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bracketDepth
}

// trackBracket updates the nesting depth for pkt, rejecting an underflow.
func (c *Connection) trackBracket(pkt *ip.Packet) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.checkBrackets {
		return nil
	}
	switch pkt.Role() {
	case ip.OpenBracket:
		c.bracketDepth++
	case ip.CloseBracket:
		if c.bracketDepth == 0 {
			return fbperrors.ErrUnbalancedBracket
		}
		c.bracketDepth--
	}
	return nil
}

// Send delivers pkt to the connection, blocking if the queue is full until
// space is available, the consumer closes, or ctx is done. ctx carrying a
// deadline implements the optional send timeout; a cancelled
// parent context implements Network.terminate() cancellation.
func (c *Connection) Send(ctx context.Context, pkt *ip.Packet) error {
	select {
	case <-c.consumerDone:
		return fbperrors.ErrDownstreamClosed
	default:
	}

	if err := c.trackBracket(pkt); err != nil {
		return err
	}

	pkt.ClearOwner()
	select {
	case c.data <- pkt:
		return nil
	case <-c.consumerDone:
		return fbperrors.ErrDownstreamClosed
	case <-ctx.Done():
		return classifyCtxErr(ctx)
	}
}

// Receive returns the next packet, blocking until one is available, the
// connection is drained, or ctx is done. A nil packet with a nil error means
// end-of-stream.
func (c *Connection) Receive(ctx context.Context, receiver string) (*ip.Packet, error) {
	select {
	case pkt, ok := <-c.data:
		if !ok {
			return nil, nil
		}
		pkt.SetOwner(receiver)
		return pkt, nil
	case <-ctx.Done():
		return nil, classifyCtxErr(ctx)
	}
}

// CloseProducer marks the connection upstream-closed.
func (c *Connection) CloseProducer() {
	c.producerOnce.Do(func() {
		close(c.producerDone)
		close(c.data)
	})
}

// CloseConsumer closes the connection from the downstream side. Any packets
// still queued are discarded and reported as dropped for the caller to log
// as a warning. Idempotent.
func (c *Connection) CloseConsumer() (dropped int) {
	c.consumerOnce.Do(func() {
		close(c.consumerDone)
		c.mu.Lock()
		c.dropped = len(c.data)
		c.mu.Unlock()
		// Drain so a blocked Send sees room (it will also observe
		// consumerDone and bail out, but draining avoids leaving any
		// packets referenced after close).
		for {
			select {
			case _, ok := <-c.data:
				if !ok {
					return
				}
			default:
				return
			}
		}
	})
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

func classifyCtxErr(ctx context.Context) error {
	if ctx.Err() == context.DeadlineExceeded {
		return fbperrors.ErrTimeout
	}
	return fbperrors.ErrCancelled
}
