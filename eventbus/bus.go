package eventbus

import (
	"context"
	"sync"
)

// Bus is an in-process publish/subscribe fan-out of Events for subscribers
// in the same process; the HTTP control surface does not expose it. Publish never
// blocks: a subscriber whose buffer is full silently misses events rather
// than stalling the network, matching the logging package's own "best
// effort, never blocks the hot path" stance.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
	sink Sink
}

// Sink receives every event published to a Bus, used to mirror the stream
// to an external system such as NATS.
type Sink interface {
	Publish(Event)
}

// New creates an empty bus. sink may be nil.
func New(sink Sink) *Bus {
	return &Bus{subs: make(map[int]chan Event), sink: sink}
}

// Subscribe registers a new listener with the given buffer size, returning
// the channel to read from and an unsubscribe function.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, unsubscribe
}

// Publish delivers ev to every current subscriber and the sink, if any.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	if b.sink != nil {
		b.sink.Publish(ev)
	}
}

// Drain reads events off ch until ctx is done or ch is closed, invoking fn
// for each.
func Drain(ctx context.Context, ch <-chan Event, fn func(Event)) {
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			fn(ev)
		case <-ctx.Done():
			return
		}
	}
}
