package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	events []Event
}

func (r *recordingSink) Publish(ev Event) { r.events = append(r.events, ev) }

func TestBusDeliversToAllSubscribers(t *testing.T) {
	b := New(nil)
	chA, unsubA := b.Subscribe(4)
	defer unsubA()
	chB, unsubB := b.Subscribe(4)
	defer unsubB()

	b.Publish(Event{Kind: ComponentStarted, Network: "net1", Component: "Source"})

	select {
	case ev := <-chA:
		assert.Equal(t, ComponentStarted, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("subscriber A never received event")
	}
	select {
	case ev := <-chB:
		assert.Equal(t, "Source", ev.Component)
	case <-time.After(time.Second):
		t.Fatal("subscriber B never received event")
	}
}

func TestBusPublishMirrorsToSink(t *testing.T) {
	sink := &recordingSink{}
	b := New(sink)
	b.Publish(Event{Kind: NetworkStarted, Network: "net1"})
	require.Len(t, sink.events, 1)
	assert.Equal(t, NetworkStarted, sink.events[0].Kind)
}

func TestBusPublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	b := New(nil)
	ch, unsub := b.Subscribe(1)
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Publish(Event{Kind: PacketSent, Network: "net1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber buffer")
	}
	<-ch
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	b := New(nil)
	ch, unsub := b.Subscribe(1)
	unsub()

	_, ok := <-ch
	assert.False(t, ok)
}
