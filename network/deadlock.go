package network

import (
	"context"
	"time"

	"github.com/c360/fbpcore/component"
	fbperrors "github.com/c360/fbpcore/errors"
	"github.com/c360/fbpcore/eventbus"
	"github.com/c360/fbpcore/port"
)

// monitor polls component states until quiescence or deadlock. It runs on
// its own goroutine alongside the per-component goroutines launched by Run
// and returns once the run is over or cancelled.
func (net *Network) monitor(ctx context.Context, cancel context.CancelFunc, instances map[string]*component.Instance, conns []*port.Connection) {
	interval := net.opts.PollInterval
	if interval <= 0 {
		interval = 5 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastSuspended []string
	stableRounds := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		net.sampleConnectionDepths(conns)

		live := liveInstances(instances)
		if len(live) == 0 {
			return // quiescent: every component terminated or errored
		}

		suspended, allSuspended := suspendedSet(live)
		if !allSuspended {
			stableRounds = 0
			lastSuspended = nil
			continue
		}
		if !sameSet(suspended, lastSuspended) {
			lastSuspended = suspended
			stableRounds = 1
			continue
		}
		stableRounds++
		// Require two stable polls before declaring deadlock: a component
		// legitimately transiting Active between suspensions should not
		// trip a false positive on a single sample.
		if stableRounds < 2 {
			continue
		}

		if net.queueFeedsSuspendedReceiver(instances, conns) {
			stableRounds = 0
			continue
		}

		net.onDeadlock(suspended, live, conns, cancel)
		return
	}
}

// sampleConnectionDepths reports each connection's current queue depth to
// metrics and the event stream.
func (net *Network) sampleConnectionDepths(conns []*port.Connection) {
	if net.deps.Metrics == nil && net.deps.Events == nil {
		return
	}
	net.mu.RLock()
	edges := net.edges
	net.mu.RUnlock()

	for i, c := range conns {
		if i >= len(edges) {
			continue
		}
		e := edges[i]
		depth := c.Len()
		if net.deps.Metrics != nil {
			net.deps.Metrics.Core.RecordConnectionDepth(net.name, e.From.Component, e.To.Component, depth)
		}
		if net.deps.Events == nil {
			continue
		}
		if depth >= c.Capacity() {
			net.publish(eventbus.Event{Kind: eventbus.ConnectionFull, Network: net.name, From: e.From.Component, To: e.To.Component})
		} else if depth == 0 {
			net.publish(eventbus.Event{Kind: eventbus.ConnectionDrained, Network: net.name, From: e.From.Component, To: e.To.Component})
		}
	}
}

func liveInstances(instances map[string]*component.Instance) []*component.Instance {
	live := make([]*component.Instance, 0, len(instances))
	for _, in := range instances {
		if in.State().Live() {
			live = append(live, in)
		}
	}
	return live
}

func suspendedSet(live []*component.Instance) ([]string, bool) {
	names := make([]string, 0, len(live))
	for _, in := range live {
		if !in.State().Suspended() {
			return nil, false
		}
		names = append(names, in.Name())
	}
	return names, true
}

// queueFeedsSuspendedReceiver reports whether some queued packet can still
// be consumed: a non-empty connection only represents possible progress when
// its consumer is blocked in receive and will wake to drain it. A non-empty
// queue whose consumer is itself blocked in send (a wedged send cycle: every
// queue full, every producer stalled) is not progress, and must not keep the
// deadlock declaration from firing.
func (net *Network) queueFeedsSuspendedReceiver(instances map[string]*component.Instance, conns []*port.Connection) bool {
	net.mu.RLock()
	edges := net.edges
	net.mu.RUnlock()

	for i, c := range conns {
		if c.Len() == 0 || i >= len(edges) {
			continue
		}
		consumer, ok := instances[edges[i].To.Component]
		if !ok {
			continue
		}
		if consumer.State() == component.SuspendedReceive {
			return true
		}
	}
	return false
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]bool, len(a))
	for _, n := range a {
		seen[n] = true
	}
	for _, n := range b {
		if !seen[n] {
			return false
		}
	}
	return true
}

// onDeadlock applies RunOptions.Deadlock once the deadlock condition has held
// stably: every live component suspended, and no queued packet has a
// receiver that could drain it.
func (net *Network) onDeadlock(suspended []string, live []*component.Instance, conns []*port.Connection, cancel context.CancelFunc) {
	net.mu.Lock()
	net.suspended = suspended
	net.deadlocked = true
	net.mu.Unlock()

	if net.deps.Metrics != nil {
		net.deps.Metrics.Core.RecordDeadlock(net.name)
	}
	net.publish(eventbus.Event{Kind: eventbus.NetworkDeadlocked, Network: net.name, Message: joinNames(suspended)})

	if net.opts.Deadlock == DeadlockStrict {
		net.recordError(net.name, fbperrors.WrapFatal(fbperrors.ErrDeadlock, net.name, "deadlock"))
		cancel()
		return
	}

	drained := net.drainSuspendedReceivers(live, conns)
	if !drained {
		// No suspended-receive component exists to unstick (e.g. a pure
		// blocked-send cycle like two components each stalled on a full
		// mutual connection): lenient mode has nothing to drain, so it
		// falls back to reporting the deadlock.
		net.recordError(net.name, fbperrors.WrapFatal(fbperrors.ErrDeadlock, net.name, "deadlock"))
		cancel()
	}
}

// drainSuspendedReceivers force-closes, from the producer side, every
// connection feeding a component currently suspended-receive, letting those
// receives return end-of-stream instead of blocking forever. It reports
// whether any connection was actually closed.
func (net *Network) drainSuspendedReceivers(live []*component.Instance, conns []*port.Connection) bool {
	net.mu.RLock()
	edges := net.edges
	net.mu.RUnlock()

	closedAny := false
	for _, in := range live {
		if in.State() != component.SuspendedReceive {
			continue
		}
		name := in.Name()
		for i, e := range edges {
			if e.To.Component != name {
				continue
			}
			conns[i].CloseProducer()
			closedAny = true
		}
	}
	return closedAny
}

func joinNames(names []string) string {
	s := ""
	for i, n := range names {
		if i > 0 {
			s += ","
		}
		s += n
	}
	return s
}
