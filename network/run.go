package network

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/fbpcore/component"
	fbperrors "github.com/c360/fbpcore/errors"
	"github.com/c360/fbpcore/eventbus"
	"github.com/c360/fbpcore/ip"
	"github.com/c360/fbpcore/port"
)

// Run validates the graph, materializes connections and IIPs, and runs
// every component concurrently until quiescence, deadlock, or error. It
// blocks until the network reaches a terminal state.
func (net *Network) Run(ctx context.Context) error {
	net.mu.Lock()
	if err := net.requireIdle(); err != nil {
		net.mu.Unlock()
		return err
	}
	analysis := net.validateLocked()
	if !analysis.Healthy {
		net.mu.Unlock()
		return fbperrors.WrapInvalid(fbperrors.ErrRequiredPortUnconnected, net.name, "Run")
	}
	instances, conns := net.materializeLocked()
	net.instances = instances
	net.state = Running
	net.runID = ip.RunID()
	net.suspended = nil
	net.deadlocked = false
	net.cancelled = false
	if net.errorLog != nil {
		net.errorLog.Purge()
	}
	runCtx, cancel := context.WithCancel(ctx)
	net.cancel = cancel
	net.mu.Unlock()

	net.recordRunState(Running)
	net.publish(eventbus.Event{Kind: eventbus.NetworkStarted, Network: net.name})

	// Plain errgroup.Group, deliberately not WithContext: one component's
	// error must not cancel its peers. The faulting instance closes its own
	// ports on exit, which drives neighbours to end-of-stream or
	// DownstreamClosed so the rest of the network drains to natural
	// completion. runCtx is cancelled only by Terminate, strict deadlock,
	// or the caller's context.
	var group errgroup.Group
	for name, in := range instances {
		name, in := name, in
		group.Go(func() error {
			err := in.Run(runCtx)
			if err == nil || errors.Is(err, fbperrors.ErrCancelled) {
				// Cancellation is a scheduler-delivered signal, not a component failure;
				// it is recorded only if a body converts it into something else.
				return nil
			}
			net.recordError(name, err)
			return err
		})
	}

	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		net.monitor(runCtx, cancel, instances, conns)
	}()

	waitCh := make(chan error, 1)
	go func() { waitCh <- group.Wait() }()

	var runErr error
	select {
	case runErr = <-waitCh:
	case <-runCtx.Done():
		// Cancellation (Terminate, strict deadlock, or the parent context) is in
		// flight: components blocked on port operations wake immediately, but a
		// body that never suspends cannot be preempted. Give everything the grace
		// period, then abandon what's left and report it.
		grace := net.opts.GracePeriod
		if grace <= 0 {
			grace = 5 * time.Second
		}
		timer := time.NewTimer(grace)
		select {
		case runErr = <-waitCh:
			timer.Stop()
		case <-timer.C:
			for name, in := range instances {
				if in.State().Live() {
					net.recordError(name, fbperrors.WrapFatal(fbperrors.ErrCancelled, name, "abandoned after grace period"))
				}
			}
			runErr = fbperrors.WrapFatal(fbperrors.ErrCancelled, net.name, "terminate")
		}
	}
	cancel()
	<-monitorDone

	if net.opts.CheckBrackets {
		net.mu.RLock()
		edges := net.edges
		net.mu.RUnlock()
		for i, c := range conns {
			if c.BracketDepth() == 0 || i >= len(edges) {
				continue
			}
			net.recordError(edges[i].From.Component,
				fbperrors.WrapInvalid(fbperrors.ErrUnbalancedBracket, edges[i].From.Component, edges[i].From.Port))
		}
	}

	if runErr == nil {
		runErr = net.aggregateError()
	}

	net.mu.Lock()
	final := Terminated
	if runErr != nil || net.hasRecordedErrors() {
		final = Errored
	}
	net.state = final
	net.mu.Unlock()
	net.recordRunState(final)

	if final == Errored {
		net.publish(eventbus.Event{Kind: eventbus.NetworkErrored, Network: net.name, Message: errMessage(runErr)})
	} else {
		net.publish(eventbus.Event{Kind: eventbus.NetworkTerminated, Network: net.name})
	}

	return runErr
}

// Terminate requests cancellation of an in-progress run. It is a no-op if
// the network is not running.
func (net *Network) Terminate() {
	net.mu.Lock()
	cancel := net.cancel
	if net.state == Running {
		net.state = Terminating
		net.cancelled = true
	}
	net.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (net *Network) publish(ev eventbus.Event) {
	if net.deps.Events == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	net.deps.Events.Publish(ev)
}

func (net *Network) recordError(name string, err error) {
	net.mu.Lock()
	defer net.mu.Unlock()
	if net.errorLog == nil {
		return
	}
	net.errorLog.Add(name+"/"+time.Now().String(), RecordedError{
		Component: name,
		Class:     fbperrors.Classify(err).String(),
		Message:   err.Error(),
		Time:      time.Now(),
	})
}

func (net *Network) hasRecordedErrors() bool {
	return net.errorLog != nil && net.errorLog.Len() > 0
}

// aggregateError folds the recorded error list into a single error for Run
// to surface, or nil when the run recorded nothing. Status carries the full
// per-component report; this is the summary form.
func (net *Network) aggregateError() error {
	net.mu.RLock()
	defer net.mu.RUnlock()
	if net.errorLog == nil || net.errorLog.Len() == 0 {
		return nil
	}
	parts := make([]string, 0, net.errorLog.Len())
	for _, key := range net.errorLog.Keys() {
		if v, ok := net.errorLog.Peek(key); ok {
			parts = append(parts, v.Component+": "+v.Message)
		}
	}
	return fmt.Errorf("%s: %d component error(s): %s", net.name, len(parts), strings.Join(parts, "; "))
}

func (net *Network) recordRunState(s RunState) {
	if net.deps.Metrics != nil {
		net.deps.Metrics.Core.RecordNetworkRunState(net.name, int(s))
	}
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// materializeLocked builds the runtime connections, ports, and
// component.Instance objects from the current node/edge/IIP graph. Caller
// must hold net.mu.
func (net *Network) materializeLocked() (map[string]*component.Instance, []*port.Connection) {
	conns := make([]*port.Connection, len(net.edges))
	for i, e := range net.edges {
		conns[i] = port.NewConnection(e.Capacity)
		if net.opts.CheckBrackets {
			conns[i].EnableBracketCheck()
		}
	}

	instances := make(map[string]*component.Instance, len(net.nodes))
	for name, n := range net.nodes {
		ins := make(map[string]*port.InPort)
		inArrays := make(map[string]*port.InArray)
		outs := make(map[string]*port.OutPort)
		outArrays := make(map[string]*port.OutArray)

		for _, spec := range n.desc.InPorts {
			if spec.Array {
				arr := port.NewInArray(spec, name, specArraySize(spec))
				for i, e := range net.edges {
					if e.To.Component == name && e.To.Port == spec.Name && e.To.Index != nil {
						_ = arr.AddAt(*e.To.Index, conns[i])
					}
				}
				for _, it := range net.iips {
					if it.To.Component == name && it.To.Port == spec.Name && it.To.Index != nil {
						_ = arr.AddAt(*it.To.Index, port.NewIIP(name, it.Value))
					}
				}
				inArrays[spec.Name] = arr
				continue
			}

			var conn *port.Connection
			for i, e := range net.edges {
				if e.To.Component == name && e.To.Port == spec.Name {
					conn = conns[i]
					break
				}
			}
			if conn == nil {
				for _, it := range net.iips {
					if it.To.Component == name && it.To.Port == spec.Name {
						conn = port.NewIIP(name, it.Value)
						break
					}
				}
			}
			if conn == nil && spec.HasDefault {
				conn = port.NewIIP(name, spec.Default)
			}
			ins[spec.Name] = port.NewInPort(spec, name, conn)
		}

		for _, spec := range n.desc.OutPorts {
			if spec.Array {
				arr := port.NewOutArray(spec, name, specArraySize(spec))
				for i, e := range net.edges {
					if e.From.Component == name && e.From.Port == spec.Name && e.From.Index != nil {
						_ = arr.AddAt(*e.From.Index, conns[i])
					}
				}
				outArrays[spec.Name] = arr
				continue
			}

			var cs []*port.Connection
			for i, e := range net.edges {
				if e.From.Component == name && e.From.Port == spec.Name {
					cs = append(cs, conns[i])
				}
			}
			outs[spec.Name] = port.NewOutPort(spec, name, cs...)
		}

		logger := component.NewLogger(net.name, name, net.deps.GetLogger(), net.deps.Events)
		instances[name] = component.NewInstance(name, net.name, n.comp, ins, inArrays, outs, outArrays, logger, net.deps.Metrics, net.deps.Events)
	}
	return instances, conns
}
