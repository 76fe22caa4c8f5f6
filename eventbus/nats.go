package eventbus

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	fbperrors "github.com/c360/fbpcore/errors"
)

// ConnectionStatus mirrors the lifecycle of the underlying NATS connection
// for diagnostics.
type ConnectionStatus int

const (
	StatusDisconnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
	StatusCircuitOpen
)

func (s ConnectionStatus) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusCircuitOpen:
		return "circuit_open"
	default:
		return "disconnected"
	}
}

// NATSSink publishes every Event as JSON to a subject derived from the
// network name, with a circuit breaker around the publish path so a flapping
// NATS connection degrades the event stream instead of the network's own
// scheduling.
type NATSSink struct {
	subjectPrefix string
	conn          *nats.Conn

	status   atomic.Value // ConnectionStatus
	failures atomic.Int32
	backoff  atomic.Value // time.Duration

	circuitThreshold int32
	maxBackoff       time.Duration

	mu sync.Mutex
}

// NewNATSSink wires a sink around an already-connected *nats.Conn. Events
// are published under "<subjectPrefix>.<network>.<kind>".
func NewNATSSink(conn *nats.Conn, subjectPrefix string) *NATSSink {
	s := &NATSSink{
		conn:             conn,
		subjectPrefix:    subjectPrefix,
		circuitThreshold: 5,
		maxBackoff:       30 * time.Second,
	}
	s.status.Store(StatusConnected)
	s.backoff.Store(time.Second)
	return s
}

// Status reports the sink's current circuit-breaker state.
func (s *NATSSink) Status() ConnectionStatus {
	return s.status.Load().(ConnectionStatus)
}

// Publish implements Sink. A publish error opens the circuit after
// circuitThreshold consecutive failures and self-heals via testCircuit after
// backoff.
func (s *NATSSink) Publish(ev Event) {
	if s.Status() == StatusCircuitOpen {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	subject := s.subjectPrefix + "." + ev.Network + "." + string(ev.Kind)
	if err := s.conn.Publish(subject, data); err != nil {
		s.recordFailure()
		return
	}
	s.resetCircuit()
}

func (s *NATSSink) recordFailure() {
	n := s.failures.Add(1)
	if n < s.circuitThreshold {
		return
	}
	if s.status.CompareAndSwap(StatusConnected, StatusCircuitOpen) {
		backoff := s.backoff.Load().(time.Duration)
		next := backoff * 2
		if next > s.maxBackoff {
			next = s.maxBackoff
		}
		s.backoff.Store(next)
		time.AfterFunc(backoff, s.testCircuit)
	}
}

func (s *NATSSink) resetCircuit() {
	s.failures.Store(0)
	s.backoff.Store(time.Second)
	s.status.Store(StatusConnected)
}

func (s *NATSSink) testCircuit() {
	if s.Status() == StatusCircuitOpen {
		s.status.Store(StatusConnected)
		s.failures.Store(0)
	}
}

// Connect dials url and returns a ready NATSSink, failing fast rather than
// retrying indefinitely — retry policy belongs to the caller.
func Connect(ctx context.Context, url, subjectPrefix string) (*NATSSink, error) {
	opts := []nats.Option{nats.Timeout(5 * time.Second)}
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fbperrors.WrapTransient(err, "NATSSink", "Connect")
	}
	select {
	case <-ctx.Done():
		conn.Close()
		return nil, fbperrors.WrapTransient(ctx.Err(), "NATSSink", "Connect")
	default:
	}
	return NewNATSSink(conn, subjectPrefix), nil
}

// Close closes the underlying NATS connection; it does not drain it first.
func (s *NATSSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
	}
}
