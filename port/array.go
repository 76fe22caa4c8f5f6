package port

import (
	"context"
	"reflect"

	fbperrors "github.com/c360/fbpcore/errors"
	"github.com/c360/fbpcore/ip"
)

// InArray is an array input port: a base name with an arity policy governing
// how many numbered sub-ports it may hold. Indices are stable once assigned;
// Compact must be called explicitly to reclaim slots left nil by a never-
// connected elastic/connection-indexed index.
type InArray struct {
	spec  Spec
	owner string
	ports []*InPort
}

// NewInArray creates an array input port. size pre-allocates slots for a
// Fixed arity; it is ignored for Elastic and ConnectionIndexed policies,
// which start empty.
func NewInArray(spec Spec, owner string, size int) *InArray {
	a := &InArray{spec: spec, owner: owner}
	if spec.Arity.Kind == Fixed {
		a.ports = make([]*InPort, size)
	}
	return a
}

// Spec returns the array's static declaration.
func (a *InArray) Spec() Spec { return a.spec }

// Len returns the current number of index slots, including unconnected
// ones.
func (a *InArray) Len() int { return len(a.ports) }

// At returns the sub-port at index, or nil if unconnected.
func (a *InArray) At(index int) *InPort {
	if index < 0 || index >= len(a.ports) {
		return nil
	}
	return a.ports[index]
}

// AddAt binds conn at index, growing the slice for Elastic and
// ConnectionIndexed arrays. A Fixed array rejects an out-of-range index with
// ErrArityExceeded.
func (a *InArray) AddAt(index int, conn *Connection) error {
	if index < 0 {
		return fbperrors.ErrArityExceeded
	}
	if a.spec.Arity.Kind == Fixed && index >= len(a.ports) {
		return fbperrors.ErrArityExceeded
	}
	for index >= len(a.ports) {
		a.ports = append(a.ports, nil)
	}
	if a.ports[index] != nil {
		return fbperrors.ErrPortAlreadyInitialized
	}
	a.ports[index] = NewInPort(a.spec, a.owner, conn)
	return nil
}

// Add appends conn at the next free index, the common case for Elastic
// arrays.
func (a *InArray) Add(conn *Connection) (int, error) {
	index := len(a.ports)
	if err := a.AddAt(index, conn); err != nil {
		return 0, err
	}
	return index, nil
}

// Compact removes unconnected slots, reindexing survivors from zero. Freed
// slots are reused only here: indices stay stable unless Compact is called
// explicitly.
func (a *InArray) Compact() {
	kept := a.ports[:0]
	for _, p := range a.ports {
		if p != nil {
			kept = append(kept, p)
		}
	}
	a.ports = kept
}

// Close closes every connected sub-port from the consumer side, returning
// the total packets dropped across all of them.
func (a *InArray) Close() int {
	dropped := 0
	for _, p := range a.ports {
		if p != nil {
			dropped += p.Close()
		}
	}
	return dropped
}

// ReceiveAll implements a synchronized input collection: it reads one packet
// from every connected sub-port as an atomic group. If any sub-port reaches
// end-of-stream, the whole group ends: ReceiveAll returns (nil, nil).
func (a *InArray) ReceiveAll(ctx context.Context) (map[int]*ip.Packet, error) {
	group := make(map[int]*ip.Packet, len(a.ports))
	for i, p := range a.ports {
		if p == nil {
			continue
		}
		pkt, err := p.Receive(ctx)
		if err != nil {
			return nil, err
		}
		if pkt == nil {
			return nil, nil
		}
		group[i] = pkt
	}
	return group, nil
}

// ReceiveAny implements an eager input collection: it returns the first
// packet to arrive on any connected sub-port, along with that sub-port's
// index. Sub-ports already at end-of-stream are skipped; ReceiveAny returns
// (-1, nil, nil) once every sub-port is drained.
func (a *InArray) ReceiveAny(ctx context.Context) (int, *ip.Packet, error) {
	type candidate struct {
		index int
		conn  *Connection
	}
	var live []candidate
	for i, p := range a.ports {
		if p == nil || p.Conn == nil {
			continue
		}
		if p.Conn.IsDrained() {
			continue
		}
		live = append(live, candidate{i, p.Conn})
	}
	if len(live) == 0 {
		return -1, nil, nil
	}

	cases := make([]reflect.SelectCase, 0, len(live)+1)
	for _, c := range live {
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(c.conn.data)})
	}
	cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())})

	chosen, value, ok := reflect.Select(cases)
	if chosen == len(live) {
		return -1, nil, classifyCtxErr(ctx)
	}
	if !ok {
		// That sub-port drained between the liveness scan and the select;
		// retry against the remaining candidates.
		return a.ReceiveAny(ctx)
	}
	pkt := value.Interface().(*ip.Packet)
	pkt.SetOwner(a.owner)
	return live[chosen].index, pkt, nil
}

// OutArray is an array output port: a base name with one OutPort per index.
// Unlike InArray it has no collection operations; components address a
// specific index directly.
type OutArray struct {
	spec  Spec
	owner string
	ports []*OutPort
}

// NewOutArray creates an array output port with size pre-allocated slots.
func NewOutArray(spec Spec, owner string, size int) *OutArray {
	return &OutArray{spec: spec, owner: owner, ports: make([]*OutPort, size)}
}

// Spec returns the array's static declaration.
func (a *OutArray) Spec() Spec { return a.spec }

// Len returns the current number of index slots.
func (a *OutArray) Len() int { return len(a.ports) }

// At returns the sub-port at index, or nil if unconnected.
func (a *OutArray) At(index int) *OutPort {
	if index < 0 || index >= len(a.ports) {
		return nil
	}
	return a.ports[index]
}

// AddAt binds conn at index, growing the slice as needed.
func (a *OutArray) AddAt(index int, conn *Connection) error {
	if index < 0 {
		return fbperrors.ErrArityExceeded
	}
	if a.spec.Arity.Kind == Fixed && index >= len(a.ports) {
		return fbperrors.ErrArityExceeded
	}
	for index >= len(a.ports) {
		a.ports = append(a.ports, nil)
	}
	if a.ports[index] == nil {
		a.ports[index] = NewOutPort(a.spec, a.owner)
	}
	a.ports[index].AddConn(conn)
	return nil
}

// SendAt sends contents on the sub-port at index.
func (a *OutArray) SendAt(ctx context.Context, index int, contents any) error {
	p := a.At(index)
	if p == nil {
		return fbperrors.ErrUnknownPort
	}
	return p.Send(ctx, contents)
}

// Close closes every connected sub-port.
func (a *OutArray) Close() {
	for _, p := range a.ports {
		if p != nil {
			p.Close()
		}
	}
}
