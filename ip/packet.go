// Package ip implements the Information Packet (IP): the immutable, owned
// unit of data that flows between components over connections.
package ip

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Role distinguishes a normal data packet from the bracket packets used to
// mark substream boundaries.
type Role int

const (
	// Normal carries a payload.
	Normal Role = iota
	// OpenBracket marks the start of a substream. Carries no payload.
	OpenBracket
	// CloseBracket marks the end of a substream. Carries no payload.
	CloseBracket
)

func (r Role) String() string {
	switch r {
	case Normal:
		return "normal"
	case OpenBracket:
		return "open-bracket"
	case CloseBracket:
		return "close-bracket"
	default:
		return "unknown"
	}
}

var sequence atomic.Uint64

// Packet is a typed, owned unit of data. A Packet is never mutated after
// creation; "ownership" tracks which component or connection currently has
// the right to act on it.
type Packet struct {
	id       uint64
	contents any
	role     Role
	label    string // bracket label, empty for Normal packets
	creator  string // name of the component that created this packet
	owner    string // "" once queued on a connection; set to a component name while held
}

// New creates a normal packet. Only the component that owns
// the producing port may create packets; callers are expected to call this
// from inside a component body, which is why creator is required explicitly
// rather than inferred.
func New(creator string, contents any) *Packet {
	return &Packet{
		id:       sequence.Add(1),
		contents: contents,
		role:     Normal,
		creator:  creator,
		owner:    creator,
	}
}

// NewBracket creates an open or close bracket packet with an optional label.
func NewBracket(creator string, role Role, label string) *Packet {
	if role == Normal {
		role = OpenBracket
	}
	return &Packet{
		id:      sequence.Add(1),
		role:    role,
		label:   label,
		creator: creator,
		owner:   creator,
	}
}

// ID returns a process-unique, monotonically increasing packet identifier,
// used for FIFO assertions in tests and for leak/event reporting.
func (p *Packet) ID() uint64 { return p.id }

// Contents returns the packet's payload. Non-destructive; may be called any
// number of times.
func (p *Packet) Contents() any { return p.contents }

// Role reports whether this is a normal or bracket packet.
func (p *Packet) Role() Role { return p.role }

// Label returns the bracket label, or "" for Normal packets or unlabeled
// brackets.
func (p *Packet) Label() string { return p.label }

// Creator returns the name of the component that created this packet,
// attached for leak-report diagnostics.
func (p *Packet) Creator() string { return p.creator }

// Owner returns the name of the component that currently owns this packet,
// or "" if the packet is in transit on a connection's queue.
func (p *Packet) Owner() string { return p.owner }

// SetOwner transfers ownership. Called by the runtime at the send/receive
// boundary; not part of the component-facing API.
func (p *Packet) SetOwner(owner string) { p.owner = owner }

// ClearOwner marks the packet as owned by a connection (in transit).
func (p *Packet) ClearOwner() { p.owner = "" }

// Clone produces an independent copy for fan-out duplication. If clone (the
// port type's Clone func) is non-nil it copies the contents; otherwise the
// contents value is copied as-is, which is only safe for plain (non-reference) Go values —
// callers validate this at build time via the type's Cloneable check before
// allowing fan-out (see port.Type).
func (p *Packet) Clone(newOwner string, clone func(any) any) *Packet {
	contents := p.contents
	if clone != nil {
		contents = clone(contents)
	}
	return &Packet{
		id:       sequence.Add(1),
		contents: contents,
		role:     p.role,
		label:    p.label,
		creator:  p.creator,
		owner:    newOwner,
	}
}

// RunID generates an identifier for a single Network.Run invocation, reported
// by Network.Status. Events and log lines do not carry it.
func RunID() string { return uuid.NewString() }
