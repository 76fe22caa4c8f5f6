// Package port implements Port and Connection: the bounded FIFO channel
// with blocking send/receive, close semantics, and IIP injection that
// components communicate through.
package port

import "reflect"

// Type is the advisory, per-port payload contract. A distinguished Any
// type disables validation for a port entirely.
type Type struct {
	// Name identifies the type for build-time agreement between a
	// connection's two ports: types at both ends of a connection must
	// agree at build time, enforced by Network.Connect.
	Name string
	// Validate, if set, is applied to every payload sent on an output port
	// declaring this type. A non-nil error becomes a TypeError in the producing
	// component.
	Validate func(contents any) error
	// Clone, if set, is used to duplicate a payload for fan-out delivery. May
	// be left nil for types whose Go representation is a plain value (see
	// Cloneable).
	Clone func(contents any) any
	// Sample is a zero-value instance of this type's Go representation,
	// used only by network.Connect's build-time fan-out check (cloneable)
	// to tell whether payloads of this type are safe to duplicate without
	// an explicit Clone hook. Left nil, a type with no Clone is treated as
	// fan-out-ineligible beyond a single connection.
	Sample any
}

// Any disables validation and permits connection to a port of any other
// declared type.
var Any = Type{Name: "any"}

// compatible reports whether a connects to b at build time. Any is
// compatible with everything; otherwise names must match exactly.
func (t Type) compatible(other Type) bool {
	return t.Name == "any" || other.Name == "any" || t.Name == other.Name
}

func (t Type) validate(contents any) error {
	if t.Validate == nil {
		return nil
	}
	return t.Validate(contents)
}

// Cloneable reports whether this type's payloads may be safely duplicated
// for a fan-out output port: either an explicit Clone hook is provided, or
// Sample has a Go kind that is copied by value (so sharing it across
// downstreams cannot let one mutate what another sees). A type declaring
// neither is conservatively treated as not fan-out-eligible beyond a single
// connection.
func (t Type) Cloneable() bool {
	if t.Clone != nil {
		return true
	}
	if t.Sample == nil {
		return false
	}
	switch reflect.ValueOf(t.Sample).Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		return false
	default:
		return true
	}
}
